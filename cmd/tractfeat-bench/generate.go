package main

import (
	"math/rand"

	"github.com/23skdu/tractfeat/internal/streamline"
)

// randomWalks generates cfg.Streamlines seeded random walks. Each walk
// starts at a random point in a 100-unit cube and takes unit-scale steps
// with a slowly drifting heading, which looks enough like a fiber tract for
// benchmarking purposes.
func randomWalks(cfg Config) []streamline.Streamline {
	rng := rand.New(rand.NewSource(cfg.Seed))
	out := make([]streamline.Streamline, cfg.Streamlines)

	heading := make([]float32, cfg.Dim)
	for i := range out {
		n := cfg.MinPoints + rng.Intn(cfg.MaxPoints-cfg.MinPoints+1)
		data := make([]float32, n*cfg.Dim)
		for j := 0; j < cfg.Dim; j++ {
			data[j] = rng.Float32() * 100
			heading[j] = rng.Float32()*2 - 1
		}
		for p := 1; p < n; p++ {
			prev, cur := data[(p-1)*cfg.Dim:p*cfg.Dim], data[p*cfg.Dim:(p+1)*cfg.Dim]
			for j := range cur {
				heading[j] += (rng.Float32() - 0.5) * 0.2
				cur[j] = prev[j] + heading[j]
			}
		}
		// FromFlat only fails on inconsistent dimensions, which cannot happen here
		out[i], _ = streamline.FromFlat(data, n, cfg.Dim)
	}
	return out
}
