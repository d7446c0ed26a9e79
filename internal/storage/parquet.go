package storage

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/parquet-go/parquet-go"

	"github.com/23skdu/tractfeat/internal/extraction"
	"github.com/23skdu/tractfeat/internal/metrics"
)

// FeatureRecord represents a single extracted item for Parquet serialization
type FeatureRecord struct {
	ID     int32     `parquet:"id"`
	Rows   int32     `parquet:"rows"`
	Cols   int32     `parquet:"cols"`
	Values []float32 `parquet:"values"`
}

// WriteParquet writes one or more Arrow records following extraction.Schema
// to a Parquet writer. A single parquet.Writer is used so the output has one
// footer.
func WriteParquet(w io.Writer, records ...arrow.Record) error {
	start := time.Now()
	pw := parquet.NewGenericWriter[FeatureRecord](w, parquet.Compression(&parquet.Zstd))
	closed := false
	defer func() {
		// Close is not idempotent: a second call appends another footer
		if !closed {
			_ = pw.Close()
		}
	}()

	for _, rec := range records {
		if !rec.Schema().Equal(extraction.Schema) {
			return fmt.Errorf("unexpected record schema: %s", rec.Schema())
		}
		rows := int(rec.NumRows())
		if rows == 0 {
			continue
		}

		ids := rec.Column(0).(*array.Int32)
		shapeRows := rec.Column(1).(*array.Int32)
		shapeCols := rec.Column(2).(*array.Int32)
		values := rec.Column(3).(*array.List)
		flat := values.ListValues().(*array.Float32).Float32Values()

		parquetRecords := make([]FeatureRecord, rows)
		for i := 0; i < rows; i++ {
			start, end := values.ValueOffsets(i)
			parquetRecords[i] = FeatureRecord{
				ID:     ids.Value(i),
				Rows:   shapeRows.Value(i),
				Cols:   shapeCols.Value(i),
				Values: flat[start:end],
			}
		}

		if _, err := pw.Write(parquetRecords); err != nil {
			return err
		}
	}

	closed = true
	err := pw.Close()
	if err == nil {
		metrics.StorageWriteDurationSeconds.Observe(time.Since(start).Seconds())
		if fi, ok := w.(interface{ Stat() (os.FileInfo, error) }); ok {
			if stat, err := fi.Stat(); err == nil {
				metrics.StorageBytes.Observe(float64(stat.Size()))
			}
		}
	}
	return err
}

// ReadParquet reads a Parquet file written by WriteParquet back into an
// Arrow record following extraction.Schema. The caller owns the record.
func ReadParquet(f io.ReaderAt, size int64, mem memory.Allocator) (arrow.Record, error) {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	pf, err := parquet.OpenFile(f, size)
	if err != nil {
		return nil, err
	}

	pr := parquet.NewGenericReader[FeatureRecord](pf)
	defer pr.Close()
	rows := make([]FeatureRecord, pr.NumRows())
	if len(rows) > 0 {
		if _, err := pr.Read(rows); err != nil && err != io.EOF {
			return nil, err
		}
	}

	b := array.NewRecordBuilder(mem, extraction.Schema)
	defer b.Release()

	idBuilder := b.Field(0).(*array.Int32Builder)
	rowsBuilder := b.Field(1).(*array.Int32Builder)
	colsBuilder := b.Field(2).(*array.Int32Builder)
	valuesBuilder := b.Field(3).(*array.ListBuilder)
	valueBuilder := valuesBuilder.ValueBuilder().(*array.Float32Builder)

	for _, row := range rows {
		idBuilder.Append(row.ID)
		rowsBuilder.Append(row.Rows)
		colsBuilder.Append(row.Cols)
		valuesBuilder.Append(true)
		valueBuilder.AppendValues(row.Values, nil)
	}

	return b.NewRecord(), nil
}
