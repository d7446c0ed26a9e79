package storage

import (
	"os"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/23skdu/tractfeat/internal/errors"
	"github.com/23skdu/tractfeat/internal/extraction"
)

// SaveTable writes t to a Zstd-compressed Parquet file at path, replacing
// any existing file. The file is written under a temporary name and renamed
// into place once complete.
func SaveTable(path string, t extraction.Table) error {
	rec := extraction.ToArrow(t, memory.NewGoAllocator())
	defer rec.Release()

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return errors.WrapStorageError(NewFileError("create", tmp, err), "storage.SaveTable", "create temp file")
	}

	if err := WriteParquet(f, rec); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return errors.WrapStorageError(NewFileError("write", tmp, err), "storage.SaveTable", "write parquet")
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return errors.WrapStorageError(NewFileError("write", tmp, err), "storage.SaveTable", "sync")
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return errors.WrapStorageError(NewFileError("write", tmp, err), "storage.SaveTable", "close")
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return errors.WrapStorageError(NewFileError("write", path, err), "storage.SaveTable", "rename")
	}
	return nil
}

// LoadTable reads a table written by SaveTable.
func LoadTable(path string) (extraction.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapStorageError(NewFileError("open", path, err), "storage.LoadTable", "open")
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, errors.WrapStorageError(NewFileError("open", path, err), "storage.LoadTable", "stat")
	}

	rec, err := ReadParquet(f, stat.Size(), memory.NewGoAllocator())
	if err != nil {
		return nil, errors.WrapStorageError(NewFileError("read", path, err), "storage.LoadTable", "read parquet")
	}
	defer rec.Release()

	t, err := extraction.FromArrow(rec)
	if err != nil {
		return nil, errors.WrapStorageError(NewFileError("decode", path, err), "storage.LoadTable", "decode table")
	}
	return t, nil
}
