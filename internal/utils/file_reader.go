package utils

import (
	"os"
	"path/filepath"

	"github.com/toyz/serupd/internal/errors"
)

// SourceReader reads and writes source files in place
type SourceReader struct{}

// NewSourceReader creates a new SourceReader instance
func NewSourceReader() *SourceReader {
	return &SourceReader{}
}

// ReadSource returns the raw bytes of filePath
func (r *SourceReader) ReadSource(filePath string) ([]byte, error) {
	content, err := os.ReadFile(filepath.Clean(filePath))
	if err != nil {
		return nil, errors.WrapFileSystemError("read", filePath, err)
	}
	return content, nil
}

// WriteSource replaces the contents of filePath, keeping its permissions.
// The data is written to a temporary file in the same directory first and
// renamed over the original.
func (r *SourceReader) WriteSource(filePath string, data []byte) error {
	cleanPath := filepath.Clean(filePath)

	mode := os.FileMode(0644)
	if info, err := os.Stat(cleanPath); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(cleanPath), "."+filepath.Base(cleanPath)+".*")
	if err != nil {
		return errors.WrapFileSystemError("write", filePath, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.WrapFileSystemError("write", filePath, err)
	}
	if err := tmp.Close(); err != nil {
		return errors.WrapFileSystemError("write", filePath, err)
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		return errors.WrapFileSystemError("write", filePath, err)
	}
	if err := os.Rename(tmpName, cleanPath); err != nil {
		return errors.WrapFileSystemError("replace", filePath, err)
	}
	return nil
}
