package cli

import (
	"os"
	"path/filepath"

	"github.com/toyz/serupd/internal/errors"
	"github.com/toyz/serupd/internal/utils"
)

// DirectoryScanner finds row class files below a directory
type DirectoryScanner struct {
	fileProcessor *utils.FileProcessor
	pattern       string
	exclude       []string
}

// NewDirectoryScanner creates a scanner matching pattern and skipping
// files whose names start with one of the exclude prefixes
func NewDirectoryScanner(pattern string, exclude []string) *DirectoryScanner {
	return &DirectoryScanner{
		fileProcessor: utils.NewFileProcessor(),
		pattern:       pattern,
		exclude:       exclude,
	}
}

// FindRowFiles recursively collects the row files under root in lexical
// order. Hidden directories and build output are not descended into.
func (s *DirectoryScanner) FindRowFiles(root string) ([]string, error) {
	cleanPath, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.WrapWithOperation("resolve", root, err)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, errors.WrapFileSystemError("scan", root, err)
	}
	if !info.IsDir() {
		return nil, errors.FileSystemError("scan", root, "not a directory").
			WithSuggestion("Pass the directory that contains the *Row.cs files")
	}

	files, err := s.fileProcessor.WalkFiles(cleanPath, utils.FileWalkOptions{
		FileFilter:      utils.RowFileFilter(s.pattern, s.exclude),
		DirectoryFilter: utils.DefaultDirectoryFilter(),
		SkipErrors:      true,
	})
	if err != nil {
		return nil, errors.WrapFileSystemError("scan", root, err)
	}
	return files, nil
}
