// Package scan extracts a data model from a directory of generated C#
// entity sources. Each file is classified by structural signature (database
// context vs record type), then scanned line by line to pull out DbSet
// declarations, fields, and attribute annotations. Matching is purely
// lexical: the package recognizes the declaration shapes the scaffolder
// emits and ignores everything else in the files.
package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/efscan/pkg/model"
)

// SourceFile is one candidate file handed to the builder: the path it was
// read from and its full content. The extraction core never touches the
// filesystem itself; everything arrives as SourceFile values.
type SourceFile struct {
	Path    string
	Content string
}

// Scanner reads candidate files from a model directory.
type Scanner struct{}

// NewScanner creates a new directory scanner.
func NewScanner() *Scanner {
	return &Scanner{}
}

// ScanDir collects the .cs files under root in lexical order. It fails with
// PathError, before reading any file, when root does not exist or is not a
// directory.
func (s *Scanner) ScanDir(root string) ([]SourceFile, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, &PathError{Path: root, Err: err}
	}
	if !info.IsDir() {
		return nil, &PathError{Path: root, Err: errNotDirectory}
	}

	var files []SourceFile

	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		// Hidden directories hold state and VCS files, never sources.
		if info.IsDir() {
			if strings.HasPrefix(info.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			return nil
		}

		if !strings.HasSuffix(info.Name(), ".cs") || strings.HasPrefix(info.Name(), ".") {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		files = append(files, SourceFile{Path: path, Content: string(content)})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan directory: %w", err)
	}

	return files, nil
}

// ParseDir scans root and builds a model from every matching file. The
// returned model has not been through dependency resolution or validation;
// any error aborts immediately and the partial model is discarded.
func ParseDir(root string) (*model.Model, error) {
	files, err := NewScanner().ScanDir(root)
	if err != nil {
		return nil, err
	}

	b := NewBuilder()
	for _, f := range files {
		if _, err := b.Add(f); err != nil {
			return nil, err
		}
	}

	m, err := b.Finalize()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", root, err)
	}
	return m, nil
}
