// Package fsutil provides file system utility functions.
package fsutil

import (
	"errors"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
)

// FindFiles recursively searches root for files whose extension is one of
// extensions, compared case-insensitively. Hidden directories below root
// (.git, .cache and the like) are skipped. Paths are returned in lexical
// walk order.
func FindFiles(root string, extensions ...string) ([]string, error) {
	if len(extensions) == 0 {
		return nil, errors.New("at least one extension is required")
	}
	wanted := make([]string, len(extensions))
	for i, ext := range extensions {
		wanted[i] = strings.ToLower(ext)
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if slices.Contains(wanted, strings.ToLower(filepath.Ext(d.Name()))) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
