// Package zip streams a directory tree as a zip archive.
package zip

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrEmpty is returned when the directory holds no regular files.
var ErrEmpty = errors.New("zip: nothing to archive")

// ArchiveDir writes every regular file under root to w. Entry names are
// slash-separated paths relative to root, prefixed with prefix when set.
func ArchiveDir(w io.Writer, root, prefix string) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("zip: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("zip: %s is not a directory", root)
	}

	var files []string
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("zip: walk %s: %w", root, err)
	}
	if len(files) == 0 {
		return ErrEmpty
	}

	zw := zip.NewWriter(w)
	for _, p := range files {
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if prefix != "" {
			name = prefix + "/" + name
		}
		if err := addFile(zw, p, name); err != nil {
			return err
		}
	}
	return zw.Close()
}

func addFile(zw *zip.Writer, path, name string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("zip: open %s: %w", path, err)
	}
	defer f.Close()
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("zip: create entry %s: %w", name, err)
	}
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("zip: write entry %s: %w", name, err)
	}
	return nil
}
