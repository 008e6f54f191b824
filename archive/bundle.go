// Package archive reads zip bundles of editing session files.
package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

var ErrTooLarge = errors.New("archive entry is too large")

// ReadFiles returns content of every regular file in archive keyed by its
// slash separated name. An entry with absolute path or ".." component fails
// the whole archive, as does an entry larger than limit bytes.
func ReadFiles(archive string, limit int64) (map[string][]byte, error) {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	files := make(map[string][]byte, len(r.File))
	for _, f := range r.File {
		if !isSafePath(f.Name) {
			return nil, fmt.Errorf("zip entry %q: unsafe path", f.Name)
		}
		if f.FileInfo().IsDir() {
			continue
		}
		if int64(f.UncompressedSize64) > limit {
			return nil, fmt.Errorf("zip entry %q (%d bytes): %w", f.Name, f.UncompressedSize64, ErrTooLarge)
		}
		data, err := readEntry(f, limit)
		if err != nil {
			return nil, fmt.Errorf("zip entry %q: %w", f.Name, err)
		}
		files[path.Clean(f.Name)] = data
	}
	return files, nil
}

// readEntry reads at most limit bytes, headers may lie about size.
func readEntry(f *zip.File, limit int64) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, ErrTooLarge
	}
	return data, nil
}

func isSafePath(name string) bool {
	if path.IsAbs(name) || strings.HasPrefix(name, `\`) || strings.Contains(name, `:`) {
		return false
	}
	for part := range strings.SplitSeq(strings.ReplaceAll(name, `\`, "/"), "/") {
		if part == ".." {
			return false
		}
	}
	return true
}
