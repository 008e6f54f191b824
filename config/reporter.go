package config

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"cbe/misc"
)

type ReporterConfig struct {
	Destination string `yaml:"destination" sanitize:"path_clean,assure_dir_exists_for_file" validate:"required,filepath"`
}

// Prepare creates empty report. When destination cannot be created report
// goes to temporary directory.
func (conf *ReporterConfig) Prepare() (*Report, error) {
	f, err := os.Create(conf.Destination)
	if err != nil {
		if f, err = os.CreateTemp("", misc.GetAppName()+"-report.*.zip"); err != nil {
			return nil, fmt.Errorf("unable to create report: %w", err)
		}
	}
	return &Report{file: f, names: make(map[string]int)}, nil
}

// reportEntry is either a file system path picked up on Close or data
// captured when stored.
type reportEntry struct {
	Name   string    `json:"name"`
	Source string    `json:"source,omitempty"`
	Path   string    `json:"path,omitempty"`
	Size   int       `json:"size,omitempty"`
	Stamp  time.Time `json:"stamp"`
	data   []byte
}

// Report collects logs, configuration and session snapshots into a zip
// archive. It is not safe for concurrent use. All methods accept nil
// receiver, which means no report was requested.
type Report struct {
	file    *os.File
	entries []reportEntry
	names   map[string]int
}

// unique returns archive name not used yet, repeated names get numeric
// suffix before extension.
func (r *Report) unique(name string) string {
	n := r.names[name]
	r.names[name] = n + 1
	if n == 0 {
		return name
	}
	ext := filepath.Ext(name)
	return name[:len(name)-len(ext)] + "-" + strconv.Itoa(n+1) + ext
}

// Close writes archive.
func (r *Report) Close() error {
	if r == nil || r.file == nil {
		return nil
	}
	defer r.file.Close()
	return r.finalize()
}

// Name returns absolute name of the archive.
func (r *Report) Name() string {
	if r == nil || r.file == nil {
		return ""
	}
	if n, err := filepath.Abs(r.file.Name()); err == nil {
		return n
	}
	return r.file.Name()
}

// Store remembers file or directory to be archived under name. Content is
// read on Close, so logs still being written end up complete.
func (r *Report) Store(name, path string) {
	if r == nil {
		return
	}
	e := reportEntry{Name: r.unique(name), Source: path, Path: path}
	if p, err := filepath.Abs(path); err == nil {
		e.Path = p
	}
	r.entries = append(r.entries, e)
}

// StoreData archives copy of data under name.
func (r *Report) StoreData(name string, data []byte) {
	if r == nil {
		return
	}
	r.entries = append(r.entries, reportEntry{
		Name:  r.unique(name),
		Size:  len(data),
		Stamp: time.Now(),
		data:  bytes.Clone(data),
	})
}

// StoreJSON archives indented JSON of v, used for serialized documents and
// session snapshots.
func (r *Report) StoreJSON(name string, v any) error {
	if r == nil {
		return nil
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("unable to marshal report entry %q: %w", name, err)
	}
	r.StoreData(name, data)
	return nil
}

func (r *Report) finalize() error {
	arc := zip.NewWriter(r.file)

	now := time.Now()
	for i := range r.entries {
		if r.entries[i].Stamp.IsZero() {
			r.entries[i].Stamp = now
		}
	}
	manifest, err := json.MarshalIndent(r.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("unable to prepare report manifest: %w", err)
	}
	if err := saveFile(arc, "MANIFEST.json", now, bytes.NewReader(manifest)); err != nil {
		return err
	}

	for _, e := range r.entries {
		if e.data != nil {
			if err := saveFile(arc, e.Name, e.Stamp, bytes.NewReader(e.data)); err != nil {
				return err
			}
			continue
		}
		// absent files are skipped, debug report is best effort
		info, err := os.Stat(e.Path)
		if err != nil {
			continue
		}
		switch {
		case info.Mode().IsRegular():
			err = saveFromDisk(arc, e.Name, e.Path, info.ModTime())
		case info.IsDir():
			err = saveDir(arc, e.Name, e.Path)
		}
		if err != nil {
			return err
		}
	}
	return arc.Close()
}

func saveFile(dst *zip.Writer, name string, t time.Time, src io.Reader) error {
	w, err := dst.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: t})
	if err != nil {
		return err
	}
	_, err = io.Copy(w, src)
	return err
}

func saveFromDisk(dst *zip.Writer, name, path string, t time.Time) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return saveFile(dst, name, t, f)
}

// saveDir archives regular files of dir under name, links and special files
// are skipped.
func saveDir(dst *zip.Writer, name, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		return saveFromDisk(dst, filepath.ToSlash(filepath.Join(name, rel)), path, info.ModTime())
	})
}
