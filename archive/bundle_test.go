package archive

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type zipEntry struct {
	name    string
	content string
}

func writeZip(t *testing.T, entries ...zipEntry) string {
	t.Helper()
	name := filepath.Join(t.TempDir(), "bundle.zip")
	f, err := os.Create(name)
	if err != nil {
		t.Fatalf("Failed to create zip file: %v", err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	for _, e := range entries {
		fw, err := w.Create(e.name)
		if err != nil {
			t.Fatalf("Failed to create %s in zip: %v", e.name, err)
		}
		if _, err := fw.Write([]byte(e.content)); err != nil {
			t.Fatalf("Failed to write %s: %v", e.name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close zip: %v", err)
	}
	return name
}

func TestReadFiles(t *testing.T) {
	name := writeZip(t,
		zipEntry{"script.yaml", "steps: []"},
		zipEntry{"images/", ""},
		zipEntry{"images/a.png", "png"},
		zipEntry{"./images/b.svg", "<svg/>"},
	)
	files, err := ReadFiles(name, 1024)
	if err != nil {
		t.Fatalf("ReadFiles() error = %v", err)
	}
	want := map[string]string{
		"script.yaml":  "steps: []",
		"images/a.png": "png",
		"images/b.svg": "<svg/>",
	}
	if len(files) != len(want) {
		t.Errorf("ReadFiles() returned %d files, want %d", len(files), len(want))
	}
	for k, v := range want {
		if string(files[k]) != v {
			t.Errorf("%s = %q, want %q", k, files[k], v)
		}
	}
}

func TestReadFiles_Errors(t *testing.T) {
	tests := []struct {
		name    string
		entries []zipEntry
		limit   int64
		is      error
	}{
		{name: "traversal", entries: []zipEntry{{"../evil.yaml", "x"}}, limit: 10},
		{name: "nested_traversal", entries: []zipEntry{{"a/../../evil", "x"}}, limit: 10},
		{name: "absolute", entries: []zipEntry{{"/etc/passwd", "x"}}, limit: 10},
		{name: "windows_drive", entries: []zipEntry{{`C:\evil`, "x"}}, limit: 10},
		{name: "too_large", entries: []zipEntry{{"big.png", strings.Repeat("x", 11)}}, limit: 10, is: ErrTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadFiles(writeZip(t, tt.entries...), tt.limit)
			if err == nil {
				t.Fatal("ReadFiles() expected error")
			}
			if tt.is != nil && !errors.Is(err, tt.is) {
				t.Errorf("ReadFiles() error = %v, want %v", err, tt.is)
			}
		})
	}
}

func TestReadFiles_NotArchive(t *testing.T) {
	name := filepath.Join(t.TempDir(), "plain.zip")
	if err := os.WriteFile(name, []byte("not a zip"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadFiles(name, 10); err == nil {
		t.Error("ReadFiles() expected error")
	}
}
