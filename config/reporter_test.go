package config

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func readArchive(t *testing.T, name string) map[string]string {
	t.Helper()

	zr, err := zip.OpenReader(name)
	if err != nil {
		t.Fatalf("failed to open report: %v", err)
	}
	defer zr.Close()

	files := make(map[string]string)
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("failed to open %s: %v", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("failed to read %s: %v", f.Name, err)
		}
		files[f.Name] = string(data)
	}
	return files
}

func TestReport_StoreAndClose(t *testing.T) {
	tmpDir := t.TempDir()

	conf := ReporterConfig{Destination: filepath.Join(tmpDir, "report.zip")}
	r, err := conf.Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}

	logPath := filepath.Join(tmpDir, "session.log")
	if err := os.WriteFile(logPath, []byte("log line"), 0644); err != nil {
		t.Fatalf("failed to write log: %v", err)
	}
	r.Store("final.log", logPath)
	r.StoreData("config/config.yaml", []byte("version: 1\n"))
	if err := r.StoreJSON("document.json", map[string]any{"blocks": 2}); err != nil {
		t.Fatalf("StoreJSON() error = %v", err)
	}

	if err := r.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	files := readArchive(t, conf.Destination)
	for _, name := range []string{"MANIFEST.json", "final.log", "config/config.yaml", "document.json"} {
		if _, ok := files[name]; !ok {
			t.Errorf("report is missing %q", name)
		}
	}
	if files["final.log"] != "log line" {
		t.Errorf("final.log = %q", files["final.log"])
	}
	if !strings.Contains(files["document.json"], `"blocks": 2`) {
		t.Errorf("document.json = %q", files["document.json"])
	}
	if !strings.Contains(files["MANIFEST.json"], `"name": "document.json"`) {
		t.Error("MANIFEST.json does not list stored data")
	}
}

func TestReport_Nil(t *testing.T) {
	var r *Report

	r.Store("x", "y")
	r.StoreData("x", nil)
	if err := r.StoreJSON("x", 1); err != nil {
		t.Errorf("StoreJSON() on nil report error = %v", err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close() on nil report error = %v", err)
	}
	if r.Name() != "" {
		t.Errorf("Name() on nil report = %q", r.Name())
	}
}

func TestReport_DuplicateNames(t *testing.T) {
	conf := ReporterConfig{Destination: filepath.Join(t.TempDir(), "report.zip")}
	r, err := conf.Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	r.StoreData("replay/document.txt", []byte("1"))
	r.StoreData("replay/document.txt", []byte("2"))
	r.StoreData("replay/document.txt", []byte("3"))
	r.Store("missing.log", filepath.Join(t.TempDir(), "nothing-here.log"))
	if err := r.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	files := readArchive(t, conf.Destination)
	want := map[string]string{
		"replay/document.txt":   "1",
		"replay/document-2.txt": "2",
		"replay/document-3.txt": "3",
	}
	for name, content := range want {
		if files[name] != content {
			t.Errorf("%s = %q, want %q", name, files[name], content)
		}
	}
	if _, ok := files["missing.log"]; ok {
		t.Error("absent file archived")
	}
}
