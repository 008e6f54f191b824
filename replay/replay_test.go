package replay

import (
	"archive/zip"
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/multierr"
	"go.uber.org/zap/zaptest"

	"cbe/block"
	"cbe/builder"
	"cbe/config"
	"cbe/dom"
)

func newBuilder(t *testing.T, options ...builder.Option) *builder.Builder {
	t.Helper()
	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	b, err := builder.New(&cfg.Editor, nil, zaptest.NewLogger(t), options...)
	if err != nil {
		t.Fatalf("builder.New() error = %v", err)
	}
	t.Cleanup(b.Close)
	return b
}

const session = `
title: Session
steps:
  - insert: {type: heading, index: 0, options: {level: 1}}
  - type: {index: 0, markup: "Hello world"}
  - select: {index: 0, start: 0, end: 5}
  - command: bold
  - insert: {type: table, index: 2}
  - table: {index: 2, op: add-column}
  - table: {index: 2, op: set-cell, row: 0, col: 2, markup: x}
  - insert: {type: list, index: 3}
  - list: {index: 3, op: set, path: [0], markup: one}
  - list: {index: 3, op: insert, path: [1], markup: two}
  - list: {index: 3, op: indent, path: [1]}
  - command: nosuch
  - delete: {index: 99}
  - drag: {from: 0, to: 1}
  - suggest: {query: divider, index: 0}
`

func TestRun(t *testing.T) {
	hub := dom.NewHub()
	b := newBuilder(t, builder.WithWatcher(hub))
	s, err := Parse([]byte(session))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	err = Run(context.Background(), b, hub, s, zaptest.NewLogger(t))
	if errs := multierr.Errors(err); len(errs) != 2 {
		t.Fatalf("Run() errors = %v", errs)
	}
	if !strings.Contains(err.Error(), "step 11 (command)") || !strings.Contains(err.Error(), "step 12 (delete)") {
		t.Errorf("Run() error = %v", err)
	}

	blocks := b.Blocks()
	var kinds []string
	for _, blk := range blocks {
		kinds = append(kinds, blk.Type.String())
	}
	if got := strings.Join(kinds, ","); got != "divider,paragraph,heading,table,list,paragraph" {
		t.Fatalf("blocks = %s", got)
	}
	if got := blocks[2].Content; got != "<strong>Hello</strong> world" {
		t.Errorf("heading = %q", got)
	}
	if tbl := blocks[3].Content.(*block.Table); tbl.Columns() != 3 || tbl.Rows[0][2].Content != "x" {
		t.Errorf("table = %+v", tbl.Rows)
	}
	items := blocks[4].Content.([]block.ListItem)
	if len(items) != 1 || items[0].Content != "one" || len(items[0].Children) != 1 || items[0].Children[0].Content != "two" {
		t.Errorf("list = %+v", items)
	}
}

func TestRun_WithoutNotifier(t *testing.T) {
	b := newBuilder(t)
	s, err := Parse([]byte(`
steps:
  - insert: {type: quote, index: 0}
  - type: {index: 0, part: cite, markup: "To be"}
  - type: {index: 0, part: caption, markup: "Hamlet"}
  - key: {index: 0, part: cite, key: Enter}
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if err := NewRunner(b, nil, nil).Run(context.Background(), s); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	blocks := b.Blocks()
	if len(blocks) != 3 {
		t.Fatalf("blocks = %d, want paragraph split off", len(blocks))
	}
	if !b.Document().Focus().Is(blocks[1].ID) {
		t.Error("split paragraph not focused")
	}
	q := blocks[0].Content.(block.QuoteContent)
	if q.Cite.Content != "To be" || q.Caption.Content != "Hamlet" {
		t.Errorf("quote = %+v", q)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name   string
		script string
	}{
		{"no_action", "steps:\n  - {}\n"},
		{"two_actions", "steps:\n  - {command: bold, drag: {from: 0, to: 1}}\n"},
		{"unknown_field", "steps:\n  - {command: bold, extra: 1}\n"},
		{"not_yaml", "steps: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.script)); err == nil {
				t.Error("Parse() expected error")
			}
		})
	}
}

func TestLoad_Upload(t *testing.T) {
	dir := t.TempDir()
	buf := new(bytes.Buffer)
	if err := png.Encode(buf, image.NewRGBA(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "pic.png"), buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	script := "steps:\n  - insert: {type: image, index: 0}\n  - upload: {index: 0, file: pic.png, alt: picture}\n"
	if err := os.WriteFile(filepath.Join(dir, "s.yaml"), []byte(script), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(filepath.Join(dir, "s.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	b := newBuilder(t, builder.WithUploader(func(_ context.Context, data []byte, _ string) (builder.Image, error) {
		return builder.Image{Src: "https://cdn.example.com/pic.png"}, nil
	}))
	if err := Run(context.Background(), b, nil, s, nil); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	img := b.Blocks()[0].Content.(block.ImageContent)
	if img != (block.ImageContent{Src: "https://cdn.example.com/pic.png", Alt: "picture"}) {
		t.Errorf("image = %+v", img)
	}
}

func TestUpload_Placeholder(t *testing.T) {
	var got []byte
	b := newBuilder(t, builder.WithUploader(func(_ context.Context, data []byte, preview string) (builder.Image, error) {
		got = data
		return builder.Image{Src: preview}, nil
	}))
	s, err := Parse([]byte("steps:\n  - insert: {type: image, index: 0}\n  - upload: {index: 0}\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	svg := []byte(`<svg viewBox="0 0 20 10" xmlns="http://www.w3.org/2000/svg"><rect width="20" height="10" fill="red"/></svg>`)

	if err := NewRunner(b, nil, nil).Run(context.Background(), s); err == nil {
		t.Error("upload without image succeeded")
	}
	if err := NewRunner(b, nil, nil, WithPlaceholder(svg)).Run(context.Background(), s); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !bytes.Equal(got, svg) {
		t.Error("placeholder was not uploaded")
	}
	if img := b.Blocks()[0].Content.(block.ImageContent); !strings.HasPrefix(img.Src, "data:image/") || img.Uploading {
		t.Errorf("image = %+v", img)
	}
}

func TestLoadBundle(t *testing.T) {
	buf := new(bytes.Buffer)
	if err := png.Encode(buf, image.NewRGBA(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	name := filepath.Join(t.TempDir(), "session.zip")
	f, err := os.Create(name)
	if err != nil {
		t.Fatal(err)
	}
	w := zip.NewWriter(f)
	for _, e := range []struct {
		name string
		data []byte
	}{
		{BundleScript, []byte("steps:\n  - insert: {type: image, index: 0}\n  - upload: {index: 0, file: images/pic.png}\n  - upload: {index: 0, file: images/none.png}\n")},
		{"images/pic.png", buf.Bytes()},
	} {
		fw, err := w.Create(e.name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write(e.data); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()

	s, err := LoadBundle(name)
	if err != nil {
		t.Fatalf("LoadBundle() error = %v", err)
	}
	var uploads int
	b := newBuilder(t, builder.WithUploader(func(_ context.Context, data []byte, _ string) (builder.Image, error) {
		uploads++
		return builder.Image{Src: "https://cdn.example.com/pic.png"}, nil
	}))
	err = Run(context.Background(), b, nil, s, nil)
	if errs := multierr.Errors(err); len(errs) != 1 || !strings.Contains(err.Error(), "none.png") {
		t.Errorf("Run() error = %v", err)
	}
	if uploads != 1 {
		t.Errorf("uploads = %d", uploads)
	}

	if _, err := LoadBundle(filepath.Join(t.TempDir(), "missing.zip")); err == nil {
		t.Error("LoadBundle() of missing archive succeeded")
	}
}
