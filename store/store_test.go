package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"cbe/block"
)

func openTest(t *testing.T, path string) *Store {
	t.Helper()
	s, err := Open(path, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sample(text string) []block.Block {
	return []block.Block{
		{ID: "a", Type: block.TypeHeading, Content: text, Options: block.Options{"level": 1}},
		{ID: "b", Type: block.TypeParagraph, Content: ""},
	}
}

func TestSaveLoad(t *testing.T) {
	ctx := context.Background()
	s := openTest(t, ":memory:")
	s.now = func() time.Time { return time.UnixMilli(1700000000000) }

	if err := s.Save(ctx, "draft", sample("one")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := s.Save(ctx, "draft", sample("two")); err != nil {
		t.Fatalf("Save() overwrite error = %v", err)
	}
	got, err := s.Load(ctx, "draft")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(got) != 2 || got[0].Content != "two" || got[0].Type != block.TypeHeading {
		t.Errorf("Load() = %+v", got)
	}
	if got[0].Options.Int("level", 0) != 1 {
		t.Errorf("options lost: %v", got[0].Options)
	}

	entries, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 1 || entries[0].Blocks != 2 || !entries[0].Updated.Equal(time.UnixMilli(1700000000000)) {
		t.Errorf("List() = %+v", entries)
	}
}

func TestErrors(t *testing.T) {
	ctx := context.Background()
	s := openTest(t, ":memory:")

	if _, err := s.Load(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load() error = %v", err)
	}
	if err := s.Delete(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete() error = %v", err)
	}
	if err := s.Save(ctx, "", sample("x")); err == nil {
		t.Error("Save() without name succeeded")
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if err := s.Save(cancelled, "x", sample("x")); !errors.Is(err, context.Canceled) {
		t.Errorf("Save() with cancelled context error = %v", err)
	}

	_ = s.Close()
	if _, err := s.List(ctx); err == nil {
		t.Error("List() on closed store succeeded")
	}
}

func TestListNaturalOrder(t *testing.T) {
	ctx := context.Background()
	s := openTest(t, filepath.Join(t.TempDir(), "docs.db"))
	for _, name := range []string{"chapter 10", "chapter 2", "appendix", "chapter 1"} {
		if err := s.Save(ctx, name, sample(name)); err != nil {
			t.Fatalf("Save(%q) error = %v", name, err)
		}
	}
	if err := s.Delete(ctx, "appendix"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	entries, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name)
	}
	want := []string{"chapter 1", "chapter 2", "chapter 10"}
	if len(names) != len(want) {
		t.Fatalf("List() = %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("List()[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}
