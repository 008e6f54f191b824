package block

import (
	"errors"
	"testing"
)

func sample() []ListItem {
	return []ListItem{
		{Content: "a"},
		{Content: "b", Children: []ListItem{{Content: "b1"}, {Content: "b2"}}},
		{Content: "c"},
	}
}

func contents(items []ListItem) []string {
	var res []string
	ListWalk(items, func(path ItemPath, it ListItem) bool {
		res = append(res, path.String()+it.Content)
		return true
	})
	return res
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestListOperations_Immutable(t *testing.T) {
	orig := sample()
	before := contents(orig)

	t.Run("set_content", func(t *testing.T) {
		res, err := ListSetContent(orig, ItemPath{1, 0}, "B1")
		if err != nil {
			t.Fatalf("ListSetContent() error = %v", err)
		}
		if it, _ := ListAt(res, ItemPath{1, 0}); it.Content != "B1" {
			t.Errorf("content = %q", it.Content)
		}
	})

	t.Run("insert", func(t *testing.T) {
		res, err := ListInsert(orig, ItemPath{1, 2}, ListItem{Content: "b3"})
		if err != nil {
			t.Fatalf("ListInsert() error = %v", err)
		}
		want := []string{"[0]a", "[1]b", "[1 0]b1", "[1 1]b2", "[1 2]b3", "[2]c"}
		if got := contents(res); !equalStrings(got, want) {
			t.Errorf("contents = %v, want %v", got, want)
		}
	})

	t.Run("remove", func(t *testing.T) {
		res, removed, err := ListRemove(orig, ItemPath{1})
		if err != nil {
			t.Fatalf("ListRemove() error = %v", err)
		}
		if removed.Content != "b" || len(removed.Children) != 2 {
			t.Errorf("removed = %+v", removed)
		}
		if got := contents(res); !equalStrings(got, []string{"[0]a", "[1]c"}) {
			t.Errorf("contents = %v", got)
		}
	})

	t.Run("indent", func(t *testing.T) {
		res, path, err := ListIndent(orig, ItemPath{2})
		if err != nil {
			t.Fatalf("ListIndent() error = %v", err)
		}
		if path.String() != "[1 2]" {
			t.Errorf("new path = %v", path)
		}
		want := []string{"[0]a", "[1]b", "[1 0]b1", "[1 1]b2", "[1 2]c"}
		if got := contents(res); !equalStrings(got, want) {
			t.Errorf("contents = %v, want %v", got, want)
		}
	})

	t.Run("outdent", func(t *testing.T) {
		res, path, err := ListOutdent(orig, ItemPath{1, 0})
		if err != nil {
			t.Fatalf("ListOutdent() error = %v", err)
		}
		if path.String() != "[2]" {
			t.Errorf("new path = %v", path)
		}
		want := []string{"[0]a", "[1]b", "[1 0]b2", "[2]b1", "[3]c"}
		if got := contents(res); !equalStrings(got, want) {
			t.Errorf("contents = %v, want %v", got, want)
		}
	})

	if got := contents(orig); !equalStrings(got, before) {
		t.Errorf("original list was modified: %v", got)
	}
}

func TestListOperations_Errors(t *testing.T) {
	items := sample()
	if _, _, err := ListIndent(items, ItemPath{0}); !errors.Is(err, ErrBadPath) {
		t.Errorf("ListIndent(first) error = %v", err)
	}
	if _, _, err := ListOutdent(items, ItemPath{1}); !errors.Is(err, ErrBadPath) {
		t.Errorf("ListOutdent(top) error = %v", err)
	}
	if _, err := ListSetContent(items, ItemPath{5, 0}, "x"); !errors.Is(err, ErrBadPath) {
		t.Errorf("ListSetContent(bad) error = %v", err)
	}
	if _, ok := ListAt(items, nil); ok {
		t.Error("ListAt(nil) found item")
	}
}

func TestListIsEmpty(t *testing.T) {
	tests := []struct {
		name  string
		items []ListItem
		want  bool
	}{
		{"nil", nil, true},
		{"single_empty", []ListItem{{}}, true},
		{"nested_empty", []ListItem{{Content: "<br>", Children: []ListItem{{Content: " "}}}}, true},
		{"nested_content", []ListItem{{Children: []ListItem{{Content: "x"}}}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ListIsEmpty(tt.items); got != tt.want {
				t.Errorf("ListIsEmpty() = %v, want %v", got, tt.want)
			}
		})
	}
}
