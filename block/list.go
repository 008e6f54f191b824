package block

import (
	"errors"
	"fmt"
	"slices"
)

// ItemPath addresses list item by indexes from the top level down.
type ItemPath []int

func (p ItemPath) String() string {
	return fmt.Sprint([]int(p))
}

var ErrBadPath = errors.New("list item path is out of range")

// List operations never modify their input: items along the affected path
// are copied, untouched subtrees are shared.

func cloneItems(items []ListItem) []ListItem {
	if items == nil {
		return nil
	}
	res := make([]ListItem, len(items))
	for i, it := range items {
		res[i] = ListItem{Content: it.Content, Props: it.Props.Clone(), Children: cloneItems(it.Children)}
	}
	return res
}

// ListAt returns item at path.
func ListAt(items []ListItem, path ItemPath) (ListItem, bool) {
	if len(path) == 0 {
		return ListItem{}, false
	}
	level := items
	for i, idx := range path {
		if idx < 0 || idx >= len(level) {
			return ListItem{}, false
		}
		if i == len(path)-1 {
			return level[idx], true
		}
		level = level[idx].Children
	}
	return ListItem{}, false
}

// updateLevel applies fn to the children slice holding the last element of
// path, copying every level on the way.
func updateLevel(items []ListItem, parent ItemPath, fn func([]ListItem) ([]ListItem, error)) ([]ListItem, error) {
	if len(parent) == 0 {
		return fn(slices.Clone(items))
	}
	idx := parent[0]
	if idx < 0 || idx >= len(items) {
		return nil, fmt.Errorf("index %d at depth 0 of %d items: %w", idx, len(items), ErrBadPath)
	}
	children, err := updateLevel(items[idx].Children, parent[1:], fn)
	if err != nil {
		return nil, err
	}
	res := slices.Clone(items)
	res[idx].Children = children
	return res, nil
}

func split(path ItemPath) (ItemPath, int) {
	return path[:len(path)-1], path[len(path)-1]
}

// ListUpdate replaces item at path with fn result.
func ListUpdate(items []ListItem, path ItemPath, fn func(ListItem) ListItem) ([]ListItem, error) {
	if len(path) == 0 {
		return nil, ErrBadPath
	}
	parent, idx := split(path)
	return updateLevel(items, parent, func(level []ListItem) ([]ListItem, error) {
		if idx < 0 || idx >= len(level) {
			return nil, fmt.Errorf("item %v: %w", path, ErrBadPath)
		}
		level[idx] = fn(level[idx])
		return level, nil
	})
}

// ListSetContent replaces markup of item at path.
func ListSetContent(items []ListItem, path ItemPath, markup string) ([]ListItem, error) {
	return ListUpdate(items, path, func(it ListItem) ListItem {
		it.Content = markup
		return it
	})
}

// ListInsert inserts item so it ends up at path, last index may be equal to
// the level length to append.
func ListInsert(items []ListItem, path ItemPath, item ListItem) ([]ListItem, error) {
	if len(path) == 0 {
		return nil, ErrBadPath
	}
	parent, idx := split(path)
	return updateLevel(items, parent, func(level []ListItem) ([]ListItem, error) {
		if idx < 0 || idx > len(level) {
			return nil, fmt.Errorf("insert at %v: %w", path, ErrBadPath)
		}
		return slices.Insert(level, idx, item), nil
	})
}

// ListRemove removes item at path returning it with its subtree.
func ListRemove(items []ListItem, path ItemPath) ([]ListItem, ListItem, error) {
	var removed ListItem
	if len(path) == 0 {
		return nil, removed, ErrBadPath
	}
	parent, idx := split(path)
	res, err := updateLevel(items, parent, func(level []ListItem) ([]ListItem, error) {
		if idx < 0 || idx >= len(level) {
			return nil, fmt.Errorf("remove %v: %w", path, ErrBadPath)
		}
		removed = level[idx]
		return slices.Delete(level, idx, idx+1), nil
	})
	return res, removed, err
}

// ListIndent makes item the last child of its previous sibling and returns
// new path of the item.
func ListIndent(items []ListItem, path ItemPath) ([]ListItem, ItemPath, error) {
	if len(path) == 0 || path[len(path)-1] == 0 {
		return nil, nil, fmt.Errorf("indent %v, item has no previous sibling: %w", path, ErrBadPath)
	}
	res, item, err := ListRemove(items, path)
	if err != nil {
		return nil, nil, err
	}
	parent, idx := split(path)
	prev := append(slices.Clone(parent), idx-1)
	prevItem, _ := ListAt(res, prev)
	newPath := append(slices.Clone(prev), len(prevItem.Children))
	res, err = ListInsert(res, newPath, item)
	if err != nil {
		return nil, nil, err
	}
	return res, newPath, nil
}

// ListOutdent moves item right after its parent, following siblings stay
// with the old parent.
func ListOutdent(items []ListItem, path ItemPath) ([]ListItem, ItemPath, error) {
	if len(path) < 2 {
		return nil, nil, fmt.Errorf("outdent %v, item is at top level: %w", path, ErrBadPath)
	}
	res, item, err := ListRemove(items, path)
	if err != nil {
		return nil, nil, err
	}
	parent, _ := split(path)
	grand, pidx := split(parent)
	newPath := append(slices.Clone(grand), pidx+1)
	res, err = ListInsert(res, newPath, item)
	if err != nil {
		return nil, nil, err
	}
	return res, newPath, nil
}

// ListWalk visits items depth first, returning false stops the walk.
func ListWalk(items []ListItem, fn func(path ItemPath, item ListItem) bool) {
	var walk func(level []ListItem, prefix ItemPath) bool
	walk = func(level []ListItem, prefix ItemPath) bool {
		for i, it := range level {
			p := append(slices.Clone(prefix), i)
			if !fn(p, it) || !walk(it.Children, p) {
				return false
			}
		}
		return true
	}
	walk(items, nil)
}

// ListIsEmpty reports whether no item of the tree has visible content.
func ListIsEmpty(items []ListItem) bool {
	empty := true
	ListWalk(items, func(_ ItemPath, it ListItem) bool {
		empty = IsEmptyMarkup(it.Content)
		return empty
	})
	return empty
}
