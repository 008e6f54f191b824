package dom

import (
	"golang.org/x/net/html"
)

// Selection holds the host current text selection. Editor components read
// and replace it, the host reflects it to the user.
type Selection struct {
	r   Range
	set bool
}

func NewSelection() *Selection {
	return &Selection{}
}

// Range returns current range, false when nothing is selected.
func (s *Selection) Range() (Range, bool) {
	if s == nil || !s.set {
		return Range{}, false
	}
	return s.r, true
}

func (s *Selection) Set(r Range) {
	s.r, s.set = r, true
}

func (s *Selection) Clear() {
	s.r, s.set = Range{}, false
}

// Collapse places caret at p.
func (s *Selection) Collapse(p Point) {
	s.Set(Caret(p))
}

// Empty reports whether there is no selection or it selects no text.
func (s *Selection) Empty() bool {
	r, ok := s.Range()
	if !ok || r.Collapsed() {
		return true
	}
	if root := r.CommonAncestor(); root != nil {
		a, b := r.Offsets(root)
		return a == b
	}
	return true
}

// Within reports whether selection is fully inside root.
func (s *Selection) Within(root *html.Node) bool {
	r, ok := s.Range()
	return ok && root != nil && r.Within(root)
}

// SelectText selects text between offsets into TextContent(root).
func (s *Selection) SelectText(root *html.Node, start, end int) {
	if start > end {
		start, end = end, start
	}
	s.Set(RangeAt(root, start, end))
}

// TextOffsets returns current selection as offsets into TextContent(root).
func (s *Selection) TextOffsets(root *html.Node) (int, int, bool) {
	if !s.Within(root) {
		return 0, 0, false
	}
	a, b := s.r.Offsets(root)
	if a > b {
		a, b = b, a
	}
	return a, b, true
}
