package dom

import (
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// MarkerAttr identifies transient zero-width anchors editor places into the
// tree. Anything carrying it is never part of block content.
const MarkerAttr = "data-cbe-marker"

// NewMarker creates empty marker span of the given kind.
func NewMarker(kind string) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     "span",
		DataAtom: atom.Span,
		Attr:     []html.Attribute{{Key: MarkerAttr, Val: kind}},
	}
}

func IsMarker(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	_, ok := Attr(n, MarkerAttr)
	return ok
}

// InsertAtPoint places detached node m at boundary p splitting text when
// necessary.
func InsertAtPoint(p Point, m *html.Node) {
	n := p.Node
	if n.Type != html.TextNode {
		InsertAt(n, m, p.Offset)
		return
	}
	switch {
	case p.Offset <= 0:
		n.Parent.InsertBefore(m, n)
	case p.Offset >= len(n.Data):
		InsertAfter(n, m)
	default:
		tail := Text(n.Data[p.Offset:])
		n.Data = n.Data[:p.Offset]
		InsertAfter(n, tail)
		n.Parent.InsertBefore(m, tail)
	}
}

// PreserveRange keeps selection logical position across mutate. Two markers
// are inserted at the selection boundaries (end first), after mutation
// selection is rebuilt from right after start marker to right before end
// marker and both markers are removed. When mutation detached a marker
// selection is cleared. Without selection inside root mutate is simply
// called.
func PreserveRange(sel *Selection, root *html.Node, mutate func() error) error {
	r, ok := sel.Range()
	if !ok || !r.Within(root) {
		return mutate()
	}
	r = r.Ordered(root)

	end, start := NewMarker("end"), NewMarker("start")
	InsertAtPoint(r.End, end)
	InsertAtPoint(r.Start, start)

	err := mutate()

	if !Contains(root, start) || !Contains(root, end) {
		Detach(start)
		Detach(end)
		sel.Clear()
		return err
	}

	sp, si := start.Parent, IndexOf(start)
	sp.RemoveChild(start)
	ep, ei := end.Parent, IndexOf(end)
	ep.RemoveChild(end)
	sel.Set(Range{Start: Point{sp, si}, End: Point{ep, ei}})
	return err
}

// StripMarkers removes all marker elements under n, markers wrapping content
// are replaced by their children.
func StripMarkers(n *html.Node) {
	var found []*html.Node
	Walk(n, func(c *html.Node) bool {
		if c != n && IsMarker(c) {
			found = append(found, c)
		}
		return true
	})
	for _, m := range found {
		Unwrap(m)
	}
}
