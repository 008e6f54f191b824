package dom

import (
	"golang.org/x/net/html"
)

// Point is a boundary position inside the tree. For text nodes Offset is a
// byte offset into the text, for other nodes it is a child index.
type Point struct {
	Node   *html.Node
	Offset int
}

// Valid reports whether point is attached under root and offset is within
// node bounds.
func (p Point) Valid(root *html.Node) bool {
	return p.Node != nil && Contains(root, p.Node) && p.Offset >= 0 && p.Offset <= Length(p.Node)
}

// Range is a pair of boundary points, Start never follows End in document
// order once normalized with Ordered.
type Range struct {
	Start, End Point
}

// Contents returns range spanning all contents of n.
func Contents(n *html.Node) Range {
	return Range{Start: Point{n, 0}, End: Point{n, Length(n)}}
}

// Caret returns collapsed range at p.
func Caret(p Point) Range {
	return Range{Start: p, End: p}
}

// Collapsed reports whether both boundaries are the same point.
func (r Range) Collapsed() bool {
	return r.Start == r.End
}

// Within reports whether both boundaries are valid points under root.
func (r Range) Within(root *html.Node) bool {
	return r.Start.Valid(root) && r.End.Valid(root)
}

// CommonAncestor returns the deepest node containing both boundaries.
func (r Range) CommonAncestor() *html.Node {
	for n := r.Start.Node; n != nil; n = n.Parent {
		if Contains(n, r.End.Node) {
			return n
		}
	}
	return nil
}

// Ordered swaps boundaries when selection was made backwards.
func (r Range) Ordered(root *html.Node) Range {
	if TextOffset(root, r.Start) > TextOffset(root, r.End) {
		r.Start, r.End = r.End, r.Start
	}
	return r
}

// Slice splits text and elements at both boundaries up to container and
// returns child index range [start, end) of container covering everything
// selected. Partially selected elements are split into shallow clones
// carrying the same attributes, no empty clones are produced. Container must
// contain both boundaries. End is split first so start remains valid.
func (r Range) Slice(container *html.Node) (start, end int) {
	if container.Type == html.TextNode {
		container = container.Parent
	}
	end = splitTo(r.End, container)
	after := ChildAt(container, end)
	start = splitTo(r.Start, container)
	if after == nil {
		end = Length(container)
	} else {
		end = IndexOf(after)
	}
	if start > end {
		start = end
	}
	return start, end
}

func splitTo(p Point, container *html.Node) int {
	n, off := p.Node, p.Offset
	for n != container && n.Parent != nil {
		idx := IndexOf(n)
		l := Length(n)
		switch {
		case off <= 0:
			off = idx
		case off >= l:
			off = idx + 1
		case n.Type == html.TextNode:
			InsertAfter(n, Text(n.Data[off:]))
			n.Data = n.Data[:off]
			off = idx + 1
		default:
			clone := ShallowClone(n)
			for c := ChildAt(n, off); c != nil; {
				next := c.NextSibling
				n.RemoveChild(c)
				clone.AppendChild(c)
				c = next
			}
			InsertAfter(n, clone)
			off = idx + 1
		}
		n = n.Parent
	}
	return off
}

// textBefore returns length of text preceding x in document order under
// root, text of x itself is not counted.
func textBefore(root, x *html.Node) int {
	total := 0
	var visit func(n *html.Node) bool
	visit = func(n *html.Node) bool {
		if n == x {
			return true
		}
		if n.Type == html.TextNode {
			total += len(n.Data)
			return false
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if visit(c) {
				return true
			}
		}
		return false
	}
	visit(root)
	return total
}

// TextOffset converts boundary point to offset into TextContent(root).
func TextOffset(root *html.Node, p Point) int {
	if p.Node.Type == html.TextNode {
		return textBefore(root, p.Node) + p.Offset
	}
	if c := ChildAt(p.Node, p.Offset); c != nil {
		return textBefore(root, c)
	}
	return textBefore(root, p.Node) + len(TextContent(p.Node))
}

// Bias selects text node when offset falls on the boundary between two of
// them.
type Bias int

const (
	// Forward prefers the beginning of the following text, used for range
	// starts.
	Forward Bias = iota
	// Backward prefers the end of the preceding text, used for range ends.
	Backward
)

// PointAt converts offset into TextContent(root) to a point inside a text
// node. Roots without text yield the root itself.
func PointAt(root *html.Node, off int, bias Bias) Point {
	var (
		texts  []*html.Node
		starts []int
		pos    int
	)
	Walk(root, func(n *html.Node) bool {
		if n.Type == html.TextNode && len(n.Data) > 0 {
			texts = append(texts, n)
			starts = append(starts, pos)
			pos += len(n.Data)
		}
		return true
	})
	if len(texts) == 0 {
		return Point{root, 0}
	}
	if off <= 0 {
		return Point{texts[0], 0}
	}
	for i, t := range texts {
		s, e := starts[i], starts[i]+len(t.Data)
		if bias == Forward && s <= off && off < e {
			return Point{t, off - s}
		}
		if bias == Backward && s < off && off <= e {
			return Point{t, off - s}
		}
	}
	last := texts[len(texts)-1]
	return Point{last, len(last.Data)}
}

// RangeAt builds range from text offsets under root.
func RangeAt(root *html.Node, start, end int) Range {
	if start == end {
		p := PointAt(root, start, Backward)
		return Caret(p)
	}
	return Range{Start: PointAt(root, start, Forward), End: PointAt(root, end, Backward)}
}

// Offsets converts range to text offsets under root.
func (r Range) Offsets(root *html.Node) (int, int) {
	return TextOffset(root, r.Start), TextOffset(root, r.End)
}
