// Package dom is the editor view of the live editable document: an
// x/net/html node tree owned by the host together with the capabilities the
// host provides around it (selection, change notifications, frame callbacks
// and geometry).
package dom

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// fragmentContext is used to parse inline markup of blocks.
var fragmentContext = &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}

// inlineTags lists elements which do not start a new block when walking up
// from a selection.
var inlineTags = map[string]bool{
	"a": true, "abbr": true, "b": true, "bdi": true, "bdo": true, "br": true,
	"cite": true, "code": true, "data": true, "del": true, "dfn": true,
	"em": true, "i": true, "img": true, "ins": true, "kbd": true, "mark": true,
	"q": true, "s": true, "samp": true, "small": true, "span": true,
	"strike": true, "strong": true, "sub": true, "sup": true, "time": true,
	"u": true, "var": true, "wbr": true, "font": true,
}

// IsInline reports whether node is text or an inline element.
func IsInline(n *html.Node) bool {
	switch n.Type {
	case html.TextNode:
		return true
	case html.ElementNode:
		return inlineTags[n.Data]
	default:
		return false
	}
}

// Element creates detached element with attributes given as name, value
// pairs.
func Element(tag string, attrs ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
	for i := 0; i+1 < len(attrs); i += 2 {
		SetAttr(n, attrs[i], attrs[i+1])
	}
	return n
}

// Text creates detached text node.
func Text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// ParseFragment parses inline markup into detached nodes.
func ParseFragment(markup string) ([]*html.Node, error) {
	nodes, err := html.ParseFragment(strings.NewReader(markup), fragmentContext)
	if err != nil {
		return nil, fmt.Errorf("unable to parse markup: %w", err)
	}
	return nodes, nil
}

// SetInnerHTML replaces all children of n with parsed markup.
func SetInnerHTML(n *html.Node, markup string) error {
	nodes, err := ParseFragment(markup)
	if err != nil {
		return err
	}
	RemoveChildren(n)
	for _, c := range nodes {
		n.AppendChild(c)
	}
	return nil
}

// InnerHTML renders children of n.
func InnerHTML(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		// rendering into strings.Builder never fails
		_ = html.Render(&b, c)
	}
	return b.String()
}

// OuterHTML renders n itself.
func OuterHTML(n *html.Node) string {
	var b strings.Builder
	_ = html.Render(&b, n)
	return b.String()
}

// TextContent concatenates all text under n.
func TextContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	Walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
		return true
	})
	return b.String()
}

// Walk visits n and its descendants in document order, returning false from
// fn skips children of the visited node.
func Walk(n *html.Node, fn func(*html.Node) bool) {
	if !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		Walk(c, fn)
		c = next
	}
}

// Children returns a snapshot of direct children.
func Children(n *html.Node) []*html.Node {
	var res []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		res = append(res, c)
	}
	return res
}

// ChildAt returns i-th child or nil.
func ChildAt(n *html.Node, i int) *html.Node {
	if i < 0 {
		return nil
	}
	c := n.FirstChild
	for ; c != nil && i > 0; i-- {
		c = c.NextSibling
	}
	return c
}

// IndexOf returns position of n among its siblings.
func IndexOf(n *html.Node) int {
	i := 0
	for c := n.PrevSibling; c != nil; c = c.PrevSibling {
		i++
	}
	return i
}

// Length is the number of offsets inside n: bytes for text nodes, children
// for everything else.
func Length(n *html.Node) int {
	if n.Type == html.TextNode {
		return len(n.Data)
	}
	i := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		i++
	}
	return i
}

// Contains reports whether n is ancestor or the same node as other.
func Contains(n, other *html.Node) bool {
	for c := other; c != nil; c = c.Parent {
		if c == n {
			return true
		}
	}
	return false
}

// Closest returns nearest node starting with n and going up to (but not past)
// limit for which match returns true.
func Closest(n, limit *html.Node, match func(*html.Node) bool) *html.Node {
	for c := n; c != nil; c = c.Parent {
		if match(c) {
			return c
		}
		if c == limit {
			break
		}
	}
	return nil
}

// IsTag returns matcher for elements with the given tag.
func IsTag(tag string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == tag
	}
}

// Detach removes n from its parent if any.
func Detach(n *html.Node) {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// RemoveChildren detaches all children of n.
func RemoveChildren(n *html.Node) {
	for n.FirstChild != nil {
		n.RemoveChild(n.FirstChild)
	}
}

// InsertAt inserts detached node c as i-th child of parent.
func InsertAt(parent, c *html.Node, i int) {
	if ref := ChildAt(parent, i); ref != nil {
		parent.InsertBefore(c, ref)
		return
	}
	parent.AppendChild(c)
}

// InsertAfter inserts detached node c after ref.
func InsertAfter(ref, c *html.Node) {
	if ref.NextSibling != nil {
		ref.Parent.InsertBefore(c, ref.NextSibling)
		return
	}
	ref.Parent.AppendChild(c)
}

// Unwrap replaces n with its children keeping their order.
func Unwrap(n *html.Node) {
	parent := n.Parent
	if parent == nil {
		return
	}
	for c := n.FirstChild; c != nil; c = n.FirstChild {
		n.RemoveChild(c)
		parent.InsertBefore(c, n)
	}
	parent.RemoveChild(n)
}

// ShallowClone copies element type, tag and attributes without children.
func ShallowClone(n *html.Node) *html.Node {
	return &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
		Attr:      slices.Clone(n.Attr),
	}
}

// DeepClone copies n together with its subtree.
func DeepClone(n *html.Node) *html.Node {
	res := ShallowClone(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		res.AppendChild(DeepClone(c))
	}
	return res
}

// Normalize merges adjacent text nodes and drops empty ones under n.
func Normalize(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		switch {
		case c.Type == html.TextNode && c.Data == "":
			n.RemoveChild(c)
		case c.Type == html.TextNode:
			for next != nil && next.Type == html.TextNode {
				c.Data += next.Data
				after := next.NextSibling
				n.RemoveChild(next)
				next = after
			}
		case c.Type == html.ElementNode:
			Normalize(c)
		}
		c = next
	}
}
