// Package format applies inline formatting to the host selection: wrapping
// and unwrapping elements, alignment and the link editing flow.
package format

import (
	"slices"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"cbe/block"
	"cbe/dom"
)

// Engine operates on selection inside host node. The only state it keeps is
// remembered selection.
type Engine struct {
	log        *zap.Logger
	host       *html.Node
	sel        *dom.Selection
	notifier   dom.Notifier
	alignClass string

	remembered *span
}

type span struct {
	start, end int
}

type Option func(*Engine)

// WithNotifier reports every mutation made by the engine.
func WithNotifier(n dom.Notifier) Option {
	return func(e *Engine) {
		e.notifier = n
	}
}

// WithAlignmentClass limits alignment to block elements bearing class.
func WithAlignmentClass(class string) Option {
	return func(e *Engine) {
		e.alignClass = class
	}
}

func New(host *html.Node, sel *dom.Selection, log *zap.Logger, options ...Option) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	e := &Engine{
		log:  log.Named("format"),
		host: host,
		sel:  sel,
	}
	for _, o := range options {
		o(e)
	}
	return e
}

func (e *Engine) Host() *html.Node {
	return e.host
}

// SetHost rebinds engine to another editable host, remembered selection is
// dropped.
func (e *Engine) SetHost(host *html.Node) {
	e.host, e.remembered = host, nil
}

// active returns ordered selection range and its text offsets when there is
// non empty selection inside host.
func (e *Engine) active() (dom.Range, int, int, bool) {
	if e.host == nil {
		return dom.Range{}, 0, 0, false
	}
	r, ok := e.sel.Range()
	if !ok || !r.Within(e.host) || r.Collapsed() {
		return dom.Range{}, 0, 0, false
	}
	r = r.Ordered(e.host)
	a, b := r.Offsets(e.host)
	if a == b {
		return dom.Range{}, 0, 0, false
	}
	return r, a, b, true
}

// extent returns text offsets covered by element.
func (e *Engine) extent(n *html.Node) (int, int) {
	start := dom.TextOffset(e.host, dom.Point{Node: n, Offset: 0})
	return start, start + len(dom.TextContent(n))
}

// exactMatch returns innermost element with tag covering exactly [a, b).
func (e *Engine) exactMatch(tag string, a, b int) *html.Node {
	var found *html.Node
	dom.Walk(e.host, func(n *html.Node) bool {
		if n != e.host && n.Type == html.ElementNode && n.Data == tag && !dom.IsMarker(n) {
			if s, f := e.extent(n); s == a && f == b {
				found = n
			}
		}
		return true
	})
	return found
}

// container returns element containing both range boundaries.
func container(r dom.Range) *html.Node {
	ca := r.CommonAncestor()
	if ca != nil && ca.Type == html.TextNode {
		ca = ca.Parent
	}
	return ca
}

// enclosing returns nearest ancestor with tag (host excluded) containing n.
func (e *Engine) enclosing(n *html.Node, tag string) *html.Node {
	if n == nil || n == e.host {
		return nil
	}
	m := dom.Closest(n, e.host, dom.IsTag(tag))
	if m == e.host {
		return nil
	}
	return m
}

func (e *Engine) notify(target *html.Node) {
	if e.notifier != nil {
		e.notifier.Notify(dom.Record{Type: dom.ChildList, Target: target})
	}
}

// settle merges adjacent equal inline elements and text nodes, then
// selects [a, b).
func (e *Engine) settle(a, b int) {
	mergeAdjacent(e.host)
	dom.Normalize(e.host)
	e.sel.SelectText(e.host, a, b)
}

func sameInline(x, y *html.Node) bool {
	return x.Type == html.ElementNode && y.Type == html.ElementNode &&
		x.Data == y.Data && dom.IsInline(x) && !dom.IsMarker(x) && !dom.IsMarker(y) &&
		x.FirstChild != nil && y.FirstChild != nil &&
		slices.Equal(x.Attr, y.Attr)
}

// mergeAdjacent joins sibling elements with the same tag and attributes.
func mergeAdjacent(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		for next := c.NextSibling; next != nil && sameInline(c, next); next = c.NextSibling {
			for k := next.FirstChild; k != nil; k = next.FirstChild {
				next.RemoveChild(k)
				c.AppendChild(k)
			}
			n.RemoveChild(next)
		}
		mergeAdjacent(c)
	}
}

// extract moves selected content into detached element, element is placed
// at the content original position.
func extract(r dom.Range, into *html.Node) {
	ca := container(r)
	s, f := r.Slice(ca)
	moved := dom.Children(ca)[s:f]
	for _, c := range moved {
		ca.RemoveChild(c)
		into.AppendChild(c)
	}
	dom.InsertAt(ca, into, s)
}

// Wrap surrounds selection with element. When selection exactly matches
// element with the same tag that element is updated instead. Selection is
// reset to element contents. Returns false when nothing was done.
func (e *Engine) Wrap(tag string, style Style) bool {
	r, a, b, ok := e.active()
	if !ok {
		return false
	}
	if m := e.exactMatch(tag, a, b); m != nil {
		style.apply(m)
		e.log.Debug("Existing element updated", zap.String("tag", tag))
		e.settle(a, b)
		e.notify(m)
		return true
	}
	el := dom.Element(tag)
	style.apply(el)
	extract(r, el)
	e.log.Debug("Selection wrapped", zap.String("tag", tag), zap.Int("start", a), zap.Int("end", b))
	parent := el.Parent
	e.settle(e.extent(el))
	e.notify(parent)
	return true
}

// WrapOrSplit works as Wrap, but when selection lies inside inline element
// with the same tag that element is split into prefix, wrapped selection and
// suffix, all carrying original attributes.
func (e *Engine) WrapOrSplit(tag string, style Style) bool {
	r, a, b, ok := e.active()
	if !ok {
		return false
	}
	if e.exactMatch(tag, a, b) != nil {
		return e.Wrap(tag, style)
	}
	anc := e.enclosing(container(r), tag)
	if anc == nil || !dom.IsInline(anc) {
		if len(e.targets(r, tag, a, b)) > 0 {
			return e.wrapAcross(r, tag, style, a, b)
		}
		return e.Wrap(tag, style)
	}

	s, f := r.Slice(anc)
	kids := dom.Children(anc)
	prefix, middle, suffix := dom.ShallowClone(anc), dom.ShallowClone(anc), dom.ShallowClone(anc)
	style.apply(middle)
	for i, c := range kids {
		anc.RemoveChild(c)
		switch {
		case i < s:
			prefix.AppendChild(c)
		case i < f:
			middle.AppendChild(c)
		default:
			suffix.AppendChild(c)
		}
	}
	parent := anc.Parent
	for _, piece := range []*html.Node{prefix, middle, suffix} {
		if piece.FirstChild != nil {
			parent.InsertBefore(piece, anc)
		}
	}
	parent.RemoveChild(anc)
	e.log.Debug("Element split around selection", zap.String("tag", tag), zap.Int("start", a), zap.Int("end", b))
	e.settle(a, b)
	e.notify(parent)
	return true
}

// wrapAcross wraps selection that partially overlaps or contains elements
// with the same tag. Overlapped elements are split at selection boundaries,
// parts outside keep original attributes, parts inside are merged into the
// single new element which takes attributes of the first of them.
func (e *Engine) wrapAcross(r dom.Range, tag string, style Style, a, b int) bool {
	ca := container(r)
	s, f := r.Slice(ca)
	el := dom.Element(tag)
	for _, c := range dom.Children(ca)[s:f] {
		ca.RemoveChild(c)
		el.AppendChild(c)
	}
	var same []*html.Node
	dom.Walk(el, func(n *html.Node) bool {
		if n != el && n.Type == html.ElementNode && n.Data == tag && !dom.IsMarker(n) {
			same = append(same, n)
		}
		return true
	})
	if len(same) > 0 {
		el.Attr = slices.Clone(same[0].Attr)
	}
	for _, n := range same {
		dom.Unwrap(n)
	}
	style.apply(el)
	dom.InsertAt(ca, el, s)
	e.log.Debug("Selection wrapped across same tag elements", zap.String("tag", tag), zap.Int("merged", len(same)), zap.Int("start", a), zap.Int("end", b))
	e.settle(a, b)
	e.notify(ca)
	return true
}

// targets collects elements with tag to remove: exact match, enclosing
// ancestors of the selection and its boundaries, and elements intersecting
// the selection.
func (e *Engine) targets(r dom.Range, tag string, a, b int) []*html.Node {
	var res []*html.Node
	add := func(n *html.Node) {
		if n == nil {
			return
		}
		for _, have := range res {
			if have == n {
				return
			}
		}
		res = append(res, n)
	}
	add(e.exactMatch(tag, a, b))
	add(e.enclosing(container(r), tag))
	add(e.enclosing(r.Start.Node, tag))
	add(e.enclosing(r.End.Node, tag))
	dom.Walk(container(r), func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == tag && n != e.host {
			if s, f := e.extent(n); s < b && f > a {
				add(n)
			}
		}
		return true
	})
	return res
}

// Contains reports whether selection is fully or partially inside element
// with tag.
func (e *Engine) Contains(tag string) bool {
	r, a, b, ok := e.active()
	if !ok {
		return false
	}
	return e.exactMatch(tag, a, b) != nil ||
		e.enclosing(container(r), tag) != nil ||
		e.enclosing(r.Start.Node, tag) != nil ||
		e.enclosing(r.End.Node, tag) != nil
}

// Unwrap removes elements with tag around and inside selection keeping
// their children in place. Selection survives through markers, it is
// cleared when markers get lost.
func (e *Engine) Unwrap(tag string) bool {
	r, a, b, ok := e.active()
	if !ok {
		return false
	}
	found := e.targets(r, tag, a, b)
	if len(found) == 0 {
		return false
	}
	err := dom.PreserveRange(e.sel, e.host, func() error {
		for _, n := range found {
			dom.Unwrap(n)
		}
		return nil
	})
	if err != nil {
		e.log.Debug("Unwrap failed", zap.String("tag", tag), zap.Error(err))
	}
	e.log.Debug("Selection unwrapped", zap.String("tag", tag), zap.Int("elements", len(found)))
	if sa, sb, ok := e.sel.TextOffsets(e.host); ok {
		e.settle(sa, sb)
	} else {
		dom.Normalize(e.host)
	}
	e.notify(e.host)
	return true
}

// ToggleWrap unwraps tag when selection is inside it, otherwise wraps
// selection splitting same tag ancestor when needed.
func (e *Engine) ToggleWrap(tag string, style Style) bool {
	if e.Contains(tag) {
		return e.Unwrap(tag)
	}
	return e.WrapOrSplit(tag, style)
}

// SetAlignment sets text alignment on the block element holding selection
// start and mirrors it into inline property. Collapsed selection is enough.
func (e *Engine) SetAlignment(value string) bool {
	if e.host == nil {
		return false
	}
	r, ok := e.sel.Range()
	if !ok || !r.Within(e.host) {
		return false
	}
	target := dom.Closest(r.Start.Node, e.host, func(n *html.Node) bool {
		return n.Type == html.ElementNode && !dom.IsInline(n) &&
			(e.alignClass == "" || dom.HasClass(n, e.alignClass))
	})
	if target == nil {
		return false
	}
	Style{Styles: map[string]string{"text-align": value}}.apply(target)
	name := block.PropsAttrName("align")
	dom.SetAttr(target, name, value)
	e.log.Debug("Alignment set", zap.String("value", value), zap.String("element", target.Data))
	if e.notifier != nil {
		e.notifier.Notify(
			dom.Record{Type: dom.Attributes, Target: target, AttributeName: "style"},
			dom.Record{Type: dom.Attributes, Target: target, AttributeName: name},
		)
	}
	return true
}

// Remember stores current selection for Restore.
func (e *Engine) Remember() bool {
	a, b, ok := e.sel.TextOffsets(e.host)
	if !ok {
		e.remembered = nil
		return false
	}
	e.remembered = &span{start: a, end: b}
	return true
}

// Restore reselects remembered range, returns false when there is nothing
// to restore or host text got shorter.
func (e *Engine) Restore() bool {
	if e.remembered == nil || e.host == nil {
		return false
	}
	sp := *e.remembered
	e.remembered = nil
	if sp.end > len(dom.TextContent(e.host)) {
		return false
	}
	e.sel.SelectText(e.host, sp.start, sp.end)
	return true
}
