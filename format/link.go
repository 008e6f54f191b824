package format

import (
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"cbe/dom"
)

// LinkDraft keeps selected text position while link attributes are being
// collected elsewhere.
type LinkDraft struct {
	marker *html.Node
	anchor *html.Node
	// Attrs holds attributes of the link being edited, empty for new links.
	Attrs map[string]string
	// Text is selected text.
	Text string
}

// Editing reports whether draft edits existing link.
func (d *LinkDraft) Editing() bool {
	return d != nil && d.anchor != nil
}

// BeginLink wraps selection into transient marker and returns draft to be
// completed with CompleteLink. Returns false without selection.
func (e *Engine) BeginLink() (*LinkDraft, bool) {
	r, a, b, ok := e.active()
	if !ok {
		return nil, false
	}
	draft := &LinkDraft{Attrs: make(map[string]string)}
	if anchor := e.exactMatch("a", a, b); anchor != nil {
		draft.anchor = anchor
	} else {
		draft.anchor = e.enclosing(container(r), "a")
	}
	if draft.anchor != nil {
		for _, at := range draft.anchor.Attr {
			draft.Attrs[at.Key] = at.Val
		}
	}

	draft.marker = dom.NewMarker("link")
	extract(r, draft.marker)
	draft.Text = dom.TextContent(draft.marker)
	e.sel.Set(dom.Contents(draft.marker))
	e.log.Debug("Link draft started", zap.Bool("editing", draft.Editing()), zap.Int("start", a), zap.Int("end", b))
	return draft, true
}

// CompleteLink removes draft marker. When confirmed, marked text is wrapped
// into anchor with attrs (or edited anchor gets attrs). Selection is cleared
// when marker was lost meanwhile.
func (e *Engine) CompleteLink(draft *LinkDraft, attrs map[string]string, confirmed bool) bool {
	if draft == nil || draft.marker == nil {
		return false
	}
	marker := draft.marker
	draft.marker = nil
	if e.host == nil || !dom.Contains(e.host, marker) {
		e.sel.Clear()
		e.log.Debug("Link marker lost, selection cleared")
		return false
	}

	a, b := e.extent(marker)
	dom.Unwrap(marker)
	e.settle(a, b)

	if !confirmed {
		e.notify(e.host)
		return true
	}
	if draft.anchor != nil && dom.Contains(e.host, draft.anchor) {
		for k, v := range attrs {
			dom.SetAttr(draft.anchor, k, v)
		}
		e.log.Debug("Link updated")
		e.notify(draft.anchor)
		return true
	}
	if a == b {
		e.notify(e.host)
		return true
	}
	return e.Wrap("a", Style{Attrs: attrs})
}
