// Package surface keeps one block text part and its live editable node
// consistent in both directions.
package surface

import (
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/unicode/norm"

	"cbe/block"
	"cbe/dom"
)

// Ref identifies edited block part.
type Ref struct {
	BlockID string
	Part    string
}

// Handler receives intents produced by the surface. Surface never mutates
// the document itself.
type Handler interface {
	ContentChanged(ref Ref, content string)
	PropsChanged(blockID string, props block.Props)
	Split(index int)
	Remove(index int)
}

// Surface binds editable node to block part.
type Surface struct {
	log     *zap.Logger
	node    *html.Node
	watcher dom.ChangeWatcher
	sel     *dom.Selection
	handler Handler
	part    string

	blockID  string
	index    func() int
	baseline string
	sub      dom.Subscription
}

type Option func(*Surface)

// WithPart binds surface to named text part of the block (quote cite or
// caption), default is the main part.
func WithPart(part string) Option {
	return func(s *Surface) {
		s.part = part
	}
}

// New creates unmounted surface. Nil watcher disables change observation,
// content is still available through Content.
func New(node *html.Node, watcher dom.ChangeWatcher, sel *dom.Selection, handler Handler, log *zap.Logger, options ...Option) *Surface {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Surface{
		log:     log.Named("surface"),
		node:    node,
		watcher: watcher,
		sel:     sel,
		handler: handler,
	}
	for _, o := range options {
		o(s)
	}
	return s
}

// Mount seeds node markup from non empty content, records baseline and
// starts observing node subtree. Mounting again replaces previous
// observation. Index reports current block position for key intents.
func (s *Surface) Mount(blockID, content string, index func() int) error {
	s.Unmount()

	s.blockID, s.index = blockID, index
	if !block.IsEmptyMarkup(content) {
		if err := dom.SetInnerHTML(s.node, content); err != nil {
			return err
		}
	}
	s.baseline = s.Content()

	if s.watcher == nil {
		s.log.Debug("Change observation is not available, live sync disabled", zap.String("id", blockID))
		return nil
	}
	s.sub = s.watcher.Observe(s.node, dom.ObserveOptions{
		ChildList:     true,
		CharacterData: true,
		Attributes:    true,
		Subtree:       true,
	}, s.onRecords)
	return nil
}

// Unmount stops observation, safe to call on unmounted surface.
func (s *Surface) Unmount() {
	if s.sub != nil {
		s.sub.Disconnect()
		s.sub = nil
	}
}

func (s *Surface) Mounted() bool {
	return s.sub != nil
}

func (s *Surface) Node() *html.Node {
	return s.node
}

func (s *Surface) BlockID() string {
	return s.blockID
}

// Part returns edited part name.
func (s *Surface) Part() string {
	return s.part
}

// Content returns normalized current markup of the node.
func (s *Surface) Content() string {
	return Normalize(dom.InnerHTML(s.node))
}

func (s *Surface) onRecords(records []dom.Record) {
	changed := false
	for _, r := range records {
		if r.Type == dom.Attributes && block.IsPropsAttr(r.AttributeName) {
			if r.Target == s.node && s.handler != nil {
				s.handler.PropsChanged(s.blockID, block.PropsFromAttrs(s.node.Attr))
			}
			continue
		}
		changed = true
	}
	if changed {
		s.Sync()
	}
}

// Sync compares node content with baseline and reports difference. Returns
// true when content changed.
func (s *Surface) Sync() bool {
	cur := s.Content()
	if cur == s.baseline {
		return false
	}
	s.baseline = cur
	s.log.Debug("Content changed", zap.String("id", s.blockID), zap.String("part", s.part))
	if s.handler != nil {
		s.handler.ContentChanged(Ref{BlockID: s.blockID, Part: s.part}, cur)
	}
	return true
}

func (s *Surface) position() int {
	if s.index == nil {
		return -1
	}
	return s.index()
}

// Key translates key press into intent, returns true when key was consumed.
func (s *Surface) Key(key string) bool {
	if s.handler == nil {
		return false
	}
	switch key {
	case "Enter":
		s.handler.Split(s.position())
		return true
	case "Backspace":
		if block.IsEmptyMarkup(s.Content()) {
			s.handler.Remove(s.position())
			return true
		}
	}
	return false
}

// Focus places caret at the end of node content.
func (s *Surface) Focus() {
	if s.sel == nil {
		return
	}
	s.sel.Collapse(dom.PointAt(s.node, len(dom.TextContent(s.node)), dom.Backward))
}

// Normalize removes editing artifacts from markup: markers, lone and
// trailing line breaks, non breaking spaces. Result is NFC.
func Normalize(markup string) string {
	if markup == "" {
		return ""
	}
	root := dom.Element("div")
	if err := dom.SetInnerHTML(root, markup); err != nil {
		return norm.NFC.String(markup)
	}
	dom.StripMarkers(root)
	dom.Walk(root, func(n *html.Node) bool {
		if n.Type == html.TextNode {
			n.Data = strings.ReplaceAll(n.Data, "\u00a0", " ")
		}
		return true
	})
	for c := root.LastChild; c != nil && isBreak(c); c = root.LastChild {
		root.RemoveChild(c)
	}
	dom.Normalize(root)
	return norm.NFC.String(dom.InnerHTML(root))
}

func isBreak(n *html.Node) bool {
	return n.Type == html.ElementNode && n.DataAtom == atom.Br
}
