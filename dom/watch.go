package dom

import (
	"slices"
	"strings"

	"golang.org/x/net/html"
)

type RecordType int

const (
	ChildList RecordType = iota + 1
	CharacterData
	Attributes
)

func (t RecordType) String() string {
	switch t {
	case ChildList:
		return "childList"
	case CharacterData:
		return "characterData"
	case Attributes:
		return "attributes"
	default:
		return "unknown"
	}
}

// Record describes single change of the tree.
type Record struct {
	Type          RecordType
	Target        *html.Node
	AttributeName string
	OldValue      string
}

// ObserveOptions selects which records are delivered to the observer.
type ObserveOptions struct {
	ChildList     bool
	CharacterData bool
	Attributes    bool
	// Subtree extends observation to all descendants of the node.
	Subtree bool
	// AttributeFilter limits attribute records to names listed or to names
	// having listed prefix when entry ends with '*'.
	AttributeFilter []string
}

// Subscription is returned by ChangeWatcher.Observe, disconnecting stops
// delivery. Disconnect is safe to call more than once.
type Subscription interface {
	Disconnect()
}

// ChangeWatcher is the host capability to observe structural, text and
// attribute changes of the tree.
type ChangeWatcher interface {
	Observe(n *html.Node, opts ObserveOptions, fn func([]Record)) Subscription
}

// Notifier accepts records describing changes made to the tree.
type Notifier interface {
	Notify(records ...Record)
}

// Hub is ChangeWatcher driven by explicit notifications: hosts (and editor
// components mutating the tree themselves) report changes with Notify.
type Hub struct {
	subs []*hubSub
}

type hubSub struct {
	hub    *Hub
	node   *html.Node
	opts   ObserveOptions
	fn     func([]Record)
	active bool
}

func NewHub() *Hub {
	return &Hub{}
}

func (h *Hub) Observe(n *html.Node, opts ObserveOptions, fn func([]Record)) Subscription {
	s := &hubSub{hub: h, node: n, opts: opts, fn: fn, active: true}
	h.subs = append(h.subs, s)
	return s
}

// Observers returns number of connected subscriptions.
func (h *Hub) Observers() int {
	return len(h.subs)
}

// Notify delivers records to every interested subscription, each one
// receives a single batch. Subscriptions made or disconnected during
// delivery take effect for the next notification.
func (h *Hub) Notify(records ...Record) {
	if len(records) == 0 {
		return
	}
	for _, s := range slices.Clone(h.subs) {
		if !s.active {
			continue
		}
		var batch []Record
		for _, r := range records {
			if s.accepts(r) {
				batch = append(batch, r)
			}
		}
		if len(batch) > 0 {
			s.fn(batch)
		}
	}
}

func (s *hubSub) Disconnect() {
	if !s.active {
		return
	}
	s.active = false
	s.hub.subs = slices.DeleteFunc(s.hub.subs, func(o *hubSub) bool { return o == s })
}

func (s *hubSub) accepts(r Record) bool {
	if r.Target == nil {
		return false
	}
	if r.Target != s.node && !(s.opts.Subtree && Contains(s.node, r.Target)) {
		return false
	}
	switch r.Type {
	case ChildList:
		return s.opts.ChildList
	case CharacterData:
		return s.opts.CharacterData
	case Attributes:
		if !s.opts.Attributes {
			return false
		}
		if len(s.opts.AttributeFilter) == 0 {
			return true
		}
		for _, f := range s.opts.AttributeFilter {
			if prefix, ok := strings.CutSuffix(f, "*"); ok {
				if strings.HasPrefix(r.AttributeName, prefix) {
					return true
				}
			} else if f == r.AttributeName {
				return true
			}
		}
		return false
	default:
		return false
	}
}
