// Package toolbar positions floating formatting popup over text selection.
package toolbar

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/time/rate"

	"cbe/config"
	"cbe/dom"
	"cbe/format"
)

// Horizontal anchoring of the popup.
// ENUM(left, right)
type Align int

const (
	AlignLeft Align = iota
	AlignRight
)

var alignNames = []string{"left", "right"}

func (x Align) String() string {
	if int(x) >= 0 && int(x) < len(alignNames) {
		return alignNames[x]
	}
	return fmt.Sprintf("Align(%d)", int(x))
}

// Layout is host capability measuring selection, editing surface and
// rendered popup.
type Layout interface {
	SelectionRects() []dom.Rect
	HostRect() dom.Rect
	// PopupSize returns size of rendered popup, false until it was rendered.
	PopupSize() (dom.Size, bool)
}

// Formatter applies toolbar commands.
type Formatter interface {
	Apply(c format.Command) bool
}

// Position of the popup. Measuring popup is rendered off screen so its
// size can be read.
type Position struct {
	Open      bool
	Measuring bool
	X, Y      float64
	Align     Align
}

type Toolbar struct {
	log       *zap.Logger
	host      *html.Node
	sel       *dom.Selection
	layout    Layout
	sched     dom.Scheduler
	formatter Formatter
	cfg       config.ToolbarConfig
	limiter   *rate.Limiter
	now       func() time.Time

	generation int
	pos        Position
	onChange   func(Position)
	trailing   bool
}

type Option func(*Toolbar)

// WithClock replaces time source used for scroll rate limiting.
func WithClock(now func() time.Time) Option {
	return func(t *Toolbar) {
		t.now = now
	}
}

func WithScheduler(s dom.Scheduler) Option {
	return func(t *Toolbar) {
		t.sched = s
	}
}

// WithFormatter binds commands target.
func WithFormatter(f Formatter) Option {
	return func(t *Toolbar) {
		t.formatter = f
	}
}

// OnChange registers popup renderer.
func OnChange(fn func(Position)) Option {
	return func(t *Toolbar) {
		t.onChange = fn
	}
}

func New(host *html.Node, sel *dom.Selection, layout Layout, cfg config.ToolbarConfig, log *zap.Logger, options ...Option) *Toolbar {
	if log == nil {
		log = zap.NewNop()
	}
	t := &Toolbar{
		log:    log.Named("toolbar"),
		host:   host,
		sel:    sel,
		layout: layout,
		cfg:    cfg,
		sched:  dom.Immediate{},
		now:    time.Now,
	}
	for _, o := range options {
		o(t)
	}
	interval := cfg.ScrollInterval
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	t.limiter = rate.NewLimiter(rate.Every(interval), 1)
	return t
}

func (t *Toolbar) Position() Position {
	return t.pos
}

func (t *Toolbar) IsOpen() bool {
	return t.pos.Open
}

func (t *Toolbar) set(p Position) {
	if p == t.pos {
		return
	}
	t.pos = p
	if t.onChange != nil {
		t.onChange(p)
	}
}

// Close hides popup, pending measurements are discarded.
func (t *Toolbar) Close() {
	t.generation++
	t.trailing = false
	t.set(Position{})
}

// OnClick handles document level click. Clicks outside host close popup.
func (t *Toolbar) OnClick(target *html.Node) {
	if target == nil || !dom.Contains(t.host, target) {
		t.Close()
		return
	}
	t.Recompute()
}

// navigation and modifier keys do not change selection by themselves, it
// is read after host applied them
var deferredKeys = map[string]bool{
	"ArrowLeft": true, "ArrowRight": true, "ArrowUp": true, "ArrowDown": true,
	"Home": true, "End": true, "PageUp": true, "PageDown": true,
	"Shift": true, "Control": true, "Alt": true, "Meta": true,
}

// OnKey handles document level key press.
func (t *Toolbar) OnKey(key string) {
	if deferredKeys[key] {
		t.sched.NextFrame(t.Recompute)
		return
	}
	t.Recompute()
}

// OnScroll repositions open popup, at most once per configured interval.
// Dropped event leaves one trailing reposition, checked on every frame until
// interval passes.
func (t *Toolbar) OnScroll() {
	if !t.pos.Open {
		return
	}
	if t.limiter.AllowN(t.now(), 1) {
		t.trailing = false
		t.place()
		return
	}
	if !t.trailing {
		t.trailing = true
		t.scheduleTrailing()
	}
}

func (t *Toolbar) scheduleTrailing() {
	queued := false
	t.sched.NextFrame(func() {
		// synchronous scheduler has no frames to wait on, next allowed
		// scroll event repositions popup
		if !queued {
			return
		}
		if !t.trailing || !t.pos.Open {
			t.trailing = false
			return
		}
		if !t.limiter.AllowN(t.now(), 1) {
			t.scheduleTrailing()
			return
		}
		t.trailing = false
		t.log.Debug("Trailing scroll reposition")
		t.place()
	})
	queued = true
}

// OnNavigate closes popup.
func (t *Toolbar) OnNavigate() {
	t.Close()
}

// eligible reports whether current selection may carry popup.
func (t *Toolbar) eligible() bool {
	r, ok := t.sel.Range()
	if !ok || t.sel.Empty() || !r.Within(t.host) {
		return false
	}
	if t.cfg.RequiredClass == "" {
		return true
	}
	return dom.Closest(r.CommonAncestor(), t.host, func(n *html.Node) bool {
		return dom.HasClass(n, t.cfg.RequiredClass)
	}) != nil
}

// Recompute opens, moves or closes popup according to selection.
func (t *Toolbar) Recompute() {
	if !t.eligible() {
		t.Close()
		return
	}
	t.place()
}

// place runs two pass layout: popup is rendered for measuring first and
// positioned on next frame when its size is known.
func (t *Toolbar) place() {
	if t.layout == nil {
		t.log.Debug("Toolbar layout is not available")
		return
	}
	rects := t.layout.SelectionRects()
	if len(rects) == 0 {
		t.Close()
		return
	}
	sr, hr := dom.Union(rects...), t.layout.HostRect()
	p := Position{Open: true, Measuring: true, Align: AlignLeft, X: sr.Left(), Y: sr.Top() - t.cfg.Offset}
	if sr.CenterX() > hr.CenterX() {
		p.Align, p.X = AlignRight, sr.Right()
	}
	if !t.pos.Open || t.pos.Measuring {
		t.set(p)
	}

	t.generation++
	gen := t.generation
	t.sched.NextFrame(func() {
		if gen != t.generation || !t.pos.Open {
			return
		}
		size, ok := t.layout.PopupSize()
		if !ok {
			t.log.Debug("Popup size is not known yet")
			return
		}
		p.Measuring = false
		p.Y = sr.Top() - t.cfg.Offset - size.H
		if p.Align == AlignRight {
			p.X = sr.Right() - size.W
		}
		t.set(p)
	})
}

// Apply runs formatting command by name and refreshes popup.
func (t *Toolbar) Apply(name string) (bool, error) {
	c, err := format.LookupCommand(name)
	if err != nil {
		return false, err
	}
	if t.formatter == nil {
		return false, nil
	}
	done := t.formatter.Apply(c)
	t.Recompute()
	return done, nil
}
