package table

import (
	"fmt"

	"go.uber.org/zap"

	"cbe/dom"
)

// Reorder direction.
// ENUM(column, row)
type Mode int

const (
	ModeColumn Mode = iota
	ModeRow
)

var modeNames = []string{"column", "row"}

func (x Mode) String() string {
	if int(x) >= 0 && int(x) < len(modeNames) {
		return modeNames[x]
	}
	return fmt.Sprintf("Mode(%d)", int(x))
}

// Layout is host capability measuring rendered table.
type Layout interface {
	ColumnRects() []dom.Rect
	RowRects() []dom.Rect
}

// PointerHost routes document level pointer movement and release to the
// active drag session until release function is called.
type PointerHost interface {
	Capture(move func(pos dom.Coord), up func()) (release func())
}

// ReorderEvent is emitted once per completed move.
type ReorderEvent struct {
	StartElementIndex int `json:"startElementIndex"`
	FinalTargetIndex  int `json:"finalTargetIndex"`
}

// Indicator is drop position line.
type Indicator struct {
	Visible bool
	Rect    dom.Rect
}

type entry struct {
	start, size, center float64
}

// Reorderer drives column and row drag sessions.
type Reorderer struct {
	log     *zap.Logger
	engine  *Engine
	guard   *Guard
	layout  Layout
	pointer PointerHost
	sched   dom.Scheduler
	width   float64

	session int
	active  bool
	mode    Mode
	start   int
	target  int
	entries []entry
	bounds  dom.Rect
	release func()

	indicator   Indicator
	onIndicator func(Indicator)
	onReorder   []func(Mode, ReorderEvent)
}

func NewReorderer(engine *Engine, layout Layout, pointer PointerHost, sched dom.Scheduler, indicatorWidth float64, log *zap.Logger) *Reorderer {
	if log == nil {
		log = zap.NewNop()
	}
	if sched == nil {
		sched = dom.Immediate{}
	}
	return &Reorderer{
		log:     log.Named("reorder"),
		engine:  engine,
		guard:   engine.guard,
		layout:  layout,
		pointer: pointer,
		sched:   sched,
		width:   max(indicatorWidth, 1),
	}
}

// OnIndicator registers drop indicator renderer.
func (r *Reorderer) OnIndicator(fn func(Indicator)) {
	r.onIndicator = fn
}

// OnReorder registers listener of completed moves.
func (r *Reorderer) OnReorder(fn func(Mode, ReorderEvent)) {
	r.onReorder = append(r.onReorder, fn)
}

func (r *Reorderer) Active() bool {
	return r.active
}

// Target returns current visual target index.
func (r *Reorderer) Target() int {
	return r.target
}

func (r *Reorderer) Indicator() Indicator {
	return r.indicator
}

func (r *Reorderer) axis(pos dom.Coord) float64 {
	if r.mode == ModeColumn {
		return pos.X
	}
	return pos.Y
}

// Begin starts dragging column or row index. Geometry is measured once here.
func (r *Reorderer) Begin(mode Mode, index int, pos dom.Coord) bool {
	if r.layout == nil || r.pointer == nil {
		r.log.Debug("Reorder is not available, missing host capabilities")
		return false
	}
	var rects []dom.Rect
	if mode == ModeColumn {
		rects = r.layout.ColumnRects()
	} else {
		rects = r.layout.RowRects()
	}
	if index < 0 || index >= len(rects) {
		return false
	}
	if !r.guard.Acquire(SessionReorder) {
		r.log.Debug("Reorder refused, table is busy", zap.Stringer("session", r.guard.Active()))
		return false
	}

	r.mode = mode
	r.entries = make([]entry, len(rects))
	for i, rc := range rects {
		if mode == ModeColumn {
			r.entries[i] = entry{start: rc.X, size: rc.W, center: rc.CenterX()}
		} else {
			r.entries[i] = entry{start: rc.Y, size: rc.H, center: rc.CenterY()}
		}
	}
	r.bounds = dom.Union(rects...)
	r.session++
	r.active = true
	r.start, r.target = index, index
	r.release = r.pointer.Capture(r.Move, func() { r.End() })
	r.log.Debug("Reorder started", zap.Stringer("mode", mode), zap.Int("index", index))
	r.Move(pos)
	return true
}

// visualTarget returns the furthest index whose center pointer crossed,
// walking from start index in one direction at a time.
func (r *Reorderer) visualTarget(p float64) int {
	t := r.start
	for i := r.start + 1; i < len(r.entries) && p >= r.entries[i].center; i++ {
		t = i
	}
	if t != r.start {
		return t
	}
	for i := r.start - 1; i >= 0 && p <= r.entries[i].center; i-- {
		t = i
	}
	return t
}

// Move updates visual target, indicator is placed on next frame.
func (r *Reorderer) Move(pos dom.Coord) {
	if !r.active {
		return
	}
	t := r.visualTarget(r.axis(pos))
	if t == r.target && r.indicator.Visible == (t != r.start) {
		return
	}
	r.target = t
	session := r.session
	r.sched.NextFrame(func() {
		if !r.active || r.session != session {
			return
		}
		r.placeIndicator()
	})
}

func (r *Reorderer) placeIndicator() {
	if r.target == r.start {
		r.setIndicator(Indicator{})
		return
	}
	e := r.entries[r.target]
	at := e.start
	if r.target > r.start {
		at = e.start + e.size
	}
	var rc dom.Rect
	if r.mode == ModeColumn {
		rc = dom.Rect{X: at - r.width/2, Y: r.bounds.Y, W: r.width, H: r.bounds.H}
	} else {
		rc = dom.Rect{X: r.bounds.X, Y: at - r.width/2, W: r.bounds.W, H: r.width}
	}
	r.setIndicator(Indicator{Visible: true, Rect: rc})
}

func (r *Reorderer) setIndicator(ind Indicator) {
	if ind == r.indicator {
		return
	}
	r.indicator = ind
	if r.onIndicator != nil {
		r.onIndicator(ind)
	}
}

// End finishes session, moving element when target differs from start.
func (r *Reorderer) End() (ReorderEvent, bool) {
	if !r.active {
		return ReorderEvent{}, false
	}
	r.active = false
	if r.release != nil {
		r.release()
		r.release = nil
	}
	r.guard.Release(SessionReorder)
	r.setIndicator(Indicator{})

	if r.target == r.start {
		r.log.Debug("Reorder ended without move")
		return ReorderEvent{}, false
	}
	var err error
	if r.mode == ModeColumn {
		err = r.engine.MoveColumn(r.start, r.target)
	} else {
		err = r.engine.MoveRow(r.start, r.target)
	}
	if err != nil {
		r.log.Debug("Reorder failed, table changed during drag", zap.Error(err))
		return ReorderEvent{}, false
	}
	ev := ReorderEvent{StartElementIndex: r.start, FinalTargetIndex: r.target}
	r.log.Debug("Reorder completed", zap.Stringer("mode", r.mode), zap.Int("from", ev.StartElementIndex), zap.Int("to", ev.FinalTargetIndex))
	for _, fn := range r.onReorder {
		fn(r.mode, ev)
	}
	return ev, true
}

// Cancel finishes session without moving anything.
func (r *Reorderer) Cancel() {
	if !r.active {
		return
	}
	r.target = r.start
	r.End()
}
