package table

import (
	"math"
	"slices"

	"go.uber.org/zap"

	"cbe/config"
	"cbe/dom"
)

// Handle is resize affordance shown at column boundary.
type Handle struct {
	Visible bool
	Column  int
	Rect    dom.Rect
}

// WidthEvent is emitted once per completed resize.
type WidthEvent struct {
	ColumnIndex int     `json:"columnIndex"`
	Width       float64 `json:"width"`
}

// Resizer drives column width drag sessions and keeps width group in sync
// with table columns.
type Resizer struct {
	log     *zap.Logger
	engine  *Engine
	guard   *Guard
	layout  Layout
	pointer PointerHost
	cfg     config.TableConfig

	widths []float64
	handle Handle

	active  bool
	col     int
	startX  float64
	startW  float64
	release func()

	onHandle    func(Handle)
	onWidth     []func(WidthEvent)
	unsubscribe func()
}

func NewResizer(engine *Engine, layout Layout, pointer PointerHost, cfg config.TableConfig, log *zap.Logger) *Resizer {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Resizer{
		log:     log.Named("resize"),
		engine:  engine,
		guard:   engine.guard,
		layout:  layout,
		pointer: pointer,
		cfg:     cfg,
	}
	r.Sync()
	r.unsubscribe = engine.OnStructure(r.Sync)
	return r
}

// Close stops tracking table structure.
func (r *Resizer) Close() {
	if r.unsubscribe != nil {
		r.unsubscribe()
		r.unsubscribe = nil
	}
}

func (r *Resizer) OnHandle(fn func(Handle)) {
	r.onHandle = fn
}

func (r *Resizer) OnWidth(fn func(WidthEvent)) {
	r.onWidth = append(r.onWidth, fn)
}

// Widths returns current width of every column.
func (r *Resizer) Widths() []float64 {
	return slices.Clone(r.widths)
}

func (r *Resizer) Active() bool {
	return r.active
}

// Sync recomputes width group from table: resized columns keep their width
// (and cells added later receive it), others get configured default.
func (r *Resizer) Sync() {
	tbl := r.engine.Table()
	cols := tbl.Columns()
	r.widths = slices.Grow(r.widths[:0], cols)[:cols]
	for c := range cols {
		if w := tbl.ColumnWidth(c); w > 0 {
			r.widths[c] = w
			tbl.SetColumnWidth(c, w)
			continue
		}
		r.widths[c] = r.cfg.DefaultColumnWidth
	}
}

func (r *Resizer) setHandle(h Handle) {
	if h == r.handle {
		return
	}
	r.handle = h
	if r.onHandle != nil {
		r.onHandle(h)
	}
}

// Hover shows handle when pointer is within half handle width of a column
// boundary.
func (r *Resizer) Hover(pos dom.Coord) Handle {
	if r.active {
		return r.handle
	}
	if r.layout == nil {
		return Handle{}
	}
	rects := r.layout.ColumnRects()
	bounds := dom.Union(rects...)
	h := Handle{}
	if pos.Y >= bounds.Top() && pos.Y <= bounds.Bottom() {
		half := r.cfg.HandleWidth / 2
		for i, rc := range rects {
			if math.Abs(pos.X-rc.Right()) <= half {
				h = Handle{
					Visible: true,
					Column:  i,
					Rect:    dom.Rect{X: rc.Right() - half, Y: bounds.Y, W: r.cfg.HandleWidth, H: bounds.H},
				}
				break
			}
		}
	}
	r.setHandle(h)
	return h
}

// Begin starts resizing column under handle at pos.
func (r *Resizer) Begin(pos dom.Coord) bool {
	if r.layout == nil || r.pointer == nil {
		r.log.Debug("Resize is not available, missing host capabilities")
		return false
	}
	h := r.Hover(pos)
	if !h.Visible || h.Column >= len(r.widths) {
		return false
	}
	if !r.guard.Acquire(SessionResize) {
		r.log.Debug("Resize refused, table is busy", zap.Stringer("session", r.guard.Active()))
		return false
	}
	r.active = true
	r.col = h.Column
	r.startX = pos.X
	r.startW = r.widths[r.col]
	if rects := r.layout.ColumnRects(); r.col < len(rects) && rects[r.col].W > 0 {
		r.startW = rects[r.col].W
	}
	r.release = r.pointer.Capture(r.Move, func() { r.End() })
	r.log.Debug("Resize started", zap.Int("column", r.col), zap.Float64("width", r.startW))
	return true
}

// Move applies new width live, never below configured minimum.
func (r *Resizer) Move(pos dom.Coord) {
	if !r.active {
		return
	}
	if r.col >= len(r.widths) {
		r.log.Debug("Resize cancelled, column is gone", zap.Int("column", r.col))
		r.finish()
		return
	}
	w := max(r.startW+(pos.X-r.startX), r.cfg.MinColumnWidth)
	if w == r.widths[r.col] {
		return
	}
	r.widths[r.col] = w
	if err := r.engine.SetColumnWidth(r.col, w); err != nil {
		r.log.Debug("Unable to apply width", zap.Error(err))
	}
}

// End finishes session and reports final width.
func (r *Resizer) End() (WidthEvent, bool) {
	if !r.active {
		return WidthEvent{}, false
	}
	r.finish()
	if r.col >= len(r.widths) {
		r.log.Debug("Resize ended without width, column is gone", zap.Int("column", r.col))
		return WidthEvent{}, false
	}

	ev := WidthEvent{ColumnIndex: r.col, Width: r.widths[r.col]}
	r.log.Debug("Resize completed", zap.Int("column", ev.ColumnIndex), zap.Float64("width", ev.Width))
	for _, fn := range r.onWidth {
		fn(ev)
	}
	return ev, true
}

func (r *Resizer) finish() {
	r.active = false
	if r.release != nil {
		r.release()
		r.release = nil
	}
	r.guard.Release(SessionResize)
	r.setHandle(Handle{})
}
