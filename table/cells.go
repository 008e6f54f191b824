package table

// CellRef addresses table cell.
type CellRef struct {
	Row, Col int
}

// CellSelection tracks rectangular cell selection. It is presentation only,
// nothing is stored in the table.
type CellSelection struct {
	engine *Engine
	guard  *Guard

	anchor, focus CellRef
	selecting     bool
	has           bool
	onChange      func()
}

func NewCellSelection(engine *Engine) *CellSelection {
	return &CellSelection{engine: engine, guard: engine.guard}
}

// OnChange registers renderer of selected markers.
func (s *CellSelection) OnChange(fn func()) {
	s.onChange = fn
}

func (s *CellSelection) changed() {
	if s.onChange != nil {
		s.onChange()
	}
}

func (s *CellSelection) clamp(ref CellRef) CellRef {
	tbl := s.engine.Table()
	ref.Row = min(max(ref.Row, 0), tbl.RowCount()-1)
	ref.Col = min(max(ref.Col, 0), tbl.Columns()-1)
	return ref
}

// Begin starts selecting from cell.
func (s *CellSelection) Begin(ref CellRef) bool {
	if !s.guard.Acquire(SessionCellSelect) {
		return false
	}
	s.anchor = s.clamp(ref)
	s.focus = s.anchor
	s.selecting, s.has = true, true
	s.changed()
	return true
}

// Extend moves opposite corner of the rectangle.
func (s *CellSelection) Extend(ref CellRef) {
	if !s.selecting {
		return
	}
	if ref = s.clamp(ref); ref != s.focus {
		s.focus = ref
		s.changed()
	}
}

// End stops selecting, selection stays visible.
func (s *CellSelection) End() {
	if !s.selecting {
		return
	}
	s.selecting = false
	s.guard.Release(SessionCellSelect)
}

// Blur clears selection when table loses focus.
func (s *CellSelection) Blur() {
	s.End()
	if s.has {
		s.has = false
		s.changed()
	}
}

// Bounds returns selected rectangle, inclusive.
func (s *CellSelection) Bounds() (top, left, bottom, right int, ok bool) {
	if !s.has {
		return 0, 0, 0, 0, false
	}
	return min(s.anchor.Row, s.focus.Row), min(s.anchor.Col, s.focus.Col),
		max(s.anchor.Row, s.focus.Row), max(s.anchor.Col, s.focus.Col), true
}

func (s *CellSelection) Selected(ref CellRef) bool {
	top, left, bottom, right, ok := s.Bounds()
	return ok && ref.Row >= top && ref.Row <= bottom && ref.Col >= left && ref.Col <= right
}

// Cells returns selected cells in row-major order.
func (s *CellSelection) Cells() []CellRef {
	top, left, bottom, right, ok := s.Bounds()
	if !ok {
		return nil
	}
	res := make([]CellRef, 0, (bottom-top+1)*(right-left+1))
	for r := top; r <= bottom; r++ {
		for c := left; c <= right; c++ {
			res = append(res, CellRef{Row: r, Col: c})
		}
	}
	return res
}
