// Package table implements table block editing: guarded matrix mutations,
// column and row reordering, column resizing and rectangular cell
// selection.
package table

import (
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"cbe/block"
)

var (
	ErrIndex = errors.New("table index out of range")
	ErrBusy  = errors.New("table is busy")
)

// Kind of table change reported to observers.
// ENUM(structure, width, content)
type Change int

const (
	ChangeStructure Change = iota
	ChangeWidth
	ChangeContent
)

var changeNames = []string{"structure", "width", "content"}

func (x Change) String() string {
	if int(x) >= 0 && int(x) < len(changeNames) {
		return changeNames[x]
	}
	return fmt.Sprintf("Change(%d)", int(x))
}

// Engine mutates one table matrix. Degenerate edits are refused silently.
type Engine struct {
	log   *zap.Logger
	tbl   *block.Table
	guard *Guard

	nextObserver int
	observers    []observer
}

type observer struct {
	id int
	fn func(Change)
}

func NewEngine(tbl *block.Table, guard *Guard, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	if guard == nil {
		guard = &Guard{}
	}
	if tbl == nil || tbl.Validate() != nil {
		tbl = block.NewTable(1, 1)
	}
	return &Engine{log: log.Named("table"), tbl: tbl, guard: guard}
}

func (e *Engine) Table() *block.Table {
	return e.tbl
}

// Busy reports whether pointer session is in progress.
func (e *Engine) Busy() bool {
	return e.guard.Busy()
}

// OnChange registers observer called after every successful mutation.
func (e *Engine) OnChange(fn func(Change)) (unsubscribe func()) {
	e.nextObserver++
	id := e.nextObserver
	e.observers = append(e.observers, observer{id: id, fn: fn})
	return func() {
		e.observers = slices.DeleteFunc(e.observers, func(o observer) bool { return o.id == id })
	}
}

// OnStructure registers observer of row and column changes.
func (e *Engine) OnStructure(fn func()) (unsubscribe func()) {
	return e.OnChange(func(c Change) {
		if c == ChangeStructure {
			fn()
		}
	})
}

// refused reports structure or content edit attempted while pointer
// session owns the table.
func (e *Engine) refused(op string) bool {
	if !e.guard.Busy() {
		return false
	}
	e.log.Debug("Table edit refused, table is busy", zap.String("op", op), zap.Stringer("session", e.guard.Active()))
	return true
}

func (e *Engine) changed(c Change) {
	for _, o := range slices.Clone(e.observers) {
		o.fn(c)
	}
}

// AddColumn appends default cell to every row. Refused during pointer
// session.
func (e *Engine) AddColumn() bool {
	if e.refused("add column") {
		return false
	}
	for r := range e.tbl.Rows {
		e.tbl.Rows[r] = append(e.tbl.Rows[r], block.NewCell())
	}
	e.log.Debug("Column added", zap.Int("columns", e.tbl.Columns()))
	e.changed(ChangeStructure)
	return true
}

// DeleteColumn removes last column. Refused for single column tables and
// when any cell of the last column has content.
func (e *Engine) DeleteColumn() bool {
	if e.refused("delete column") {
		return false
	}
	cols := e.tbl.Columns()
	if cols <= 1 {
		e.log.Debug("Column delete refused, single column")
		return false
	}
	for _, row := range e.tbl.Rows {
		if !row[cols-1].IsEmpty() {
			e.log.Debug("Column delete refused, last column has content")
			return false
		}
	}
	for r := range e.tbl.Rows {
		e.tbl.Rows[r] = e.tbl.Rows[r][:cols-1]
	}
	e.log.Debug("Column deleted", zap.Int("columns", e.tbl.Columns()))
	e.changed(ChangeStructure)
	return true
}

// AddRow appends row of default cells. Refused during pointer session.
func (e *Engine) AddRow() bool {
	if e.refused("add row") {
		return false
	}
	row := make([]block.Cell, e.tbl.Columns())
	for c := range row {
		row[c] = block.NewCell()
	}
	e.tbl.Rows = append(e.tbl.Rows, row)
	e.log.Debug("Row added", zap.Int("rows", e.tbl.RowCount()))
	e.changed(ChangeStructure)
	return true
}

// DeleteRow removes last row. Refused for single row tables and when last
// row has content.
func (e *Engine) DeleteRow() bool {
	if e.refused("delete row") {
		return false
	}
	rows := e.tbl.RowCount()
	if rows <= 1 {
		e.log.Debug("Row delete refused, single row")
		return false
	}
	for _, c := range e.tbl.Rows[rows-1] {
		if !c.IsEmpty() {
			e.log.Debug("Row delete refused, last row has content")
			return false
		}
	}
	e.tbl.Rows = e.tbl.Rows[:rows-1]
	e.log.Debug("Row deleted", zap.Int("rows", e.tbl.RowCount()))
	e.changed(ChangeStructure)
	return true
}

func move[T any](s []T, from, to int) []T {
	v := s[from]
	s = slices.Delete(s, from, from+1)
	return slices.Insert(s, to, v)
}

// MoveColumn moves column keeping cells identity.
func (e *Engine) MoveColumn(from, to int) error {
	cols := e.tbl.Columns()
	if from < 0 || from >= cols || to < 0 || to >= cols {
		return fmt.Errorf("move column %d -> %d of %d: %w", from, to, cols, ErrIndex)
	}
	if from == to {
		return nil
	}
	if e.refused("move column") {
		return ErrBusy
	}
	for r := range e.tbl.Rows {
		e.tbl.Rows[r] = move(e.tbl.Rows[r], from, to)
	}
	e.log.Debug("Column moved", zap.Int("from", from), zap.Int("to", to))
	e.changed(ChangeStructure)
	return nil
}

// MoveRow moves row keeping cells identity.
func (e *Engine) MoveRow(from, to int) error {
	rows := e.tbl.RowCount()
	if from < 0 || from >= rows || to < 0 || to >= rows {
		return fmt.Errorf("move row %d -> %d of %d: %w", from, to, rows, ErrIndex)
	}
	if from == to {
		return nil
	}
	if e.refused("move row") {
		return ErrBusy
	}
	e.tbl.Rows = move(e.tbl.Rows, from, to)
	e.log.Debug("Row moved", zap.Int("from", from), zap.Int("to", to))
	e.changed(ChangeStructure)
	return nil
}

// SetCell replaces cell markup.
func (e *Engine) SetCell(row, col int, markup string) error {
	c, ok := e.tbl.Cell(row, col)
	if !ok {
		return fmt.Errorf("cell %d,%d: %w", row, col, ErrIndex)
	}
	if c.Content == markup {
		return nil
	}
	if e.refused("set cell") {
		return ErrBusy
	}
	c.Content = markup
	e.changed(ChangeContent)
	return nil
}

// SetColumnWidth stores width option of the column cells. Allowed during
// pointer sessions, resize applies widths live.
func (e *Engine) SetColumnWidth(col int, width float64) error {
	if col < 0 || col >= e.tbl.Columns() {
		return fmt.Errorf("column %d: %w", col, ErrIndex)
	}
	e.tbl.SetColumnWidth(col, width)
	e.changed(ChangeWidth)
	return nil
}
