package block

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

// CellOptions are layout options of a table cell. Width is set once the
// column was resized.
type CellOptions struct {
	Colspan int      `json:"colspan"`
	Rowspan int      `json:"rowspan"`
	Width   *float64 `json:"width,omitempty"`
}

type Cell struct {
	Content string            `json:"content"`
	Props   Props             `json:"props"`
	Styles  map[string]string `json:"styles"`
	Options CellOptions       `json:"options"`
}

// NewCell returns default empty cell.
func NewCell() Cell {
	return Cell{Styles: map[string]string{}, Options: CellOptions{Colspan: 1, Rowspan: 1}}
}

func (c Cell) IsEmpty() bool {
	return IsEmptyMarkup(c.Content)
}

func (c Cell) Clone() Cell {
	res := c
	res.Props = c.Props.Clone()
	res.Styles = maps.Clone(c.Styles)
	if c.Options.Width != nil {
		w := *c.Options.Width
		res.Options.Width = &w
	}
	return res
}

// Table is a rectangular row-major matrix of cells, it always keeps at least
// one row and one column.
type Table struct {
	Rows [][]Cell
}

var ErrNotRectangular = errors.New("table is not rectangular")

// NewTable creates table of empty cells, sizes below one are raised to one.
func NewTable(rows, cols int) *Table {
	rows, cols = max(rows, 1), max(cols, 1)
	t := &Table{Rows: make([][]Cell, rows)}
	for r := range t.Rows {
		t.Rows[r] = make([]Cell, cols)
		for c := range t.Rows[r] {
			t.Rows[r][c] = NewCell()
		}
	}
	return t
}

func (t *Table) RowCount() int {
	return len(t.Rows)
}

func (t *Table) Columns() int {
	if len(t.Rows) == 0 {
		return 0
	}
	return len(t.Rows[0])
}

// Validate checks matrix invariants.
func (t *Table) Validate() error {
	if len(t.Rows) == 0 || len(t.Rows[0]) == 0 {
		return fmt.Errorf("table must have at least one row and one column: %w", ErrNotRectangular)
	}
	cols := len(t.Rows[0])
	for i, row := range t.Rows {
		if len(row) != cols {
			return fmt.Errorf("row %d has %d cells, expected %d: %w", i, len(row), cols, ErrNotRectangular)
		}
	}
	return nil
}

func (t *Table) Cell(row, col int) (*Cell, bool) {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return nil, false
	}
	return &t.Rows[row][col], true
}

func (t *Table) IsEmpty() bool {
	for _, row := range t.Rows {
		for _, c := range row {
			if !c.IsEmpty() {
				return false
			}
		}
	}
	return true
}

func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	res := &Table{Rows: make([][]Cell, len(t.Rows))}
	for r, row := range t.Rows {
		res.Rows[r] = make([]Cell, len(row))
		for c, cell := range row {
			res.Rows[r][c] = cell.Clone()
		}
	}
	return res
}

// ColumnWidth returns width of the column taken from its first cell having
// one, zero when column was never resized.
func (t *Table) ColumnWidth(col int) float64 {
	for _, row := range t.Rows {
		if col < len(row) && row[col].Options.Width != nil {
			return *row[col].Options.Width
		}
	}
	return 0
}

// SetColumnWidth stores width in every cell of the column.
func (t *Table) SetColumnWidth(col int, width float64) {
	for r := range t.Rows {
		if col < len(t.Rows[r]) {
			w := width
			t.Rows[r][col].Options.Width = &w
		}
	}
}

// Equal compares cell contents of both tables.
func (t *Table) Equal(other *Table) bool {
	if t.RowCount() != other.RowCount() {
		return false
	}
	for r := range t.Rows {
		if !slices.EqualFunc(t.Rows[r], other.Rows[r], func(a, b Cell) bool {
			return a.Content == b.Content
		}) {
			return false
		}
	}
	return true
}
