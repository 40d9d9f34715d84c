package gtfsedit

import (
	"fmt"
	"slices"
)

// Row maps column names to cells. Columns absent from a Row are null.
type Row map[string]Value

// Table is one GTFS file. Every row holds exactly one cell per column.
type Table struct {
	name    string
	columns []string
	index   map[string]int
	rows    [][]Value

	// trailingComma is set when the source header ended in an unnamed empty
	// column. It is written back on export.
	trailingComma bool
	// lines holds the source line of each loaded row. Rows added later have
	// no entry.
	lines []int
}

func NewTable(name string, columns []string) (*Table, error) {
	t := &Table{name: name, columns: slices.Clone(columns), index: make(map[string]int, len(columns))}
	for i, col := range t.columns {
		if col == "" {
			return nil, fmt.Errorf("empty column name at position %d", i+1)
		}
		if _, dup := t.index[col]; dup {
			return nil, fmt.Errorf("duplicate column %s", col)
		}
		t.index[col] = i
	}
	return t, nil
}

func (t *Table) Name() string { return t.name }

func (t *Table) Columns() []string { return slices.Clone(t.columns) }

func (t *Table) HasColumn(column string) bool {
	_, ok := t.index[column]
	return ok
}

func (t *Table) Len() int { return len(t.rows) }

func (t *Table) Value(row int, column string) Value {
	i, ok := t.index[column]
	if !ok {
		return Null
	}
	return t.rows[row][i]
}

func (t *Table) Row(i int) Row {
	row := make(Row, len(t.columns))
	for j, col := range t.columns {
		row[col] = t.rows[i][j]
	}
	return row
}

func (t *Table) Rows() []Row {
	out := make([]Row, len(t.rows))
	for i := range t.rows {
		out[i] = t.Row(i)
	}
	return out
}

// Filter returns a new table with the same columns holding the rows for which
// keep returns true.
func (t *Table) Filter(keep func(t *Table, row int) bool) *Table {
	out := t.emptyCopy()
	for i, cells := range t.rows {
		if keep(t, i) {
			out.rows = append(out.rows, cells)
		}
	}
	return out
}

// Equal reports whether both tables have the same columns and cells.
func (t *Table) Equal(other *Table) bool {
	if !slices.Equal(t.columns, other.columns) || len(t.rows) != len(other.rows) ||
		t.trailingComma != other.trailingComma {
		return false
	}
	for i := range t.rows {
		for j := range t.rows[i] {
			if !t.rows[i][j].Equal(other.rows[i][j]) {
				return false
			}
		}
	}
	return true
}

func (t *Table) appendCells(cells []Value) {
	if len(cells) < len(t.columns) {
		padded := make([]Value, len(t.columns))
		copy(padded, cells)
		cells = padded
	}
	t.rows = append(t.rows, cells)
}

// sourceLine returns the line a row was loaded from, or 0 if it is unknown.
func (t *Table) sourceLine(row int) int {
	if row < len(t.lines) {
		return t.lines[row]
	}
	return 0
}

func (t *Table) emptyCopy() *Table {
	out := &Table{
		name:          t.name,
		columns:       slices.Clone(t.columns),
		index:         make(map[string]int, len(t.index)),
		trailingComma: t.trailingComma,
	}
	for col, i := range t.index {
		out.index[col] = i
	}
	return out
}

// clone copies the row slices so the result can be edited without touching t.
func (t *Table) clone() *Table {
	out := t.emptyCopy()
	out.rows = make([][]Value, len(t.rows))
	for i, cells := range t.rows {
		out.rows[i] = slices.Clone(cells)
	}
	out.lines = slices.Clone(t.lines)
	return out
}

func (t *Table) addColumn(column string) {
	t.index[column] = len(t.columns)
	t.columns = append(t.columns, column)
	for i := range t.rows {
		t.rows[i] = append(t.rows[i], Null)
	}
}
