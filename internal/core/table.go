package core

import (
	"fmt"
	"time"

	"github.com/bits-and-blooms/bitset"
	"github.com/google/uuid"
)

// Column is a named sequence of cells.
type Column struct {
	Name  string
	Kind  Kind // Declared kind; KindText for uncoerced columns
	Cells []Value
}

// Table is an ordered set of equally long columns.
//
// A Table is not modified after construction: Filter and Clone return new
// tables, so a loaded table may be shared between goroutines.
type Table struct {
	ID       uuid.UUID
	Source   string
	LoadedAt time.Time

	columns []Column
	kinds   []Kind
	index   map[string]int
	rows    int
}

// NewTable builds a table from columns. Column names must be unique and all
// columns must hold the same number of cells. The columns are copied.
func NewTable(columns ...Column) (*Table, error) {
	t := &Table{
		ID:       uuid.New(),
		LoadedAt: time.Now(),
		columns:  make([]Column, len(columns)),
		kinds:    make([]Kind, len(columns)),
		index:    make(map[string]int, len(columns)),
	}

	for i, col := range columns {
		if _, dup := t.index[col.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate column %q", ErrInvalidCSV, col.Name)
		}
		if i == 0 {
			t.rows = len(col.Cells)
		} else if len(col.Cells) != t.rows {
			return nil, fmt.Errorf("%w: column %q has %d cells, want %d",
				ErrInvalidCSV, col.Name, len(col.Cells), t.rows)
		}

		cells := make([]Value, len(col.Cells))
		copy(cells, col.Cells)
		t.columns[i] = Column{Name: col.Name, Kind: col.Kind, Cells: cells}
		t.kinds[i] = inferKind(col)
		t.index[col.Name] = i
	}

	return t, nil
}

// inferKind determines the comparison kind of a column from its cells.
// Missing cells are ignored; a column whose present cells disagree is opaque.
// A column with no present cells keeps its declared kind.
func inferKind(col Column) Kind {
	kind := KindMissing
	for _, cell := range col.Cells {
		if cell.kind == KindMissing {
			continue
		}
		if kind == KindMissing {
			kind = cell.kind
			continue
		}
		if cell.kind != kind {
			return KindOther
		}
	}
	if kind == KindMissing {
		return col.Kind
	}
	return kind
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int { return t.rows }

// NumColumns returns the number of columns.
func (t *Table) NumColumns() int { return len(t.columns) }

// ColumnNames returns the column names in table order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, col := range t.columns {
		names[i] = col.Name
	}
	return names
}

// HasColumn reports whether the table has a column with the given name.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column returns the named column. The returned cells must not be modified.
func (t *Table) Column(name string) (Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return Column{}, false
	}
	return t.columns[i], true
}

// ColumnKind returns the kind that selects comparison semantics for the
// named column.
func (t *Table) ColumnKind(name string) (Kind, bool) {
	i, ok := t.index[name]
	if !ok {
		return KindMissing, false
	}
	return t.kinds[i], true
}

// Row returns a copy of row i in column order.
func (t *Table) Row(i int) []Value {
	row := make([]Value, len(t.columns))
	for c, col := range t.columns {
		row[c] = col.Cells[i]
	}
	return row
}

// Value returns a single cell.
func (t *Table) Value(row int, column string) (Value, error) {
	i, ok := t.index[column]
	if !ok {
		return Value{}, &UnknownColumnError{Column: column, Available: t.ColumnNames()}
	}
	if row < 0 || row >= t.rows {
		return Value{}, fmt.Errorf("row %d out of range [0,%d)", row, t.rows)
	}
	return t.columns[i].Cells[row], nil
}

// ParseTarget converts a textual target, as typed on a command line or in a
// URL, into a Value suited to the named column: numeric and temporal columns
// parse it, everything else keeps it as text. A target that does not parse
// stays textual and so falls back to raw equality.
func (t *Table) ParseTarget(column, raw string) (Value, error) {
	kind, ok := t.ColumnKind(column)
	if !ok {
		return Value{}, &UnknownColumnError{Column: column, Available: t.ColumnNames()}
	}
	switch kind {
	case KindNumber:
		if v, ok := ParseNumber(raw); ok {
			return v, nil
		}
	case KindTemporal:
		if v, ok := ParseTemporal(raw); ok {
			return v, nil
		}
	}
	return Text(raw), nil
}

// ParseTargets applies ParseTarget pairwise. Targets whose column is absent
// stay textual, so Filter still reports the arity and unknown-column errors
// in its usual order.
func (t *Table) ParseTargets(columns, raw []string) []Value {
	out := make([]Value, len(raw))
	for i, s := range raw {
		out[i] = Text(s)
		if i >= len(columns) {
			continue
		}
		if v, err := t.ParseTarget(columns[i], s); err == nil {
			out[i] = v
		}
	}
	return out
}

// Clone returns an independent copy of the table with a new ID.
func (t *Table) Clone() *Table {
	mask := bitset.New(uint(t.rows))
	mask.FlipRange(0, uint(t.rows))
	return t.selectRows(mask)
}

// Slice returns up to limit rows starting at offset as a new table.
// A non-positive limit means every row from offset on.
func (t *Table) Slice(offset, limit int) *Table {
	offset = min(max(offset, 0), t.rows)
	end := t.rows
	if limit > 0 {
		end = min(offset+limit, t.rows)
	}
	mask := bitset.New(uint(t.rows))
	mask.FlipRange(uint(offset), uint(end))
	return t.selectRows(mask)
}

// selectRows returns a new table holding the rows set in mask, in order.
func (t *Table) selectRows(mask *bitset.BitSet) *Table {
	n := int(mask.Count())
	out := &Table{
		ID:       uuid.New(),
		Source:   t.Source,
		LoadedAt: t.LoadedAt,
		columns:  make([]Column, len(t.columns)),
		kinds:    make([]Kind, len(t.kinds)),
		index:    make(map[string]int, len(t.index)),
		rows:     n,
	}
	copy(out.kinds, t.kinds)
	for name, i := range t.index {
		out.index[name] = i
	}

	for c, col := range t.columns {
		cells := make([]Value, 0, n)
		for i, ok := mask.NextSet(0); ok && int(i) < t.rows; i, ok = mask.NextSet(i + 1) {
			cells = append(cells, col.Cells[i])
		}
		out.columns[c] = Column{Name: col.Name, Kind: col.Kind, Cells: cells}
	}

	return out
}
