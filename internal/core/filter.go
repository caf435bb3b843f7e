package core

import (
	"fmt"
	"runtime"

	"github.com/bits-and-blooms/bitset"
	"golang.org/x/sync/errgroup"
)

// Constraint is a single (column, target) condition.
type Constraint struct {
	Column string
	Target Value
}

// Filter returns a new table holding the rows of t that satisfy every
// (columns[i], values[i]) constraint. t is not modified.
//
// Errors, in the order they are checked:
//   - ErrNotLoaded if t is nil
//   - ErrArityMismatch if len(columns) != len(values)
//   - ErrInvalidTolerance if opts.FloatTol is negative or NaN
//   - *UnknownColumnError (ErrUnknownColumn) for the first absent column
//
// An empty constraint list returns a copy of t.
func Filter(t *Table, columns []string, values []Value, opts Options) (*Table, error) {
	if t == nil {
		return nil, ErrNotLoaded
	}
	if len(columns) != len(values) {
		return nil, fmt.Errorf("%w: %d columns, %d values", ErrArityMismatch, len(columns), len(values))
	}

	constraints := make([]Constraint, len(columns))
	for i := range columns {
		constraints[i] = Constraint{Column: columns[i], Target: values[i]}
	}
	return FilterConstraints(t, constraints, opts)
}

// FilterConstraints is Filter for a pre-paired constraint list.
func FilterConstraints(t *Table, constraints []Constraint, opts Options) (*Table, error) {
	if t == nil {
		return nil, ErrNotLoaded
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}

	bound, err := t.bind(constraints)
	if err != nil {
		return nil, err
	}
	if len(bound) == 0 {
		return t.Clone(), nil
	}

	var matches []*bitset.BitSet
	if opts.Parallel && len(bound) > 1 {
		matches, err = t.evaluateParallel(bound, opts)
		if err != nil {
			return nil, err
		}
	} else {
		matches = make([]*bitset.BitSet, len(bound))
		for i, b := range bound {
			matches[i] = t.evaluate(b, opts)
		}
	}

	mask := bitset.New(uint(t.rows))
	mask.FlipRange(0, uint(t.rows))
	for _, m := range matches {
		mask.InPlaceIntersection(m)
	}

	return t.selectRows(mask), nil
}

// boundConstraint is a constraint resolved against a table's columns.
type boundConstraint struct {
	column int
	target Value
}

// bind resolves every constraint column, reporting the first absent one in
// declaration order.
func (t *Table) bind(constraints []Constraint) ([]boundConstraint, error) {
	bound := make([]boundConstraint, len(constraints))
	for i, c := range constraints {
		idx, ok := t.index[c.Column]
		if !ok {
			return nil, &UnknownColumnError{Column: c.Column, Available: t.ColumnNames()}
		}
		bound[i] = boundConstraint{column: idx, target: c.Target}
	}
	return bound, nil
}

// evaluate returns the set of rows matching one constraint.
func (t *Table) evaluate(b boundConstraint, opts Options) *bitset.BitSet {
	match := strategyFor(t.kinds[b.column], b.target.kind)(b.target, opts)

	bits := bitset.New(uint(t.rows))
	for i, cell := range t.columns[b.column].Cells {
		if match(cell) {
			bits.Set(uint(i))
		}
	}
	return bits
}

// evaluateParallel evaluates constraints concurrently. Results keep
// constraint order so the intersection is the same as sequential evaluation.
func (t *Table) evaluateParallel(bound []boundConstraint, opts Options) ([]*bitset.BitSet, error) {
	matches := make([]*bitset.BitSet, len(bound))

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, b := range bound {
		g.Go(func() error {
			matches[i] = t.evaluate(b, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("evaluate constraints: %w", err)
	}
	return matches, nil
}
