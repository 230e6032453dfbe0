package query

import (
	"context"
	"iter"

	"github.com/roach88/deferq/internal/ir"
)

// Rows is a lazy sequence of result rows. A non-nil error ends the sequence.
type Rows = iter.Seq2[ir.Row, error]

// Adapter executes a Query against a data source.
//
// RunQuery must honor the projection (all columns when none are selected),
// criteria, order clauses in sequence, and skip-then-take paging. Count and
// exists sentinel projections are the adapter's to interpret. RunQuery may
// be called many times with different Queries derived from the same root.
type Adapter interface {
	RunQuery(ctx context.Context, q Query) (Rows, error)
}

// AdapterFunc adapts a function to the Adapter interface.
type AdapterFunc func(ctx context.Context, q Query) (Rows, error)

// RunQuery calls f(ctx, q).
func (f AdapterFunc) RunQuery(ctx context.Context, q Query) (Rows, error) {
	return f(ctx, q)
}

// RowsOf returns a Rows sequence over a fixed slice.
func RowsOf(rows ...ir.Row) Rows {
	return func(yield func(ir.Row, error) bool) {
		for _, r := range rows {
			if !yield(r, nil) {
				return
			}
		}
	}
}
