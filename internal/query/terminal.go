package query

import (
	"context"
	"iter"

	"github.com/roach88/deferq/internal/ir"
	"github.com/roach88/deferq/internal/queryir"
)

// Iter returns a lazy sequence of records. The adapter is called when
// iteration starts, once per iteration, and results are not cached.
func (q Query) Iter(ctx context.Context) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		rows, err := q.run(ctx)
		if err != nil {
			yield(Record{}, err)
			return
		}
		for row, err := range rows {
			if err != nil {
				yield(Record{}, err)
				return
			}
			if !yield(newRecord(q.table, row), nil) {
				return
			}
		}
	}
}

// ToList materializes all rows. The first successful call caches the
// result for this Query value.
func (q Query) ToList(ctx context.Context) ([]Record, error) {
	rows, err := q.materialize(ctx)
	if err != nil {
		return nil, err
	}
	return q.records(rows), nil
}

// ToArray is ToList; the returned slice is always newly allocated.
func (q Query) ToArray(ctx context.Context) ([]Record, error) {
	return q.ToList(ctx)
}

// Count returns the number of matching rows. Any criteria given are
// conjoined with the Query's criteria first.
func (q Query) Count(ctx context.Context, criteria ...queryir.Expression) (int64, error) {
	cq := q.withCriteria(criteria).Select(queryir.CountRef())
	v, err := cq.ToScalar(ctx)
	if err != nil {
		return 0, err
	}
	return ScalarAs[int64](v)
}

// Exists reports whether any row matches. Any criteria given are conjoined
// with the Query's criteria first. The adapter must return zero or one row
// for the exists projection; more is a CardinalityError.
func (q Query) Exists(ctx context.Context, criteria ...queryir.Expression) (bool, error) {
	eq := q.withCriteria(criteria).Select(queryir.ExistsRef())
	rows, err := eq.collect(ctx)
	if err != nil {
		return false, err
	}
	switch len(rows) {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, cardinality(CodeMultipleRows, "Exists", q.table, len(rows))
	}
}

// Any is Exists.
func (q Query) Any(ctx context.Context, criteria ...queryir.Expression) (bool, error) {
	return q.Exists(ctx, criteria...)
}

// First returns the first row, or a CardinalityError when there is none.
func (q Query) First(ctx context.Context) (Record, error) {
	rows, err := q.head(ctx, 1)
	if err != nil {
		return Record{}, err
	}
	if len(rows) == 0 {
		return Record{}, cardinality(CodeNoRows, "First", q.table, 0)
	}
	return newRecord(q.table, rows[0]), nil
}

// FirstOrDefault returns the first row, or the zero Record when there is none.
func (q Query) FirstOrDefault(ctx context.Context) (Record, error) {
	rows, err := q.head(ctx, 1)
	if err != nil || len(rows) == 0 {
		return Record{}, err
	}
	return newRecord(q.table, rows[0]), nil
}

// Single returns the only row. No rows and more than one row are both
// CardinalityErrors.
func (q Query) Single(ctx context.Context) (Record, error) {
	rows, err := q.head(ctx, 2)
	if err != nil {
		return Record{}, err
	}
	switch len(rows) {
	case 0:
		return Record{}, cardinality(CodeNoRows, "Single", q.table, 0)
	case 1:
		return newRecord(q.table, rows[0]), nil
	default:
		return Record{}, cardinality(CodeMultipleRows, "Single", q.table, len(rows))
	}
}

// SingleOrDefault returns the only row, or the zero Record when there is
// none. More than one row is a CardinalityError.
func (q Query) SingleOrDefault(ctx context.Context) (Record, error) {
	rows, err := q.head(ctx, 2)
	if err != nil {
		return Record{}, err
	}
	switch len(rows) {
	case 0:
		return Record{}, nil
	case 1:
		return newRecord(q.table, rows[0]), nil
	default:
		return Record{}, cardinality(CodeMultipleRows, "SingleOrDefault", q.table, len(rows))
	}
}

// ToScalar returns the single value of a one-row, one-column result.
func (q Query) ToScalar(ctx context.Context) (ir.IRValue, error) {
	rows, err := q.head(ctx, 2)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, cardinality(CodeNoRows, "ToScalar", q.table, 0)
	}
	return q.scalar("ToScalar", rows)
}

// ToScalarOrDefault is ToScalar, except that an empty result yields IRNull.
func (q Query) ToScalarOrDefault(ctx context.Context) (ir.IRValue, error) {
	rows, err := q.head(ctx, 2)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return ir.IRNull{}, nil
	}
	return q.scalar("ToScalarOrDefault", rows)
}

// scalar applies the one-row, one-column contract to a non-empty result.
func (q Query) scalar(op string, rows []ir.Row) (ir.IRValue, error) {
	if len(rows) > 1 {
		return nil, cardinality(CodeMultipleRows, op, q.table, len(rows))
	}
	row := rows[0]
	switch row.Len() {
	case 0:
		return nil, cardinality(CodeNoRows, op, q.table, 1)
	case 1:
		return row[0].Value, nil
	default:
		return nil, cardinality(CodeMultipleColumns, op, q.table, row.Len())
	}
}

func (q Query) withCriteria(criteria []queryir.Expression) Query {
	for _, c := range criteria {
		q = q.Where(c)
	}
	return q
}

// run hands q to the adapter.
func (q Query) run(ctx context.Context) (Rows, error) {
	if q.adapter == nil {
		return nil, ErrNoAdapter
	}
	return q.adapter.RunQuery(ctx, q)
}

// collect executes q and drains the row sequence, bypassing the cache.
func (q Query) collect(ctx context.Context) ([]ir.Row, error) {
	rows, err := q.run(ctx)
	if err != nil {
		return nil, err
	}
	var out []ir.Row
	for row, err := range rows {
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}

// materialize returns all rows through the result slot.
func (q Query) materialize(ctx context.Context) ([]ir.Row, error) {
	if q.cache == nil {
		return q.collect(ctx)
	}
	return q.cache.load(ctx, q.collect)
}

// head returns at most n leading rows, from the slot when it is already
// filled, otherwise by executing q limited to n rows. Count and exists
// projections are not limited, since a take would apply before counting.
func (q Query) head(ctx context.Context, n int) ([]ir.Row, error) {
	if q.cache != nil {
		if rows, ok := q.cache.peek(); ok {
			if len(rows) > n {
				rows = rows[:n]
			}
			return rows, nil
		}
	}
	limited := q
	if !q.aggregate() {
		limited = q.capTake(n)
	}
	rows, err := limited.collect(ctx)
	if err != nil {
		return nil, err
	}
	if len(rows) > n {
		rows = rows[:n]
	}
	return rows, nil
}

// aggregate reports whether q projects a count or exists sentinel.
func (q Query) aggregate() bool {
	return len(q.columns) == 1 && q.columns[0].IsSentinel()
}

func (q Query) records(rows []ir.Row) []Record {
	out := make([]Record, len(rows))
	for i, r := range rows {
		out[i] = newRecord(q.table, r)
	}
	return out
}
