package query

import (
	"slices"

	"github.com/roach88/deferq/internal/queryir"
)

// optInt is an optional non-negative count. Negative values are stored
// as given and rejected by the execution layer.
type optInt struct {
	n   int
	set bool
}

// Query is an immutable description of a table read.
//
// The zero Query has no adapter and no table; build Queries with New or
// from a provider.DB. Copying a Query value is cheap and shares its result
// slot; every transformation returns a Query with a fresh slot.
type Query struct {
	adapter  Adapter
	table    string
	columns  []queryir.Reference
	criteria queryir.Expression
	order    []queryir.OrderClause
	skip     optInt
	take     optInt
	cache    *resultCache
}

// New returns a Query over table executed by adapter.
func New(adapter Adapter, table string) Query {
	return Query{adapter: adapter, table: table, cache: &resultCache{}}
}

// derive returns a copy of q with a fresh result slot.
// Slices are shared; every writer below replaces them instead of mutating.
func (q Query) derive() Query {
	q.cache = &resultCache{}
	return q
}

// Adapter returns the execution collaborator.
func (q Query) Adapter() Adapter { return q.adapter }

// Table returns the table path, e.g. "Users" or "Customers.Orders".
func (q Query) Table() string { return q.table }

// Columns returns a copy of the projected references. Empty means all columns.
func (q Query) Columns() []queryir.Reference { return slices.Clone(q.columns) }

// Criteria returns the criteria root, or nil when unfiltered.
func (q Query) Criteria() queryir.Expression { return q.criteria }

// Order returns a copy of the order clauses in call order.
func (q Query) Order() []queryir.OrderClause { return slices.Clone(q.order) }

// SkipCount returns the skip count and whether one was set.
func (q Query) SkipCount() (int, bool) { return q.skip.n, q.skip.set }

// TakeCount returns the take count and whether one was set.
func (q Query) TakeCount() (int, bool) { return q.take.n, q.take.set }

// Ref builds a reference to a column of this Query's table path.
// Example: New(a, "Users").Ref("Name") → Users.Name
func (q Query) Ref(column string) queryir.Reference {
	return queryir.ParseReference(q.table + "." + column)
}

// Select replaces the projected columns.
// Membership of the references in the table is checked at execution.
func (q Query) Select(refs ...queryir.Reference) Query {
	d := q.derive()
	d.columns = slices.Clone(refs)
	return d
}

// Where sets the criteria, or conjoins with existing criteria as
// AND(existing, criteria). A nil criteria leaves q unchanged.
func (q Query) Where(criteria queryir.Expression) Query {
	d := q.derive()
	switch {
	case criteria == nil:
	case q.criteria == nil:
		d.criteria = criteria
	default:
		d.criteria = queryir.And(q.criteria, criteria)
	}
	return d
}

// ReplaceWhere overwrites the criteria without conjunction.
func (q Query) ReplaceWhere(criteria queryir.Expression) Query {
	d := q.derive()
	d.criteria = criteria
	return d
}

// OrderBy replaces the order clauses with a single ascending clause.
func (q Query) OrderBy(ref queryir.Reference) Query {
	return q.withOrder(queryir.Asc(ref))
}

// OrderByDescending replaces the order clauses with a single descending clause.
func (q Query) OrderByDescending(ref queryir.Reference) Query {
	return q.withOrder(queryir.Desc(ref))
}

func (q Query) withOrder(c queryir.OrderClause) Query {
	d := q.derive()
	d.order = []queryir.OrderClause{c}
	return d
}

// ThenBy appends an ascending clause. It fails with a UsageError when
// no order clause exists yet.
func (q Query) ThenBy(ref queryir.Reference) (Query, error) {
	return q.appendOrder("ThenBy", queryir.Asc(ref))
}

// ThenByDescending appends a descending clause. It fails with a UsageError
// when no order clause exists yet.
func (q Query) ThenByDescending(ref queryir.Reference) (Query, error) {
	return q.appendOrder("ThenByDescending", queryir.Desc(ref))
}

func (q Query) appendOrder(op string, c queryir.OrderClause) (Query, error) {
	if len(q.order) == 0 {
		return Query{}, usageErrorf(op, "requires a prior OrderBy on %s", q.table)
	}
	d := q.derive()
	d.order = append(slices.Clone(q.order), c)
	return d, nil
}

// Skip sets the number of leading rows to skip.
func (q Query) Skip(n int) Query {
	d := q.derive()
	d.skip = optInt{n: n, set: true}
	return d
}

// Take sets the maximum number of rows to return.
func (q Query) Take(n int) Query {
	d := q.derive()
	d.take = optInt{n: n, set: true}
	return d
}

// Navigate scopes the Query to a related table or member:
// New(a, "Customers").Navigate("Orders") reads "Customers.Orders".
// All other fields are carried over.
func (q Query) Navigate(member string) Query {
	d := q.derive()
	if d.table == "" {
		d.table = member
	} else {
		d.table = q.table + "." + member
	}
	return d
}

// capTake returns q limited to at most n rows, keeping a smaller existing take.
func (q Query) capTake(n int) Query {
	if q.take.set && q.take.n <= n {
		return q
	}
	return q.Take(n)
}
