package query

import (
	"github.com/roach88/deferq/internal/ir"
)

// Record is one result row bound to the table path it was read from.
type Record struct {
	table string
	row   ir.Row
}

func newRecord(table string, row ir.Row) Record {
	return Record{table: table, row: row}
}

// Table returns the table path the record was read from.
func (r Record) Table() string { return r.table }

// Row returns a copy of the underlying row.
func (r Record) Row() ir.Row { return r.row.Clone() }

// Len returns the number of columns.
func (r Record) Len() int { return r.row.Len() }

// IsZero reports whether r is the default record returned by the
// OrDefault operations.
func (r Record) IsZero() bool {
	return r.table == "" && r.row == nil
}

// Get looks a column up by exact name first, then by homogenized name
// (case and underscores ignored), so "last_name" finds "LastName".
func (r Record) Get(name string) (ir.IRValue, bool) {
	if v, ok := r.row.Get(name); ok {
		return v, true
	}
	key := ir.Homogenize(name)
	for _, f := range r.row {
		if ir.Homogenize(f.Name) == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Value is Get returning IRNull for a missing column.
func (r Record) Value(name string) ir.IRValue {
	if v, ok := r.Get(name); ok {
		return v
	}
	return ir.IRNull{}
}

// MarshalJSON renders the row as an ordered JSON object. The zero
// record renders as null.
func (r Record) MarshalJSON() ([]byte, error) {
	if r.IsZero() {
		return []byte("null"), nil
	}
	return r.row.MarshalJSON()
}
