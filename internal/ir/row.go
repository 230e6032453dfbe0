package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"golang.org/x/text/unicode/norm"
)

// Field is a single (column, value) pair in a Row.
type Field struct {
	Name  string
	Value IRValue
}

// F is a shorthand for constructing a Field.
// Example: Row{F("Id", IRInt(1)), F("Name", IRString("Bob"))}
func F(name string, value IRValue) Field {
	return Field{Name: name, Value: value}
}

// Row is an ordered collection of (column, value) pairs as returned by an
// execution adapter. Column order is the order of the projection.
type Row []Field

// Len returns the number of columns in the row.
func (r Row) Len() int {
	return len(r)
}

// Get returns the value of the column with exactly the given name.
func (r Row) Get(name string) (IRValue, bool) {
	for _, f := range r {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Columns returns the column names in order.
func (r Row) Columns() []string {
	names := make([]string, len(r))
	for i, f := range r {
		names[i] = f.Name
	}
	return names
}

// Clone returns a copy of the row that shares no backing array with r.
func (r Row) Clone() Row {
	if r == nil {
		return nil
	}
	out := make(Row, len(r))
	copy(out, r)
	return out
}

// MarshalJSON renders the row as a JSON object preserving column order.
// Strings are NFC-normalized so that equal text always renders identically.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(norm.NFC.String(f.Name))
		if err != nil {
			return nil, fmt.Errorf("marshal key %q: %w", f.Name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')

		val, err := MarshalValue(f.Value)
		if err != nil {
			return nil, fmt.Errorf("marshal value for key %q: %w", f.Name, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalValue renders a single IRValue as JSON.
// NaN and infinities have no JSON form and are rejected.
func MarshalValue(v IRValue) ([]byte, error) {
	switch val := v.(type) {
	case nil, IRNull:
		return []byte("null"), nil
	case IRString:
		return json.Marshal(norm.NFC.String(string(val)))
	case IRInt:
		return []byte(strconv.FormatInt(int64(val), 10)), nil
	case IRFloat:
		f := float64(val)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("cannot marshal non-finite float %v", f)
		}
		return []byte(strconv.FormatFloat(f, 'g', -1, 64)), nil
	case IRBool:
		if val {
			return []byte("true"), nil
		}
		return []byte("false"), nil
	default:
		return nil, fmt.Errorf("unsupported IRValue type: %T", v)
	}
}
