package queryir

import (
	"slices"
	"strings"

	"github.com/roach88/deferq/internal/ir"
)

// RefKind distinguishes real column references from projection sentinels.
type RefKind int

const (
	// RefColumn is a reference to a real "table.column" path.
	RefColumn RefKind = iota

	// RefCount requests a row-count projection (COUNT(*)).
	RefCount

	// RefExists requests a minimal existence-check projection.
	RefExists
)

// String returns a readable name for the kind.
func (k RefKind) String() string {
	switch k {
	case RefCount:
		return "count"
	case RefExists:
		return "exists"
	default:
		return "column"
	}
}

// Reference identifies a column (or a projection sentinel), optionally aliased.
//
// Reference is immutable: the path slice is never exposed, and every
// modifying method returns a new value.
type Reference struct {
	path  []string
	alias string
	kind  RefKind
}

func (Reference) operandNode() {}

// Ref builds a column reference from path segments.
// Example: Ref("Users", "Name") → Users.Name
func Ref(segments ...string) Reference {
	return Reference{path: slices.Clone(segments), kind: RefColumn}
}

// ParseReference builds a column reference from a dotted name.
// Example: ParseReference("Customers.Orders.OrderId")
func ParseReference(dotted string) Reference {
	if dotted == "" {
		return Reference{kind: RefColumn}
	}
	return Reference{path: strings.Split(dotted, "."), kind: RefColumn}
}

// CountRef returns the row-count sentinel reference.
func CountRef() Reference {
	return Reference{kind: RefCount}
}

// ExistsRef returns the existence-check sentinel reference.
func ExistsRef() Reference {
	return Reference{kind: RefExists}
}

// As returns a copy of r with the given alias.
func (r Reference) As(alias string) Reference {
	r.path = slices.Clone(r.path)
	r.alias = alias
	return r
}

// Kind returns whether r is a column or a sentinel.
func (r Reference) Kind() RefKind {
	return r.kind
}

// IsSentinel reports whether r is the count or exists sentinel.
func (r Reference) IsSentinel() bool {
	return r.kind != RefColumn
}

// Path returns a copy of the dot segments.
func (r Reference) Path() []string {
	return slices.Clone(r.path)
}

// Column returns the last path segment.
func (r Reference) Column() string {
	if len(r.path) == 0 {
		return ""
	}
	return r.path[len(r.path)-1]
}

// Table returns the segment that owns the column, or "" for a bare column.
func (r Reference) Table() string {
	if len(r.path) < 2 {
		return ""
	}
	return r.path[len(r.path)-2]
}

// Alias returns the alias, or "" when none is set.
func (r Reference) Alias() string {
	return r.alias
}

// Name returns the name the projected value is reported under:
// the alias when set, otherwise the column.
func (r Reference) Name() string {
	if r.alias != "" {
		return r.alias
	}
	return r.Column()
}

// String renders the reference as "a.b.c [AS alias]".
func (r Reference) String() string {
	var s string
	switch r.kind {
	case RefCount:
		s = "COUNT(*)"
	case RefExists:
		s = "EXISTS"
	default:
		s = strings.Join(r.path, ".")
	}
	if r.alias != "" {
		s += " AS " + r.alias
	}
	return s
}

// Eq builds "r = v". A null value compares with IS NULL.
func (r Reference) Eq(v any) Expression { return compare(r, OpEq, v) }

// Ne builds "r <> v". A null value compares with IS NOT NULL.
func (r Reference) Ne(v any) Expression { return compare(r, OpNe, v) }

// Gt builds "r > v".
func (r Reference) Gt(v any) Expression { return compare(r, OpGt, v) }

// Ge builds "r >= v".
func (r Reference) Ge(v any) Expression { return compare(r, OpGe, v) }

// Lt builds "r < v".
func (r Reference) Lt(v any) Expression { return compare(r, OpLt, v) }

// Le builds "r <= v".
func (r Reference) Le(v any) Expression { return compare(r, OpLe, v) }

// Like builds "r LIKE pattern".
func (r Reference) Like(pattern string) Expression {
	return Comparison{Left: r, Op: OpLike, Right: Literal{Value: ir.IRString(pattern)}}
}

// In builds "r IN (values...)".
func (r Reference) In(values ...any) Expression {
	list := List{Values: make([]ir.IRValue, 0, len(values))}
	for _, v := range values {
		iv, err := ir.FromGo(v)
		if err != nil {
			return Comparison{Left: r, Op: OpIn, Right: badOperand{err: err}}
		}
		list.Values = append(list.Values, iv)
	}
	return Comparison{Left: r, Op: OpIn, Right: list}
}

// Between builds "r BETWEEN low AND high" (inclusive).
func (r Reference) Between(low, high any) Expression {
	lo, err := ir.FromGo(low)
	if err != nil {
		return Comparison{Left: r, Op: OpBetween, Right: badOperand{err: err}}
	}
	hi, err := ir.FromGo(high)
	if err != nil {
		return Comparison{Left: r, Op: OpBetween, Right: badOperand{err: err}}
	}
	return Comparison{Left: r, Op: OpBetween, Right: Range{Low: lo, High: hi}}
}

// IsNull builds "r IS NULL".
func (r Reference) IsNull() Expression {
	return Comparison{Left: r, Op: OpEq, Right: Literal{Value: ir.IRNull{}}}
}

// IsNotNull builds "r IS NOT NULL".
func (r Reference) IsNotNull() Expression {
	return Comparison{Left: r, Op: OpNe, Right: Literal{Value: ir.IRNull{}}}
}

func compare(r Reference, op Operator, v any) Expression {
	return Comparison{Left: r, Op: op, Right: toOperand(v)}
}

// toOperand converts a Go value, IRValue or Reference into an Operand.
func toOperand(v any) Operand {
	switch val := v.(type) {
	case Operand:
		return val
	case ir.IRValue:
		return Literal{Value: val}
	}
	iv, err := ir.FromGo(v)
	if err != nil {
		return badOperand{err: err}
	}
	return Literal{Value: iv}
}
