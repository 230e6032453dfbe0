package query

import (
	"regexp"
	"strings"

	"github.com/roach88/deferq/internal/queryir"
)

// Intent says whether a name-driven order clause replaces or extends the
// existing order.
type Intent int

const (
	// IntentOrderBy replaces the order clauses.
	IntentOrderBy Intent = iota

	// IntentThenBy appends to existing order clauses.
	IntentThenBy
)

func (i Intent) String() string {
	if i == IntentThenBy {
		return "ThenBy"
	}
	return "OrderBy"
}

var (
	orderByPrefix    = regexp.MustCompile(`(?i)^order_?by_?`)
	thenByPrefix     = regexp.MustCompile(`(?i)^then_?by_?`)
	descendingSuffix = regexp.MustCompile(`(?i)_?descending$`)
)

// ParseOrderName turns a convention name into an order clause on table.
//
//	ParseOrderName("Users", "OrderByNameDescending", IntentOrderBy) → (Users.Name, DESC)
//	ParseOrderName("Users", "then_by_age", IntentThenBy)            → (Users.age, ASC)
//
// The prefix (order[_]by[_] or then[_]by[_] per intent) and an optional
// [_]descending suffix are matched case-insensitively. What remains is the
// column name.
func ParseOrderName(table, method string, intent Intent) (queryir.OrderClause, error) {
	prefix := orderByPrefix
	if intent == IntentThenBy {
		prefix = thenByPrefix
	}

	loc := prefix.FindStringIndex(method)
	if loc == nil {
		return queryir.OrderClause{}, usageErrorf(method, "name does not follow the %s convention", intent)
	}
	column := method[loc[1]:]

	dir := queryir.Ascending
	if m := descendingSuffix.FindStringIndex(column); m != nil {
		column = column[:m[0]]
		dir = queryir.Descending
	}

	if column == "" {
		return queryir.OrderClause{}, usageErrorf(method, "no column name in %s", intent)
	}
	if err := queryir.ValidateIdentifier(column); err != nil {
		return queryir.OrderClause{}, &UsageError{Op: method, Message: "bad column name", Err: err}
	}

	ref := queryir.ParseReference(table + "." + column)
	return queryir.OrderClause{Ref: ref, Direction: dir}, nil
}

// Invoke applies a transformation by name.
//
// Declared operation names (Select, Where, ReplaceWhere, OrderBy,
// OrderByDescending, ThenBy, ThenByDescending, Skip, Take, Navigate) match
// case-insensitively and take their usual arguments. Other names starting
// with "order" or "then" go through ParseOrderName and take no arguments.
// Anything else is a UsageError.
func (q Query) Invoke(name string, args ...any) (Query, error) {
	lower := strings.ToLower(name)
	if op, ok := declaredOps[lower]; ok {
		return op(q, name, args)
	}

	var intent Intent
	switch {
	case strings.HasPrefix(lower, "order"):
		intent = IntentOrderBy
	case strings.HasPrefix(lower, "then"):
		intent = IntentThenBy
	default:
		return Query{}, usageErrorf(name, "unsupported operation")
	}

	if len(args) > 0 {
		return Query{}, usageErrorf(name, "takes no arguments, got %d", len(args))
	}
	clause, err := ParseOrderName(q.table, name, intent)
	if err != nil {
		return Query{}, err
	}
	return q.applyOrder(name, intent, clause)
}

func (q Query) applyOrder(op string, intent Intent, c queryir.OrderClause) (Query, error) {
	if intent == IntentOrderBy {
		return q.withOrder(c), nil
	}
	return q.appendOrder(op, c)
}

type invokeFunc func(q Query, name string, args []any) (Query, error)

var declaredOps = map[string]invokeFunc{
	"select": func(q Query, name string, args []any) (Query, error) {
		refs, err := refArgs(q, name, args)
		if err != nil {
			return Query{}, err
		}
		return q.Select(refs...), nil
	},
	"where": func(q Query, name string, args []any) (Query, error) {
		e, err := exprArg(q, name, args)
		if err != nil {
			return Query{}, err
		}
		return q.Where(e), nil
	},
	"replacewhere": func(q Query, name string, args []any) (Query, error) {
		e, err := exprArg(q, name, args)
		if err != nil {
			return Query{}, err
		}
		return q.ReplaceWhere(e), nil
	},
	"orderby":           orderOp(IntentOrderBy, queryir.Asc),
	"orderbydescending": orderOp(IntentOrderBy, queryir.Desc),
	"thenby":            orderOp(IntentThenBy, queryir.Asc),
	"thenbydescending":  orderOp(IntentThenBy, queryir.Desc),
	"skip": func(q Query, name string, args []any) (Query, error) {
		n, err := intArg(name, args)
		if err != nil {
			return Query{}, err
		}
		return q.Skip(n), nil
	},
	"take": func(q Query, name string, args []any) (Query, error) {
		n, err := intArg(name, args)
		if err != nil {
			return Query{}, err
		}
		return q.Take(n), nil
	},
	"navigate": func(q Query, name string, args []any) (Query, error) {
		if len(args) != 1 {
			return Query{}, usageErrorf(name, "expects 1 member name, got %d arguments", len(args))
		}
		member, ok := args[0].(string)
		if !ok || member == "" {
			return Query{}, usageErrorf(name, "expects a member name, got %T", args[0])
		}
		return q.Navigate(member), nil
	},
}

func orderOp(intent Intent, build func(queryir.Reference) queryir.OrderClause) invokeFunc {
	return func(q Query, name string, args []any) (Query, error) {
		refs, err := refArgs(q, name, args)
		if err != nil {
			return Query{}, err
		}
		if len(refs) != 1 {
			return Query{}, usageErrorf(name, "expects 1 reference, got %d", len(refs))
		}
		return q.applyOrder(name, intent, build(refs[0]))
	}
}

// refArgs accepts References and column names. Bare names are qualified
// with the Query's table.
func refArgs(q Query, name string, args []any) ([]queryir.Reference, error) {
	refs := make([]queryir.Reference, 0, len(args))
	for _, a := range args {
		switch v := a.(type) {
		case queryir.Reference:
			refs = append(refs, v)
		case string:
			if strings.Contains(v, ".") {
				refs = append(refs, queryir.ParseReference(v))
			} else {
				refs = append(refs, q.Ref(v))
			}
		default:
			return nil, usageErrorf(name, "expects column references, got %T", a)
		}
	}
	return refs, nil
}

// exprArg accepts a single Expression or criteria text.
func exprArg(q Query, name string, args []any) (queryir.Expression, error) {
	if len(args) != 1 {
		return nil, usageErrorf(name, "expects 1 criteria argument, got %d", len(args))
	}
	switch v := args[0].(type) {
	case queryir.Expression:
		return v, nil
	case string:
		e, err := queryir.ParseCriteria(q.table, v)
		if err != nil {
			return nil, &UsageError{Op: name, Message: "bad criteria", Err: err}
		}
		return e, nil
	default:
		return nil, usageErrorf(name, "expects criteria, got %T", args[0])
	}
}

func intArg(name string, args []any) (int, error) {
	if len(args) != 1 {
		return 0, usageErrorf(name, "expects 1 integer, got %d arguments", len(args))
	}
	switch v := args[0].(type) {
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	default:
		return 0, usageErrorf(name, "expects an integer, got %T", args[0])
	}
}
