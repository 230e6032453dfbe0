package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/deferq/internal/ir"
	"github.com/roach88/deferq/internal/query"
	"github.com/roach88/deferq/internal/queryir"
)

// SQLCompiler compiles a query.Query to parameterized SQL for SQLite.
//
// CRITICAL: All values are parameterized (never interpolated).
// CRITICAL: Identifiers are validated, resolved through the Schema and
// quoted; nothing from the caller reaches the SQL text unchecked.
type SQLCompiler struct {
	schema Schema
}

// NewSQLCompiler creates a compiler resolving names through schema.
// A nil schema uses names exactly as given and cannot join.
func NewSQLCompiler(schema Schema) *SQLCompiler {
	if schema == nil {
		schema = literalSchema{}
	}
	return &SQLCompiler{schema: schema}
}

// projection is the shape of the SELECT list.
type projection int

const (
	projRows projection = iota
	projCount
	projExists
)

// scope is the resolved table path of one compilation.
// For "Customers.Orders" the path is [Customers, Orders] and rows are
// projected from the last table.
type scope struct {
	requested []string
	resolved  []string
}

func (s *scope) target() string {
	return s.resolved[len(s.resolved)-1]
}

// lookup finds a path table by requested or stored name.
func (s *scope) lookup(name string) (string, bool) {
	for i := range s.resolved {
		if ir.SameName(s.requested[i], name) || ir.SameName(s.resolved[i], name) {
			return s.resolved[i], true
		}
	}
	return "", false
}

// Compile converts a Query to SQL.
// Returns (sql, params, error) tuple.
//
// Shapes:
//
//	rows:   SELECT <cols> FROM <path> [WHERE] [ORDER BY] [LIMIT/OFFSET]
//	count:  SELECT COUNT(*) FROM <path> [WHERE]
//	exists: SELECT 1 FROM <path> [WHERE] LIMIT 1
//
// Count and exists with paging wrap the paged row query in a subquery so
// that skip and take apply before counting.
func (c *SQLCompiler) Compile(q query.Query) (string, []any, error) {
	sc, from, err := c.compileFrom(q.Table())
	if err != nil {
		return "", nil, err
	}

	kind, selectList, err := c.compileProjection(sc, q.Columns())
	if err != nil {
		return "", nil, fmt.Errorf("compile projection: %w", err)
	}

	var whereClause string
	var params []any
	if crit := q.Criteria(); crit != nil {
		if err := queryir.Validate(crit); err != nil {
			return "", nil, fmt.Errorf("invalid criteria: %w", err)
		}
		filterSQL, filterParams, err := c.compileExpression(sc, crit)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		whereClause = " WHERE " + filterSQL
		params = filterParams
	}

	orderByClause, err := c.compileOrder(sc, q.Order())
	if err != nil {
		return "", nil, fmt.Errorf("compile order: %w", err)
	}

	limitClause, limitParams, err := compilePaging(q)
	if err != nil {
		return "", nil, err
	}

	body := from + whereClause
	var sql string
	switch kind {
	case projCount:
		if limitClause == "" {
			sql = "SELECT COUNT(*) FROM " + body
		} else {
			sql = "SELECT COUNT(*) FROM (SELECT 1 FROM " + body + orderByClause + limitClause + ")"
		}
	case projExists:
		if limitClause == "" {
			sql = "SELECT 1 FROM " + body + " LIMIT 1"
		} else {
			sql = "SELECT 1 FROM (SELECT 1 FROM " + body + orderByClause + limitClause + ") LIMIT 1"
		}
	default:
		sql = "SELECT " + selectList + " FROM " + body + orderByClause + limitClause
	}

	return sql, append(params, limitParams...), nil
}

// compileFrom resolves the table path and joins consecutive tables.
// Example: "Customers.Orders" →
//
//	"Customers" INNER JOIN "Orders" ON "Customers"."CustomerId" = "Orders"."CustomerId"
func (c *SQLCompiler) compileFrom(table string) (*scope, string, error) {
	if table == "" {
		return nil, "", fmt.Errorf("query has no table")
	}

	segs := strings.Split(table, ".")
	sc := &scope{requested: segs, resolved: make([]string, len(segs))}
	for i, seg := range segs {
		if err := queryir.ValidateIdentifier(seg); err != nil {
			return nil, "", fmt.Errorf("table path %q: %w", table, err)
		}
		name, err := c.schema.Table(seg)
		if err != nil {
			return nil, "", err
		}
		for _, prev := range sc.resolved[:i] {
			if ir.SameName(prev, name) {
				return nil, "", fmt.Errorf("table path %q visits %s twice", table, name)
			}
		}
		sc.resolved[i] = name
	}

	var b strings.Builder
	b.WriteString(quoteIdent(sc.resolved[0]))
	for i := 1; i < len(sc.resolved); i++ {
		from, to := sc.resolved[i-1], sc.resolved[i]
		jc, err := c.schema.Join(from, to)
		if err != nil {
			return nil, "", fmt.Errorf("navigate %s to %s: %w", from, to, err)
		}
		fmt.Fprintf(&b, " INNER JOIN %s ON %s = %s",
			quoteIdent(to),
			qualified(from, jc.FromColumn),
			qualified(to, jc.ToColumn))
	}
	return sc, b.String(), nil
}

// compileProjection builds the SELECT list.
// No columns → every column of the target table.
func (c *SQLCompiler) compileProjection(sc *scope, cols []queryir.Reference) (projection, string, error) {
	if len(cols) == 0 {
		return projRows, quoteIdent(sc.target()) + ".*", nil
	}

	parts := make([]string, 0, len(cols))
	for _, ref := range cols {
		if ref.IsSentinel() {
			if len(cols) != 1 {
				return 0, "", fmt.Errorf("%s projection cannot be combined with other columns", ref.Kind())
			}
			if ref.Kind() == queryir.RefCount {
				return projCount, "COUNT(*)", nil
			}
			return projExists, "1", nil
		}

		col, err := c.column(sc, ref)
		if err != nil {
			return 0, "", err
		}
		if alias := ref.Alias(); alias != "" {
			col += " AS " + quoteIdent(alias)
		}
		parts = append(parts, col)
	}
	return projRows, strings.Join(parts, ", "), nil
}

// column resolves a reference to a qualified, quoted column.
// A bare column belongs to the target table.
func (c *SQLCompiler) column(sc *scope, ref queryir.Reference) (string, error) {
	if ref.IsSentinel() {
		return "", fmt.Errorf("%s reference is not a column", ref.Kind())
	}
	if err := queryir.ValidateReference(ref); err != nil {
		return "", err
	}

	table := sc.target()
	if t := ref.Table(); t != "" {
		resolved, ok := sc.lookup(t)
		if !ok {
			return "", fmt.Errorf("column %s: table %s is not on the query path", ref, t)
		}
		table = resolved
	}

	name, err := c.schema.Column(table, ref.Column())
	if err != nil {
		return "", err
	}
	return qualified(table, name), nil
}

// compileExpression compiles a criteria tree to a WHERE fragment.
// Returns (sql, params, error).
// CRITICAL: Values NEVER interpolated - always use ? placeholders.
func (c *SQLCompiler) compileExpression(sc *scope, e queryir.Expression) (string, []any, error) {
	switch expr := e.(type) {
	case queryir.Comparison:
		return c.compileComparison(sc, expr)
	case queryir.Logical:
		left, leftParams, err := c.compileExpression(sc, expr.Left)
		if err != nil {
			return "", nil, err
		}
		right, rightParams, err := c.compileExpression(sc, expr.Right)
		if err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("(%s %s %s)", left, expr.Op, right), append(leftParams, rightParams...), nil
	case queryir.Negation:
		inner, params, err := c.compileExpression(sc, expr.Operand)
		if err != nil {
			return "", nil, err
		}
		return "NOT (" + inner + ")", params, nil
	default:
		return "", nil, fmt.Errorf("unsupported expression type: %T", e)
	}
}

// compileComparison compiles one leaf.
// Null literals compile to IS [NOT] NULL since "= NULL" never matches.
func (c *SQLCompiler) compileComparison(sc *scope, cmp queryir.Comparison) (string, []any, error) {
	left, err := c.column(sc, cmp.Left)
	if err != nil {
		return "", nil, err
	}

	switch right := cmp.Right.(type) {
	case queryir.Literal:
		if ir.IsNull(right.Value) {
			switch cmp.Op {
			case queryir.OpEq:
				return left + " IS NULL", nil, nil
			case queryir.OpNe:
				return left + " IS NOT NULL", nil, nil
			default:
				return "", nil, fmt.Errorf("NULL can only be compared with = or <>, got %s", cmp.Op)
			}
		}
		return fmt.Sprintf("%s %s ?", left, cmp.Op), []any{ir.ToGo(right.Value)}, nil

	case queryir.Reference:
		col, err := c.column(sc, right)
		if err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("%s %s %s", left, cmp.Op, col), nil, nil

	case queryir.Range:
		return left + " BETWEEN ? AND ?", []any{ir.ToGo(right.Low), ir.ToGo(right.High)}, nil

	case queryir.List:
		marks := make([]string, len(right.Values))
		params := make([]any, len(right.Values))
		for i, v := range right.Values {
			marks[i] = "?"
			params[i] = ir.ToGo(v)
		}
		return fmt.Sprintf("%s IN (%s)", left, strings.Join(marks, ", ")), params, nil

	default:
		return "", nil, fmt.Errorf("unsupported operand type: %T", cmp.Right)
	}
}

// compileOrder renders ORDER BY in clause order. Empty when unordered.
func (c *SQLCompiler) compileOrder(sc *scope, clauses []queryir.OrderClause) (string, error) {
	if len(clauses) == 0 {
		return "", nil
	}
	parts := make([]string, len(clauses))
	for i, oc := range clauses {
		col, err := c.column(sc, oc.Ref)
		if err != nil {
			return "", err
		}
		parts[i] = col + " " + oc.Direction.String()
	}
	return " ORDER BY " + strings.Join(parts, ", "), nil
}

// compilePaging renders skip-then-take as LIMIT/OFFSET.
// SQLite needs a LIMIT before OFFSET; -1 means unbounded.
func compilePaging(q query.Query) (string, []any, error) {
	skip, skipSet := q.SkipCount()
	take, takeSet := q.TakeCount()

	if skipSet && skip < 0 {
		return "", nil, fmt.Errorf("skip must be non-negative, got %d", skip)
	}
	if takeSet && take < 0 {
		return "", nil, fmt.Errorf("take must be non-negative, got %d", take)
	}

	switch {
	case takeSet && skipSet:
		return " LIMIT ? OFFSET ?", []any{int64(take), int64(skip)}, nil
	case takeSet:
		return " LIMIT ?", []any{int64(take)}, nil
	case skipSet:
		return " LIMIT -1 OFFSET ?", []any{int64(skip)}, nil
	default:
		return "", nil, nil
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func qualified(table, column string) string {
	return quoteIdent(table) + "." + quoteIdent(column)
}
