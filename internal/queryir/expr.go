package queryir

import (
	"fmt"
	"strings"

	"github.com/roach88/deferq/internal/ir"
)

// Expression is a node of an immutable criteria tree.
//
// This is a sealed interface - only types in this package implement it.
//
// Expression types:
//   - Comparison: column <op> operand (leaf)
//   - Logical: left AND/OR right
//   - Negation: NOT operand
type Expression interface {
	expressionNode() // Marker method - seals interface to this package
}

// Operand is the right-hand side of a Comparison.
//
// Operand types:
//   - Reference: another column
//   - Literal: a single value
//   - Range: inclusive low/high pair (BETWEEN)
//   - List: a value set (IN)
type Operand interface {
	operandNode() // Marker method - seals interface to this package
}

// Operator is a comparison operator.
type Operator string

const (
	OpEq      Operator = "="
	OpNe      Operator = "<>"
	OpGt      Operator = ">"
	OpGe      Operator = ">="
	OpLt      Operator = "<"
	OpLe      Operator = "<="
	OpLike    Operator = "LIKE"
	OpIn      Operator = "IN"
	OpBetween Operator = "BETWEEN"
)

// LogicalOp combines two expressions.
type LogicalOp string

const (
	OpAnd LogicalOp = "AND"
	OpOr  LogicalOp = "OR"
)

// Comparison is a leaf comparing a column with an operand.
//
// Semantics:
//
//	<left> <op> <right>
type Comparison struct {
	Left  Reference
	Op    Operator
	Right Operand
}

func (Comparison) expressionNode() {}

// Logical combines two sub-expressions with AND or OR.
type Logical struct {
	Op    LogicalOp
	Left  Expression
	Right Expression
}

func (Logical) expressionNode() {}

// Negation inverts a sub-expression.
type Negation struct {
	Operand Expression
}

func (Negation) expressionNode() {}

// Literal is a single value operand.
type Literal struct {
	Value ir.IRValue
}

func (Literal) operandNode() {}

// Range is the inclusive [Low, High] operand of BETWEEN.
type Range struct {
	Low  ir.IRValue
	High ir.IRValue
}

func (Range) operandNode() {}

// List is the value set operand of IN.
type List struct {
	Values []ir.IRValue
}

func (List) operandNode() {}

// badOperand records a value that could not be converted when the
// expression was built. Validate reports it.
type badOperand struct {
	err error
}

func (badOperand) operandNode() {}

// And returns a new node "left AND right".
func And(left, right Expression) Expression {
	return Logical{Op: OpAnd, Left: left, Right: right}
}

// Or returns a new node "left OR right".
func Or(left, right Expression) Expression {
	return Logical{Op: OpOr, Left: left, Right: right}
}

// Not returns a new node "NOT operand".
func Not(operand Expression) Expression {
	return Negation{Operand: operand}
}

// Format renders an expression for diagnostics (not for execution).
func Format(e Expression) string {
	switch expr := e.(type) {
	case nil:
		return "<nil>"
	case Comparison:
		return fmt.Sprintf("%s %s %s", expr.Left.String(), expr.Op, formatOperand(expr.Right))
	case Logical:
		return fmt.Sprintf("(%s %s %s)", Format(expr.Left), expr.Op, Format(expr.Right))
	case Negation:
		return fmt.Sprintf("NOT (%s)", Format(expr.Operand))
	default:
		return fmt.Sprintf("<%T>", e)
	}
}

func formatOperand(o Operand) string {
	switch op := o.(type) {
	case Reference:
		return op.String()
	case Literal:
		return formatValue(op.Value)
	case Range:
		return formatValue(op.Low) + " AND " + formatValue(op.High)
	case List:
		parts := make([]string, len(op.Values))
		for i, v := range op.Values {
			parts[i] = formatValue(v)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case badOperand:
		return "<invalid: " + op.err.Error() + ">"
	default:
		return "<nil>"
	}
}

func formatValue(v ir.IRValue) string {
	if s, ok := v.(ir.IRString); ok {
		return "'" + strings.ReplaceAll(string(s), "'", "''") + "'"
	}
	return ir.String(v)
}
