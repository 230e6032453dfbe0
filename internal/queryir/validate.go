package queryir

import (
	"errors"
	"fmt"
)

// Validate checks that a criteria tree can be handed to a backend.
//
// Rules:
//  1. No nil nodes below the root (a nil root means "no criteria" and is valid)
//  2. Comparison left sides are real columns with valid identifiers
//  3. Sentinel references never appear in criteria
//  4. Operands match their operator (Range only with BETWEEN, List only with IN)
//  5. IN lists are not empty
//  6. Values that failed conversion at build time are reported
//
// Validate is a pure function with no side effects. All problems are
// reported together, joined with errors.Join.
func Validate(e Expression) error {
	if e == nil {
		return nil
	}
	v := &validator{}
	v.validateExpression(e)
	return errors.Join(v.problems...)
}

// validator accumulates problems during traversal.
type validator struct {
	problems []error
}

// addProblem appends a problem.
func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Errorf(format, args...))
}

// validateExpression recursively validates an expression node.
func (v *validator) validateExpression(e Expression) {
	switch expr := e.(type) {
	case nil:
		v.addProblem("nil expression node")
	case Comparison:
		v.validateComparison(expr)
	case Logical:
		if expr.Op != OpAnd && expr.Op != OpOr {
			v.addProblem("unknown logical operator %q", expr.Op)
		}
		v.validateExpression(expr.Left)
		v.validateExpression(expr.Right)
	case Negation:
		v.validateExpression(expr.Operand)
	default:
		v.addProblem("unknown expression type: %T", e)
	}
}

// validateComparison validates a leaf comparison.
func (v *validator) validateComparison(c Comparison) {
	if c.Left.IsSentinel() {
		v.addProblem("%s reference cannot be used in criteria", c.Left.Kind())
	} else if err := ValidateReference(c.Left); err != nil {
		v.problems = append(v.problems, err)
	}

	switch op := c.Right.(type) {
	case nil:
		v.addProblem("comparison on %s has no operand", c.Left)
	case badOperand:
		v.addProblem("comparison on %s: %v", c.Left, op.err)
	case Reference:
		if op.IsSentinel() {
			v.addProblem("%s reference cannot be used in criteria", op.Kind())
		} else if err := ValidateReference(op); err != nil {
			v.problems = append(v.problems, err)
		}
		v.requireScalarOperator(c)
	case Literal:
		if op.Value == nil {
			v.addProblem("comparison on %s has nil literal", c.Left)
		}
		v.requireScalarOperator(c)
	case Range:
		if c.Op != OpBetween {
			v.addProblem("range operand requires BETWEEN, got %s", c.Op)
		}
		if op.Low == nil || op.High == nil {
			v.addProblem("range on %s has missing bound", c.Left)
		}
	case List:
		if c.Op != OpIn {
			v.addProblem("list operand requires IN, got %s", c.Op)
		}
		if len(op.Values) == 0 {
			v.addProblem("IN list on %s is empty", c.Left)
		}
	default:
		v.addProblem("unknown operand type: %T", c.Right)
	}
}

// requireScalarOperator rejects IN/BETWEEN against a single operand.
func (v *validator) requireScalarOperator(c Comparison) {
	switch c.Op {
	case OpEq, OpNe, OpGt, OpGe, OpLt, OpLe, OpLike:
	default:
		v.addProblem("operator %s needs a list or range operand", c.Op)
	}
}
