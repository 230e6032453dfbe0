package query

import (
	"errors"
	"fmt"
)

// Sentinels matched with errors.Is.
var (
	ErrUsage           = errors.New("query usage error")
	ErrNoRows          = errors.New("no rows")
	ErrMultipleRows    = errors.New("multiple rows")
	ErrMultipleColumns = errors.New("multiple columns")
	ErrNoAdapter       = errors.New("query has no adapter")
)

// UsageError reports a builder protocol violation, such as ThenBy without a
// prior OrderBy or an unsupported dynamic invocation.
type UsageError struct {
	// Op is the operation or invoked name that failed.
	Op string

	// Message is a human-readable description.
	Message string

	// Err is an optional underlying cause.
	Err error
}

func (e *UsageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// Is matches ErrUsage.
func (e *UsageError) Is(target error) bool {
	return target == ErrUsage
}

func (e *UsageError) Unwrap() error {
	return e.Err
}

func usageErrorf(op, format string, args ...any) *UsageError {
	return &UsageError{Op: op, Message: fmt.Sprintf(format, args...)}
}

// CardinalityCode identifies which result-shape contract was violated.
type CardinalityCode string

const (
	// CodeNoRows: the result had no rows (or a row with no value).
	CodeNoRows CardinalityCode = "NO_ROWS"

	// CodeMultipleRows: more rows than the operation allows.
	CodeMultipleRows CardinalityCode = "MULTIPLE_ROWS"

	// CodeMultipleColumns: a scalar was requested from a multi-column row.
	CodeMultipleColumns CardinalityCode = "MULTIPLE_COLUMNS"
)

// CardinalityError reports a result shape that does not match what a
// terminal operation requires. It is raised after the adapter returned
// data, never by the adapter itself.
type CardinalityError struct {
	Code  CardinalityCode
	Op    string
	Table string

	// Count is the number of rows (or columns for CodeMultipleColumns) seen.
	Count int
}

func (e *CardinalityError) Error() string {
	switch e.Code {
	case CodeNoRows:
		return fmt.Sprintf("%s on %s: no rows", e.Op, e.Table)
	case CodeMultipleColumns:
		return fmt.Sprintf("%s on %s: expected one column, got %d", e.Op, e.Table, e.Count)
	default:
		return fmt.Sprintf("%s on %s: expected at most one row, got %d", e.Op, e.Table, e.Count)
	}
}

// Is matches ErrNoRows, ErrMultipleRows or ErrMultipleColumns by code.
func (e *CardinalityError) Is(target error) bool {
	switch e.Code {
	case CodeNoRows:
		return target == ErrNoRows
	case CodeMultipleRows:
		return target == ErrMultipleRows
	case CodeMultipleColumns:
		return target == ErrMultipleColumns
	}
	return false
}

// IsUsageError returns true if err is or wraps a UsageError.
func IsUsageError(err error) bool {
	var ue *UsageError
	return errors.As(err, &ue)
}

// IsCardinalityError returns true if err is or wraps a CardinalityError.
func IsCardinalityError(err error) bool {
	var ce *CardinalityError
	return errors.As(err, &ce)
}

func cardinality(code CardinalityCode, op, table string, count int) *CardinalityError {
	return &CardinalityError{Code: code, Op: op, Table: table, Count: count}
}
