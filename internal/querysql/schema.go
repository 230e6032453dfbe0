package querysql

import "fmt"

// Schema resolves requested names to the names stored in the database.
//
// Implementations may match loosely (case, underscores); the compiler only
// ever emits names returned by the Schema.
type Schema interface {
	// Table returns the stored name of a table.
	Table(name string) (string, error)

	// Column returns the stored name of a column of a resolved table.
	Column(table, name string) (string, error)

	// Join returns the condition linking two resolved tables through a
	// foreign key in either direction.
	Join(from, to string) (JoinCondition, error)
}

// JoinCondition is an equality between a column of the "from" table and a
// column of the "to" table.
type JoinCondition struct {
	FromColumn string
	ToColumn   string
}

// literalSchema uses names exactly as requested and knows no relations.
type literalSchema struct{}

func (literalSchema) Table(name string) (string, error) { return name, nil }

func (literalSchema) Column(_, name string) (string, error) { return name, nil }

func (literalSchema) Join(from, to string) (JoinCondition, error) {
	return JoinCondition{}, fmt.Errorf("no relation known between %s and %s", from, to)
}
