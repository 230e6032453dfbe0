package queryir

// Direction is the sort direction of an order clause.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

// String returns the SQL keyword for the direction.
func (d Direction) String() string {
	if d == Descending {
		return "DESC"
	}
	return "ASC"
}

// OrderClause is a (reference, direction) pair.
// Clauses are held in an ordered slice; addition order is significant.
type OrderClause struct {
	Ref       Reference
	Direction Direction
}

// Asc builds an ascending clause.
func Asc(ref Reference) OrderClause {
	return OrderClause{Ref: ref, Direction: Ascending}
}

// Desc builds a descending clause.
func Desc(ref Reference) OrderClause {
	return OrderClause{Ref: ref, Direction: Descending}
}

// String renders "Users.Name DESC".
func (c OrderClause) String() string {
	return c.Ref.String() + " " + c.Direction.String()
}
