// Package queryir provides the structural vocabulary of a deferred query:
// column references, criteria expressions and order clauses.
//
// ARCHITECTURE:
//
// queryir sits between the query builder and execution backends:
//
//	[query.Query] → [queryir: Reference / Expression / OrderClause] → [querysql]
//	                                                                → [other adapters]
//
// Every value in this package is immutable once constructed. Combining two
// expressions (And, Or, Not) always allocates a new node; references return
// modified copies (As).
//
// REFERENCES:
//
// A Reference names "table.column" as an ordered list of dot segments. The
// last segment is the column, the segment before it is the owning table.
// Two sentinel kinds exist for projections only:
//   - CountRef(): request a row-count projection
//   - ExistsRef(): request a minimal existence-check projection
//
// SEALED INTERFACES:
//
// Expression and Operand are sealed interfaces using the marker method
// pattern. Only types in this package can implement them. This enables
// exhaustive type switches in backend compilers:
//
//	switch e := expr.(type) {
//	case Comparison:
//	    // leaf: column <op> operand
//	case Logical:
//	    // AND / OR of two sub-expressions
//	case Negation:
//	    // NOT of one sub-expression
//	}
//
// Literal values use ir.IRValue types so that every backend sees the same
// constrained value set.
package queryir
