// Package query implements the deferred query builder.
//
// A Query is an immutable description of a table read: projected columns,
// criteria, order clauses and paging. Transformations return new Query
// values and never touch the receiver. Nothing is executed until a terminal
// operation (Iter, ToList, Count, Exists, First, Single, ToScalar and their
// variants) hands the Query to an Adapter.
//
// Name-driven ordering:
//
//	q.Invoke("OrderByLastNameDescending")  // OrderByDescending(Users.LastName)
//	q.Invoke("then_by_age")                // ThenBy(Users.age)
//
// Caching:
// Each Query value owns one result slot. The first ToList on a Query
// executes it; concurrent callers block on the slot mutex and observe the
// cached rows. Failures are not cached. Iter always executes. Derived
// Queries start with an empty slot.
package query
