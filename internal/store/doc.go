// Package store runs deferred queries against SQLite.
//
// A Store is a SQLite database holding user tables plus one bookkeeping
// table (_deferq_seeds) that records fixture loads. Bookkeeping tables are
// hidden from the Catalog and cannot be queried.
//
// The Adapter implements query.Adapter: every run reads the Catalog,
// compiles the Query with querysql against it and scans the result set into
// ir.Rows. Table and column names resolve exactly first, then ignoring case
// and underscores; navigation paths join along declared foreign keys.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Importing the package registers the "sqlite" provider.
package store
