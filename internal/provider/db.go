package provider

import (
	"github.com/roach88/deferq/internal/query"
)

// DB is an open data source handing out table-bound Queries.
type DB struct {
	conn     Conn
	provider string
}

// NewDB wraps an already open Conn.
func NewDB(provider string, conn Conn) *DB {
	return &DB{conn: conn, provider: provider}
}

// Table returns a root Query over table. Dotted names navigate:
// Table("Customers.Orders") equals Table("Customers").Navigate("Orders").
func (db *DB) Table(name string) query.Query {
	return query.New(db.conn, name)
}

// Adapter returns the underlying adapter.
func (db *DB) Adapter() query.Adapter {
	return db.conn
}

// Provider returns the name of the provider that opened db.
func (db *DB) Provider() string {
	return db.provider
}

// Close releases the connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
