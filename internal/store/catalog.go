package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/roach88/deferq/internal/ir"
	"github.com/roach88/deferq/internal/querysql"
)

// TableInfo describes one user table.
type TableInfo struct {
	Name        string
	Columns     []string
	PrimaryKey  []string
	ForeignKeys []ForeignKey
}

// ForeignKey is a single-column reference from a table to another.
type ForeignKey struct {
	Column    string
	RefTable  string
	RefColumn string // empty means the referenced table's primary key
}

// Catalog is a snapshot of the user tables of a Store.
// It resolves names the way queries spell them: exactly, or ignoring case
// and underscores when that is unambiguous.
//
// Catalog implements querysql.Schema.
type Catalog struct {
	tables []TableInfo
}

var _ querysql.Schema = (*Catalog)(nil)

// Catalog reads table, column and foreign key metadata.
// Internal bookkeeping tables are excluded.
func (s *Store) Catalog(ctx context.Context) (*Catalog, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name FROM sqlite_master
		WHERE type = 'table'
		ORDER BY name COLLATE BINARY
	`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		if strings.HasPrefix(name, "sqlite_") || strings.HasPrefix(name, internalPrefix) {
			continue
		}
		names = append(names, name)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tables: %w", err)
	}

	c := &Catalog{tables: make([]TableInfo, 0, len(names))}
	for _, name := range names {
		info, err := s.tableInfo(ctx, name)
		if err != nil {
			return nil, err
		}
		c.tables = append(c.tables, info)
	}
	return c, nil
}

func (s *Store) tableInfo(ctx context.Context, name string) (TableInfo, error) {
	info := TableInfo{Name: name}

	cols, err := s.db.QueryContext(ctx, `SELECT name, pk FROM pragma_table_info(?) ORDER BY cid`, name)
	if err != nil {
		return info, fmt.Errorf("columns of %s: %w", name, err)
	}
	type pkCol struct {
		name string
		pos  int
	}
	var pks []pkCol
	for cols.Next() {
		var col string
		var pk int
		if err := cols.Scan(&col, &pk); err != nil {
			cols.Close()
			return info, fmt.Errorf("scan column of %s: %w", name, err)
		}
		info.Columns = append(info.Columns, col)
		if pk > 0 {
			pks = append(pks, pkCol{col, pk})
		}
	}
	cols.Close()
	if err := cols.Err(); err != nil {
		return info, fmt.Errorf("iterate columns of %s: %w", name, err)
	}
	info.PrimaryKey = make([]string, len(pks))
	for _, p := range pks {
		info.PrimaryKey[p.pos-1] = p.name
	}

	fks, err := s.db.QueryContext(ctx, `SELECT "from", "table", "to" FROM pragma_foreign_key_list(?) ORDER BY id, seq`, name)
	if err != nil {
		return info, fmt.Errorf("foreign keys of %s: %w", name, err)
	}
	defer fks.Close()
	for fks.Next() {
		var fk ForeignKey
		var to sql.NullString
		if err := fks.Scan(&fk.Column, &fk.RefTable, &to); err != nil {
			return info, fmt.Errorf("scan foreign key of %s: %w", name, err)
		}
		fk.RefColumn = to.String
		info.ForeignKeys = append(info.ForeignKeys, fk)
	}
	if err := fks.Err(); err != nil {
		return info, fmt.Errorf("iterate foreign keys of %s: %w", name, err)
	}
	return info, nil
}

// Tables returns the table names in binary order.
func (c *Catalog) Tables() []string {
	out := make([]string, len(c.tables))
	for i, t := range c.tables {
		out[i] = t.Name
	}
	return out
}

// Info returns the metadata of a resolved table.
func (c *Catalog) Info(table string) (TableInfo, bool) {
	for _, t := range c.tables {
		if t.Name == table {
			return t, true
		}
	}
	return TableInfo{}, false
}

// Table resolves a requested table name.
func (c *Catalog) Table(name string) (string, error) {
	return resolveName("table", name, c.Tables())
}

// Column resolves a requested column name of a resolved table.
func (c *Catalog) Column(table, name string) (string, error) {
	info, ok := c.Info(table)
	if !ok {
		return "", fmt.Errorf("no such table: %s", table)
	}
	col, err := resolveName("column", name, info.Columns)
	if err != nil {
		return "", fmt.Errorf("%s: %w", table, err)
	}
	return col, nil
}

// Join finds a foreign key linking from and to, checking the detail
// direction (to references from) first.
func (c *Catalog) Join(from, to string) (querysql.JoinCondition, error) {
	fromInfo, ok := c.Info(from)
	if !ok {
		return querysql.JoinCondition{}, fmt.Errorf("no such table: %s", from)
	}
	toInfo, ok := c.Info(to)
	if !ok {
		return querysql.JoinCondition{}, fmt.Errorf("no such table: %s", to)
	}

	for _, fk := range toInfo.ForeignKeys {
		if ir.SameName(fk.RefTable, from) {
			ref, err := refColumn(fk, fromInfo)
			if err != nil {
				return querysql.JoinCondition{}, err
			}
			return querysql.JoinCondition{FromColumn: ref, ToColumn: fk.Column}, nil
		}
	}
	for _, fk := range fromInfo.ForeignKeys {
		if ir.SameName(fk.RefTable, to) {
			ref, err := refColumn(fk, toInfo)
			if err != nil {
				return querysql.JoinCondition{}, err
			}
			return querysql.JoinCondition{FromColumn: fk.Column, ToColumn: ref}, nil
		}
	}
	return querysql.JoinCondition{}, fmt.Errorf("no foreign key between %s and %s", from, to)
}

// refColumn returns the referenced column, defaulting to the single
// primary key column of the referenced table.
func refColumn(fk ForeignKey, ref TableInfo) (string, error) {
	if fk.RefColumn != "" {
		return fk.RefColumn, nil
	}
	if len(ref.PrimaryKey) != 1 {
		return "", fmt.Errorf("foreign key %s → %s needs a single-column primary key", fk.Column, ref.Name)
	}
	return ref.PrimaryKey[0], nil
}

// resolveName matches exactly first, then by homogenized name.
func resolveName(kind, name string, candidates []string) (string, error) {
	for _, c := range candidates {
		if c == name {
			return c, nil
		}
	}
	key := ir.Homogenize(name)
	var matches []string
	for _, c := range candidates {
		if ir.Homogenize(c) == key {
			matches = append(matches, c)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no such %s: %s", kind, name)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("ambiguous %s %s matches %s", kind, name, strings.Join(matches, ", "))
	}
}
