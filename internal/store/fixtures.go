package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/deferq/internal/ir"
	"github.com/roach88/deferq/internal/queryir"
)

// Fixtures describes tables and rows to load into a Store.
//
//	tables:
//	  - name: Customers
//	    columns:
//	      - {name: CustomerId, type: INTEGER, primary_key: true}
//	      - {name: Name, type: TEXT}
//	    rows:
//	      - {CustomerId: 1, Name: Test}
//	  - name: PagingTest
//	    columns:
//	      - {name: Id, type: INTEGER, primary_key: true}
//	    sequence: {column: Id, from: 1, to: 100}
type Fixtures struct {
	Tables []FixtureTable `yaml:"tables"`

	// Source names where the fixtures came from, for the seed history.
	Source string `yaml:"-"`
}

// FixtureTable is one table definition with its rows.
type FixtureTable struct {
	Name        string              `yaml:"name"`
	Columns     []FixtureColumn     `yaml:"columns"`
	ForeignKeys []FixtureForeignKey `yaml:"foreign_keys"`
	Rows        []map[string]any    `yaml:"rows"`
	Sequence    *FixtureSequence    `yaml:"sequence"`
}

// FixtureColumn declares a column.
type FixtureColumn struct {
	Name       string `yaml:"name"`
	Type       string `yaml:"type"`
	PrimaryKey bool   `yaml:"primary_key"`
}

// FixtureForeignKey declares "column REFERENCES references(referenced_column)".
type FixtureForeignKey struct {
	Column           string `yaml:"column"`
	References       string `yaml:"references"`
	ReferencedColumn string `yaml:"referenced_column"`
}

// FixtureSequence generates one row per integer in [From, To] with the
// integer stored in Column. Other columns are NULL.
type FixtureSequence struct {
	Column string `yaml:"column"`
	From   int64  `yaml:"from"`
	To     int64  `yaml:"to"`
}

// SeedResult summarizes a Seed call.
type SeedResult struct {
	ID     string
	Tables int
	Rows   int
}

var columnTypes = map[string]bool{
	"":        true,
	"INTEGER": true,
	"TEXT":    true,
	"REAL":    true,
	"NUMERIC": true,
	"BLOB":    true,
}

// LoadFixtures reads and validates a YAML fixtures file.
func LoadFixtures(path string) (*Fixtures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	fx, err := ParseFixtures(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	fx.Source = path
	return fx, nil
}

// ParseFixtures decodes and validates YAML fixtures.
func ParseFixtures(data []byte) (*Fixtures, error) {
	var fx Fixtures
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	if err := fx.Validate(); err != nil {
		return nil, err
	}
	return &fx, nil
}

// Validate checks names, types, and that rows only use declared columns.
func (fx *Fixtures) Validate() error {
	if len(fx.Tables) == 0 {
		return fmt.Errorf("fixtures declare no tables")
	}
	seen := make(map[string]bool)
	for _, t := range fx.Tables {
		if err := queryir.ValidateIdentifier(t.Name); err != nil {
			return fmt.Errorf("table: %w", err)
		}
		if strings.HasPrefix(t.Name, internalPrefix) {
			return fmt.Errorf("table %s: names starting with %s are reserved", t.Name, internalPrefix)
		}
		if seen[t.Name] {
			return fmt.Errorf("table %s declared twice", t.Name)
		}
		seen[t.Name] = true

		if len(t.Columns) == 0 {
			return fmt.Errorf("table %s: no columns", t.Name)
		}
		cols := make(map[string]bool, len(t.Columns))
		for _, c := range t.Columns {
			if err := queryir.ValidateIdentifier(c.Name); err != nil {
				return fmt.Errorf("table %s: column: %w", t.Name, err)
			}
			if !columnTypes[strings.ToUpper(c.Type)] {
				return fmt.Errorf("table %s: column %s: unsupported type %q", t.Name, c.Name, c.Type)
			}
			cols[c.Name] = true
		}
		for _, fk := range t.ForeignKeys {
			if !cols[fk.Column] {
				return fmt.Errorf("table %s: foreign key on unknown column %s", t.Name, fk.Column)
			}
			if err := queryir.ValidateIdentifier(fk.References); err != nil {
				return fmt.Errorf("table %s: foreign key: %w", t.Name, err)
			}
			if fk.ReferencedColumn != "" {
				if err := queryir.ValidateIdentifier(fk.ReferencedColumn); err != nil {
					return fmt.Errorf("table %s: foreign key: %w", t.Name, err)
				}
			}
		}
		for i, row := range t.Rows {
			for name := range row {
				if !cols[name] {
					return fmt.Errorf("table %s: row %d: unknown column %s", t.Name, i+1, name)
				}
			}
		}
		if seq := t.Sequence; seq != nil {
			if !cols[seq.Column] {
				return fmt.Errorf("table %s: sequence on unknown column %s", t.Name, seq.Column)
			}
			if seq.To < seq.From {
				return fmt.Errorf("table %s: sequence %d..%d is empty", t.Name, seq.From, seq.To)
			}
		}
	}
	return nil
}

// Seed replaces the declared tables and loads their rows in one
// transaction, then records the seed in the history table.
// Tables are dropped in reverse order and created in declaration order, so
// referenced tables must be declared before the tables referencing them.
func (s *Store) Seed(ctx context.Context, fx *Fixtures) (SeedResult, error) {
	if err := fx.Validate(); err != nil {
		return SeedResult{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return SeedResult{}, fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback()

	for i := len(fx.Tables) - 1; i >= 0; i-- {
		if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quote(fx.Tables[i].Name)); err != nil {
			return SeedResult{}, fmt.Errorf("drop %s: %w", fx.Tables[i].Name, err)
		}
	}

	res := SeedResult{ID: s.ids.Generate(), Tables: len(fx.Tables)}
	for _, t := range fx.Tables {
		if _, err := tx.ExecContext(ctx, createTableSQL(t)); err != nil {
			return SeedResult{}, fmt.Errorf("create %s: %w", t.Name, err)
		}
		n, err := insertRows(ctx, tx, t)
		if err != nil {
			return SeedResult{}, err
		}
		res.Rows += n
	}

	source := fx.Source
	if source == "" {
		source = "inline"
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO _deferq_seeds (id, source, table_count, row_count, seeded_at)
		VALUES (?, ?, ?, ?, ?)
	`, res.ID, source, res.Tables, res.Rows, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return SeedResult{}, fmt.Errorf("record seed: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return SeedResult{}, fmt.Errorf("commit seed: %w", err)
	}
	return res, nil
}

// createTableSQL renders CREATE TABLE from a validated definition.
func createTableSQL(t FixtureTable) string {
	var defs []string
	var pk []string
	for _, c := range t.Columns {
		def := quote(c.Name)
		if c.Type != "" {
			def += " " + strings.ToUpper(c.Type)
		}
		defs = append(defs, def)
		if c.PrimaryKey {
			pk = append(pk, quote(c.Name))
		}
	}
	if len(pk) > 0 {
		defs = append(defs, "PRIMARY KEY ("+strings.Join(pk, ", ")+")")
	}
	for _, fk := range t.ForeignKeys {
		ref := quote(fk.References)
		if fk.ReferencedColumn != "" {
			ref += " (" + quote(fk.ReferencedColumn) + ")"
		}
		defs = append(defs, fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s", quote(fk.Column), ref))
	}
	return "CREATE TABLE " + quote(t.Name) + " (" + strings.Join(defs, ", ") + ")"
}

// insertRows inserts explicit rows, then the generated sequence.
func insertRows(ctx context.Context, tx *sql.Tx, t FixtureTable) (int, error) {
	names := make([]string, len(t.Columns))
	marks := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = quote(c.Name)
		marks[i] = "?"
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quote(t.Name), strings.Join(names, ", "), strings.Join(marks, ", ")))
	if err != nil {
		return 0, fmt.Errorf("prepare insert into %s: %w", t.Name, err)
	}
	defer stmt.Close()

	n := 0
	args := make([]any, len(t.Columns))
	for i, row := range t.Rows {
		for j, c := range t.Columns {
			v, err := ir.FromGo(row[c.Name])
			if err != nil {
				return n, fmt.Errorf("table %s: row %d: column %s: %w", t.Name, i+1, c.Name, err)
			}
			args[j] = ir.ToGo(v)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return n, fmt.Errorf("insert into %s row %d: %w", t.Name, i+1, err)
		}
		n++
	}

	if seq := t.Sequence; seq != nil {
		for v := seq.From; v <= seq.To; v++ {
			for j, c := range t.Columns {
				args[j] = nil
				if c.Name == seq.Column {
					args[j] = v
				}
			}
			if _, err := stmt.ExecContext(ctx, args...); err != nil {
				return n, fmt.Errorf("insert sequence into %s at %d: %w", t.Name, v, err)
			}
			n++
		}
	}
	return n, nil
}

func quote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
