package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/roach88/deferq/internal/ir"
	"github.com/roach88/deferq/internal/query"
	"github.com/roach88/deferq/internal/querysql"
)

// Adapter executes Queries against a Store.
//
// Names in a Query are resolved against the live catalog on every run, so
// tables created by a later Seed are visible without reopening.
type Adapter struct {
	store  *Store
	logger *slog.Logger
	owned  bool
}

var _ query.Adapter = (*Adapter)(nil)

// NewAdapter wraps s. The caller keeps ownership of s.
// A nil logger discards log output.
func NewAdapter(s *Store, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{store: s, logger: logger}
}

// Close closes the underlying Store when the Adapter opened it.
func (a *Adapter) Close() error {
	if !a.owned {
		return nil
	}
	return a.store.Close()
}

// Store returns the wrapped Store.
func (a *Adapter) Store() *Store {
	return a.store
}

// Compile resolves q against the current catalog and returns the SQL
// RunQuery would execute.
func (a *Adapter) Compile(ctx context.Context, q query.Query) (string, []any, error) {
	catalog, err := a.store.Catalog(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("read catalog: %w", err)
	}
	return querysql.NewSQLCompiler(catalog).Compile(q)
}

// RunQuery compiles q immediately and executes it when the returned
// sequence is first ranged over. Each range executes again.
func (a *Adapter) RunQuery(ctx context.Context, q query.Query) (query.Rows, error) {
	sqlText, params, err := a.Compile(ctx, q)
	if err != nil {
		a.logger.Warn("compile query failed", "table", q.Table(), "error", err)
		return nil, fmt.Errorf("compile %s: %w", q.Table(), err)
	}

	return func(yield func(ir.Row, error) bool) {
		execID := a.store.ids.Generate()
		a.logger.Debug("executing query",
			"exec_id", execID,
			"table", q.Table(),
			"sql", sqlText,
			"params", len(params))

		rows, err := a.store.Query(ctx, sqlText, params...)
		if err != nil {
			a.logger.Warn("query failed", "exec_id", execID, "error", err)
			yield(nil, fmt.Errorf("execute query: %w", err))
			return
		}
		defer rows.Close()

		columns, err := rows.Columns()
		if err != nil {
			yield(nil, fmt.Errorf("get columns: %w", err))
			return
		}

		n := 0
		for rows.Next() {
			row, err := scanRow(rows, columns)
			if err != nil {
				yield(nil, err)
				return
			}
			n++
			if !yield(row, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			a.logger.Warn("iterate rows failed", "exec_id", execID, "error", err)
			yield(nil, fmt.Errorf("iterate rows: %w", err))
			return
		}
		a.logger.Debug("query complete", "exec_id", execID, "rows", n)
	}, nil
}

// scanRow scans the current row into an ir.Row in column order.
func scanRow(rows *sql.Rows, columns []string) (ir.Row, error) {
	values := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, fmt.Errorf("scan row: %w", err)
	}

	row := make(ir.Row, len(columns))
	for i, name := range columns {
		v, err := ir.FromGo(values[i])
		if err != nil {
			return nil, fmt.Errorf("convert column %s: %w", name, err)
		}
		row[i] = ir.F(name, v)
	}
	return row, nil
}
