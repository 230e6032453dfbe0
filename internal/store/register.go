package store

import (
	"context"
	"log/slog"

	"github.com/roach88/deferq/internal/provider"
)

// ProviderName is the name the SQLite adapter registers under.
const ProviderName = "sqlite"

func init() {
	provider.Register(ProviderName, openConn)
}

// openConn opens the database at dsn and returns an Adapter owning it.
func openConn(ctx context.Context, dsn string, logger *slog.Logger) (provider.Conn, error) {
	s, err := Open(dsn)
	if err != nil {
		return nil, err
	}
	a := NewAdapter(s, logger)
	a.owned = true
	return a, nil
}
