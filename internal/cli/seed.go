package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/deferq/internal/store"
)

// SeedOptions holds flags for the seed command.
type SeedOptions struct {
	*RootOptions
}

// SeedResult reports a completed seed.
type SeedResult struct {
	ID       string `json:"id"`
	Database string `json:"database"`
	Tables   int    `json:"tables"`
	Rows     int    `json:"rows"`
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SeedOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "seed <fixtures.yaml>",
		Short: "Load YAML fixtures into the SQLite database",
		Long: `Create the tables declared in a YAML fixtures file and load their rows.

Declared tables are dropped and recreated, so seeding is repeatable.
Tables are created in file order; declare referenced tables first.

Examples:
  deferq seed testdata/shop.yaml --db shop.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), opts, args[0], cmd)
		},
	}

	return cmd
}

func runSeed(ctx context.Context, opts *SeedOptions, path string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := opts.formatter(cmd)

	cfg, err := opts.settings()
	if err != nil {
		return fail(formatter, "", WrapExitError(ExitCommandError, "failed to load config", err))
	}
	logger, cleanup := opts.logger(cmd, cfg)
	defer cleanup()

	fx, err := store.LoadFixtures(path)
	if err != nil {
		return fail(formatter, ErrCodeFixtures, WrapExitError(ExitCommandError, "invalid fixtures", err))
	}

	st, err := store.Open(cfg.Database)
	if err != nil {
		return fail(formatter, "", WrapExitError(ExitCommandError, "failed to open database", err))
	}
	defer st.Close()

	res, err := st.Seed(ctx, fx)
	if err != nil {
		return fail(formatter, ErrCodeFixtures, WrapExitError(ExitCommandError, "seed failed", err))
	}
	logger.Debug("seeded database", "seed_id", res.ID, "tables", res.Tables, "rows", res.Rows)

	result := SeedResult{ID: res.ID, Database: cfg.Database, Tables: res.Tables, Rows: res.Rows}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "✓ Seeded %d table(s), %d row(s) into %s\n", result.Tables, result.Rows, result.Database)
	return nil
}
