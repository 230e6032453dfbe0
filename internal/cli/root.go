package cli

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/deferq/internal/config"
	"github.com/roach88/deferq/internal/logging"
	"github.com/roach88/deferq/internal/provider"

	// Registers the "sqlite" provider.
	_ "github.com/roach88/deferq/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	Database   string // overrides config database when set
	Provider   string // overrides config provider when set
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the deferq CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "deferq",
		Short: "deferq - deferred queries over SQLite",
		Long: `Build a query from a table, navigation, criteria, ordering and paging,
then run it only when a result is asked for.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to a CUE config file")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "database path (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.Provider, "provider", "", "provider name (overrides config)")

	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewExplainCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewProvidersCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// settings loads the config file and applies flag overrides.
func (o *RootOptions) settings() (*config.Config, error) {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return nil, err
	}
	if o.Database != "" {
		cfg.Database = o.Database
	}
	if o.Provider != "" {
		cfg.Provider = o.Provider
	}
	return cfg, nil
}

// logger builds the command logger on stderr. --verbose forces debug.
func (o *RootOptions) logger(cmd *cobra.Command, cfg *config.Config) (*slog.Logger, func()) {
	level := cfg.Log.SlogLevel()
	if o.Verbose {
		level = slog.LevelDebug
	}
	return logging.Setup(level, cfg.Log.SeqURL, cmd.ErrOrStderr())
}

// session is the resolved environment of one command run.
type session struct {
	db    *provider.DB
	close func()
}

// open resolves settings, sets up logging and opens the database through
// the configured provider.
func (o *RootOptions) open(ctx context.Context, cmd *cobra.Command) (*session, error) {
	cfg, err := o.settings()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	logger, cleanup := o.logger(cmd, cfg)

	db, err := provider.Open(ctx, cfg.Provider, cfg.Database, logger)
	if err != nil {
		cleanup()
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	logger.Debug("opened database", "provider", db.Provider(), "database", cfg.Database)

	return &session{
		db: db,
		close: func() {
			if err := db.Close(); err != nil {
				logger.Warn("close database", "error", err)
			}
			cleanup()
		},
	}, nil
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}
