package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/deferq/internal/query"
)

// sqlCompiler is implemented by adapters that can show the SQL they run.
type sqlCompiler interface {
	Compile(ctx context.Context, q query.Query) (string, []any, error)
}

// ExplainOptions holds flags for the explain command.
type ExplainOptions struct {
	*RootOptions
	QueryFlags
}

// ExplainResult is the compiled form of a query.
type ExplainResult struct {
	Table  string `json:"table"`
	SQL    string `json:"sql"`
	Params []any  `json:"params"`
}

// NewExplainCommand creates the explain command.
func NewExplainCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExplainOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "explain <table>",
		Short: "Show the SQL a query compiles to",
		Long: `Build a query with the same flags as "query" and print the SQL and
parameters it would execute, without running it.

Examples:
  deferq explain Users --where "Age > 30" --order OrderByNameDescending --take 5
  deferq explain Customers --nav Orders --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplain(cmd.Context(), opts, args[0], cmd)
		},
	}

	opts.QueryFlags.register(cmd)

	return cmd
}

func runExplain(ctx context.Context, opts *ExplainOptions, table string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := opts.formatter(cmd)

	sess, err := opts.open(ctx, cmd)
	if err != nil {
		return fail(formatter, "", err)
	}
	defer sess.close()

	compiler, ok := sess.db.Adapter().(sqlCompiler)
	if !ok {
		return fail(formatter, ErrCodeProvider, NewExitError(ExitCommandError,
			fmt.Sprintf("provider %s cannot explain queries", sess.db.Provider())))
	}

	q, err := opts.QueryFlags.build(cmd, sess.db.Table(table))
	if err != nil {
		return fail(formatter, ErrCodeUsage, WrapExitError(ExitCommandError, "invalid query", err))
	}

	sqlText, params, err := compiler.Compile(ctx, q)
	if err != nil {
		return fail(formatter, ErrCodeQuery, WrapExitError(ExitCommandError, "compile failed", err))
	}
	if params == nil {
		params = []any{}
	}
	result := ExplainResult{Table: q.Table(), SQL: sqlText, Params: params}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintln(formatter.Writer, result.SQL)
	fmt.Fprintf(formatter.Writer, "params: %v\n", result.Params)
	return nil
}
