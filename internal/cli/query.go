package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/deferq/internal/ir"
	"github.com/roach88/deferq/internal/query"
	"github.com/roach88/deferq/internal/queryir"
)

// Result kinds accepted by --result.
var resultKinds = []string{
	"list", "count", "exists", "first", "first-or-default",
	"single", "single-or-default", "scalar", "scalar-or-default",
}

// QueryFlags describes a Query on the command line.
type QueryFlags struct {
	Navigate []string
	Select   []string
	Where    []string
	Order    []string
	Skip     int
	Take     int
}

// register adds the query-building flags to cmd.
func (f *QueryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&f.Navigate, "nav", nil, "navigate to a related table (repeatable)")
	cmd.Flags().StringArrayVar(&f.Select, "select", nil, `column to project, "Name" or "Name as Alias" (repeatable)`)
	cmd.Flags().StringArrayVar(&f.Where, "where", nil, `criteria on the table argument, e.g. "Age > 30 AND Name LIKE 'B%'" (repeatable, conjoined)`)
	cmd.Flags().StringArrayVar(&f.Order, "order", nil, `order method name, e.g. OrderByName, then_by_age_descending (repeatable)`)
	cmd.Flags().IntVar(&f.Skip, "skip", 0, "rows to skip")
	cmd.Flags().IntVar(&f.Take, "take", 0, "maximum rows to return")
}

// build applies the flags to root in the order where, navigate, select,
// order, skip, take. Criteria therefore qualify bare columns with the root
// table, while projection and ordering name columns of the navigated one.
// Skip and take apply only when given.
func (f *QueryFlags) build(cmd *cobra.Command, root query.Query) (query.Query, error) {
	q := root
	var err error
	for _, w := range f.Where {
		if q, err = q.Invoke("Where", w); err != nil {
			return query.Query{}, err
		}
	}

	for _, nav := range f.Navigate {
		q = q.Navigate(nav)
	}

	if len(f.Select) > 0 {
		refs := make([]queryir.Reference, len(f.Select))
		for i, s := range f.Select {
			refs[i] = selectRef(q, s)
		}
		q = q.Select(refs...)
	}

	for _, name := range f.Order {
		if q, err = q.Invoke(name); err != nil {
			return query.Query{}, err
		}
	}

	if cmd.Flags().Changed("skip") {
		q = q.Skip(f.Skip)
	}
	if cmd.Flags().Changed("take") {
		q = q.Take(f.Take)
	}
	return q, nil
}

// selectRef parses "col", "Table.col" and "col as Alias".
func selectRef(q query.Query, s string) queryir.Reference {
	s = strings.TrimSpace(s)
	var alias string
	if i := strings.Index(strings.ToLower(s), " as "); i >= 0 {
		alias = strings.TrimSpace(s[i+4:])
		s = strings.TrimSpace(s[:i])
	}
	var ref queryir.Reference
	if strings.Contains(s, ".") {
		ref = queryir.ParseReference(s)
	} else {
		ref = q.Ref(s)
	}
	if alias != "" {
		ref = ref.As(alias)
	}
	return ref
}

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	QueryFlags
	Result string
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <table>",
		Short: "Build and run a query",
		Long: `Build a query over a table and run it for the requested result.

Results:
  list               all rows (default)
  count              number of rows
  exists             whether any row matches
  first              first row; fails when there is none
  first-or-default   first row or null
  single             the only row; fails on zero or several
  single-or-default  the only row or null; fails on several
  scalar             the single value of a one-row, one-column result
  scalar-or-default  as scalar, null when there are no rows

Exit codes:
  0 - Success
  1 - The result violated its contract (no rows, several rows, several columns)
  2 - Command error (config, unknown table or column, bad criteria, etc.)

Examples:
  deferq query Users --where "Age > 30" --result count
  deferq query PagingTest --order OrderById --skip 10 --take 10
  deferq query Customers --where "Name == 'Test'" --nav Orders --result first
  deferq query Users --select "Name as Alias" --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd.Context(), opts, args[0], cmd)
		},
	}

	opts.QueryFlags.register(cmd)
	cmd.Flags().StringVar(&opts.Result, "result", "list", "result kind ("+strings.Join(resultKinds, "|")+")")

	return cmd
}

func runQuery(ctx context.Context, opts *QueryOptions, table string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := opts.formatter(cmd)

	if !isResultKind(opts.Result) {
		return fail(formatter, ErrCodeUsage, NewExitError(ExitCommandError,
			fmt.Sprintf("invalid result %q: must be one of %v", opts.Result, resultKinds)))
	}

	sess, err := opts.open(ctx, cmd)
	if err != nil {
		return fail(formatter, "", err)
	}
	defer sess.close()

	q, err := opts.QueryFlags.build(cmd, sess.db.Table(table))
	if err != nil {
		return fail(formatter, ErrCodeUsage, WrapExitError(ExitCommandError, "invalid query", err))
	}
	formatter.VerboseLog("Running %s on %s", opts.Result, q.Table())

	result, err := execute(ctx, q, opts.Result)
	if err != nil {
		if !query.IsCardinalityError(err) {
			err = WrapExitError(ExitCommandError, "query failed", err)
		}
		return fail(formatter, ErrCodeQuery, err)
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	return writeText(formatter.Writer, result)
}

func isResultKind(kind string) bool {
	return slices.Contains(resultKinds, kind)
}

// execute runs the terminal operation named by kind.
// The value is []query.Record, query.Record, int64, bool or json.RawMessage
// for scalars.
func execute(ctx context.Context, q query.Query, kind string) (any, error) {
	switch kind {
	case "count":
		return q.Count(ctx)
	case "exists":
		return q.Exists(ctx)
	case "first":
		return q.First(ctx)
	case "first-or-default":
		return q.FirstOrDefault(ctx)
	case "single":
		return q.Single(ctx)
	case "single-or-default":
		return q.SingleOrDefault(ctx)
	case "scalar", "scalar-or-default":
		var v ir.IRValue
		var err error
		if kind == "scalar" {
			v, err = q.ToScalar(ctx)
		} else {
			v, err = q.ToScalarOrDefault(ctx)
		}
		if err != nil {
			return nil, err
		}
		b, err := ir.MarshalValue(v)
		if err != nil {
			return nil, err
		}
		return json.RawMessage(b), nil
	default:
		records, err := q.ToList(ctx)
		if err != nil {
			return nil, err
		}
		if records == nil {
			records = []query.Record{}
		}
		return records, nil
	}
}

// writeText renders a result for humans: records as an aligned table,
// everything else on one line.
func writeText(w io.Writer, result any) error {
	switch v := result.(type) {
	case []query.Record:
		return writeTable(w, v)
	case query.Record:
		if v.IsZero() {
			_, err := fmt.Fprintln(w, "NULL")
			return err
		}
		return writeTable(w, []query.Record{v})
	case json.RawMessage:
		if string(v) == "null" {
			_, err := fmt.Fprintln(w, "NULL")
			return err
		}
		var s string
		if json.Unmarshal(v, &s) == nil {
			_, err := fmt.Fprintln(w, s)
			return err
		}
		_, err := fmt.Fprintln(w, string(v))
		return err
	default:
		_, err := fmt.Fprintln(w, v)
		return err
	}
}

func writeTable(w io.Writer, records []query.Record) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "(no rows)")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	columns := records[0].Row().Columns()
	fmt.Fprintln(tw, strings.Join(columns, "\t"))
	for _, rec := range records {
		row := rec.Row()
		cells := make([]string, len(row))
		for i, f := range row {
			cells[i] = ir.String(f.Value)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "(%d row(s))\n", len(records))
	return err
}
