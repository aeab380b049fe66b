package cli

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/schemaforge/internal/queryir"
	"github.com/roach88/schemaforge/internal/querysql"
	"github.com/roach88/schemaforge/internal/surql"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	Run bool
}

// QueryView is the output of the query command.
type QueryView struct {
	Schema    string           `json:"schema"`
	Query     string           `json:"query"`
	SurrealQL string           `json:"surrealql"`
	Count     string           `json:"count_surrealql"`
	SQL       string           `json:"sql"`
	Params    []any            `json:"params"`
	Records   []map[string]any `json:"records,omitempty"`
	Total     *int64           `json:"total,omitempty"`
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <schema> [query-file]",
		Short: "Compile a query against a stored schema",
		Long: `Read a YAML query, validate its filter against the stored snapshot of
the schema and print the SurrealQL and SQLite statements it lowers to.
With --run the query is also executed against the records in the local
store. Without a query file every record of the schema is selected.

Query file format:
  filter:
    and:
      - eq: {status: Customer}
      - gt: {age: 25}
  sort: ["age desc"]
  limit: 10

Examples:
  schemaforge query Contact customers.yaml
  schemaforge query Contact customers.yaml --run --format json`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Run, "run", false, "execute the query against the local store")

	return cmd
}

func runQuery(opts *QueryOptions, args []string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	f := opts.formatter(cmd)

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	name := args[0]
	snap, err := st.ReadSnapshot(ctx, name)
	if errors.Is(err, sql.ErrNoRows) {
		_ = f.Error(ErrCodeNotFound, fmt.Sprintf("schema %s has not been applied", name), nil)
		return NewExitError(ExitCommandError, "schema "+name+" not found")
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read snapshot", err)
	}
	def := snap.Definition

	var data []byte
	if len(args) > 1 {
		if data, err = os.ReadFile(args[1]); err != nil {
			return WrapExitError(ExitCommandError, "failed to read query file", err)
		}
	}
	q, err := ParseQueryFile(data, def.ID)
	if err != nil {
		_ = f.Error(ErrCodeInvalidQuery, err.Error(), nil)
		return WrapExitError(ExitFailure, "invalid query", err)
	}
	if err := q.Validate(); err != nil {
		_ = f.Error(ErrCodeInvalidQuery, err.Error(), nil)
		return WrapExitError(ExitFailure, "invalid query", err)
	}
	if q.Filter != nil {
		if qerrs := queryir.ValidateFilter(q.Filter, def); len(qerrs) > 0 {
			messages := make([]string, len(qerrs))
			for i, e := range qerrs {
				messages[i] = e.Error()
			}
			_ = f.Error(ErrCodeInvalidQuery, qerrs[0].Error(), messages)
			return WrapExitError(ExitFailure, "invalid query", qerrs[0])
		}
	}

	sqlText, params, err := querysql.NewSQLCompiler().Compile(q)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to compile query", err)
	}
	view := QueryView{
		Schema:    name,
		Query:     q.String(),
		SurrealQL: surql.QueryStatement(q, name),
		Count:     surql.CountStatement(q, name),
		SQL:       sqlText,
		Params:    params,
	}

	if opts.Run {
		records, err := st.QueryRecords(ctx, q)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to run query", err)
		}
		total, err := st.CountRecords(ctx, q)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to count records", err)
		}
		view.Total = &total
		view.Records = make([]map[string]any, 0, len(records))
		for _, r := range records {
			body, err := r.PlainBody()
			if err != nil {
				return err
			}
			body["id"] = r.ID.String()
			view.Records = append(view.Records, body)
		}
	}

	return f.Success(view, func(w io.Writer) {
		fmt.Fprintln(w, view.SurrealQL)
		f.VerboseLog("count: %s", view.Count)
		f.VerboseLog("sql: %s %v", view.SQL, view.Params)
		if view.Total == nil {
			return
		}
		for _, r := range view.Records {
			line, err := marshalLine(r)
			if err != nil {
				fmt.Fprintf(w, "%v\n", r)
				continue
			}
			fmt.Fprintln(w, line)
		}
		fmt.Fprintf(w, "(%d of %d record(s))\n", len(view.Records), *view.Total)
	})
}
