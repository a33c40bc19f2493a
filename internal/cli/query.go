package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/mdb/internal/index"
	"github.com/aidanlsb/mdb/internal/query"
	"github.com/aidanlsb/mdb/internal/ui"
)

var (
	queryOutputFlag string
	queryFieldsFlag string
	queryLimitFlag  int
)

var queryCmd = &cobra.Command{
	Use:   "query <expression>",
	Short: "Query indexed notes with the mdb expression language",
	Long: `Query indexed notes using field comparisons and boolean logic.

Fields:
  file.<column>    Native columns: path, folder, name, ext, title, size,
                   created_at, modified_at, body, tags, links, backlinks, embeds
  note.<key>       Frontmatter properties (note.status, note.author.name)
  <name>           Shorthand: native column if one matches, else property

Operators:
  ==  !=  >  <  >=  <=    Comparison
  =~                      SQL LIKE match (supply % wildcards yourself)
  and  or  ( )            Boolean logic; and binds tighter than or

Functions:
  has(field, value)       Membership in a list column (tags, links,
                          backlinks, embeds)

Timestamps compare against string literals: '2006-01-02',
'2006-01-02 15:04:05', or RFC3339.

Examples:
  mdb query "has(tags, 'todo') and size > 100"
  mdb query "note.status == 'active' or folder =~ 'projects%'"
  mdb query "modified_at > '2025-01-01'" -f "path, title, modified_at"
  mdb query "title =~ '%meeting%'" -o json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		start := time.Now()

		compiled, err := query.Build(args[0])
		if err != nil {
			return handleQueryError(err)
		}

		projection, err := query.ResolveProjection(queryFieldsFlag)
		if err != nil {
			return handleQueryError(err)
		}

		db, err := index.Open(getDatabasePath())
		if err != nil {
			return handleError(ErrDatabaseError, err, "Run 'mdb index' to build the database")
		}
		defer db.Close()

		limit := getConfig().ResolveLimit(queryLimitFlag)

		result, err := db.Execute(compiled.Predicate, compiled.Binds, projection, limit)
		if err != nil {
			return handleError(ErrDatabaseError, err, "")
		}

		elapsed := time.Since(start).Milliseconds()

		if isJSONOutput() || queryOutputFlag == "json" {
			items := resultObjects(result)
			if isJSONOutput() {
				outputSuccess(map[string]interface{}{"items": items},
					&Meta{Count: len(items), QueryTimeMs: elapsed})
				return nil
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(items)
		}

		switch queryOutputFlag {
		case "table", "":
			if len(result.Rows) == 0 {
				fmt.Println(ui.Hint("no results"))
				return nil
			}
			display := ui.NewDisplayContext()
			fmt.Println(ui.RenderResultsTable(display, result.Columns, result.Rows))
			fmt.Println(ui.Hint(fmt.Sprintf("%d results (%dms)", len(result.Rows), elapsed)))
		case "list":
			fmt.Print(ui.RenderResultsList(result.Columns, result.Rows))
		default:
			return handleErrorMsg(ErrInvalidInput,
				fmt.Sprintf("unknown output format: %s", queryOutputFlag),
				"Use one of: table, json, list")
		}
		return nil
	},
}

// resultObjects converts result rows to column-keyed objects for JSON
// output. JSON text cells (list columns, properties) decode into real
// JSON values.
func resultObjects(result *index.Result) []map[string]interface{} {
	items := make([]map[string]interface{}, len(result.Rows))
	for i, row := range result.Rows {
		obj := make(map[string]interface{}, len(result.Columns))
		for j, col := range result.Columns {
			var v interface{}
			if j < len(row) {
				v = row[j]
			}
			obj[col] = jsonValue(v)
		}
		items[i] = obj
	}
	return items
}

func jsonValue(v interface{}) interface{} {
	s, ok := v.(string)
	if !ok {
		return v
	}
	trimmed := strings.TrimSpace(s)
	if strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "{") {
		var decoded interface{}
		if err := json.Unmarshal([]byte(trimmed), &decoded); err == nil {
			return decoded
		}
	}
	return v
}

// handleQueryError maps query compilation errors to stable codes.
func handleQueryError(err error) error {
	var (
		lexErr     *query.LexError
		parseErr   *query.ParseError
		arityErr   *query.ArityError
		fieldErr   *query.UnknownFieldError
		literalErr *query.InvalidLiteralError
		typeErr    *query.TypeError
	)
	switch {
	case errors.As(err, &fieldErr):
		return handleError(ErrUnknownField, err, "Run 'mdb query --help' for the native column list")
	case errors.As(err, &literalErr):
		return handleError(ErrInvalidValue, err, "")
	case errors.As(err, &typeErr):
		return handleError(ErrTypeMismatch, err, "")
	case errors.As(err, &lexErr), errors.As(err, &parseErr), errors.As(err, &arityErr):
		return handleError(ErrQueryInvalid, err, "")
	default:
		return handleError(ErrQueryInvalid, err, "")
	}
}

func init() {
	queryCmd.Flags().StringVarP(&queryOutputFlag, "output", "o", "table", "Output format: table, json, or list")
	queryCmd.Flags().StringVarP(&queryFieldsFlag, "output-fields", "f", "file.path, file.modified_at", "Comma-separated fields to select ('*' for all)")
	queryCmd.Flags().IntVarP(&queryLimitFlag, "limit", "l", 0, "Maximum result rows (default 1000)")
	rootCmd.AddCommand(queryCmd)
}
