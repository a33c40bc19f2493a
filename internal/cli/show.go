package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/mdb/internal/index"
	"github.com/aidanlsb/mdb/internal/paths"
	"github.com/aidanlsb/mdb/internal/ui"
)

var showRawFlag bool

var showCmd = &cobra.Command{
	Use:   "show <path>",
	Short: "Show an indexed document",
	Long: `Show one document from the index: its metadata, frontmatter
properties, tag/link/backlink sets, and body.

The path can be absolute, relative to the notes directory, or given
without the .md extension. The body renders as terminal markdown when
stdout is a terminal; use --raw to print it unrendered.

Examples:
  mdb show projects/roadmap
  mdb show projects/roadmap.md --raw
  mdb show projects/roadmap --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := index.Open(getDatabasePath())
		if err != nil {
			return handleError(ErrDatabaseError, err, "Run 'mdb index' to build the database")
		}
		defer db.Close()

		doc, err := lookupDocument(db, args[0])
		if err != nil {
			return handleError(ErrDatabaseError, err, "")
		}
		if doc == nil {
			return handleErrorMsg(ErrDocumentNotFound,
				fmt.Sprintf("document not indexed: %s", args[0]),
				"Run 'mdb index' and check the path")
		}

		if isJSONOutput() {
			outputSuccess(doc, nil)
			return nil
		}

		fmt.Println(ui.Header(displayTitle(doc)))
		fmt.Println(ui.FilePath(doc.Path))
		fmt.Println(ui.Hint(fmt.Sprintf("modified %s, %d bytes",
			ui.FormatValue(doc.ModifiedAt), doc.Size)))

		if len(doc.Properties) > 0 {
			fmt.Println()
			for _, key := range sortedPropertyKeys(doc.Properties) {
				fmt.Printf("%s: %v\n", ui.Muted.Render(key), doc.Properties[key])
			}
		}
		printSet("tags", doc.Tags)
		printSet("links", doc.Links)
		printSet("backlinks", doc.Backlinks)
		printSet("embeds", doc.Embeds)

		fmt.Println()
		if showRawFlag {
			fmt.Println(doc.Body)
			return nil
		}

		display := ui.NewDisplayContext()
		if !display.IsTTY {
			fmt.Println(doc.Body)
			return nil
		}
		rendered, err := ui.RenderMarkdown(doc.Body, display.AvailableWidth(ui.MarkdownRenderMargin))
		if err != nil {
			fmt.Println(doc.Body)
			return nil
		}
		fmt.Print(rendered)
		return nil
	},
}

// lookupDocument resolves a user-supplied reference: exact path, path
// relative to the notes directory, each with and without .md.
func lookupDocument(db *index.Database, ref string) (*index.Document, error) {
	for _, candidate := range paths.Candidates(ref, getBaseDir()) {
		doc, err := db.GetDocument(candidate)
		if err != nil {
			return nil, err
		}
		if doc != nil {
			return doc, nil
		}
	}
	return nil, nil
}

func displayTitle(doc *index.Document) string {
	if doc.Title != "" {
		return doc.Title
	}
	return doc.Name
}

func printSet(label string, values []string) {
	if len(values) == 0 {
		return
	}
	fmt.Printf("%s: %s\n", ui.Muted.Render(label), strings.Join(values, ", "))
}

func sortedPropertyKeys(props map[string]interface{}) []string {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func init() {
	showCmd.Flags().BoolVar(&showRawFlag, "raw", false, "Print the body without terminal rendering")
	rootCmd.AddCommand(showCmd)
}
