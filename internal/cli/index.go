package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/mdb/internal/index"
	"github.com/aidanlsb/mdb/internal/scanner"
	"github.com/aidanlsb/mdb/internal/ui"
)

var (
	indexForceFlag   bool
	indexVerboseFlag bool
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index markdown files into the database",
	Long: `Scans the notes directory and indexes new and changed markdown files.

Files whose stored modification time is current are skipped; use --force
to re-extract everything. After the scan, backlinks are recomputed from
the full link graph.

Unreadable files are reported and skipped; the scan continues.

Examples:
  # Incremental index of the current directory
  mdb index

  # Re-extract every file
  mdb index --force

  # Index a specific directory
  mdb index --base-dir ~/notes`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		baseDir := getBaseDir()
		start := time.Now()

		if _, err := os.Stat(baseDir); os.IsNotExist(err) {
			return handleErrorMsg(ErrFileNotFound,
				fmt.Sprintf("notes directory not found: %s", baseDir),
				"Check --base-dir or base_dir in config.toml")
		}

		db, err := index.Open(getDatabasePath())
		if err != nil {
			return handleError(ErrDatabaseError, err, "")
		}
		defer db.Close()

		var spinner *ui.Spinner
		if !jsonOutput && !indexVerboseFlag {
			spinner = ui.NewSpinner(fmt.Sprintf("Indexing %s", ui.FilePath(baseDir)))
			spinner.Start()
		} else if !jsonOutput {
			fmt.Printf("Indexing: %s\n", ui.FilePath(baseDir))
		}

		stats, err := scanner.Scan(baseDir, db, scanner.Options{
			Force:   indexForceFlag,
			Verbose: indexVerboseFlag && !jsonOutput,
			Log:     os.Stdout,
		})
		elapsed := time.Since(start).Milliseconds()
		if err != nil {
			if spinner != nil {
				spinner.Stop()
			}
			return reportIndexFailure(stats, err)
		}

		if jsonOutput {
			outputSuccess(indexStatsPayload(stats), &Meta{QueryTimeMs: elapsed})
			return nil
		}

		summary := ui.Successf("%d indexed, %d skipped, %d failed (%dms)",
			stats.Indexed, stats.Skipped, stats.Failed, elapsed)
		if spinner != nil {
			spinner.StopWithMessage(summary)
		} else {
			fmt.Println(summary)
		}
		for _, fe := range stats.Errors {
			fmt.Fprintln(os.Stderr, ui.Warningf("%s: %v", fe.Path, fe.Err))
		}
		if stats.BacklinksUpdated > 0 {
			fmt.Println(ui.Hint(fmt.Sprintf("backlinks updated for %d documents", stats.BacklinksUpdated)))
		}
		return nil
	},
}

// reportIndexFailure reports a fatal store failure together with the
// work completed before it: a partial run is still a partial run, and
// the caller needs to know which files made it in.
func reportIndexFailure(stats *scanner.Stats, err error) error {
	if jsonOutput {
		outputError(ErrDatabaseError, err.Error(), indexStatsPayload(stats), "")
		return nil
	}
	for _, fe := range stats.Errors {
		fmt.Fprintln(os.Stderr, ui.Warningf("%s: %v", fe.Path, fe.Err))
	}
	msg := ui.Errorf("aborted after %d indexed, %d skipped", stats.Indexed, stats.Skipped)
	if n := len(stats.Errors); n > 0 {
		msg += " " + ui.Count(n, "file error", "file errors")
	}
	fmt.Fprintln(os.Stderr, msg)
	return err
}

// indexStatsPayload is the JSON shape for scan stats, shared by the
// success data and the fatal-path error details.
func indexStatsPayload(stats *scanner.Stats) map[string]interface{} {
	fileErrors := make([]map[string]string, len(stats.Errors))
	for i, fe := range stats.Errors {
		fileErrors[i] = map[string]string{
			"path":  fe.Path,
			"error": fe.Err.Error(),
		}
	}
	return map[string]interface{}{
		"indexed":           stats.Indexed,
		"skipped":           stats.Skipped,
		"failed":            stats.Failed,
		"backlinks_updated": stats.BacklinksUpdated,
		"errors":            fileErrors,
	}
}

func init() {
	indexCmd.Flags().BoolVarP(&indexForceFlag, "force", "f", false, "Re-extract all files regardless of modification time")
	indexCmd.Flags().BoolVarP(&indexVerboseFlag, "verbose", "v", false, "Print each indexed file")
	rootCmd.AddCommand(indexCmd)
}
