package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/mdb/internal/index"
	"github.com/aidanlsb/mdb/internal/ui"
	"github.com/aidanlsb/mdb/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the notes directory and auto-index changes",
	Long: `Watch the notes directory for file changes and automatically update
the index.

This runs in the foreground and reindexes files as they are saved.

The watcher:
- Monitors all .md files under the notes directory
- Debounces rapid changes (waits 100ms after last change)
- Ignores hidden directories and node_modules/
- Removes deleted files from the index and refreshes backlinks

Examples:
  # Watch the configured notes directory
  mdb watch

  # Watch with debug output
  mdb watch --debug

  # Run in background (shell-dependent)
  mdb watch &`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().Bool("debug", false, "Enable debug logging")
}

func runWatch(cmd *cobra.Command, args []string) error {
	debug, _ := cmd.Flags().GetBool("debug")
	baseDir := getBaseDir()

	if _, err := os.Stat(baseDir); os.IsNotExist(err) {
		return fmt.Errorf("notes directory not found: %s", baseDir)
	}

	db, err := index.Open(getDatabasePath())
	if err != nil {
		return fmt.Errorf("failed to open index: %w", err)
	}
	defer db.Close()

	w, err := watcher.New(watcher.Config{
		BaseDir:  baseDir,
		Database: db,
		Debug:    debug,
		OnReindex: func(path string, err error) {
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error reindexing %s: %v\n", path, err)
			} else if debug {
				fmt.Printf("Reindexed: %s\n", path)
			}
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	// Handle graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\n" + ui.Info("Shutting down watcher..."))
		cancel()
	}()

	fmt.Println(ui.Infof("Watching: %s", ui.FilePath(baseDir)))
	fmt.Println(ui.Hint("Press Ctrl+C to stop"))

	return w.Start(ctx)
}
