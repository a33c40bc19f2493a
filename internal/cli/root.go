// Package cli implements the command-line interface.
package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/aidanlsb/mdb/internal/config"
	"github.com/aidanlsb/mdb/internal/ui"
)

var (
	// Global flags
	databaseFlag string
	baseDirFlag  string
	configPath   string

	// Resolved values
	resolvedDatabase string
	resolvedBaseDir  string
	cfg              *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "mdb",
	Short: "mdb - Query your markdown notes like a database",
	Long: `mdb indexes a directory of markdown notes into SQLite and lets you
query them with a small expression language.

Frontmatter properties, inline #tags, [[wikilinks]], and backlinks are
all extracted and queryable alongside native file metadata.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Commands that don't touch the index skip resolution.
		switch cmd.Name() {
		case "completion", "help", "version":
			return nil
		}
		if cmd.Parent() != nil && cmd.Parent().Name() == "completion" {
			return nil
		}

		var err error
		cfg, err = loadGlobalConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		ui.ConfigureTheme(cfg.UI.Accent)
		ui.ConfigureCodeTheme(cfg.UI.CodeTheme)

		resolvedBaseDir = cfg.ResolveBaseDir(baseDirFlag)
		resolvedDatabase = cfg.ResolveDatabase(databaseFlag, resolvedBaseDir)

		return nil
	},
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

// normalizeFlags maps flag-name aliases onto their canonical names.
func normalizeFlags(f *pflag.FlagSet, name string) pflag.NormalizedName {
	switch name {
	case "db":
		name = "database"
	case "dir":
		name = "base-dir"
	}
	return pflag.NormalizedName(name)
}

func init() {
	rootCmd.PersistentFlags().SetNormalizeFunc(normalizeFlags)
	rootCmd.PersistentFlags().StringVarP(&databaseFlag, "database", "d", "", "Path to the index database")
	rootCmd.PersistentFlags().StringVarP(&baseDirFlag, "base-dir", "b", "", "Notes directory to index")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format (for agent/script use)")
}

// getBaseDir returns the resolved notes directory.
func getBaseDir() string {
	return resolvedBaseDir
}

// getDatabasePath returns the resolved database path.
func getDatabasePath() string {
	return resolvedDatabase
}

// getConfig returns the loaded config.
func getConfig() *config.Config {
	return cfg
}

func loadGlobalConfig() (*config.Config, error) {
	var loadedCfg *config.Config
	var err error
	if strings.TrimSpace(configPath) != "" {
		loadedCfg, err = config.LoadFrom(configPath)
	} else {
		loadedCfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if loadedCfg == nil {
		loadedCfg = &config.Config{}
	}
	return loadedCfg, nil
}
