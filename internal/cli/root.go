package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tessro/jlsvc/internal/config"
	"github.com/tessro/jlsvc/internal/paths"
)

// baseDir is the global --dir flag value.
var baseDir string

// configFile is the global --config flag value.
var configFile string

var rootCmd = &cobra.Command{
	Use:          "jlsvc",
	Short:        "Julia worker backend",
	Long:         "jlsvc greets callers and starts or stops a single Julia worker process behind a local command bridge.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Set JLSVC_DIR so every path helper picks up the override.
		if baseDir != "" {
			if err := os.Setenv(paths.EnvDir, baseDir); err != nil {
				return err
			}
		}
		return nil
	},
}

// loadConfig loads --config if given, otherwise the default config file.
// A missing file yields a nil config, which every getter treats as defaults.
func loadConfig() (*config.Config, error) {
	if configFile != "" {
		if _, err := os.Stat(configFile); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
		return config.LoadFromPath(configFile)
	}
	return config.Load()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&baseDir, "dir", "", "base directory for jlsvc data (overrides ~/.jlsvc)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default ~/.config/jlsvc/config.toml)")
}

func Execute() error {
	return rootCmd.Execute()
}
