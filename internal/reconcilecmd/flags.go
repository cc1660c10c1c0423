package reconcilecmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/catalog-reconciler/internal/config"
)

// setupLogging installs a text handler at info level, debug when verbose
func setupLogging(verbose bool) {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
}

// sourceFlags are the flags shared by commands that read the two sources.
// Set flags override the loaded configuration.
type sourceFlags struct {
	configPath string
	primary    string
	secondary  string
	sample     int
	verbose    bool
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.configPath, "config", "", "Path to a YAML config file (default: $RECONCILER_CONFIG or ./reconciler.yaml)")
	cmd.Flags().StringVar(&f.primary, "primary", "", "Path to the scraped catalog table (.jsonl, .json, .csv or .parquet)")
	cmd.Flags().StringVar(&f.secondary, "secondary", "", "Path to the bibliographic API table (.jsonl, .json, .csv or .parquet)")
	cmd.Flags().IntVar(&f.sample, "sample", 0, "Read at most this many rows per source (0 for all)")
	cmd.Flags().BoolVar(&f.verbose, "verbose", false, "Verbose logging")
}

// load reads the configuration and applies the flags that were set
func (f *sourceFlags) load(cmd *cobra.Command) (*config.Config, error) {
	setupLogging(f.verbose)

	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("primary") {
		cfg.Sources.Primary.Path = f.primary
	}
	if cmd.Flags().Changed("secondary") {
		cfg.Sources.Secondary.Path = f.secondary
	}
	return cfg, nil
}

func requirePaths(cfg *config.Config, sources ...config.SourceConfig) error {
	for _, src := range sources {
		if src.Path == "" {
			return fmt.Errorf("no input for source %s: pass --%s or set sources.*.path", src.Name, flagFor(cfg, src))
		}
		if _, err := os.Stat(src.Path); os.IsNotExist(err) {
			return fmt.Errorf("dataset file not found: %s", src.Path)
		}
	}
	return nil
}

func flagFor(cfg *config.Config, src config.SourceConfig) string {
	if src.Name == cfg.Sources.Primary.Name {
		return "primary"
	}
	return "secondary"
}

func extension(path string) string {
	return strings.ToLower(filepath.Ext(path))
}
