package cmd

import (
	"fmt"
	"os"

	cfgpkg "github.com/petermgrund/paresthesias-analysis/internal/config"
	"github.com/spf13/cobra"
)

var (
	// Global flags (override config if set)
	cfgFile      string
	debug        bool
	flagTables   string
	flagParallel bool
	flagSheet    string

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "paresthesia",
	Short: "Normalize and report DBS paresthesia threshold testing exports",
	Long: `paresthesia loads the test-instance and device exports of a DBS programming
study, normalizes free-text settings and notes into analyzable fields, and
produces descriptive reports, an unmapped-settings review list and an
interactive per-subject chart.`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	// Initialize configuration before executing commands
	cobra.OnInitialize(loadConfig)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent global flags available to all subcommands
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.paresthesia/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
	rootCmd.PersistentFlags().StringVar(&flagTables, "tables", "", "YAML lookup tables replacing the built-in ones (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&flagParallel, "parallel", false, "normalize records on all CPUs (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagSheet, "sheet", "", "XLSX: sheet name to read (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: commands fall back to defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		return
	}
	cfg = c
}

// effectiveConfig returns the loaded configuration with CLI overrides
// applied, loading it first if no command has yet.
func effectiveConfig() (*cfgpkg.Global, error) {
	if cfg == nil {
		c, err := cfgpkg.Load(cfgFile)
		if err != nil {
			return nil, err
		}
		cfg = c
	}
	c := *cfg
	f := rootCmd.PersistentFlags()
	if f.Changed("tables") {
		c.TablesFile = flagTables
	}
	if f.Changed("parallel") {
		c.Parallel = flagParallel
	}
	if f.Changed("sheet") {
		c.XLSXSheet = flagSheet
	}
	return &c, nil
}
