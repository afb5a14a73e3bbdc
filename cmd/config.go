package cmd

import (
	"fmt"
	"strconv"
	"strings"

	cfgpkg "github.com/petermgrund/paresthesias-analysis/internal/config"
	"github.com/petermgrund/paresthesias-analysis/internal/tables"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set paresthesia configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := effectiveConfig()
		if err != nil {
			fmt.Println("No config loaded")
			return nil
		}
		tablesFile := c.TablesFile
		if tablesFile == "" {
			tablesFile = "(built-in)"
		}
		fmt.Printf("tables_file: %s\n", tablesFile)
		fmt.Printf("output_dir: %s\n", c.OutputDir)
		fmt.Printf("parallel: %t\n", c.Parallel)
		if c.XLSXSheet != "" {
			fmt.Printf("xlsx_sheet: %s\n", c.XLSXSheet)
		}
		fmt.Printf("min_group_size: %d\n", c.MinGroupSize)
		fmt.Printf("cohort_group_by: %s\n", strings.Join(c.CohortGroupBy, ","))
		fmt.Printf("viewer_addr: %s\n", c.ViewerAddr)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		switch key {
		case "tables_file":
			if val != "" {
				// refuse to save a table file that would fail every run
				if _, err := tables.Load(val); err != nil {
					return err
				}
			}
			cfg.TablesFile = val
		case "output_dir":
			cfg.OutputDir = val
		case "parallel":
			b, err := strconv.ParseBool(val)
			if err != nil {
				return fmt.Errorf("invalid bool for parallel: %w", err)
			}
			cfg.Parallel = b
		case "xlsx_sheet":
			cfg.XLSXSheet = val
		case "min_group_size":
			i, err := strconv.Atoi(val)
			if err != nil || i < 1 {
				return fmt.Errorf("invalid int for min_group_size: %v", val)
			}
			cfg.MinGroupSize = i
		case "cohort_group_by":
			var keys []string
			for _, k := range strings.Split(val, ",") {
				if k = strings.TrimSpace(k); k != "" {
					keys = append(keys, k)
				}
			}
			cfg.CohortGroupBy = keys
		case "viewer_addr":
			cfg.ViewerAddr = val
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Println("Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
