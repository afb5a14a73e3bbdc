package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/petermgrund/paresthesias-analysis/internal/analysis"
	"github.com/petermgrund/paresthesias-analysis/internal/utils"
	"github.com/spf13/cobra"
)

var (
	repOutputPath string
	repMinGroup   int
	repGroupBy    []string
)

var reportCmd = &cobra.Command{
	Use:   "report <instances> <devices>",
	Short: "Normalize both exports and produce a Markdown summary",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := effectiveConfig()
		if err != nil {
			return err
		}
		res, t, err := runPipeline(c, args[0], args[1])
		if err != nil {
			return err
		}

		opt := analysis.DefaultCohortOptions(t)
		opt.MinGroupSize = c.MinGroupSize
		if len(c.CohortGroupBy) > 0 {
			opt.GroupBy = c.CohortGroupBy
		}
		if cmd.Flags().Changed("min-group") {
			if repMinGroup < 1 {
				return fmt.Errorf("invalid --min-group: %d (must be >= 1)", repMinGroup)
			}
			opt.MinGroupSize = repMinGroup
		}
		if len(repGroupBy) > 0 {
			opt.GroupBy = repGroupBy
		}

		rep, err := analysis.Analyze(res.Rows, t, opt)
		if err != nil {
			return err
		}
		rep.Name = filepath.Base(args[0])
		rep.RunID = res.RunID
		rep.Warnings = diagnostics(res)
		md := rep.Markdown()

		// Decide where to write: --output path, or stdout
		if repOutputPath != "" {
			path, err := utils.OutputPath(c.OutputDir, repOutputPath)
			if err != nil {
				return err
			}
			if err := os.WriteFile(path, []byte(md), 0o644); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Printf("✓ Wrote report to %s\n", path)
			return nil
		}
		fmt.Println(md)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringVarP(&repOutputPath, "output", "o", "", "optional path to write the report (Markdown)")
	reportCmd.Flags().IntVar(&repMinGroup, "min-group", 5, "minimum rows per cohort group (overrides config)")
	reportCmd.Flags().StringSliceVar(&repGroupBy, "group-by", nil, "cohort grouping keys: body_part, combined_setting, visit, laterality, brain_side, device, paresthesia_type")
}
