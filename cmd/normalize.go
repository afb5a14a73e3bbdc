package cmd

import (
	"fmt"
	"os"

	"github.com/petermgrund/paresthesias-analysis/internal/export"
	"github.com/petermgrund/paresthesias-analysis/internal/utils"
	"github.com/spf13/cobra"
)

var normOut string

var normalizeCmd = &cobra.Command{
	Use:   "normalize <instances> <devices>",
	Short: "Normalize both exports and optionally write the table (.parquet or .json)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := effectiveConfig()
		if err != nil {
			return err
		}
		res, _, err := runPipeline(c, args[0], args[1])
		if err != nil {
			return err
		}
		s := res.Stats
		fmt.Printf("✓ Normalized %d records (run %s)\n", len(res.Rows), res.RunID)
		fmt.Printf("  unipolar %d, bipolar %d, unmapped %d; body part found in %d, severity in %d\n",
			s.Unipolar, s.Bipolar, s.Unmapped, s.WithBodyPart, s.WithSeverity)
		printDiagnostics(os.Stderr, res)

		if normOut == "" {
			return nil
		}
		path, err := utils.OutputPath(c.OutputDir, normOut)
		if err != nil {
			return err
		}
		if err := export.Write(path, export.Flatten(res.RunID, res.Rows)); err != nil {
			return err
		}
		fmt.Printf("✓ Wrote %d records to %s\n", len(res.Rows), path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(normalizeCmd)
	normalizeCmd.Flags().StringVarP(&normOut, "out", "o", "", "write the normalized table to this .parquet or .json file")
}
