package cmd

import (
	"fmt"

	"github.com/petermgrund/paresthesias-analysis/internal/utils"
	"github.com/spf13/cobra"
)

var (
	unmOutputPath string
	unmJSON       bool
)

var unmappedCmd = &cobra.Command{
	Use:   "unmapped <instances> <devices>",
	Short: "List settings values that could not be bucketed, for manual review",
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
		var out []byte
		if unmJSON {
			out, err = utils.PrettyJSON(res.Review.Entries())
			if err != nil {
				return err
			}
		} else {
			out = []byte(res.Review.Markdown())
		}
		if unmOutputPath == "" {
			fmt.Println(string(out))
			return nil
		}
		path, err := utils.OutputPath(c.OutputDir, unmOutputPath)
		if err != nil {
			return err
		}
		if err := utils.SafeWriteFile(path, out); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		fmt.Printf("✓ Wrote %d unmapped values (%d rows) to %s\n", res.Review.Len(), res.Review.Total(), path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(unmappedCmd)
	unmappedCmd.Flags().StringVarP(&unmOutputPath, "output", "o", "", "optional path to write the list")
	unmappedCmd.Flags().BoolVar(&unmJSON, "json", false, "emit JSON instead of Markdown")
}
