package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/binsweep/internal/planner"
)

var tfmCmd = &cobra.Command{
	Use:   "tfm",
	Short: "List the target framework monikers recognized by --non-current",
	Long: `List the target framework monikers recognized by --non-current.

Only output directories named after one of these monikers (optionally with a
platform suffix such as net8.0-windows) are treated as framework outputs.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tfms := planner.SortedTFMs()
		if jsonOutput {
			return outputJSON(tfms)
		}

		PrintSection("Target Frameworks")
		PrintList(tfms, 1)
		fmt.Println()
		PrintInfo(PrintCount(len(tfms), "moniker", "monikers"))
		return nil
	},
}
