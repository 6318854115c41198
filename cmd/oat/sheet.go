package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/oa-archive/oat/internal/sheet"
)

var sheetCmd = &cobra.Command{
	Use:   "sheet",
	Short: "Generate the operator action sheet",
	Long: `Writes action_sheet.tsv to the output directory: one row per
reminder due and one row per recommended next pipeline task. Operators
mark rows done (1 = performed, 2 = fully close) and feed the sheet back
through 'oat apply'.`,
	Run: func(cmd *cobra.Command, args []string) {
		path, n, err := sheet.Generate(rootCtx, store, settings.OutputDir, time.Now())
		if err != nil {
			FatalError("%v", err)
		}
		if jsonOutput {
			outputJSON(map[string]any{"path": path, "rows": n})
			return
		}
		fmt.Printf("Wrote %d rows to %s\n", n, path)
	},
}

func init() {
	rootCmd.AddCommand(sheetCmd)
}
