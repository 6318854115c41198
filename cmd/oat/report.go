package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/oa-archive/oat/internal/report"
	"github.com/oa-archive/oat/internal/ui"
)

var renderFlag bool

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate the weekly status report",
	Long: `Writes weekly_report.md to the output directory: new and newly
active archives, stuck archives, reminders due, the pipeline view,
integrity warnings, and recent closures.

With --render, also prints the report to the terminal.`,
	Run: func(cmd *cobra.Command, args []string) {
		now := time.Now()
		path, err := report.Generate(rootCtx, store, settings.OutputDir, now)
		if err != nil {
			FatalError("%v", err)
		}
		if renderFlag {
			md, err := report.Build(rootCtx, store, now)
			if err != nil {
				FatalError("%v", err)
			}
			fmt.Print(ui.RenderMarkdown(md))
			return
		}
		if jsonOutput {
			outputJSON(map[string]string{"path": path})
			return
		}
		fmt.Printf("Wrote report to %s\n", path)
	},
}

func init() {
	reportCmd.Flags().BoolVar(&renderFlag, "render", false, "Render the report to the terminal")
	rootCmd.AddCommand(reportCmd)
}
