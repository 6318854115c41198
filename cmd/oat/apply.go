package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/oa-archive/oat/internal/actions"
	"github.com/oa-archive/oat/internal/ui"
)

var applyCmd = &cobra.Command{
	Use:   "apply <sheet>",
	Short: "Apply completed rows from an action sheet",
	Long: `Reads the given action sheet, applies every row marked done, moves
applied rows into action_history.tsv, and rewrites the sheet with the
remaining rows. Rows that fail validation stay pending for correction.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		opts := actions.Options{
			HistoryPath:      filepath.Join(settings.OutputDir, "action_history.tsv"),
			ReminderInterval: settings.ReminderInterval,
			MaxReminders:     settings.MaxReminders,
		}
		result, err := actions.Apply(rootCtx, store, args[0], opts, time.Now())
		if err != nil {
			FatalError("%v", err)
		}
		if jsonOutput {
			outputJSON(result)
			return
		}
		fmt.Println(result.Summary())
		if len(result.Errors) > 0 {
			fmt.Println(ui.RenderWarn("Some rows were left pending; fix them and re-run apply."))
		}
	},
}

func init() {
	rootCmd.AddCommand(applyCmd)
}
