package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/oa-archive/oat/internal/status"
	"github.com/oa-archive/oat/internal/storage"
	"github.com/oa-archive/oat/internal/types"
	"github.com/oa-archive/oat/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:   "status [publication-id]",
	Short: "Show pipeline status",
	Long: `Without arguments, shows archive counts per status. With a
publication id, shows that archive's full record and recommended next
task.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 1 {
			showArchive(args[0])
			return
		}
		showOverview()
	},
}

// padStatus pads the status name to a fixed column before styling, so
// the counts line up even when the styled string carries ANSI codes.
func padStatus(s types.Status) string {
	pad := 32 - len(string(s))
	if pad < 1 {
		pad = 1
	}
	return ui.RenderStatus(s) + strings.Repeat(" ", pad)
}

func showOverview() {
	all, err := store.ListArchives(rootCtx, storage.ArchiveFilter{})
	if err != nil {
		FatalError("%v", err)
	}

	counts := make(map[types.Status]int)
	for _, a := range all {
		counts[a.Status]++
	}

	if jsonOutput {
		out := make(map[string]int, len(counts))
		for s, n := range counts {
			out[string(s)] = n
		}
		outputJSON(out)
		return
	}

	fmt.Println(ui.RenderHeader("Pipeline"))
	for _, s := range types.PipelineOrder {
		fmt.Printf("  %s%d\n", padStatus(s), counts[s])
	}
	fmt.Println(ui.RenderHeader("Closed"))
	for _, s := range types.ClosedStatuses {
		fmt.Printf("  %s%d\n", padStatus(s), counts[s])
	}
	fmt.Printf("Total tracked: %d\n", len(all))
}

func showArchive(pubID string) {
	a, err := store.GetArchive(rootCtx, pubID)
	if err != nil {
		FatalError("%v", err)
	}
	if a == nil {
		FatalError("publication %q not in database", pubID)
	}

	if jsonOutput {
		outputJSON(a)
		return
	}

	fmt.Printf("%s  %s\n", ui.RenderHeader(a.PublicationID), ui.RenderStatus(a.Status))
	fmt.Printf("  Folder:     %s\n", a.FolderPath)
	fmt.Printf("  First seen: %s\n", a.FirstSeenAt.Format(time.DateTime))
	if a.BecameActiveAt != nil {
		fmt.Printf("  Active:     %s\n", a.BecameActiveAt.Format(time.DateTime))
	}
	if a.HasPID() {
		fmt.Printf("  PID:        %s\n", *a.FinalPID)
	}
	if a.FinalURL != nil && *a.FinalURL != "" {
		fmt.Printf("  URL:        %s\n", *a.FinalURL)
	}
	if a.NextReminderAt != nil {
		fmt.Printf("  Reminder:   #%d due %s\n", a.ReminderCount+1, a.NextReminderAt.Format(time.DateTime))
	}
	if a.MissingFolder {
		fmt.Printf("  %s\n", ui.RenderFail("Folder unexpectedly missing"))
	}
	if a.Notes != "" {
		fmt.Printf("  Notes:\n")
		fmt.Println(ui.RenderMuted("    " + a.Notes))
	}
	if next := status.NextTask(a.Status); next != "" {
		fmt.Printf("  Next task:  %s (%s)\n", next, types.Tasks[next].Description)
	}
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
