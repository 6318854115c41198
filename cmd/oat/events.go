package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/oa-archive/oat/internal/timeparsing"
	"github.com/oa-archive/oat/internal/ui"
)

var sinceFlag string

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show the audit trail",
	Long: `Lists audit events newest first. --since accepts compact durations
(-2w, -30d), natural language ("last monday"), or absolute timestamps.`,
	Run: func(cmd *cobra.Command, args []string) {
		now := time.Now()
		since, err := timeparsing.Parse(sinceFlag, now)
		if err != nil {
			FatalError("%v", err)
		}

		events, err := store.EventsSince(rootCtx, since)
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(events)
			return
		}
		if len(events) == 0 {
			fmt.Println("No events.")
			return
		}
		for _, ev := range events {
			line := fmt.Sprintf("%s  %-24s %s", ev.At.Format(time.DateTime), ev.Action, ev.PublicationID)
			if ev.OldStatus != nil && ev.NewStatus != nil && *ev.OldStatus != *ev.NewStatus {
				line += fmt.Sprintf("  %s -> %s", *ev.OldStatus, *ev.NewStatus)
			}
			line += ui.RenderMuted(fmt.Sprintf("  [%s]", ev.Source))
			fmt.Println(line)
		}
	},
}

func init() {
	eventsCmd.Flags().StringVar(&sinceFlag, "since", "-1w", "Show events at or after this time")
	rootCmd.AddCommand(eventsCmd)
}
