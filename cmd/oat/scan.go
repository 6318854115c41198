package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/oa-archive/oat/internal/scanner"
)

var watchFlag bool

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan the watched folder tree and reconcile archive state",
	Long: `Walks the watched root: new publication folders are registered,
empty-to-nonempty folders are promoted to active, and folders of OPEN
archives that have disappeared are flagged missing.

With --watch, keeps running and rescans whenever the root changes.`,
	Run: func(cmd *cobra.Command, args []string) {
		opts := scanner.Options{
			Root:               settings.WatchRoot,
			FirstReminderDelay: settings.FirstReminderDelay,
		}

		if watchFlag {
			err := scanner.Watch(rootCtx, store, opts, func(result *scanner.ScanResult) {
				if jsonOutput {
					outputJSON(result)
					return
				}
				fmt.Printf("Scan complete (%s):\n%s\n", time.Now().Format(time.TimeOnly), result.Summary())
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				FatalError("%v", err)
			}
			return
		}

		result, err := scanner.Scan(rootCtx, store, opts, time.Now())
		if err != nil {
			FatalError("%v", err)
		}
		if jsonOutput {
			outputJSON(result)
			return
		}
		fmt.Printf("Scan complete:\n%s\n", result.Summary())
	},
}

func init() {
	scanCmd.Flags().BoolVar(&watchFlag, "watch", false, "Keep running and rescan on folder changes")
	rootCmd.AddCommand(scanCmd)
}
