package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Get or set tracker settings stored in the database",
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Show a stored setting",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		value, err := store.GetConfig(rootCtx, args[0])
		if err != nil {
			FatalError("%v", err)
		}
		if jsonOutput {
			outputJSON(map[string]string{args[0]: value})
			return
		}
		fmt.Println(value)
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Store a setting",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		if err := store.SetConfig(rootCtx, args[0], args[1]); err != nil {
			FatalError("%v", err)
		}
		if !quietFlag && !jsonOutput {
			fmt.Printf("Set %s = %s\n", args[0], args[1])
		}
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the effective configuration",
	Run: func(cmd *cobra.Command, args []string) {
		if jsonOutput {
			outputJSON(settings)
			return
		}
		fmt.Printf("watch-root:           %s\n", settings.WatchRoot)
		fmt.Printf("db:                   %s\n", settings.DBPath)
		fmt.Printf("output-dir:           %s\n", settings.OutputDir)
		fmt.Printf("template-dir:         %s\n", settings.TemplateDir)
		fmt.Printf("email-drafts-dir:     %s\n", settings.EmailDraftsDir)
		fmt.Printf("first-reminder-delay: %s\n", settings.FirstReminderDelay)
		fmt.Printf("reminder-interval:    %s\n", settings.ReminderInterval)
		fmt.Printf("max-reminders:        %d\n", settings.MaxReminders)
	},
}

func init() {
	configCmd.AddCommand(configGetCmd, configSetCmd, configListCmd)
	rootCmd.AddCommand(configCmd)
}
