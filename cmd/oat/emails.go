package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/oa-archive/oat/internal/emails"
)

var emailsCmd = &cobra.Command{
	Use:   "emails",
	Short: "Generate email drafts",
	Long: `Renders reminder drafts for every archive with a reminder due and
completion drafts for every archive at the published stage, using the
templates named in templates.toml.`,
	Run: func(cmd *cobra.Command, args []string) {
		paths, err := emails.Generate(rootCtx, store, settings.TemplateDir, settings.EmailDraftsDir, time.Now())
		if err != nil {
			FatalError("%v", err)
		}
		if jsonOutput {
			outputJSON(map[string]any{"drafts": paths})
			return
		}
		if len(paths) == 0 {
			fmt.Println("No drafts to generate.")
			return
		}
		fmt.Printf("Generated %d drafts:\n", len(paths))
		for _, p := range paths {
			fmt.Printf("  %s\n", p)
		}
	},
}

func init() {
	rootCmd.AddCommand(emailsCmd)
}
