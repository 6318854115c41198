package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/oa-archive/oat/internal/config"
	"github.com/oa-archive/oat/internal/emails"
)

const defaultConfigYAML = `# oat configuration
# watch-root: ./data/publications
# output-dir: ./output
# template-dir: ./templates
# actor: your-name
`

// initDBPath resolves where `oat init` puts the database. Init always
// targets the current directory's .oat, honoring a db path in an
// existing local config.yaml read directly; the viper discovery may
// have latched onto a parent project's .oat, which must not be reused
// here.
func initDBPath() string {
	if local := config.LoadLocalConfig(".oat"); local.DB != "" {
		return local.DB
	}
	return filepath.Join(".oat", "dolt")
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the tracker in the current directory",
	Long: `Creates the .oat directory with a starter config.yaml, the archive
database, and default email templates.`,
	Run: func(cmd *cobra.Command, args []string) {
		oatDir := ".oat"
		if err := os.MkdirAll(oatDir, 0o750); err != nil {
			FatalError("failed to create %s: %v", oatDir, err)
		}

		configPath := filepath.Join(oatDir, "config.yaml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			if err := os.WriteFile(configPath, []byte(defaultConfigYAML), 0o644); err != nil {
				FatalError("failed to write config: %v", err)
			}
		}

		if err := emails.WriteDefaults(settings.TemplateDir); err != nil {
			FatalError("%v", err)
		}

		// The store itself was created by the boot pipeline; seed the
		// actor setting if configured.
		if settings.Actor != "" {
			if err := store.SetConfig(rootCtx, "actor", settings.Actor); err != nil {
				FatalError("%v", err)
			}
		}

		if jsonOutput {
			outputJSON(map[string]string{
				"database":  settings.DBPath,
				"config":    configPath,
				"templates": settings.TemplateDir,
			})
			return
		}
		fmt.Printf("Initialized oat tracker\n")
		fmt.Printf("  Database:  %s\n", settings.DBPath)
		fmt.Printf("  Config:    %s\n", configPath)
		fmt.Printf("  Templates: %s\n", settings.TemplateDir)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
