// Command oat tracks the Open-Access dataset archiving lifecycle: it
// watches a folder tree for publication datasets, drives each one
// through the curation pipeline, and records every change as an audit
// event.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/oa-archive/oat/internal/config"
	"github.com/oa-archive/oat/internal/storage"
	"github.com/oa-archive/oat/internal/storage/dolt"
	"github.com/oa-archive/oat/internal/telemetry"
)

// Version and Build are set at link time.
var (
	Version = "dev"
	Build   = "unknown"
)

var (
	dbPath      string
	jsonOutput  bool
	verboseFlag bool
	quietFlag   bool

	store    storage.Store
	settings *config.Settings

	rootCtx    context.Context
	rootCancel context.CancelFunc
)

// noStoreCommands run without opening the database.
var noStoreCommands = map[string]bool{
	"help":       true,
	"completion": true,
	"version":    true,
}

var rootCmd = &cobra.Command{
	Use:   "oat",
	Short: "oat - Open-Access dataset archiving tracker",
	Long: `Tracks the dataset-archiving lifecycle of publications: scans the
watched folder tree, generates operator action sheets, applies completed
tasks, and keeps a full audit trail in a local database.`,
	Run: func(cmd *cobra.Command, args []string) {
		if v, _ := cmd.Flags().GetBool("version"); v {
			fmt.Printf("oat version %s (%s)\n", Version, Build)
			return
		}
		_ = cmd.Help()
	},
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		rootCtx, rootCancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

		if err := config.Initialize(); err != nil {
			FatalError("%v", err)
		}
		if cmd.Flags().Changed("db") {
			config.Set("db", dbPath)
		}
		if cmd.Flags().Changed("json") {
			config.Set("json", jsonOutput)
		}
		jsonOutput = config.GetBool("json")
		settings = config.Load()

		if err := telemetry.Init(rootCtx, "oat", Version); err != nil {
			FatalError("%v", err)
		}

		if noStoreCommands[cmd.Name()] || cmd.Name() == "oat" {
			return
		}
		openStore(cmd)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if store != nil {
			_ = store.Close()
			store = nil
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		telemetry.Shutdown(shutdownCtx)
		cancel()
		if rootCancel != nil {
			rootCancel()
		}
	},
}

// openStore opens the database, creating it for `oat init` only.
// Other commands fail when no database exists yet.
func openStore(cmd *cobra.Command) {
	if cmd.Name() == "init" {
		if !cmd.Flags().Changed("db") {
			settings.DBPath = initDBPath()
		}
	} else if _, err := os.Stat(settings.DBPath); err != nil {
		FatalError("no database at %s (run 'oat init' first)", settings.DBPath)
	}
	verbosef("Opening database at %s", settings.DBPath)
	s, err := dolt.New(rootCtx, &dolt.Config{
		Path:     settings.DBPath,
		Database: settings.DBName,
	})
	if err != nil {
		FatalError("failed to open database: %v", err)
	}
	store = telemetry.WrapStore(s)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to database directory (default: .oat/dolt)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Suppress non-essential output")
	rootCmd.Flags().Bool("version", false, "Show version")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
