package config

import (
	"path/filepath"
	"time"
)

// Settings is the typed snapshot of the configuration consumed by the
// collaborators (scanner, applier, sheet/report/email generators).
type Settings struct {
	WatchRoot      string
	DBPath         string
	DBName         string
	OutputDir      string
	TemplateDir    string
	EmailDraftsDir string

	FirstReminderDelay time.Duration
	ReminderInterval   time.Duration
	MaxReminders       int

	Actor string
}

// Load resolves the current settings from the viper singleton. The
// database path defaults to <.oat dir>/dolt when unset, or ./.oat/dolt
// when no .oat directory exists yet.
func Load() *Settings {
	dbPath := GetString("db")
	if dbPath == "" {
		oatDir := FindOatDir()
		if oatDir == "" {
			oatDir = ".oat"
		}
		dbPath = filepath.Join(oatDir, "dolt")
	}
	return &Settings{
		WatchRoot:          GetString("watch-root"),
		DBPath:             dbPath,
		DBName:             GetString("db-name"),
		OutputDir:          GetString("output-dir"),
		TemplateDir:        GetString("template-dir"),
		EmailDraftsDir:     GetString("email-drafts-dir"),
		FirstReminderDelay: GetDuration("first-reminder-delay"),
		ReminderInterval:   GetDuration("reminder-interval"),
		MaxReminders:       GetInt("max-reminders"),
		Actor:              GetString("actor"),
	}
}
