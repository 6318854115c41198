// Package config manages oat configuration via a viper singleton.
//
// Precedence, highest first: command-line flags (bound by cmd), OAT_*
// environment variables, .oat/config.yaml, built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var v *viper.Viper

// Initialize sets up the configuration singleton: defaults, OAT_*
// environment bindings, and discovery of .oat/config.yaml in the
// current directory or any parent.
func Initialize() error {
	v = viper.New()

	// Defaults
	v.SetDefault("watch-root", "./data/publications")
	v.SetDefault("db", "")
	v.SetDefault("db-name", "oat")
	v.SetDefault("output-dir", "./output")
	v.SetDefault("template-dir", "./templates")
	v.SetDefault("email-drafts-dir", "./output/email_drafts")
	v.SetDefault("first-reminder-delay", 14*24*time.Hour)
	v.SetDefault("reminder-interval", 7*24*time.Hour)
	v.SetDefault("max-reminders", 5)
	v.SetDefault("actor", "")
	v.SetDefault("json", false)

	// Environment: OAT_WATCH_ROOT, OAT_DB, OAT_JSON, ...
	v.SetEnvPrefix("OAT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	// Config file discovery: .oat/config.yaml upward from CWD.
	if dir := FindOatDir(); dir != "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(dir)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	return nil
}

// FindOatDir walks upward from the current directory looking for a
// .oat directory. Returns "" when none is found.
func FindOatDir() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(dir, ".oat")
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func ensure() {
	if v == nil {
		_ = Initialize()
	}
}

// Set overrides a config value at runtime (flag binding).
func Set(key string, value any) {
	ensure()
	v.Set(key, value)
}

// GetString returns a string config value.
func GetString(key string) string {
	ensure()
	return v.GetString(key)
}

// GetBool returns a boolean config value.
func GetBool(key string) bool {
	ensure()
	return v.GetBool(key)
}

// GetInt returns an integer config value.
func GetInt(key string) int {
	ensure()
	return v.GetInt(key)
}

// GetDuration returns a duration config value.
func GetDuration(key string) time.Duration {
	ensure()
	return v.GetDuration(key)
}
