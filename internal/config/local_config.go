package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LocalConfig is the subset of config.yaml read directly from the file
// rather than through the viper singleton. Used when the working
// directory has changed since initialization, or before Initialize has
// run (e.g. `oat init` deciding where to put the database).
type LocalConfig struct {
	WatchRoot string `yaml:"watch-root"`
	DB        string `yaml:"db"`
	OutputDir string `yaml:"output-dir"`
	Actor     string `yaml:"actor"`
}

// LoadLocalConfig parses config.yaml from the given .oat directory.
// Returns an empty LocalConfig (not nil) if the file is missing or
// malformed.
func LoadLocalConfig(oatDir string) *LocalConfig {
	data, err := os.ReadFile(filepath.Join(oatDir, "config.yaml"))
	if err != nil {
		return &LocalConfig{}
	}
	var cfg LocalConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return &LocalConfig{}
	}
	return &cfg
}
