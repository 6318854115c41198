package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	oldDir, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		_ = os.Chdir(oldDir)
		v = nil
	})
}

func TestDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	require.NoError(t, Initialize())

	assert.Equal(t, "./data/publications", GetString("watch-root"))
	assert.Equal(t, "oat", GetString("db-name"))
	assert.Equal(t, "./output", GetString("output-dir"))
	assert.Equal(t, 14*24*time.Hour, GetDuration("first-reminder-delay"))
	assert.Equal(t, 7*24*time.Hour, GetDuration("reminder-interval"))
	assert.Equal(t, 5, GetInt("max-reminders"))
	assert.False(t, GetBool("json"))
}

func TestEnvOverride(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("OAT_WATCH_ROOT", "/srv/publications")
	t.Setenv("OAT_MAX_REMINDERS", "3")
	require.NoError(t, Initialize())

	assert.Equal(t, "/srv/publications", GetString("watch-root"))
	assert.Equal(t, 3, GetInt("max-reminders"))
}

func TestSetOverridesEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("OAT_OUTPUT_DIR", "/from/env")
	require.NoError(t, Initialize())

	Set("output-dir", "/from/flag")
	assert.Equal(t, "/from/flag", GetString("output-dir"))
}

func TestConfigFileDiscovery(t *testing.T) {
	root := t.TempDir()
	oatDir := filepath.Join(root, ".oat")
	require.NoError(t, os.MkdirAll(oatDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(oatDir, "config.yaml"),
		[]byte("watch-root: /mnt/pubs\nmax-reminders: 2\n"), 0o644))

	// Discovery walks upward, so a nested working directory still finds it.
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	chdir(t, nested)
	require.NoError(t, Initialize())

	assert.Equal(t, "/mnt/pubs", GetString("watch-root"))
	assert.Equal(t, 2, GetInt("max-reminders"))
	assert.Equal(t, oatDir, FindOatDir())
}

func TestFindOatDirAbsent(t *testing.T) {
	chdir(t, t.TempDir())
	assert.Equal(t, "", FindOatDir())
}

func TestLoadSettings(t *testing.T) {
	root := t.TempDir()
	oatDir := filepath.Join(root, ".oat")
	require.NoError(t, os.MkdirAll(oatDir, 0o755))
	chdir(t, root)
	require.NoError(t, Initialize())

	s := Load()
	assert.Equal(t, filepath.Join(oatDir, "dolt"), s.DBPath)
	assert.Equal(t, "oat", s.DBName)
	assert.Equal(t, 5, s.MaxReminders)

	Set("db", "/explicit/dolt")
	s = Load()
	assert.Equal(t, "/explicit/dolt", s.DBPath)
}

func TestLoadLocalConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"),
		[]byte("watch-root: /data\nactor: alice\n"), 0o644))

	cfg := LoadLocalConfig(dir)
	require.NotNil(t, cfg)
	assert.Equal(t, "/data", cfg.WatchRoot)
	assert.Equal(t, "alice", cfg.Actor)

	// Missing and malformed files both come back empty, not nil.
	assert.Equal(t, &LocalConfig{}, LoadLocalConfig(filepath.Join(dir, "nope")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("{\n"), 0o644))
	assert.Equal(t, &LocalConfig{}, LoadLocalConfig(dir))
}
