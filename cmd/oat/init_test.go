package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestInitDBPath(t *testing.T) {
	orig, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(orig)

	dir := t.TempDir()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}

	// No local config: default under the current directory's .oat.
	if got, want := initDBPath(), filepath.Join(".oat", "dolt"); got != want {
		t.Errorf("initDBPath() = %q, want %q", got, want)
	}

	// An existing config.yaml with a db path wins.
	if err := os.MkdirAll(".oat", 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(".oat", "config.yaml"), []byte("db: /srv/oat/dolt\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got, want := initDBPath(), "/srv/oat/dolt"; got != want {
		t.Errorf("initDBPath() with local config = %q, want %q", got, want)
	}
}
