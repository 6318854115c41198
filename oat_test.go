package oat_test

import (
	"context"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/oa-archive/oat"
)

func TestOpenStore(t *testing.T) {
	if _, err := exec.LookPath("dolt"); err != nil {
		t.Skip("Dolt not installed, skipping test")
	}

	ctx := context.Background()
	store, err := oat.OpenStore(ctx, filepath.Join(t.TempDir(), "dolt"))
	if err != nil {
		t.Fatalf("OpenStore failed: %v", err)
	}
	defer store.Close()

	// A fresh database is empty but queryable.
	archives, err := store.ListArchives(ctx, oat.ArchiveFilter{Open: true})
	if err != nil {
		t.Fatalf("ListArchives failed: %v", err)
	}
	if len(archives) != 0 {
		t.Errorf("expected empty database, got %d archives", len(archives))
	}
}

func TestFindOatDir(t *testing.T) {
	// This will return empty string or a valid path depending on the
	// environment; just verify it doesn't panic.
	_ = oat.FindOatDir()
}
