package main

import (
	"io"
	"os"
	"strings"
	"testing"
)

// captureStderr runs fn with os.Stderr redirected to a pipe and returns
// what fn wrote.
func captureStderr(t *testing.T, fn func()) string {
	t.Helper()
	orig := os.Stderr
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	os.Stderr = w
	defer func() { os.Stderr = orig }()

	fn()

	w.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestVerbosef(t *testing.T) {
	origVerbose, origQuiet := verboseFlag, quietFlag
	defer func() { verboseFlag, quietFlag = origVerbose, origQuiet }()

	verboseFlag, quietFlag = false, false
	if out := captureStderr(t, func() { verbosef("opening %s", "db") }); out != "" {
		t.Errorf("verbosef wrote %q without --verbose", out)
	}

	verboseFlag = true
	out := captureStderr(t, func() { verbosef("opening %s", "db") })
	if !strings.Contains(out, "opening db") {
		t.Errorf("verbosef with --verbose wrote %q, want it to contain %q", out, "opening db")
	}

	quietFlag = true
	if out := captureStderr(t, func() { verbosef("opening %s", "db") }); out != "" {
		t.Errorf("verbosef wrote %q with --quiet set", out)
	}
}
