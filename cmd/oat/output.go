package main

import (
	"encoding/json"
	"fmt"
	"os"
)

// FatalError prints an error to stderr and exits.
func FatalError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

// verbosef prints progress diagnostics to stderr when --verbose is set.
func verbosef(format string, args ...any) {
	if !verboseFlag || quietFlag {
		return
	}
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}

// outputJSON marshals v with indentation to stdout.
func outputJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		FatalError("failed to marshal JSON: %v", err)
	}
	fmt.Println(string(data))
}
