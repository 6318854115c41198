package ui

import (
	"os"

	"github.com/muesli/termenv"
)

// ShouldUseColor reports whether styled output should be emitted.
// Precedence: NO_COLOR disables, CLICOLOR=0 disables, CLICOLOR_FORCE
// enables even without a TTY, otherwise require stdout to be a TTY with
// color support.
func ShouldUseColor() bool {
	if _, set := os.LookupEnv("NO_COLOR"); set {
		return false
	}
	if os.Getenv("CLICOLOR") == "0" {
		return false
	}
	if os.Getenv("CLICOLOR_FORCE") != "" && os.Getenv("CLICOLOR_FORCE") != "0" {
		return true
	}
	return termenv.NewOutput(os.Stdout).Profile != termenv.Ascii
}
