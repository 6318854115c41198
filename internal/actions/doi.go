package actions

import (
	"regexp"
	"strings"
)

var doiShape = regexp.MustCompile(`^10\.\d{4,}/`)

// looksLikePaperDOI reports whether a PID looks like a paper DOI rather
// than a dataset DOI. Zenodo dataset DOIs contain "zenodo"
// (10.5281/zenodo.XXXXXXX); a DOI-shaped string without it is probably
// the paper's own DOI pasted by mistake. Advisory only, never blocking.
func looksLikePaperDOI(pid string) bool {
	if pid == "" {
		return false
	}
	lower := strings.ToLower(pid)
	if strings.Contains(lower, "zenodo") {
		return false
	}
	return doiShape.MatchString(lower)
}
