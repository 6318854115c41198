package actions

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLooksLikePaperDOI(t *testing.T) {
	tests := []struct {
		pid  string
		want bool
	}{
		{"", false},
		{"10.5281/zenodo.123456", false},
		{"10.5281/ZENODO.123456", false},
		{"https://doi.org/10.5281/zenodo.99", false},
		{"10.1038/s41586-024-07123-7", true},
		{"10.1234/abc", true},
		{"10.123/too-short-prefix", false},
		{"not a doi", false},
		{"zenodo-record-7", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, looksLikePaperDOI(tt.pid), "pid %q", tt.pid)
	}
}
