package runner

import (
	"strings"

	"github.com/acarl005/stripansi"

	"github.com/google/ritm-acceptor/types"
)

// verdictScanner classifies subordinate output lines against the marker set.
// Matching is substring containment on the ANSI-stripped line; emulator
// serial output is frequently colored.
type verdictScanner struct {
	markers types.MarkerSet
}

func newVerdictScanner(markers types.MarkerSet) *verdictScanner {
	return &verdictScanner{markers: markers}
}

// Classify returns the terminal verdict a single line implies, or
// VerdictPending when the line carries no marker. The success marker is
// checked first, so a line containing both markers resolves to a pass.
func (v *verdictScanner) Classify(line string) types.Verdict {
	clean := stripansi.Strip(line)
	if strings.Contains(clean, v.markers.Success) {
		return types.VerdictPassed
	}
	if strings.Contains(clean, v.markers.Failure) {
		return types.VerdictFailed
	}
	return types.VerdictPending
}
