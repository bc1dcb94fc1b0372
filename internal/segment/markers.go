package segment

import "strings"

// Markers holds the configured start and stop marker lists.
//
// Order matters only for reporting: when a line matches several start markers
// the first one in declaration order is the one recorded in the debug trace.
type Markers struct {
	Start []string
	Stop  []string
}

// MatchStart reports whether line contains any start marker and returns the
// first matching marker.
func (m Markers) MatchStart(line string) (string, bool) {
	for _, marker := range m.Start {
		if marker != "" && strings.Contains(line, marker) {
			return marker, true
		}
	}
	return "", false
}

// MatchStop reports whether the trimmed line equals a stop marker exactly.
func (m Markers) MatchStop(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	for _, marker := range m.Stop {
		if trimmed == marker {
			return marker, true
		}
	}
	return "", false
}
