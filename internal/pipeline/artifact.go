package pipeline

import "strings"

// DashSignature is how general-mode OCR commonly reads a "——" dash: as two
// "一" (the Chinese numeral one).
const DashSignature = "一一"

// SuspectedDash reports whether text should be flagged for manual review.
// Only general-mode results are checked; text is never modified.
func SuspectedDash(text string, enhancedFont bool) bool {
	return !enhancedFont && strings.Contains(text, DashSignature)
}
