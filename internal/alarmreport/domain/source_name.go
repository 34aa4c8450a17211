package alarmreport

import "regexp"

var sourceTokenPattern = regexp.MustCompile(`(?i)(AHU_[^/]+|TFA_[^/]+|MT001)`)

// ExtractSourceName reduces a hierarchical historian source path to its device token
// (AHU_x, TFA_x or MT001, case-insensitive). Paths without a token are returned unchanged.
func ExtractSourceName(fullSource string) string {
	if fullSource == "" {
		return ""
	}
	if match := sourceTokenPattern.FindString(fullSource); match != "" {
		return match
	}
	return fullSource
}
