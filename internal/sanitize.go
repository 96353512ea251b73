package internal

import "strings"

var sanitizeReplacer = strings.NewReplacer("\n", "", "\r", "")

// SanitizeString removes line breaks from a string before it is logged,
// preventing user-controlled input from forging log entries.
func SanitizeString(s string) string {
	return sanitizeReplacer.Replace(s)
}

// SanitizeStringArray applies SanitizeString to every element.
func SanitizeStringArray(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = SanitizeString(s)
	}
	return out
}
