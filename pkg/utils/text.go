// Package utils provides shared text and logging helpers.
package utils

import "unicode/utf8"

// Truncate returns s cut to at most maxLen bytes with "..." appended when
// anything was cut. The cut point backs up to a rune boundary so a multi-byte
// snippet never ends mid-character. A zero or negative maxLen returns s as is.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
