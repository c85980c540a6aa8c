package util

import (
	"html"
	"strings"
)

// SanitizeInput trims and escapes HTML/script-like characters before a value
// is echoed back in a response or stored as display text.
func SanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return html.EscapeString(s)
}

// NormalizeEmail lowercases and trims an email address for lookups.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
