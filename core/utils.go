package core

import "strings"

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// ContainsFold reports whether substr is within s, ignoring case.
func ContainsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// DatePart returns the calendar date prefix (YYYY-MM-DD) of an ISO date or timestamp.
func DatePart(iso string) string {
	iso = strings.TrimSpace(iso)
	if len(iso) > len(DateLayout) {
		return iso[:len(DateLayout)]
	}
	return iso
}
