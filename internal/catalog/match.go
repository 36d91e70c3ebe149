package catalog

import "strings"

// scoreNameMatch returns a lower value for closer matches. An exact-case
// substring hit scores its position; a case-insensitive hit scores its
// position plus 0.5, so exact-case matches at the same position win.
// Returns -1 when the query does not appear at all.
func scoreNameMatch(partial, name string) float64 {
	if exact := strings.Index(name, partial); exact != -1 {
		return float64(exact)
	}
	ignoredCase := strings.Index(strings.ToLower(name), strings.ToLower(partial))
	if ignoredCase == -1 {
		return -1
	}
	return float64(ignoredCase) + 0.5
}

// stripLeadingIcon drops a leading token up to the first space. Lookups
// sometimes arrive with the effect's icon glyph prefixed to the name.
func stripLeadingIcon(name string) string {
	_, rest, found := strings.Cut(name, " ")
	if !found {
		return name
	}
	return rest
}
