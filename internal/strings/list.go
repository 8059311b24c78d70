package strings

import "strings"

// ListSeparator joins aggregated names in API output.
const ListSeparator = ", "

// Distinct returns values with duplicates and empty strings removed,
// keeping the first occurrence of each. The result is never nil.
func Distinct(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, value := range values {
		if value == "" || seen[value] {
			continue
		}
		seen[value] = true
		out = append(out, value)
	}
	return out
}

// JoinList joins values with ListSeparator.
func JoinList(values []string) string {
	return strings.Join(values, ListSeparator)
}

// Contains reports whether values holds an exact match for target.
func Contains(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}
