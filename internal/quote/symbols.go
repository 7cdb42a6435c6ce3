package quote

import "strings"

// ParseSymbols splits a comma-separated symbol list. Entries are trimmed,
// empty entries dropped, duplicates collapsed; first-seen order is kept.
func ParseSymbols(csv string) []string {
	seen := make(map[string]bool)
	var symbols []string
	for _, s := range strings.Split(csv, ",") {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		symbols = append(symbols, s)
	}
	return symbols
}
