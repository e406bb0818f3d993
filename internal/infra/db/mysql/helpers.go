package mysql

import "strings"

// stringOrDash keeps audit columns non-empty; "-" marks a value the pipeline
// never produced.
func stringOrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
