// Package shared holds small helpers used by more than one layer.
package shared

import "strings"

// NormalizePipName lowercases a Python distribution name and replaces
// underscores and dots with hyphens, following PEP 503 normalization.
func NormalizePipName(value string) string {
	lower := strings.ToLower(strings.TrimSpace(value))
	replacer := strings.NewReplacer("_", "-", ".", "-")
	return replacer.Replace(lower)
}
