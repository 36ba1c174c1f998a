package normalization

import (
	"strings"
)

func ParseInputString(input string) string {
	normalized := strings.ToLower(strings.TrimSpace(input))
	return normalized
}

// TrimInputString trims without lowercasing, for display text such as
// signed names and report titles.
func TrimInputString(input string) string {
	return strings.TrimSpace(input)
}

func CollapseWhitespace(input string) string {
	return strings.Join(strings.Fields(input), " ")
}
