package execution

import "strings"

// OutputsMatch compares program output ignoring case and whitespace layout.
func OutputsMatch(actual, expected string) bool {
	return normalizeOutput(actual) == normalizeOutput(expected)
}

func normalizeOutput(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
