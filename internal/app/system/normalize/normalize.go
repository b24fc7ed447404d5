// Package normalize canonicalizes user-typed strings before they are stored
// or compared.
package normalize

import "strings"

// Email trims and lowercases.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims and collapses inner runs of whitespace; case is preserved.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Role trims and lowercases.
func Role(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Status trims and lowercases.
func Status(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// QueryParam trims a query-string value.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}
