package packageutil

import "strings"

// IsGoApplicationPackage determines whether a Go import path belongs to the
// application rather than to the standard library or the runtime.
// Standard library import paths never have a dot in their first element.
func IsGoApplicationPackage(pkg string) bool {
	if pkg == "" {
		return false
	}
	if pkg == "main" {
		return true
	}
	first, _, _ := strings.Cut(pkg, "/")
	return strings.Contains(first, ".")
}
