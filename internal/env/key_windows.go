//go:build windows

package env

import "strings"

// environment variable names are case-insensitive on Windows
func normalizeKey(k string) string {
	return strings.ToUpper(k)
}
