//go:build !windows

package env

func normalizeKey(k string) string {
	return k
}
