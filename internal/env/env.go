package env

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"handover-launcher/internal/utils"
)

// TemplateData is what extra environment templates can reference
type TemplateData struct {
	Port    int
	BaseDir string
}

/**
 * Build the environment of the Node.js server process
 * @param {[]string} base - Inherited environment, usually os.Environ()
 * @param {int} port - Server port
 * @param {string} baseDir - Bundle directory
 * @param {map[string]string} extra - Additional variables, values are text templates
 * @returns {[]string} KEY=VALUE list, later entries override earlier ones with the same key
 * @returns {error} Returns error if a template cannot be rendered
 * @description
 * - NODE_ENV=production, PORT=<port> and FRONTEND_URL=http://localhost:<port> are always set
 * - Extra keys are upper-cased since configuration keys arrive lower-cased
 */
func Build(base []string, port int, baseDir string, extra map[string]string) ([]string, error) {
	vars := map[string]string{}
	var order []string
	set := func(k, v string) {
		key := normalizeKey(k)
		if _, ok := vars[key]; !ok {
			order = append(order, k)
		}
		vars[key] = k + "=" + v
	}
	for _, kv := range base {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		set(k, v)
	}

	set("NODE_ENV", "production")
	set("PORT", strconv.Itoa(port))
	set("FRONTEND_URL", fmt.Sprintf("http://localhost:%d", port))

	rendered, err := utils.RenderTemplates(extra, TemplateData{Port: port, BaseDir: baseDir})
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(rendered))
	for k := range rendered {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		set(strings.ToUpper(k), rendered[k])
	}

	result := make([]string, 0, len(order))
	seen := map[string]bool{}
	for _, k := range order {
		key := normalizeKey(k)
		if seen[key] {
			continue
		}
		seen[key] = true
		result = append(result, vars[key])
	}
	return result, nil
}

// BuildFromOS is Build with the launcher's own environment as base
func BuildFromOS(port int, baseDir string, extra map[string]string) ([]string, error) {
	return Build(os.Environ(), port, baseDir, extra)
}

// Lookup returns the value of key in a KEY=VALUE list
func Lookup(environ []string, key string) (string, bool) {
	for i := len(environ) - 1; i >= 0; i-- {
		k, v, ok := strings.Cut(environ[i], "=")
		if ok && normalizeKey(k) == normalizeKey(key) {
			return v, true
		}
	}
	return "", false
}
