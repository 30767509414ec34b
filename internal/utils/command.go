package utils

import (
	"bytes"
	"fmt"
	"text/template"
)

// RenderTemplate expands a text template such as "http://localhost:{{.Port}}" with data
func RenderTemplate(name, text string, data interface{}) (string, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return "", fmt.Errorf("failed to parse template '%s': %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template '%s': %w", name, err)
	}
	return buf.String(), nil
}

// RenderTemplates expands every value of a map, keeping the keys
func RenderTemplates(values map[string]string, data interface{}) (map[string]string, error) {
	out := make(map[string]string, len(values))
	for k, v := range values {
		s, err := RenderTemplate(k, v, data)
		if err != nil {
			return nil, err
		}
		out[k] = s
	}
	return out, nil
}
