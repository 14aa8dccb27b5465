// Package tmpl renders the text templates used for agent prompts.
package tmpl

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

var funcs = template.FuncMap{
	"join":    strings.Join,
	"bullets": bullets,
	"default": defaultString,
	"trim":    strings.TrimSpace,
}

// bullets renders items as a markdown bullet list, one per line.
func bullets(items []string) string {
	var sb strings.Builder
	for i, item := range items {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("- ")
		sb.WriteString(item)
	}
	return sb.String()
}

// defaultString returns s, or def when s is blank. Argument order matches
// pipeline use: {{ .Title | default "Untitled" }}.
func defaultString(def, s string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

// Render executes a Go template string with the given data.
// Returns an error if the template is invalid or references undefined keys.
//
// Available template functions:
//   - join: Join string slice with separator (e.g., join .Steps ", ")
//   - bullets: Render a string slice as a markdown bullet list
//   - default: Fall back to a value when the input is blank
//   - trim: Trim surrounding whitespace
func Render(tmpl string, data any) (string, error) {
	t, err := template.New("").Funcs(funcs).Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}

	return buf.String(), nil
}
