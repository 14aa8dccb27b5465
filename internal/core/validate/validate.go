// Package validate provides shared validation functions.
package validate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hay-kot/criterio"
)

var stepNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// Required validates a value is non-empty after trimming whitespace.
func Required(value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("value is required")
	}
	return nil
}

// StepName validates an optimization step name. Step names are used as TOML
// table keys and in review note labels, so they are restricted to lowercase
// letters, digits, dashes and underscores.
func StepName(name string) error {
	if name == "" {
		return fmt.Errorf("step name is required")
	}
	if !stepNamePattern.MatchString(name) {
		return fmt.Errorf("step name %q must match %s", name, stepNamePattern)
	}
	return nil
}

// PlanTitle validates a plan title. Empty titles are allowed and replaced by
// the default title; titles must fit on one line.
func PlanTitle(title string) error {
	if strings.ContainsAny(title, "\r\n") {
		return fmt.Errorf("title must be a single line")
	}
	if len(title) > 200 {
		return fmt.Errorf("title must be at most 200 characters")
	}
	return nil
}

// StepNameField returns a criterio validator for step names.
func StepNameField(field, name string) error {
	return criterio.Run(field, name, StepName)
}

// RequiredField returns a criterio validator for required values.
func RequiredField(field, value string) error {
	return criterio.Run(field, value, Required)
}
