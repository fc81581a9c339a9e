// Package monitor validates transport-level payment requests against a JSON
// schema before they are turned into domain values. It keeps malformed
// requests out of the pipeline with a full list of contract violations.
package monitor

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ContractMonitor validates request bodies against one compiled schema.
type ContractMonitor struct {
	schema *gojsonschema.Schema
}

// New compiles the given schema document.
func New(schema []byte) (*ContractMonitor, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schema))
	if err != nil {
		return nil, fmt.Errorf("monitor: compile schema: %w", err)
	}
	return &ContractMonitor{schema: compiled}, nil
}

// Validate checks a request body against the schema. It returns every
// violation, not just the first.
func (m *ContractMonitor) Validate(body []byte) (bool, []string, error) {
	result, err := m.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return false, nil, fmt.Errorf("monitor: validate request: %w", err)
	}
	if result.Valid() {
		return true, nil, nil
	}
	violations := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		violations = append(violations, desc.String())
	}
	return false, violations, nil
}

// FormatErrors joins contract violations into one displayable message.
func FormatErrors(violations []string) string {
	if len(violations) == 0 {
		return ""
	}
	return "Validation errors: " + strings.Join(violations, "; ")
}
