// pkg/registry/schema.go
package registry

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

type ToolRegistry struct {
	Version     string `json:"version"`
	LastUpdated string `json:"lastUpdated"`
	Tools       []Tool `json:"tools"`
}

type Tool struct {
	Name         string                 `json:"name"`
	DisplayName  string                 `json:"displayName"`
	Description  string                 `json:"description"`
	Category     string                 `json:"category"`
	Version      string                 `json:"version"`
	InputSchema  map[string]interface{} `json:"inputSchema"`
	OutputSchema map[string]interface{} `json:"outputSchema"`
	Timeout      string                 `json:"timeout"`
	Tags         []string               `json:"tags"`
}

// ValidateInput checks a raw JSON request body against the tool's declared
// input schema. A tool without a schema accepts anything.
func (t *Tool) ValidateInput(rawJSON []byte) error {
	if len(t.InputSchema) == 0 {
		return nil
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(t.InputSchema),
		gojsonschema.NewBytesLoader(rawJSON),
	)
	if err != nil {
		return fmt.Errorf("validating input for %s: %w", t.Name, err)
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("invalid input for %s: %s", t.Name, strings.Join(msgs, "; "))
}
