// pkg/registry/registry_test.go
package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRegistry = `{
  "version": "1.0.0",
  "tools": [
    {
      "name": "search-awards",
      "displayName": "Search Awards",
      "inputSchema": {
        "type": "object",
        "required": ["query"],
        "properties": {
          "query": {"type": "string", "minLength": 1},
          "sortByRelevance": {"type": "boolean"}
        },
        "additionalProperties": false
      }
    },
    {
      "name": "no-schema-tool"
    }
  ]
}`

func loadTestRegistry(t *testing.T) *ToolRegistry {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tools.json")
	require.NoError(t, os.WriteFile(path, []byte(testRegistry), 0o644))
	reg, err := LoadRegistry(path)
	require.NoError(t, err)
	return reg
}

func TestLoadRegistry(t *testing.T) {
	reg := loadTestRegistry(t)
	assert.Equal(t, "1.0.0", reg.Version)
	assert.Len(t, reg.Tools, 2)

	_, err := LoadRegistry("/nonexistent/tools.json")
	assert.Error(t, err)
}

func TestFindTool(t *testing.T) {
	reg := loadTestRegistry(t)

	tool, ok := reg.FindTool("search-awards")
	require.True(t, ok)
	assert.Equal(t, "Search Awards", tool.DisplayName)

	_, ok = reg.FindTool("missing")
	assert.False(t, ok)
}

func TestValidateInput(t *testing.T) {
	reg := loadTestRegistry(t)
	tool, ok := reg.FindTool("search-awards")
	require.True(t, ok)

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", `{"query": "laptops", "sortByRelevance": true}`, false},
		{"missing required query", `{"sortByRelevance": true}`, true},
		{"empty query", `{"query": ""}`, true},
		{"unknown property", `{"query": "laptops", "bogus": 1}`, true},
		{"wrong type", `{"query": 42}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tool.ValidateInput([]byte(tt.input))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateInput_NoSchemaAcceptsAnything(t *testing.T) {
	reg := loadTestRegistry(t)
	tool, ok := reg.FindTool("no-schema-tool")
	require.True(t, ok)

	assert.NoError(t, tool.ValidateInput([]byte(`{"whatever": true}`)))
}
