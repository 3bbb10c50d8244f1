package config

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/newsdigest/pkg/domain"
)

func TestVerifyAgainstEmbeddedSchema(t *testing.T) {
	cfg, err := Parse([]byte(minimalConfig))
	require.NoError(t, err)
	require.NoError(t, VerifyAgainstEmbeddedSchema(cfg))

	t.Run("missing listen", func(t *testing.T) {
		c := *cfg
		c.Server.Listen = ""
		err := VerifyAgainstEmbeddedSchema(&c)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "server.listen is required")
	})

	t.Run("source without type", func(t *testing.T) {
		c := *cfg
		c.Sources = []domain.SourceConfig{{Name: "x"}}
		err := VerifyAgainstEmbeddedSchema(&c)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "name and type are required")
	})
}

func TestMissingRequired(t *testing.T) {
	var schema map[string]any
	require.NoError(t, json.Unmarshal([]byte(embeddedSchema), &schema))
	defs, _ := schema["$defs"].(map[string]any)
	root := resolveRef(schema, defs)
	require.Contains(t, root, "properties")

	value := map[string]any{"server": map[string]any{"listen": ":8080"}}
	missing := missingRequired(root, value, defs, "")
	assert.Contains(t, missing, "llm")
	assert.Contains(t, missing, "server.timeout")
	assert.NotContains(t, missing, "server.listen")
}

func TestGenerateSchema(t *testing.T) {
	schema, err := GenerateSchema()
	require.NoError(t, err)
	data, err := json.Marshal(schema)
	require.NoError(t, err)
	assert.Contains(t, string(data), "busy_policy")
	assert.Contains(t, string(data), "primary_model")
}
