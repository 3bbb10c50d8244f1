package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
)

//go:embed schema.json
var embeddedSchema string

// VerifyAgainstEmbeddedSchema checks the config against the embedded JSON schema.
// It verifies that every property the schema lists as required for the root object and
// its sections is present in the marshaled config, and that the required sections are set.
func VerifyAgainstEmbeddedSchema(cfg *Config) error {
	var schema map[string]any
	if err := json.Unmarshal([]byte(embeddedSchema), &schema); err != nil {
		return fmt.Errorf("parse embedded schema: %w", err)
	}

	// convert config to JSON for validation
	configData, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	var configMap map[string]any
	if err := json.Unmarshal(configData, &configMap); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}

	defs, _ := schema["$defs"].(map[string]any)
	root := resolveRef(schema, defs)
	if missing := missingRequired(root, configMap, defs, ""); len(missing) > 0 {
		return fmt.Errorf("missing required properties: %s", strings.Join(missing, ", "))
	}

	if err := validateRequiredFields(cfg); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

// resolveRef follows a local "#/$defs/Name" reference
func resolveRef(node map[string]any, defs map[string]any) map[string]any {
	ref, ok := node["$ref"].(string)
	if !ok {
		return node
	}
	name := strings.TrimPrefix(ref, "#/$defs/")
	if def, ok := defs[name].(map[string]any); ok {
		return def
	}
	return node
}

// missingRequired walks objects and returns dotted paths of absent required properties
func missingRequired(node map[string]any, value map[string]any, defs map[string]any, prefix string) []string {
	var missing []string
	required, _ := node["required"].([]any)
	for _, r := range required {
		name, ok := r.(string)
		if !ok {
			continue
		}
		if _, found := value[name]; !found {
			missing = append(missing, prefix+name)
		}
	}

	props, _ := node["properties"].(map[string]any)
	for name, p := range props {
		propSchema, ok := p.(map[string]any)
		if !ok {
			continue
		}
		sub, ok := value[name].(map[string]any)
		if !ok {
			continue
		}
		missing = append(missing, missingRequired(resolveRef(propSchema, defs), sub, defs, prefix+name+".")...)
	}
	return missing
}

// validateRequiredFields performs basic validation of required values
func validateRequiredFields(cfg *Config) error {
	if cfg.Server.Enabled && cfg.Server.Listen == "" {
		return fmt.Errorf("server.listen is required")
	}
	if cfg.LLM.Endpoint == "" {
		return fmt.Errorf("llm.endpoint is required")
	}
	if len(cfg.Sources) == 0 {
		return fmt.Errorf("sources are required")
	}
	for i, s := range cfg.Sources {
		if s.Name == "" || s.Type == "" {
			return fmt.Errorf("sources[%d] name and type are required", i)
		}
	}
	return nil
}

// GenerateSchema generates a JSON schema for the Config struct
func GenerateSchema() (*jsonschema.Schema, error) {
	return jsonschema.Reflect(&Config{}), nil
}
