package format

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// YAML encodes and decodes YAML documents, with mappings emitted in
// sorted key order and nested blocks indented two spaces.
type YAML struct{}

func (YAML) Name() string {
	return "yaml"
}

func (YAML) Mimetype() string {
	return "application/x-yaml"
}

func (YAML) Extensions() []string {
	return []string{".yaml", ".yml"}
}

func (YAML) Serialize(value any) (string, error) {
	var content strings.Builder
	encoder := yaml.NewEncoder(&content)
	encoder.SetIndent(2)
	if err := encoder.Encode(value); err != nil {
		return "", err
	}
	if err := encoder.Close(); err != nil {
		return "", err
	}
	return content.String(), nil
}

func (YAML) Unserialize(text string) (any, error) {
	var value any
	if err := yaml.Unmarshal([]byte(text), &value); err != nil {
		return nil, err
	}
	return value, nil
}
