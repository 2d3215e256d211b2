package schema

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile reads a config.yml schema as shipped by container-app packages.
func LoadFile(path string) (Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Schema{}, fmt.Errorf("read schema: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML (or JSON, which is valid YAML) schema bytes. The root
// must be a mapping carrying version and groups.
func Parse(data []byte) (Schema, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return Schema{}, fmt.Errorf("parse schema: %w", err)
	}
	if len(root.Content) == 0 || root.Content[0].Kind != yaml.MappingNode {
		return Schema{}, errors.New("invalid schema: root must be a mapping")
	}
	doc := root.Content[0]
	for _, key := range []string{"version", "groups"} {
		if !hasKey(doc, key) {
			return Schema{}, fmt.Errorf("invalid schema: missing '%s' field", key)
		}
	}
	var s Schema
	if err := doc.Decode(&s); err != nil {
		return Schema{}, fmt.Errorf("decode schema: %w", err)
	}
	if s.Groups == nil {
		s.Groups = []Group{}
	}
	return s, nil
}

func hasKey(mapping *yaml.Node, key string) bool {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return true
		}
	}
	return false
}
