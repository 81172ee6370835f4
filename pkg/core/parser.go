package core

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadMissionFromFile parses a YAML or JSON mission. A document that is a bare
// list is read as the mission's sequences.
func LoadMissionFromFile(path string) (*Mission, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading mission file %q: %w", path, err)
	}

	m, err := ParseMission(data)
	if err != nil {
		return nil, err
	}
	if m.Name == "" {
		m.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	if err := ValidateMissionStructure(m); err != nil {
		return nil, fmt.Errorf("invalid mission: %w", err)
	}

	return m, nil
}

// ParseMission decodes a mission document without validating it.
func ParseMission(data []byte) (*Mission, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing mission: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil, fmt.Errorf("parsing mission: empty document")
	}

	var m Mission
	root := doc.Content[0]
	if root.Kind == yaml.SequenceNode {
		if err := root.Decode(&m.Sequences); err != nil {
			return nil, fmt.Errorf("parsing mission sequences: %w", err)
		}
		return &m, nil
	}

	if err := root.Decode(&m); err != nil {
		return nil, fmt.Errorf("parsing mission: %w", err)
	}
	return &m, nil
}
