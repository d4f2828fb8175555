package schema

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile loads and parses a YAML or JSON rule document from the given path.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule document %s: %w", path, err)
	}

	return Parse(data)
}

// Parse parses YAML (or JSON, which is a subset) into a Document.
func Parse(data []byte) (*Document, error) {
	var doc Document

	err := yaml.Unmarshal(data, &doc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse rule document: %w", err)
	}

	applyDefaults(&doc)

	return &doc, nil
}

// applyDefaults fills in default values for optional fields.
func applyDefaults(doc *Document) {
	var walk func(rules []*MapRule)

	walk = func(rules []*MapRule) {
		for _, rule := range rules {
			if rule == nil {
				continue
			}

			if rule.Condition != nil && rule.Condition.Mode == "" {
				rule.Condition.Mode = ConditionAnd
			}

			for i := range rule.Fields {
				for j := range rule.Fields[i].Candidates {
					cand := &rule.Fields[i].Candidates[j]
					if cand.Condition != nil && cand.Condition.Mode == "" {
						cand.Condition.Mode = ConditionAnd
					}

					walk(cand.Add)
				}
			}

			walk(rule.Add)
		}
	}

	walk(doc.Rules)
}

// Marshal serializes a Document to YAML.
func Marshal(doc *Document) ([]byte, error) {
	return yaml.Marshal(doc)
}
