package schema

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadForm reads a form definition from a JSON file. Both a bare form object
// and the API envelope {"form": {...}} are accepted.
func LoadForm(path string) (*Form, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read form file %s: %w", path, err)
	}

	return ParseForm(data)
}

// ParseForm decodes a form definition.
func ParseForm(data []byte) (*Form, error) {
	var envelope struct {
		Form *Form `json:"form"`
	}

	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Form != nil {
		return envelope.Form, nil
	}

	var f Form
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse form JSON: %w", err)
	}

	return &f, nil
}
