package schema

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// Load reads and validates a schema file. JSON files are accepted as well since
// YAML is a superset of JSON.
func Load(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse decodes and validates a schema document.
func Parse(data []byte) (*Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	if err := Validate(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks field rules and then that table and index names are unique.
func Validate(s *Schema) error {
	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, e := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", e.Namespace(), e.Tag()))
			}
			return fmt.Errorf("invalid schema: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid schema: %w", err)
	}

	tables := make(map[string]bool)
	for _, t := range s.Tables {
		if tables[t.Name] {
			return fmt.Errorf("invalid schema: duplicate table %q", t.Name)
		}
		tables[t.Name] = true

		indexes := make(map[string]bool)
		for _, idx := range append(append([]Index(nil), t.GSIs...), t.LSIs...) {
			if indexes[idx.Name] {
				return fmt.Errorf("invalid schema: table %q: duplicate index %q", t.Name, idx.Name)
			}
			indexes[idx.Name] = true
		}
		for _, lsi := range t.LSIs {
			if lsi.PartitionKey.Name != t.PartitionKey.Name {
				return fmt.Errorf("invalid schema: table %q: local index %q must share the table partition key", t.Name, lsi.Name)
			}
		}
	}
	return nil
}
