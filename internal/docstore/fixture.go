package docstore

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fixtureFile is the on-disk layout of a fixture:
//
//	documents:
//	  camps/camp-1:
//	    camp_name: Sommerlager
//	  meals/meal-1:
//	    meal_name: Risotto
type fixtureFile struct {
	Documents map[string]map[string]any `yaml:"documents"`
}

// LoadFixture reads a YAML fixture into a Memory store. Timestamps should be
// written as quoted RFC 3339 strings.
func LoadFixture(path string) (*Memory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture %s: %w", path, err)
	}
	return ParseFixture(data)
}

// ParseFixture decodes fixture YAML into a Memory store.
func ParseFixture(data []byte) (*Memory, error) {
	var f fixtureFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}
	if len(f.Documents) == 0 {
		return nil, fmt.Errorf("fixture contains no documents")
	}

	m := NewMemory()
	for path, fields := range f.Documents {
		if DocumentID(path) == "" || parentCollection(path) == "" {
			return nil, fmt.Errorf("fixture: invalid document path %q", path)
		}
		m.Put(path, fields)
	}
	return m, nil
}
