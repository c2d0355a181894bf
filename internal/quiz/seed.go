package quiz

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SeedFile is the on-disk layout of questions.yaml.
type SeedFile struct {
	Test  []Question `yaml:"test"`
	Open  []Question `yaml:"open"`
	Bonus []Question `yaml:"bonus"`
}

// Pool returns the questions listed for kind.
func (s *SeedFile) Pool(kind Kind) []Question {
	switch kind {
	case Test:
		return s.Test
	case Open:
		return s.Open
	case Bonus:
		return s.Bonus
	}
	return nil
}

// LoadSeed reads and validates a YAML seed file.
func LoadSeed(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	var s SeedFile
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	for _, kind := range Kinds {
		for i, q := range s.Pool(kind) {
			if err := q.Validate(kind); err != nil {
				return nil, fmt.Errorf("%s question %d: %w", kind, i+1, err)
			}
		}
	}
	return &s, nil
}
