package config

import (
	"fmt"
	"os"

	"github.com/dgnsrekt/dashverify/internal/target"
	"gopkg.in/yaml.v3"
)

// TargetsFile is the top-level YAML document for a custom target list.
type TargetsFile struct {
	Targets []target.Target `yaml:"targets"`
}

// LoadTargets returns the reference target list when path is empty, otherwise the
// validated list read from the YAML file at path.
func LoadTargets(path string) ([]target.Target, error) {
	if path == "" {
		return target.Reference(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("targets config: %w", err)
	}
	var doc TargetsFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("targets config: %w", err)
	}
	if err := target.Validate(doc.Targets); err != nil {
		return nil, fmt.Errorf("targets config: %w", err)
	}
	return doc.Targets, nil
}
