package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileSource reads YAML from BasePath: a required base file and an
// optional profile overlay.
//
//	configs/
//	  application.yaml       # base
//	  application.prod.yaml  # loaded when Profile is "prod"
//
// Both .yaml and .yml are accepted. The overlay is decoded on top of the
// base map, so a top-level key present in the overlay replaces the base
// value for that key wholesale.
type FileSource struct {
	BasePath string
	// Basename defaults to "application".
	Basename string
	Profile  string
}

func (f *FileSource) Name() string { return "file" }

// Load returns os.ErrNotExist (wrapped) when the base file is missing and a
// YAML error when either file is malformed.
func (f *FileSource) Load(ctx context.Context) (map[string]any, error) {
	name := f.Basename
	if name == "" {
		name = "application"
	}

	baseFile := findYAMLFile(f.BasePath, name)
	if baseFile == "" {
		return nil, fmt.Errorf("%s in %s: %w", name, f.BasePath, os.ErrNotExist)
	}

	data := map[string]any{}
	if err := readYAML(baseFile, data); err != nil {
		return nil, err
	}

	if f.Profile != "" {
		if profileFile := findYAMLFile(f.BasePath, name+"."+f.Profile); profileFile != "" {
			if err := readYAML(profileFile, data); err != nil {
				return nil, err
			}
		}
	}
	return data, nil
}

func findYAMLFile(dir, basename string) string {
	for _, ext := range []string{".yaml", ".yml"} {
		path := filepath.Join(dir, basename+ext)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func readYAML(path string, out map[string]any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(b, &out); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
