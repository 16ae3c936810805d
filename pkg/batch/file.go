package batch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// File is a batch stored on disk.
type File struct {
	Path       string      `json:"path" yaml:"path"`
	Operations []Operation `json:"operations" yaml:"operations"`
}

// ReadFile loads a batch file. Files ending in .json are decoded as JSON,
// anything else as YAML.
func ReadFile(name string) (File, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return File{}, fmt.Errorf("read batch file: %w", err)
	}
	f, err := ParseFile(data, filepath.Ext(name))
	if err != nil {
		return File{}, fmt.Errorf("parse batch file %s: %w", name, err)
	}
	return f, nil
}

// ParseFile decodes batch file contents; ext selects the format.
func ParseFile(data []byte, ext string) (File, error) {
	var f File
	if strings.EqualFold(ext, ".json") {
		if err := json.Unmarshal(data, &f); err != nil {
			return File{}, err
		}
		return f, nil
	}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, err
	}
	return f, nil
}
