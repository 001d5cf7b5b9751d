package scene

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Decode parses a scene payload and validates it. A payload whose first
// non-space byte is '{' is read as JSON, anything else as YAML.
func Decode(data []byte) (*Scene, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var sc Scene
		if err := json.Unmarshal(trimmed, &sc); err != nil {
			return nil, fmt.Errorf("%w: failed to deserialize: %v", ErrInvalidScene, err)
		}
		return validated(&sc)
	}
	return decodeYAML(data, "")
}

// ReadScene reads a scene from a .json, .yaml or .yml file.
func ReadScene(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if isYAML(path) {
		return decodeYAML(data, path)
	}
	return Decode(data)
}

func decodeYAML(data []byte, path string) (*Scene, error) {
	var sc Scene
	if err := yaml.Unmarshal(data, &sc); err != nil {
		if path == "" {
			return nil, fmt.Errorf("%w: failed to deserialize: %v", ErrInvalidScene, err)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidScene, path, err)
	}
	return validated(&sc)
}

func validated(sc *Scene) (*Scene, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return sc, nil
}

// WriteScene writes a scene as YAML or JSON depending on the extension.
func WriteScene(sc *Scene, path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(sc)
	} else {
		data, err = json.MarshalIndent(sc, "", "  ")
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
