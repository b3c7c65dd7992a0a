package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Scaffold creates a release.toml in dir populated with the default
// parameters, as a starting point for a project-local release setup.
// Returns an error if the file already exists.
func Scaffold(dir string) (string, error) {
	path := filepath.Join(dir, FileName)

	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("%s already exists", FileName)
	}

	cfg := &Release{
		Repo:         "nuvion",
		Distribution: "stable",
		Component:    "main",
		Architecture: "arm64",
		PublicDir:    defaultPublicDir,
		Package:      "nuvion-agent",
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("marshaling release config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}

	return path, nil
}
