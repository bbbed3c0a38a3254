package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Load applies the YAML overrides in the file at path on top of base.
// Keys absent from the file keep the value from base; unknown keys are an
// error. A relative scudo_path is taken relative to the file's directory.
func Load(path string, base Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err := Parse(data, base)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	if cfg.ScudoPath != base.ScudoPath && cfg.ScudoPath != "" && !filepath.IsAbs(cfg.ScudoPath) {
		cfg.ScudoPath = filepath.Join(filepath.Dir(path), cfg.ScudoPath)
	}
	return cfg, nil
}

// Parse is Load for in-memory YAML. Relative paths are returned as written.
func Parse(data []byte, base Config) (Config, error) {
	cfg := base.Clone()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return base.Clone(), nil
		}
		return Config{}, fmt.Errorf("failed to parse YAML: %w", err)
	}
	cfg.Path = base.Path
	return cfg, nil
}
