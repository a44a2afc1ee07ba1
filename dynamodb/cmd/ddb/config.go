package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/acksell/docddb/internal/logger"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const configFilename = "ddb.yaml"

// Config holds the defaults of the ddb command, loaded from ddb.yaml if present.
// Flags override every field.
type Config struct {
	// Schema is the table schema file.
	Schema string `yaml:"schema"`

	// DataDir is where BadgerDB stores data for ddb run. Relative paths here
	// and in Schema resolve against the config file.
	DataDir string `yaml:"dataDir"`

	// Region for --aws. Empty uses the default credential chain's region.
	Region string `yaml:"region"`

	Log logger.Config `yaml:"log"`
}

var validate = validator.New()

// LoadConfig searches for ddb.yaml starting from dir and walking up to the
// filesystem root. A missing file yields the zero config.
func LoadConfig(dir string) (Config, string, error) {
	var cfg Config

	path := findConfigFile(dir)
	if path == "" {
		return cfg, "", nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, "", fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, "", fmt.Errorf("parse %s: %w", path, err)
	}
	if err := validate.Struct(cfg); err != nil {
		return cfg, "", fmt.Errorf("invalid %s: %w", path, err)
	}
	cfg.Schema = resolve(path, cfg.Schema)
	cfg.DataDir = resolve(path, cfg.DataDir)
	return cfg, path, nil
}

func findConfigFile(dir string) string {
	for {
		path := filepath.Join(dir, configFilename)
		if _, err := os.Stat(path); err == nil {
			return path
		} else if !errors.Is(err, fs.ErrNotExist) {
			return ""
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func resolve(configPath, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(filepath.Dir(configPath), p)
}
