// Package config loads schemaforge configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Environment variables consulted by Load.
const (
	EnvConfig   = "SCHEMAFORGE_CONFIG"
	EnvDatabase = "SCHEMAFORGE_DB"
)

// DefaultFile is the project-local config file name.
const DefaultFile = "schemaforge.yaml"

// Config is the resolved configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Schemas  SchemasConfig  `yaml:"schemas"`
	Migrate  MigrateConfig  `yaml:"migrate"`

	// Source is the file the configuration was read from, empty when only
	// defaults apply.
	Source string `yaml:"-"`
}

// DatabaseConfig locates the SQLite store.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// SchemasConfig locates CUE schema sources.
type SchemasConfig struct {
	Dir string `yaml:"dir"`
}

// MigrateConfig holds apply policy defaults.
type MigrateConfig struct {
	// AllowDestructive lets destructive plans apply without --force.
	AllowDestructive bool `yaml:"allow_destructive"`

	// RequireConfirmation asks before applying plans that are not safe.
	RequireConfirmation bool `yaml:"require_confirmation"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Database: DatabaseConfig{Path: "schemaforge.db"},
		Schemas:  SchemasConfig{Dir: "schemas"},
		Migrate:  MigrateConfig{RequireConfirmation: true},
	}
}

// Load resolves configuration. The first existing file wins, in order:
//
//  1. explicit (the --config flag); must exist when set
//  2. $SCHEMAFORGE_CONFIG; must exist when set
//  3. ./schemaforge.yaml
//  4. $XDG_CONFIG_HOME/schemaforge/config.yaml (or ~/.config/...)
//
// Values missing from the file keep their defaults. $SCHEMAFORGE_DB
// overrides the database path last.
func Load(explicit string) (Config, error) {
	cfg := Default()

	path, required := explicit, explicit != ""
	if path == "" {
		if env := os.Getenv(EnvConfig); env != "" {
			path, required = env, true
		}
	}
	if path == "" {
		for _, candidate := range []string{DefaultFile, userConfigPath()} {
			if candidate == "" {
				continue
			}
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	if path != "" {
		if err := cfg.readFile(path); err != nil {
			if required || !errors.Is(err, fs.ErrNotExist) {
				return Config{}, err
			}
		}
	}

	if db := os.Getenv(EnvDatabase); db != "" {
		cfg.Database.Path = db
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("config file %s: database.path must not be empty", path)
	}
	if c.Schemas.Dir == "" {
		return fmt.Errorf("config file %s: schemas.dir must not be empty", path)
	}
	c.Source = path
	return nil
}

func userConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "schemaforge", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "schemaforge", "config.yaml")
}
