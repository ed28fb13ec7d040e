// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	API      APIConfig      `toml:"api"`
	Practice PracticeConfig `toml:"practice"`
}

// APIConfig maps analysis backend settings.
type APIConfig struct {
	URL *string `toml:"url"`
}

// PracticeConfig maps practice-related settings.
type PracticeConfig struct {
	Context     *string `toml:"context"`
	ModuleID    *string `toml:"module"`
	ModuleTitle *string `toml:"module-title"`
	LessonTitle *string `toml:"lesson-title"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// Env holds VERBIQ_* environment overrides. They sit between CLI flags and
// persisted settings in precedence.
type Env struct {
	APIURL string `envconfig:"API_URL"`
	DBPath string `envconfig:"DB_PATH"`
}

// LoadEnv reads environment overrides with the VERBIQ prefix.
func LoadEnv() (Env, error) {
	var env Env
	if err := envconfig.Process("verbiq", &env); err != nil {
		return Env{}, fmt.Errorf("failed to read environment: %w", err)
	}
	return env, nil
}
