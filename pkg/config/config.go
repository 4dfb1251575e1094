package config

import (
	"fmt"
	"log/slog"

	"github.com/macropower/ruletokens/api"
	"github.com/macropower/ruletokens/api/v1beta1/configs"
)

// Find returns the nearest config file at or above dir, or an empty string.
func Find(dir string) (string, error) {
	path, err := api.FindConfigFile(dir, configs.FileNames)
	if err != nil {
		return "", fmt.Errorf("find config: %w", err)
	}

	return path, nil
}

// Load reads, validates and decodes the config file at path.
func Load(path string) (*configs.Config, error) {
	l, err := NewLoaderFromFile(path, configs.New, configs.DefaultValidator)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	err = l.Validate()
	if err != nil {
		return nil, fmt.Errorf("validate config %s: %w", path, err)
	}

	cfg, err := l.Load()
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}

	slog.Debug("loaded config", slog.String("path", path))

	return cfg, nil
}

// Resolve loads the config at path when set. Otherwise it searches upwards
// from dir and returns the defaults when no file is found.
func Resolve(path, dir string) (*configs.Config, error) {
	if path == "" {
		found, err := Find(dir)
		if err != nil {
			return nil, err
		}

		if found == "" {
			slog.Debug("no config file found, using defaults", slog.String("dir", dir))
			return configs.New(), nil
		}

		path = found
	}

	return Load(path)
}
