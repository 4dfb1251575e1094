// Package api contains the ruletokens configuration API and the file helpers
// shared by its versions.
package api

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/macropower/ruletokens/pkg/yaml"
)

var (
	ErrIsDirectory  = errors.New("path is a directory")
	ErrUnknownState = errors.New("unknown file state")
)

// ReadFile reads a regular file from disk.
func ReadFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}

	if info.IsDir() {
		return nil, fmt.Errorf("%s: %w", path, ErrIsDirectory)
	}

	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%s: %w", path, ErrUnknownState)
	}

	data, err := os.ReadFile(path) //nolint:gosec // G304: Potential file inclusion via variable.
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return data, nil
}

// MarshalYAML serializes an object to YAML bytes.
func MarshalYAML(obj any) ([]byte, error) {
	b := &bytes.Buffer{}

	enc := yaml.NewEncoder(b)

	err := enc.Encode(obj)
	if err != nil {
		return nil, fmt.Errorf("marshal yaml: %w", err)
	}

	err = enc.Close()
	if err != nil {
		return nil, fmt.Errorf("close yaml encoder: %w", err)
	}

	return b.Bytes(), nil
}

// WriteDefaultFile writes data to path unless a file already exists there.
// Using force backs up and replaces an existing file.
func WriteDefaultFile(path string, data []byte, force bool, kind string) (bool, error) {
	exists := false

	info, err := os.Stat(path)
	switch {
	case err == nil && info.Mode().IsRegular():
		exists = true
	case err == nil && info.IsDir():
		return false, fmt.Errorf("%s: %w", path, ErrIsDirectory)
	case err == nil:
		return false, fmt.Errorf("%s: %w", path, ErrUnknownState)
	case !errors.Is(err, os.ErrNotExist):
		return false, fmt.Errorf("stat %s file: %w", kind, err)
	}

	if exists && !force {
		slog.Debug("file already exists, skipping write",
			slog.String("type", kind),
			slog.String("path", path),
		)

		return false, nil
	}

	if exists {
		backup := filepath.Join(filepath.Dir(path),
			fmt.Sprintf("%s.%d.old", filepath.Base(path), time.Now().UnixNano()))

		slog.Info("backing up existing file",
			slog.String("type", kind),
			slog.String("path", backup),
		)

		err = os.Rename(path, backup)
		if err != nil {
			return false, fmt.Errorf("rename existing %s file to backup: %w", kind, err)
		}
	}

	err = os.MkdirAll(filepath.Dir(path), 0o750)
	if err != nil {
		return false, fmt.Errorf("create directories: %w", err)
	}

	err = os.WriteFile(path, data, 0o600)
	if err != nil {
		return false, fmt.Errorf("write %s file: %w", kind, err)
	}

	slog.Info("wrote file",
		slog.String("type", kind),
		slog.String("path", path),
	)

	return true, nil
}

// FindConfigFile searches for any of fileNames starting at targetPath and
// walking up to the filesystem root. It returns an empty string when nothing
// is found.
func FindConfigFile(targetPath string, fileNames []string) (string, error) {
	absPath, err := filepath.Abs(targetPath)
	if err != nil {
		return "", fmt.Errorf("get absolute path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return "", fmt.Errorf("stat path: %w", err)
	}

	searchDir := absPath
	if !info.IsDir() {
		searchDir = filepath.Dir(absPath)
	}

	for {
		for _, name := range fileNames {
			configPath := filepath.Join(searchDir, name)

			_, statErr := os.Stat(configPath)
			if statErr == nil {
				return configPath, nil
			}
		}

		parent := filepath.Dir(searchDir)
		if parent == searchDir {
			return "", nil
		}

		searchDir = parent
	}
}
