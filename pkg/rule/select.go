package rule

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
)

const (
	// DefaultDir is the conventional rules directory.
	DefaultDir = ".cursor/rules"
	// DefaultExt is the rule file extension.
	DefaultExt = ".mdc"
)

var (
	// ErrDirNotFound indicates the rules directory does not exist.
	ErrDirNotFound = errors.New("rules directory not found")
	// ErrRuleNotFound indicates an explicitly named rule file does not exist.
	ErrRuleNotFound = errors.New("rule file not found")
	// ErrNoRules indicates the selection is empty.
	ErrNoRules = errors.New("no rule files found")
)

// Select returns the rule file paths to process.
//
// When name is set, the single file dir/name is returned. Otherwise all
// regular files in dir (not its subdirectories) with extension ext are
// returned, sorted by name.
func Select(dir, name, ext string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrDirNotFound, dir)
	}

	if name != "" {
		path := filepath.Join(dir, name)

		_, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrRuleNotFound, path)
		}

		return []string{path}, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read rules directory: %w", err)
	}

	var paths []string

	for _, entry := range entries {
		if !entry.Type().IsRegular() || filepath.Ext(entry.Name()) != ext {
			continue
		}

		paths = append(paths, filepath.Join(dir, entry.Name()))
	}

	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no %s files in %s", ErrNoRules, ext, dir)
	}

	// ReadDir already sorts by file name; keep the guarantee explicit.
	slices.Sort(paths)

	return paths, nil
}
