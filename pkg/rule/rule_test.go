package rule_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/ruletokens/pkg/rule"
)

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()

	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func TestSelect(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		files   map[string]string
		name    string
		noDir   bool
		want    []string
		wantErr error
	}{
		"sorted mdc files only": {
			files: map[string]string{
				"b.mdc":        "b",
				"a.mdc":        "a",
				"c.md":         "c",
				"nested/d.mdc": "d",
				"A.mdc":        "A",
			},
			want: []string{"A.mdc", "a.mdc", "b.mdc"},
		},
		"explicit rule": {
			files: map[string]string{"a.mdc": "a", "b.mdc": "b"},
			name:  "b.mdc",
			want:  []string{"b.mdc"},
		},
		"explicit rule with other extension": {
			files: map[string]string{"notes.md": "n"},
			name:  "notes.md",
			want:  []string{"notes.md"},
		},
		"explicit rule missing": {
			files:   map[string]string{"a.mdc": "a"},
			name:    "missing.mdc",
			wantErr: rule.ErrRuleNotFound,
		},
		"no matching files": {
			files:   map[string]string{"readme.md": "r"},
			wantErr: rule.ErrNoRules,
		},
		"empty directory": {
			wantErr: rule.ErrNoRules,
		},
		"missing directory": {
			noDir:   true,
			wantErr: rule.ErrDirNotFound,
		},
		"missing directory with explicit rule": {
			noDir:   true,
			name:    "a.mdc",
			wantErr: rule.ErrDirNotFound,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			if tc.noDir {
				dir = filepath.Join(dir, "missing")
			}

			writeFiles(t, dir, tc.files)

			got, err := rule.Select(dir, tc.name, rule.DefaultExt)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				assert.Nil(t, got)

				return
			}

			require.NoError(t, err)

			want := make([]string, 0, len(tc.want))
			for _, n := range tc.want {
				want = append(want, filepath.Join(dir, n))
			}

			assert.Equal(t, want, got)
		})
	}
}

func TestSelect_DirectoryIsAFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "rules")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	_, err := rule.Select(path, "", rule.DefaultExt)
	require.ErrorIs(t, err, rule.ErrDirNotFound)
}

func TestLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"a.mdc": "---\nalwaysApply: true\n---\n\nhello world",
	})

	path := filepath.Join(dir, "a.mdc")

	doc, err := rule.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "a.mdc", doc.Name)
	assert.Equal(t, "a.mdc", doc.String())
	assert.Equal(t, path, doc.Path)
	assert.Equal(t, "hello world", doc.Body())
	assert.True(t, doc.AlwaysApply())

	require.NoError(t, doc.Write("---\nalwaysApply: false\n---\nbye"))
	assert.False(t, doc.AlwaysApply())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "---\nalwaysApply: false\n---\nbye", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, doc.Mode, info.Mode().Perm())
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	_, err := rule.Load(filepath.Join(dir, "missing.mdc"))
	require.Error(t, err)

	_, err = rule.Load(dir)
	require.ErrorContains(t, err, "not a regular file")
}

func TestFilter(t *testing.T) {
	t.Parallel()

	docs := map[string]*rule.Document{
		"always": {
			Name:    "global.mdc",
			Path:    "/rules/global.mdc",
			Content: "---\ndescription: Global\nalwaysApply: true\n---\nbody",
		},
		"scoped": {
			Name:    "go.mdc",
			Path:    "/rules/go.mdc",
			Content: "---\ndescription: Go\nglobs: '*.go'\nalwaysApply: false\n---\nbody",
		},
		"invalid yaml": {
			Name:    "ts.mdc",
			Path:    "/rules/ts.mdc",
			Content: "---\nglobs: [unclosed\nalwaysApply: false\n---\nbody",
		},
		"no frontmatter": {
			Name:    "plain.mdc",
			Path:    "/rules/plain.mdc",
			Content: "just text",
		},
	}

	tcs := map[string]struct {
		match string
		want  map[string]bool
	}{
		"always applied": {
			match: `alwaysApply`,
			want:  map[string]bool{"always": true, "scoped": false, "invalid yaml": false, "no frontmatter": false},
		},
		"by name": {
			match: `name.startsWith("g")`,
			want:  map[string]bool{"always": true, "scoped": true, "invalid yaml": false, "no frontmatter": false},
		},
		"by field": {
			match: `has(fields.globs)`,
			want:  map[string]bool{"always": false, "scoped": true, "invalid yaml": false, "no frontmatter": false},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			f, err := rule.NewFilter(tc.match)
			require.NoError(t, err)

			for key, doc := range docs {
				got, err := f.Matches(doc)
				require.NoError(t, err, key)
				assert.Equal(t, tc.want[key], got, key)
			}
		})
	}
}

func TestFilter_Errors(t *testing.T) {
	t.Parallel()

	_, err := rule.NewFilter(`name ==`)
	require.ErrorContains(t, err, "name ==")

	f, err := rule.NewFilter(`fields.owner == "me"`)
	require.NoError(t, err)

	_, err = f.Matches(&rule.Document{Name: "a.mdc", Content: "---\na: 1\n---\n"})
	require.ErrorContains(t, err, "a.mdc")
}
