package cli_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/ruletokens/pkg/config"
)

func TestInit(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, ".ruletokens.yaml")

	out, err := execute(t, []string{"init", "--dir", dir})
	require.NoError(t, err)
	assert.Equal(t, path+"\n", out)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, ".cursor/rules", cfg.RulesDir)

	require.NoError(t, os.WriteFile(path, []byte("custom"), 0o600))

	out, err = execute(t, []string{"init", "--dir", dir})
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, "custom", readFile(t, path))

	_, err = execute(t, []string{"init", "--dir", dir, "--force"})
	require.NoError(t, err)

	_, err = config.Load(path)
	require.NoError(t, err)

	backups, err := filepath.Glob(path + ".*.old")
	require.NoError(t, err)
	assert.Len(t, backups, 1)
}

func TestSchema(t *testing.T) {
	t.Parallel()

	out, err := execute(t, []string{"schema"})
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &schema))
	assert.Contains(t, schema, "properties")
}
