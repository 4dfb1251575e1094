package cli_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/ruletokens/internal/cli"
)

//nolint:paralleltest // Environment variables are process-wide.
func TestBindEnvVars(t *testing.T) {
	tcs := map[string]struct {
		envVars      map[string]string
		wantLogLevel string
		wantRulesDir string
		args         []string
		wantUpdate   bool
	}{
		"environment variables are bound when no args provided": {
			envVars: map[string]string{
				"RULETOKENS_LOG_LEVEL": "debug",
				"RULETOKENS_RULES_DIR": "docs/rules",
				"RULETOKENS_UPDATE":    "true",
			},
			wantLogLevel: "debug",
			wantRulesDir: "docs/rules",
			wantUpdate:   true,
		},
		"command line args take precedence over environment variables": {
			envVars: map[string]string{
				"RULETOKENS_LOG_LEVEL": "debug",
				"RULETOKENS_RULES_DIR": "docs/rules",
			},
			args:         []string{"--log-level", "error", "--rules-dir", "rules"},
			wantLogLevel: "error",
			wantRulesDir: "rules",
		},
		"invalid environment value keeps the default": {
			envVars: map[string]string{
				"RULETOKENS_UPDATE": "sometimes",
			},
			wantLogLevel: "warn",
			wantRulesDir: ".cursor/rules",
		},
		"no environment variables uses defaults": {
			wantLogLevel: "warn",
			wantRulesDir: ".cursor/rules",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			for key, val := range tc.envVars {
				t.Setenv(key, val)
			}

			cmd := cli.NewRootCmd()
			require.NoError(t, cmd.ParseFlags(tc.args))

			logLevel, err := cmd.Flags().GetString("log-level")
			require.NoError(t, err)
			assert.Equal(t, tc.wantLogLevel, logLevel)

			rulesDir, err := cmd.Flags().GetString("rules-dir")
			require.NoError(t, err)
			assert.Equal(t, tc.wantRulesDir, rulesDir)

			update, err := cmd.Flags().GetBool("update")
			require.NoError(t, err)
			assert.Equal(t, tc.wantUpdate, update)
		})
	}
}

//nolint:paralleltest // Environment variables are process-wide.
func TestEnvOverridesConfig(t *testing.T) {
	rules := writeRules(t, map[string]string{
		"a.md":  alwaysRule,
		"b.mdc": staleRule,
	})

	cfgPath := filepath.Join(t.TempDir(), "ruletokens.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(fmt.Sprintf(`apiVersion: ruletokens.macropower.dev/v1beta1
kind: Configuration
rulesDir: %s
extension: .md
`, rules)), 0o600))

	t.Setenv("RULETOKENS_CONFIG", cfgPath)
	t.Setenv("RULETOKENS_EXTENSION", ".mdc")

	out, err := execute(t, nil, fakeCounter(&factoryCall{}))
	require.NoError(t, err)

	assert.Contains(t, out, "b.mdc")
	assert.NotContains(t, out, "a.md ")
}

func TestEnvironmentVariableUsageUpdate(t *testing.T) {
	t.Parallel()

	cmd := cli.NewRootCmd()

	for flag, env := range map[string]string{
		"rules-dir": "$RULETOKENS_RULES_DIR",
		"update":    "$RULETOKENS_UPDATE",
		"config":    "$RULETOKENS_CONFIG",
	} {
		f := cmd.Flags().Lookup(flag)
		require.NotNil(t, f, flag)
		assert.Contains(t, f.Usage, env)
	}

	logLevelFlag := cmd.PersistentFlags().Lookup("log-level")
	require.NotNil(t, logLevelFlag)
	assert.Contains(t, logLevelFlag.Usage, "$RULETOKENS_LOG_LEVEL")
}
