package cli_test

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/charmbracelet/fang"
	"github.com/stretchr/testify/assert"

	"github.com/macropower/ruletokens/internal/cli"
	"github.com/macropower/ruletokens/pkg/rule"
	"github.com/macropower/ruletokens/pkg/tokenizer"
)

func TestErrorHandler(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		err      error
		wantHint string
	}{
		"usage": {
			err:      errors.New("unknown flag: --nope"),
			wantHint: "for usage.",
		},
		"tokenizer": {
			err:      fmt.Errorf("load tokenizer: %w", tokenizer.ErrUnavailable),
			wantHint: "--cache-dir",
		},
		"rules dir": {
			err:      fmt.Errorf("select rules: %w", rule.ErrDirNotFound),
			wantHint: "--rules-dir",
		},
		"other": {
			err: errors.New("write report: broken pipe"),
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer

			cli.ErrorHandler(&buf, fang.Styles{}, tc.err)

			out := buf.String()
			assert.Contains(t, out, tc.err.Error())

			if tc.wantHint == "" {
				assert.NotContains(t, out, "--help")
				return
			}

			assert.Contains(t, out, "--help")
			assert.Contains(t, out, tc.wantHint)
		})
	}
}
