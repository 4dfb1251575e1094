package frontmatter_test

import (
	"regexp"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/macropower/ruletokens/pkg/frontmatter"
)

var tokenCountLines = regexp.MustCompile(`(?m)^ruleTokenCount:`)

func TestSetTokenCount(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		input   string
		want    string
		count   int
		wantErr error
	}{
		"replaces existing value in place": {
			input: "---\ndescription: x\nruleTokenCount: 5\nglobs: '*.go'\n---\nbody",
			count: 12,
			want:  "---\ndescription: x\nruleTokenCount: 12\nglobs: '*.go'\n---\nbody",
		},
		"replaces non numeric value": {
			input: "---\nruleTokenCount: ~\nalwaysApply: true\n---\nbody",
			count: 3,
			want:  "---\nruleTokenCount: 3\nalwaysApply: true\n---\nbody",
		},
		"keeps trailing comment": {
			input: "---\nruleTokenCount: 5 # maintained by tool\nalwaysApply: true\n---\nbody",
			count: 12,
			want:  "---\nruleTokenCount: 12 # maintained by tool\nalwaysApply: true\n---\nbody",
		},
		"separates comment glued to value": {
			input: "---\nruleTokenCount: 5# stale\n---\nbody",
			count: 6,
			want:  "---\nruleTokenCount: 6 # stale\n---\nbody",
		},
		"replaces quoted value": {
			input: "---\nruleTokenCount: 'a lot' # todo\n---\nbody",
			count: 7,
			want:  "---\nruleTokenCount: 7 # todo\n---\nbody",
		},
		"crlf replaces in place": {
			input: "---\r\nruleTokenCount: 5\r\na: 1\r\n---\r\nbody",
			count: 12,
			want:  "---\r\nruleTokenCount: 12\r\na: 1\r\n---\r\nbody",
		},
		"crlf inserts before alwaysApply": {
			input: "---\r\ndescription: x\r\nalwaysApply: true\r\n---\r\nbody\r\n",
			count: 12,
			want:  "---\r\ndescription: x\r\nruleTokenCount: 12\r\nalwaysApply: true\r\n---\r\nbody\r\n",
		},
		"crlf appends at end": {
			input: "---\r\na: 1\r\n---\r\nbody",
			count: 4,
			want:  "---\r\na: 1\r\nruleTokenCount: 4\r\n---\r\nbody",
		},
		"inserts before alwaysApply": {
			input: "---\ndescription: x\nalwaysApply: true\n---\n\nbody\n",
			count: 9,
			want:  "---\ndescription: x\nruleTokenCount: 9\nalwaysApply: true\n---\n\nbody\n",
		},
		"inserts before first alwaysApply only": {
			input: "---\nalwaysApply: true\nalwaysApply: false\n---\nbody",
			count: 1,
			want:  "---\nruleTokenCount: 1\nalwaysApply: true\nalwaysApply: false\n---\nbody",
		},
		"appends at end": {
			input: "---\ndescription: x\nglobs: '*.go'\n---\nbody",
			count: 4,
			want:  "---\ndescription: x\nglobs: '*.go'\nruleTokenCount: 4\n---\nbody",
		},
		"trims surrounding blank lines": {
			input: "---\n\ndescription: x\n\n---\nbody",
			count: 4,
			want:  "---\ndescription: x\nruleTokenCount: 4\n---\nbody",
		},
		"empty block": {
			input: "---\n---\nbody",
			count: 2,
			want:  "---\nruleTokenCount: 2\n---\nbody",
		},
		"indented field is not matched": {
			input: "---\nmeta:\n  ruleTokenCount: 1\n---\nbody",
			count: 2,
			want:  "---\nmeta:\n  ruleTokenCount: 1\nruleTokenCount: 2\n---\nbody",
		},
		"body layout is preserved": {
			input: "---\na: 1\n---\n\n\n  indented\n---\nafter rule",
			count: 8,
			want:  "---\na: 1\nruleTokenCount: 8\n---\n\n\n  indented\n---\nafter rule",
		},
		"no frontmatter": {
			input:   "# Rule\nbody",
			count:   1,
			wantErr: frontmatter.ErrNoFrontmatter,
		},
		"malformed frontmatter": {
			input:   "---\na: 1\nbody",
			count:   1,
			wantErr: frontmatter.ErrMalformed,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := frontmatter.SetTokenCount(tc.input, tc.count)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				assert.Empty(t, got)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

// frontmatterLine draws a "key: value" line that is never a delimiter and
// never a ruleTokenCount field.
func frontmatterLine(t *rapid.T, label string) string {
	key := rapid.StringMatching(`[a-qs-z][a-zA-Z]{0,10}`).Draw(t, label+"Key")
	value := rapid.StringMatching(`[a-z0-9 '*./]{0,12}`).Draw(t, label+"Value")

	return key + ": " + value
}

func document(t *rapid.T) (string, string) {
	lines := rapid.SliceOfN(rapid.Custom(func(t *rapid.T) string {
		return frontmatterLine(t, "line")
	}), 0, 6).Draw(t, "lines")

	if rapid.Bool().Draw(t, "alwaysApply") {
		idx := rapid.IntRange(0, len(lines)).Draw(t, "alwaysApplyIndex")
		value := rapid.SampledFrom([]string{"true", "false"}).Draw(t, "alwaysApplyValue")
		lines = slices.Insert(lines, idx, "alwaysApply: "+value)
	}

	body := rapid.String().Draw(t, "body")
	rest := "\n" + body

	return "---\n" + strings.Join(lines, "\n") + "\n---" + rest, rest
}

func TestSetTokenCountProperties(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		doc, rest := document(t)
		first := rapid.IntRange(0, 1_000_000).Draw(t, "first")
		second := rapid.IntRange(0, 1_000_000).Draw(t, "second")

		once, err := frontmatter.SetTokenCount(doc, second)
		require.NoError(t, err)

		// Updating twice with the same count changes nothing.
		twice, err := frontmatter.SetTokenCount(once, second)
		require.NoError(t, err)
		assert.Equal(t, once, twice)

		// An earlier stale count is replaced, not duplicated.
		stale, err := frontmatter.SetTokenCount(doc, first)
		require.NoError(t, err)
		refreshed, err := frontmatter.SetTokenCount(stale, second)
		require.NoError(t, err)
		assert.Equal(t, once, refreshed)

		parts, err := frontmatter.Split(once)
		require.NoError(t, err)
		assert.Equal(t, rest, parts.Rest)
		assert.Len(t, tokenCountLines.FindAllString(parts.Frontmatter, -1), 1)

		got, ok := frontmatter.RecordedCount(once)
		require.True(t, ok)
		assert.Equal(t, second, got)

		assert.Equal(t, frontmatter.Body(doc), frontmatter.Body(once))
		assert.Equal(t, frontmatter.AlwaysApply(doc), frontmatter.AlwaysApply(once))

		before, err := frontmatter.Split(doc)
		require.NoError(t, err)
		for line := range strings.SplitSeq(strings.TrimSpace(before.Frontmatter), "\n") {
			assert.Contains(t, parts.Frontmatter, line)
		}
	})
}

func TestBodyWithoutFrontmatterProperties(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		doc := "#" + rapid.String().Draw(t, "doc")

		assert.Equal(t, doc, frontmatter.Body(doc))

		_, err := frontmatter.SetTokenCount(doc, 1)
		require.ErrorIs(t, err, frontmatter.ErrNoFrontmatter)
	})
}

func TestSetTokenCountLineEndingProperties(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		lines := rapid.SliceOfN(rapid.Custom(func(t *rapid.T) string {
			return frontmatterLine(t, "line")
		}), 0, 6).Draw(t, "lines")
		if rapid.Bool().Draw(t, "recorded") {
			lines = append(lines, "ruleTokenCount: 1 # old")
		}

		rest := "\r\n" + rapid.String().Draw(t, "body")
		doc := "---\r\n" + strings.Join(lines, "\r\n") + "\r\n---" + rest
		count := rapid.IntRange(0, 1_000_000).Draw(t, "count")

		got, err := frontmatter.SetTokenCount(doc, count)
		require.NoError(t, err)
		require.True(t, strings.HasSuffix(got, rest))

		block := strings.TrimSuffix(got, rest)
		assert.Equal(t, strings.Count(block, "\n"), strings.Count(block, "\r\n"))

		recorded, ok := frontmatter.RecordedCount(got)
		require.True(t, ok)
		assert.Equal(t, count, recorded)
	})
}
