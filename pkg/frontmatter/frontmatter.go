package frontmatter

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/macropower/ruletokens/pkg/yaml"
)

// Delimiter opens and closes a frontmatter block. It must be a whole line.
const Delimiter = "---"

const (
	FieldTokenCount  = "ruleTokenCount"
	FieldAlwaysApply = "alwaysApply"
)

var (
	// ErrNoFrontmatter indicates the content does not open with [Delimiter].
	ErrNoFrontmatter = errors.New("no frontmatter")
	// ErrMalformed indicates an opening [Delimiter] without a closing one.
	ErrMalformed = errors.New("malformed frontmatter")

	alwaysApplyTrue = regexp.MustCompile(`(?m)^` + FieldAlwaysApply + `:[ \t]*true[ \t]*(?:#[^\r\n]*)?\r?$`)
	recordedCount   = regexp.MustCompile(`(?m)^` + FieldTokenCount + `:[ \t]*(\d+)[ \t]*(?:#[^\r\n]*)?\r?$`)
)

// Parts is a document split at its frontmatter delimiters.
type Parts struct {
	// Frontmatter is the raw text between the delimiter lines.
	Frontmatter string
	// Rest is everything after the closing delimiter's dashes, including the
	// line break that ends the delimiter line.
	Rest string
}

// Split locates the frontmatter block in content.
// It returns [ErrNoFrontmatter] when the first line is not exactly
// [Delimiter], and [ErrMalformed] when no later line closes the block.
func Split(content string) (Parts, error) {
	first, start, ok := nextLine(content, 0)
	if !ok || first != Delimiter {
		return Parts{}, ErrNoFrontmatter
	}

	for pos := start; pos < len(content); {
		line, next, _ := nextLine(content, pos)
		if line == Delimiter {
			return Parts{
				Frontmatter: content[start:pos],
				Rest:        content[pos+len(Delimiter):],
			}, nil
		}

		pos = next
	}

	return Parts{}, ErrMalformed
}

// nextLine returns the line starting at pos without its line ending, the
// offset of the following line, and whether a line was found.
func nextLine(content string, pos int) (string, int, bool) {
	if pos >= len(content) {
		return "", pos, false
	}

	end := strings.IndexByte(content[pos:], '\n')
	if end == -1 {
		return strings.TrimSuffix(content[pos:], "\r"), len(content), true
	}

	return strings.TrimSuffix(content[pos:pos+end], "\r"), pos + end + 1, true
}

// Body returns the document text after the frontmatter block with leading
// whitespace removed. Content without a complete frontmatter block is
// returned unchanged.
func Body(content string) string {
	parts, err := Split(content)
	if err != nil {
		return content
	}

	return strings.TrimLeftFunc(parts.Rest, unicode.IsSpace)
}

// AlwaysApply reports whether the frontmatter sets `alwaysApply: true`.
func AlwaysApply(content string) bool {
	parts, err := Split(content)
	if err != nil {
		return false
	}

	return alwaysApplyTrue.MatchString(parts.Frontmatter)
}

// RecordedCount returns the integer `ruleTokenCount` stored in the
// frontmatter, if there is one.
func RecordedCount(content string) (int, bool) {
	parts, err := Split(content)
	if err != nil {
		return 0, false
	}

	m := recordedCount.FindStringSubmatch(parts.Frontmatter)
	if m == nil {
		return 0, false
	}

	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}

	return n, true
}

// Fields decodes the frontmatter block as YAML. Documents without a
// frontmatter block have no fields.
func Fields(content string) (map[string]any, error) {
	parts, err := Split(content)
	if err != nil {
		return map[string]any{}, nil //nolint:nilerr // No block means no fields.
	}

	fields := map[string]any{}

	err = yaml.Unmarshal([]byte(parts.Frontmatter), &fields)
	if err != nil {
		return map[string]any{}, err //nolint:wrapcheck // Already a yaml.Error.
	}

	if fields == nil {
		fields = map[string]any{}
	}

	return fields, nil
}
