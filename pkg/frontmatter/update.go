package frontmatter

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// tokenCountValue matches the key and its scalar value only, so whatever
	// follows on the line (a comment, a carriage return) survives a rewrite.
	tokenCountValue = regexp.MustCompile(
		`(?m)^` + FieldTokenCount + `:[ \t]*(?:"[^"\r\n]*"|'[^'\r\n]*'|[^\s#]*)(#?)`,
	)
	alwaysApplyLine = regexp.MustCompile(`(?m)^` + FieldAlwaysApply + `:`)
)

// SetTokenCount returns content with the `ruleTokenCount` field set to count.
//
// Existing `ruleTokenCount` values are rewritten in place and anything after
// the value, such as a trailing comment, is kept. Otherwise the field is
// inserted right before the first `alwaysApply` line, or appended to the end
// of the block. The frontmatter is trimmed and re-wrapped in delimiter lines
// using the line ending of the opening delimiter; everything after the
// closing delimiter is kept byte for byte.
//
// Content without a complete block yields [ErrNoFrontmatter] or
// [ErrMalformed].
func SetTokenCount(content string, count int) (string, error) {
	parts, err := Split(content)
	if err != nil {
		return "", err
	}

	eol := lineEnding(content)
	fm := strings.TrimSpace(parts.Frontmatter)
	field := FieldTokenCount + ": " + strconv.Itoa(count)

	switch {
	case tokenCountValue.MatchString(fm):
		fm = tokenCountValue.ReplaceAllStringFunc(fm, func(m string) string {
			// A comment glued to the value needs a separating space.
			if strings.HasSuffix(m, "#") {
				return field + " #"
			}

			return field
		})

	case alwaysApplyLine.MatchString(fm):
		loc := alwaysApplyLine.FindStringIndex(fm)
		fm = fm[:loc[0]] + field + eol + fm[loc[0]:]

	case fm == "":
		fm = field

	default:
		fm += eol + field
	}

	return Delimiter + eol + fm + eol + Delimiter + parts.Rest, nil
}

// lineEnding reports the line ending used by the opening delimiter line.
func lineEnding(content string) string {
	if strings.HasPrefix(content, Delimiter+"\r\n") {
		return "\r\n"
	}

	return "\n"
}
