package rule

import (
	"fmt"
	"log/slog"

	"github.com/google/cel-go/cel"

	"github.com/macropower/ruletokens/pkg/expr"
	"github.com/macropower/ruletokens/pkg/frontmatter"
)

// Filter uses a CEL expression to decide whether a document is processed.
// See [expr] for the available variables and functions.
type Filter struct {
	program cel.Program

	// Match is the CEL expression.
	Match string
}

// NewFilter compiles match into a [Filter].
func NewFilter(match string) (*Filter, error) {
	env, err := expr.NewDocumentEnvironment()
	if err != nil {
		return nil, err //nolint:wrapcheck // Already wrapped.
	}

	program, err := env.Compile(match)
	if err != nil {
		return nil, fmt.Errorf("match %q: %w", match, err)
	}

	return &Filter{program: program, Match: match}, nil
}

// Matches evaluates the filter against d. Frontmatter that is not valid YAML
// exposes no fields; an evaluation error is returned to the caller.
func (f *Filter) Matches(d *Document) (bool, error) {
	fields, err := frontmatter.Fields(d.Content)
	if err != nil {
		slog.Debug("frontmatter is not valid yaml, matching without fields",
			slog.String("rule", d.Name),
			slog.Any("err", err),
		)
	}

	ok, err := expr.EvalBool(f.program, map[string]any{
		expr.VarName:        d.Name,
		expr.VarPath:        d.Path,
		expr.VarFields:      expr.ConvertToCELValue(fields),
		expr.VarAlwaysApply: d.AlwaysApply(),
	})
	if err != nil {
		return false, fmt.Errorf("rule %s: match %q: %w", d.Name, f.Match, err)
	}

	return ok, nil
}
