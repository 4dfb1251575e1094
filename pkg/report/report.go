// Package report prints a [scan.Summary] as a token table or as structured
// data.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/macropower/ruletokens/pkg/scan"
	"github.com/macropower/ruletokens/pkg/yaml"
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"

	nameWidth  = 50
	countWidth = 6
)

var (
	ErrUnknownFormat = errors.New("unknown output format")

	AllFormats = []string{
		string(FormatText),
		string(FormatJSON),
		string(FormatYAML),
	}
)

func GetFormat(format string) (Format, error) {
	f := Format(strings.ToLower(format))
	if slices.Contains(AllFormats, string(f)) {
		return f, nil
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// Reporter writes summaries to an output stream.
type Reporter struct {
	w      io.Writer
	styles styles
	format Format
}

// New creates a [Reporter] writing format to w. Text output is styled only
// when w is a terminal.
func New(w io.Writer, format Format) *Reporter {
	return &Reporter{
		w:      w,
		format: format,
		styles: newStyles(lipgloss.NewRenderer(w)),
	}
}

// Write renders sum in the reporter's format.
func (r *Reporter) Write(sum *scan.Summary) error {
	switch r.format {
	case FormatJSON:
		enc := json.NewEncoder(r.w)
		enc.SetIndent("", "  ")

		err := enc.Encode(sum)
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}

		return nil

	case FormatYAML:
		enc := yaml.NewEncoder(r.w)

		err := enc.Encode(sum)
		if err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}

		err = enc.Close()
		if err != nil {
			return fmt.Errorf("close yaml encoder: %w", err)
		}

		return nil

	case FormatText:
		return r.writeText(sum)
	}

	return fmt.Errorf("%w: %q", ErrUnknownFormat, r.format)
}

func (r *Reporter) writeText(sum *scan.Summary) error {
	p := &printer{w: r.w}
	rule := strings.Repeat("-", nameWidth+1+countWidth+1)

	p.println("")
	p.println(r.styles.header.Render(fmt.Sprintf("%-*s %*s", nameWidth, "Rule File", countWidth, "Tokens")))
	p.println(rule)

	for _, res := range sum.Results {
		p.printf("%-*s %*d tokens\n", nameWidth, res.Name, countWidth, res.Tokens)

		if line := r.updateLine(res); line != "" {
			p.println("  " + line)
		}
	}

	p.println(rule)
	p.printf("%-*s %*d\n", nameWidth, "Total tokens", countWidth, sum.Total)
	p.printf("%-*s %*d (%.1f%%)\n", nameWidth, "Always-applied tokens", countWidth,
		sum.AlwaysApplied, sum.AlwaysAppliedPercent())

	if sum.UpdateMode {
		verb := "Updated"
		if sum.DryRun {
			verb = "Would update"
		}

		p.println("")
		p.println(r.styles.ok.Render(fmt.Sprintf("✅ %s %d rule file(s)", verb, sum.Attempted())))

		if sum.Skipped > 0 {
			p.println(r.styles.warn.Render(fmt.Sprintf("⚠️  Could not update %d rule file(s)", sum.Skipped)))
		}
	}

	for _, f := range sum.Failures {
		p.println(r.styles.warn.Render(fmt.Sprintf("⚠️  Could not read %s: %s", f.Path, f.Error)))
	}

	return p.err
}

func (r *Reporter) updateLine(res scan.Result) string {
	switch res.Update {
	case scan.UpdateWritten, scan.UpdateUnchanged:
		return r.styles.ok.Render("✅ Updated ruleTokenCount")
	case scan.UpdatePending:
		return r.styles.ok.Render("✅ Would update ruleTokenCount")
	case scan.UpdateSkipped, scan.UpdateFailed:
		return r.styles.warn.Render(fmt.Sprintf("⚠️  Could not update ruleTokenCount (%s)", res.Reason))
	case scan.UpdateNone:
	}

	return ""
}

// printer keeps the first write error so callers check once.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}

	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *printer) println(s string) {
	p.printf("%s\n", s)
}
