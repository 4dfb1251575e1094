package scan

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/aymanbagabas/go-udiff"
	"github.com/dustin/go-humanize"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/macropower/ruletokens/pkg/frontmatter"
	"github.com/macropower/ruletokens/pkg/log"
	"github.com/macropower/ruletokens/pkg/rule"
	"github.com/macropower/ruletokens/pkg/tokenizer"
)

// Scanner counts and optionally records tokens for rule documents.
type Scanner struct {
	tracer  trace.Tracer
	counter tokenizer.Counter
	filter  *rule.Filter
	diffOut io.Writer
	update  bool
	dryRun  bool
}

// ScannerOpt configures a [Scanner].
type ScannerOpt func(*Scanner)

// WithUpdate enables writing `ruleTokenCount` into each document.
func WithUpdate(update bool) ScannerOpt {
	return func(s *Scanner) {
		s.update = update
	}
}

// WithDryRun computes updates without writing them.
func WithDryRun(dryRun bool) ScannerOpt {
	return func(s *Scanner) {
		s.dryRun = dryRun
	}
}

// WithDiff writes a unified diff of every frontmatter change to w.
func WithDiff(w io.Writer) ScannerOpt {
	return func(s *Scanner) {
		s.diffOut = w
	}
}

// WithFilter only processes documents matching f.
func WithFilter(f *rule.Filter) ScannerOpt {
	return func(s *Scanner) {
		s.filter = f
	}
}

// NewScanner creates a new [Scanner] counting tokens with counter.
func NewScanner(counter tokenizer.Counter, opts ...ScannerOpt) *Scanner {
	s := &Scanner{
		tracer:  otel.Tracer("scanner"),
		counter: counter,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Scan processes the documents at paths in order.
//
// Documents that cannot be read are recorded as [Failure]s. When a filter is
// set and no document matches, an error wrapping [rule.ErrNoRules] is
// returned along with the summary.
func (s *Scanner) Scan(ctx context.Context, paths []string) (*Summary, error) {
	ctx, span := s.tracer.Start(ctx, "scan", trace.WithAttributes(
		attribute.Int("rules", len(paths)),
		attribute.Bool("update", s.update),
	))
	defer span.End()

	logger := log.WithContext(ctx)

	sum := &Summary{
		UpdateMode: s.update,
		DryRun:     s.dryRun,
	}

	for _, path := range paths {
		doc, err := rule.Load(path)
		if err != nil {
			logger.Error("load rule", slog.String("path", path), slog.Any("err", err))
			sum.Failures = append(sum.Failures, Failure{Path: path, Error: err.Error()})

			continue
		}

		if !s.matches(ctx, doc) {
			sum.Filtered++

			continue
		}

		sum.add(s.process(ctx, doc))
	}

	span.SetAttributes(
		attribute.Int("tokens.total", sum.Total),
		attribute.Int("tokens.always_applied", sum.AlwaysApplied),
	)

	if len(sum.Results) == 0 && sum.Filtered > 0 {
		err := fmt.Errorf("%w: none of %d rule(s) matched %q", rule.ErrNoRules, sum.Filtered, s.filter.Match)
		span.SetStatus(codes.Error, err.Error())

		return sum, err
	}

	return sum, nil
}

func (s *Scanner) matches(ctx context.Context, doc *rule.Document) bool {
	if s.filter == nil {
		return true
	}

	ok, err := s.filter.Matches(doc)
	if err != nil {
		log.WithContext(ctx).Warn("match expression failed, skipping rule",
			slog.String("rule", doc.Name),
			slog.Any("err", err),
		)

		return false
	}

	if !ok {
		log.WithContext(ctx).Debug("rule does not match, skipping", slog.String("rule", doc.Name))
	}

	return ok
}

func (s *Scanner) process(ctx context.Context, doc *rule.Document) Result {
	ctx, span := s.tracer.Start(ctx, "process", trace.WithAttributes(
		attribute.String("rule", doc.Name),
	))
	defer span.End()

	logger := log.WithContext(ctx).With(slog.String("rule", doc.Name))

	tokens := s.counter.Count(doc.Body())
	span.SetAttributes(attribute.Int("tokens", tokens))

	res := Result{
		Name:   doc.Name,
		Path:   doc.Path,
		Tokens: tokens,
		Bytes:  len(doc.Content),
		Size:   humanize.Bytes(uint64(len(doc.Content))),
	}

	logger.Debug("counted tokens",
		slog.Int("tokens", tokens),
		slog.String("size", res.Size),
	)

	if s.update {
		res.Update, res.Reason = s.record(ctx, doc, tokens)
	}

	res.AlwaysApply = doc.AlwaysApply()
	if n, ok := frontmatter.RecordedCount(doc.Content); ok {
		res.Recorded = &n
	}

	return res
}

// record writes tokens into the document's frontmatter.
func (s *Scanner) record(ctx context.Context, doc *rule.Document, tokens int) (UpdateStatus, string) {
	logger := log.WithContext(ctx).With(slog.String("rule", doc.Name))

	updated, err := frontmatter.SetTokenCount(doc.Content, tokens)
	if err != nil {
		logger.Warn("could not update ruleTokenCount",
			slog.String("path", doc.Path),
			slog.Any("err", err),
		)

		return UpdateSkipped, err.Error()
	}

	if updated == doc.Content {
		return UpdateUnchanged, ""
	}

	if s.diffOut != nil {
		diff := udiff.Unified("a/"+doc.Name, "b/"+doc.Name, doc.Content, updated)

		_, err := io.WriteString(s.diffOut, diff)
		if err != nil {
			logger.Warn("write diff", slog.Any("err", err))
		}
	}

	if s.dryRun {
		logger.Info("would update ruleTokenCount", slog.Int("tokens", tokens))

		return UpdatePending, ""
	}

	err = doc.Write(updated)
	if err != nil {
		logger.Error("write rule", slog.String("path", doc.Path), slog.Any("err", err))

		return UpdateFailed, err.Error()
	}

	logger.Debug("updated ruleTokenCount", slog.Int("tokens", tokens))

	return UpdateWritten, ""
}
