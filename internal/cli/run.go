package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/macropower/ruletokens/api/v1beta1/configs"
	"github.com/macropower/ruletokens/pkg/config"
	"github.com/macropower/ruletokens/pkg/log"
	"github.com/macropower/ruletokens/pkg/report"
	"github.com/macropower/ruletokens/pkg/rule"
	"github.com/macropower/ruletokens/pkg/scan"
	"github.com/macropower/ruletokens/pkg/telemetry"
)

const (
	cmdExamples = `  # Count the tokens of every rule in .cursor/rules:
  ruletokens

  # Record the counts in each rule's frontmatter:
  ruletokens --update

  # Recount a single rule:
  ruletokens --rule go-style.mdc --update

  # Preview the frontmatter changes without writing:
  ruletokens --update --dry-run --diff

  # Fail in CI when a recorded count is stale:
  ruletokens --check

  # Only count rules that are always applied:
  ruletokens --match 'alwaysApply'`
)

var (
	ErrStale       = errors.New("recorded token counts are stale")
	ErrReadFailure = errors.New("some rule files could not be read")
)

type RunArgs struct {
	*RootArgs

	newCounter CounterFactory

	ConfigPath string
	RulesDir   string
	Rule       string
	Extension  string
	Model      string
	Encoding   string
	CacheDir   string
	Match      string
	Output     string
	OTLP       string
	Update     bool
	Check      bool
	DryRun     bool
	Diff       bool
}

func NewRunArgs(rootArgs *RootArgs, newCounter CounterFactory) *RunArgs {
	return &RunArgs{
		RootArgs:   rootArgs,
		newCounter: newCounter,
	}
}

func (ra *RunArgs) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&ra.ConfigPath, "config", "",
		"Path to the configuration file (default: nearest .ruletokens.yaml)")
	cmd.Flags().StringVar(&ra.RulesDir, "rules-dir", configs.DefaultRulesDir, "Rules directory")
	cmd.Flags().StringVar(&ra.Rule, "rule", "", "Process only this rule file within the rules directory")
	cmd.Flags().StringVar(&ra.Extension, "extension", configs.DefaultExtension, "Extension of rule files")
	cmd.Flags().StringVar(&ra.Model, "model", configs.DefaultModel, "Model used to select the tiktoken encoding")
	cmd.Flags().StringVar(&ra.Encoding, "encoding", "", "Tiktoken encoding, overrides --model")
	cmd.Flags().StringVar(&ra.CacheDir, "cache-dir", "", "Directory for cached tiktoken BPE ranks")
	cmd.Flags().StringVar(&ra.Match, "match", "", "CEL expression selecting which rules to count")
	cmd.Flags().StringVarP(&ra.Output, "output", "o", configs.DefaultOutput,
		fmt.Sprintf("Report format, one of: %s", report.AllFormats))
	cmd.Flags().StringVar(&ra.OTLP, "otlp-endpoint", "", "Export traces to this OTLP/gRPC endpoint")
	cmd.Flags().BoolVar(&ra.Update, "update", false, "Update ruleTokenCount in frontmatter")
	cmd.Flags().BoolVar(&ra.Check, "check", false, "Fail when a recorded ruleTokenCount is missing or stale")
	cmd.Flags().BoolVar(&ra.DryRun, "dry-run", false, "Compute updates without writing files, implies --update")
	cmd.Flags().BoolVar(&ra.Diff, "diff", false, "Print a unified diff of each frontmatter update")

	must(cmd.MarkFlagFilename("config", "yaml", "yml"))
	must(cmd.MarkFlagDirname("rules-dir"))
	must(cmd.MarkFlagDirname("cache-dir"))
	must(cmd.RegisterFlagCompletionFunc("output",
		cobra.FixedCompletions(report.AllFormats, cobra.ShellCompDirectiveNoFileComp),
	))
}

// applyConfig copies config values into every flag that was not set on the
// command line or through the environment.
func (ra *RunArgs) applyConfig(cmd *cobra.Command, cfg *configs.Config) {
	for name, target := range map[string]struct {
		dst *string
		src string
	}{
		"rules-dir": {&ra.RulesDir, cfg.RulesDir},
		"extension": {&ra.Extension, cfg.Extension},
		"model":     {&ra.Model, cfg.Model},
		"encoding":  {&ra.Encoding, cfg.Encoding},
		"cache-dir": {&ra.CacheDir, cfg.CacheDir},
		"match":     {&ra.Match, cfg.Match},
		"output":    {&ra.Output, cfg.Output},
	} {
		if cmd.Flags().Changed(name) || target.src == "" {
			continue
		}

		*target.dst = target.src
	}
}

func run(cmd *cobra.Command, ra *RunArgs) error {
	providers, err := telemetry.Init(cmd.Context(), ra.OTLP, telemetry.WithInsecure(true))
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}

	defer func() {
		err := providers.Shutdown(context.WithoutCancel(cmd.Context()))
		if err != nil {
			slog.Warn("shutdown telemetry", slog.Any("err", err))
		}
	}()

	ctx, span := otel.Tracer("github.com/macropower/ruletokens").Start(cmd.Context(), "run",
		trace.WithAttributes(attribute.Bool("update", ra.Update), attribute.Bool("check", ra.Check)))
	defer span.End()

	cfg, err := config.Resolve(ra.ConfigPath, ".")
	if err != nil {
		return err //nolint:wrapcheck // Already wrapped with the config path.
	}

	ra.applyConfig(cmd, cfg)

	logger := log.WithContext(ctx)
	logger.Debug("resolved arguments",
		slog.String("rules-dir", ra.RulesDir),
		slog.String("rule", ra.Rule),
		slog.String("model", ra.Model),
		slog.String("encoding", ra.Encoding),
		slog.String("output", ra.Output),
	)

	format, err := report.GetFormat(ra.Output)
	if err != nil {
		return fmt.Errorf("--output: %w", err)
	}

	var filter *rule.Filter
	if ra.Match != "" {
		filter, err = rule.NewFilter(ra.Match)
		if err != nil {
			return fmt.Errorf("--match: %w", err)
		}
	}

	paths, err := rule.Select(ra.RulesDir, ra.Rule, ra.Extension)
	if err != nil {
		return fmt.Errorf("select rules: %w", err)
	}

	counter, err := ra.newCounter(ra.Model, ra.Encoding, ra.CacheDir)
	if err != nil {
		return fmt.Errorf("load tokenizer: %w", err)
	}

	scanOpts := []scan.ScannerOpt{
		scan.WithUpdate(ra.Update || ra.DryRun),
		scan.WithDryRun(ra.DryRun),
		scan.WithFilter(filter),
	}
	if ra.Diff {
		scanOpts = append(scanOpts, scan.WithDiff(diffWriter(cmd, format)))
	}

	sum, err := scan.NewScanner(counter, scanOpts...).Scan(log.NewContext(ctx, logger), paths)
	if err != nil {
		return fmt.Errorf("scan rules: %w", err)
	}

	err = report.New(cmd.OutOrStdout(), format).Write(sum)
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	if len(sum.Failures) > 0 {
		return fmt.Errorf("%w: %d file(s)", ErrReadFailure, len(sum.Failures))
	}

	if ra.Check {
		return check(sum)
	}

	return nil
}

func check(sum *scan.Summary) error {
	stale := sum.Stale()
	if len(stale) == 0 {
		return nil
	}

	names := make([]string, 0, len(stale))
	for _, r := range stale {
		recorded := "missing"
		if r.Recorded != nil {
			recorded = fmt.Sprint(*r.Recorded)
		}

		slog.Warn("stale ruleTokenCount",
			slog.String("rule", r.Name),
			slog.String("recorded", recorded),
			slog.Int("tokens", r.Tokens),
		)

		names = append(names, r.Name)
	}

	return fmt.Errorf("%w: %s (run with --update)", ErrStale, strings.Join(names, ", "))
}

// diffWriter keeps diffs out of structured reports.
func diffWriter(cmd *cobra.Command, format report.Format) io.Writer {
	if format == report.FormatText {
		return cmd.OutOrStdout()
	}

	return cmd.ErrOrStderr()
}
