package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/macropower/ruletokens/pkg/log"
	"github.com/macropower/ruletokens/pkg/tokenizer"
)

const (
	cmdName = "ruletokens"
	cmdDesc = `Count the tokens in Cursor rule files and record them in their frontmatter.`
)

type RootArgs struct {
	LogLevel  string
	LogFormat string
}

func NewRootArgs() *RootArgs {
	return &RootArgs{}
}

func (ra *RootArgs) AddFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().
		StringVar(&ra.LogLevel, "log-level", "warn", fmt.Sprintf("Log level, one of: %s", log.AllLevels))
	cmd.PersistentFlags().
		StringVar(&ra.LogFormat, "log-format", "text", fmt.Sprintf("Log format, one of: %s", log.AllFormats))

	must(cmd.RegisterFlagCompletionFunc("log-format",
		cobra.FixedCompletions(log.AllFormats, cobra.ShellCompDirectiveNoFileComp),
	))
	must(cmd.RegisterFlagCompletionFunc("log-level",
		cobra.FixedCompletions(log.AllLevels, cobra.ShellCompDirectiveNoFileComp),
	))
}

// CounterFactory builds the token counter for a run.
type CounterFactory func(model, encoding, cacheDir string) (tokenizer.Counter, error)

// RootOpt configures the root command.
type RootOpt func(*rootOptions)

type rootOptions struct {
	newCounter CounterFactory
}

// WithCounterFactory replaces the tiktoken counter.
func WithCounterFactory(f CounterFactory) RootOpt {
	return func(o *rootOptions) {
		o.newCounter = f
	}
}

func NewRootCmd(opts ...RootOpt) *cobra.Command {
	options := &rootOptions{newCounter: newTiktokenCounter}
	for _, opt := range opts {
		opt(options)
	}

	args := NewRootArgs()
	runArgs := NewRunArgs(args, options.newCounter)

	cmd := &cobra.Command{
		Use:               cmdName,
		Short:             cmdDesc,
		Example:           cmdExamples,
		PersistentPreRunE: setupLogging(args),
		Args:              cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, runArgs)
		},
	}

	args.AddFlags(cmd)
	runArgs.AddFlags(cmd)

	cmd.AddCommand(NewInitCmd(), NewSchemaCmd())

	bindEnvVars(cmd)

	return cmd
}

func setupLogging(rc *RootArgs) func(cmd *cobra.Command, _ []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		logHandler, err := log.NewHandler(cmd.ErrOrStderr(), rc.LogLevel, rc.LogFormat)
		if err != nil {
			return fmt.Errorf("create log handler: %w", err)
		}

		slog.SetDefault(slog.New(logHandler))

		return nil
	}
}

func newTiktokenCounter(model, encoding, cacheDir string) (tokenizer.Counter, error) {
	t, err := tokenizer.New(
		tokenizer.WithModel(model),
		tokenizer.WithEncoding(encoding),
		tokenizer.WithCacheDir(cacheDir),
	)
	if err != nil {
		return nil, err //nolint:wrapcheck // Wrapped by the caller.
	}

	slog.Debug("loaded tokenizer", slog.String("encoding", t.Encoding()))

	return t, nil
}
