package cli

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/macropower/ruletokens/api/v1beta1/configs"
)

type InitArgs struct {
	Dir   string
	Force bool
}

func (ia *InitArgs) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&ia.Dir, "dir", ".", "Directory to write .ruletokens.yaml into")
	cmd.Flags().BoolVar(&ia.Force, "force", false, "Back up and replace an existing configuration file")

	must(cmd.MarkFlagDirname("dir"))
}

// NewInitCmd creates the command that writes the default configuration file.
func NewInitCmd() *cobra.Command {
	ia := &InitArgs{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default .ruletokens.yaml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := filepath.Join(ia.Dir, configs.FileNames[0])

			wrote, err := configs.WriteDefault(path, ia.Force)
			if err != nil {
				return err //nolint:wrapcheck // Already wrapped.
			}

			if !wrote {
				slog.Warn("configuration already exists, use --force to replace it", slog.String("path", path))
				return nil
			}

			mustN(fmt.Fprintln(cmd.OutOrStdout(), path))

			return nil
		},
	}

	ia.AddFlags(cmd)
	bindEnvVars(cmd)

	return cmd
}

// NewSchemaCmd creates the command that prints the configuration JSON schema.
func NewSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of the configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := configs.Schema()
			if err != nil {
				return err //nolint:wrapcheck // Already wrapped.
			}

			mustN(fmt.Fprintln(cmd.OutOrStdout(), string(b)))

			return nil
		},
	}
}
