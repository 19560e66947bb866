// Package cli implements the onnxir command line.
package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/bentheiii/onnx/internal/model"
	"github.com/bentheiii/onnx/internal/schema"
)

// Version is reported by the version command.
const Version = "v0.1.0-dev"

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Schemas string // YAML file with extra operator schemas
}

// NewRootCommand creates the root command for the onnxir CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "onnxir",
		Short: "Rewrite ONNX model graphs",
		Long: `Inspect and rewrite ONNX models.

Calls to model-local functions are expanded into their bodies and the
standard domain can be migrated between opset versions.`,
		SilenceUsage:  true,
		SilenceErrors: true, // main reports the error
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log rewriting steps to stderr")
	cmd.PersistentFlags().StringVar(&opts.Schemas, "schemas", "", "YAML file with additional operator schemas")

	cmd.AddCommand(NewVersionCommand())
	cmd.AddCommand(NewInspectCommand(opts))
	cmd.AddCommand(NewInlineCommand(opts))
	cmd.AddCommand(NewConvertCommand(opts))

	return cmd
}

// NewVersionCommand creates the version command.
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "onnxir %s\n", Version)
			return err
		},
	}
}

// logger returns the logger selected by the verbose flag. Records go to
// stderr so they never mix with command output.
func (o *RootOptions) logger(cmd *cobra.Command) *slog.Logger {
	if !o.Verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// loadOptions builds model loading options from the global flags.
func (o *RootOptions) loadOptions(cmd *cobra.Command) (model.LoadOptions, error) {
	opt := model.DefaultLoadOptions()
	opt.Logger = o.logger(cmd)
	if o.Schemas != "" {
		r := schema.NewLayered(schema.Default())
		if err := r.LoadYAMLFile(o.Schemas); err != nil {
			return opt, fmt.Errorf("loading schemas: %w", err)
		}
		opt.Schemas = r
	}
	return opt, nil
}
