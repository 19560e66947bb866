package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/bentheiii/onnx/internal/convert"
	"github.com/bentheiii/onnx/internal/model"
)

// ConvertOptions holds flags for the convert command.
type ConvertOptions struct {
	Target   int64
	Domain   string
	Strict   bool
	NoInline bool
}

// NewConvertCommand creates the convert command.
func NewConvertCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ConvertOptions{}

	cmd := &cobra.Command{
		Use:   "convert <model>",
		Short: "Migrate a model to another opset version",
		Long: `Migrate the nodes of one domain to another opset version and print
the resulting graph. Function calls are expanded first.

Nodes that fail to migrate are reported and left unchanged; the graph is
still printed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(rootOpts, opts, cmd, args[0])
		},
	}

	cmd.Flags().Int64Var(&opts.Target, "to", 0, "target opset version (required)")
	cmd.Flags().StringVar(&opts.Domain, "domain", "", "domain to convert (default: ai.onnx)")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "fail nodes without an adapter for a version step")
	cmd.Flags().BoolVar(&opts.NoInline, "no-inline", false, "keep function calls")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

func runConvert(rootOpts *RootOptions, opts *ConvertOptions, cmd *cobra.Command, path string) error {
	if opts.Target <= 0 {
		return errors.New("--to must be a positive opset version")
	}
	opt, err := rootOpts.loadOptions(cmd)
	if err != nil {
		return err
	}
	opt.InlineFunctions = !opts.NoInline

	m, err := model.Load(path, opt)
	if err != nil {
		return err
	}

	conv := convert.NewConverter(convert.ConvertOptions{
		Adapters: opt.Adapters,
		Strict:   opts.Strict,
		Logger:   opt.Logger,
	})
	convErr := conv.Convert(m.Graph(), opts.Domain, opts.Target)

	if err := m.Graph().Dump(cmd.OutOrStdout()); err != nil {
		return err
	}
	return convErr
}
