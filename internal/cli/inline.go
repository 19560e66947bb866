package cli

import (
	"github.com/spf13/cobra"

	"github.com/bentheiii/onnx/internal/model"
)

// NewInlineCommand creates the inline command.
func NewInlineCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "inline <model>",
		Short: "Expand model-local function calls",
		Long: `Expand every call to a model-local function into the function body
and print the resulting graph.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opt, err := rootOpts.loadOptions(cmd)
			if err != nil {
				return err
			}
			m, err := model.Load(args[0], opt)
			if err != nil {
				return err
			}
			return m.Graph().Dump(cmd.OutOrStdout())
		},
	}
}
