package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bentheiii/onnx/internal/model"
	"github.com/bentheiii/onnx/internal/parallel"
)

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	var graph bool

	cmd := &cobra.Command{
		Use:   "inspect <model>...",
		Short: "Show model metadata",
		Long: `Show the header of ONNX models: producer, opset imports, inputs,
outputs and the model-local functions they declare. Several models are
read concurrently and reported in argument order.

With --graph the graph is printed as stored, without inlining.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(rootOpts, cmd, args, graph)
		},
	}

	cmd.Flags().BoolVar(&graph, "graph", false, "also print the graph")

	return cmd
}

func runInspect(opts *RootOptions, cmd *cobra.Command, paths []string, graph bool) error {
	opt, err := opts.loadOptions(cmd)
	if err != nil {
		return err
	}
	opt.InlineFunctions = false

	reports := make([]strings.Builder, len(paths))
	err = parallel.Each(len(paths), func(i int) error {
		b := &reports[i]
		if len(paths) > 1 {
			fmt.Fprintf(b, "== %s\n", paths[i])
		}
		info, err := model.GetModelInfo(paths[i])
		if err != nil {
			return err
		}
		writeInfo(b, info)
		if !graph {
			return nil
		}
		m, err := model.Load(paths[i], opt)
		if err != nil {
			return err
		}
		b.WriteByte('\n')
		return m.Graph().Dump(b)
	}, parallel.DefaultConfig())

	w := cmd.OutOrStdout()
	for i := range reports {
		if _, werr := io.WriteString(w, reports[i].String()); werr != nil {
			return werr
		}
	}
	return err
}

func writeInfo(b *strings.Builder, info *model.ModelInfo) {
	fmt.Fprintf(b, "ir_version: %d\n", info.IRVersion)
	fmt.Fprintf(b, "producer: %s %s\n", info.ProducerName, info.ProducerVersion)
	for _, opset := range info.Opsets {
		domain := opset.Domain
		if domain == "" {
			domain = "ai.onnx"
		}
		fmt.Fprintf(b, "opset: %s %d\n", domain, opset.Version)
	}
	fmt.Fprintf(b, "inputs: %s\n", strings.Join(info.InputNames, ", "))
	fmt.Fprintf(b, "outputs: %s\n", strings.Join(info.OutputNames, ", "))
	fmt.Fprintf(b, "nodes: %d\n", info.NodeCount)
	fmt.Fprintf(b, "weights: %d\n", info.WeightCount)
	for _, fn := range info.Functions {
		fmt.Fprintf(b, "function: %s\n", fn)
	}
}
