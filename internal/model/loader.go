package model

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/bentheiii/onnx/internal/convert"
	"github.com/bentheiii/onnx/internal/inline"
	"github.com/bentheiii/onnx/internal/ir"
	"github.com/bentheiii/onnx/internal/onnx"
	"github.com/bentheiii/onnx/internal/schema"
)

// maxInlineDepth bounds how many rounds of function expansion are applied
// before nested calls are considered recursive.
const maxInlineDepth = 32

// LoadOptions configures model loading behavior.
type LoadOptions struct {
	// InlineFunctions expands every call to a model-local function.
	InlineFunctions bool

	// TargetOpset converts the default domain to this version after
	// loading. Zero keeps the model's version.
	TargetOpset int64

	// StrictConversion fails nodes that have no adapter for a version step.
	StrictConversion bool

	// Schemas supplies attribute defaults (default: schema.Default()).
	Schemas *schema.Registry

	// Adapters used for conversion (default: convert.DefaultRegistry()).
	Adapters *convert.Registry

	// Logger receives debug records (default: discarded).
	Logger *slog.Logger
}

// DefaultLoadOptions returns default loading options.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{
		InlineFunctions: true,
		Schemas:         schema.Default(),
		Adapters:        convert.DefaultRegistry(),
		Logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// Load parses an ONNX model from file and prepares its graph for rewriting.
//
// Example:
//
//	m, err := model.Load("resnet50.onnx", model.LoadOptions{InlineFunctions: true, TargetOpset: 12})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Print(m.Graph())
func Load(path string, opts ...LoadOptions) (*Model, error) {
	proto, err := onnx.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ONNX file: %w", err)
	}
	return LoadFromProto(proto, options(opts))
}

// LoadFromBytes loads a model from bytes.
func LoadFromBytes(data []byte, opts ...LoadOptions) (*Model, error) {
	proto, err := onnx.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ONNX data: %w", err)
	}
	return LoadFromProto(proto, options(opts))
}

func options(opts []LoadOptions) LoadOptions {
	opt := DefaultLoadOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}
	if opt.Schemas == nil {
		opt.Schemas = schema.Default()
	}
	if opt.Adapters == nil {
		opt.Adapters = convert.DefaultRegistry()
	}
	if opt.Logger == nil {
		opt.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return opt
}

// LoadFromProto prepares a parsed model. The proto is not modified.
func LoadFromProto(proto *onnx.ModelProto, opt LoadOptions) (*Model, error) {
	if proto.Graph == nil {
		return nil, ErrNoGraph
	}

	graph := proto.Graph
	if opt.InlineFunctions && len(proto.Functions) > 0 {
		var err error
		graph, err = inlineFunctions(proto, opt)
		if err != nil {
			return nil, fmt.Errorf("failed to inline functions: %w", err)
		}
	}

	g, err := ir.FromProto(graph, proto.OpsetImport)
	if err != nil {
		return nil, fmt.Errorf("failed to build graph: %w", err)
	}
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("failed to build graph: %w", err)
	}

	m := &Model{proto: proto, graph: g}
	if opt.TargetOpset > 0 {
		conv := convert.NewConverter(convert.ConvertOptions{
			Adapters: opt.Adapters,
			Strict:   opt.StrictConversion,
			Logger:   opt.Logger,
		})
		if err := conv.Convert(g, "", opt.TargetOpset); err != nil {
			return m, fmt.Errorf("failed to convert to opset %d: %w", opt.TargetOpset, err)
		}
	}
	return m, nil
}

type functionKey struct {
	domain string
	name   string
}

// inlineFunctions returns a copy of the model graph in which every call to
// a model-local function has been expanded, including calls introduced by
// earlier expansions. Calls inside sub-graph attributes are left alone.
func inlineFunctions(proto *onnx.ModelProto, opt LoadOptions) (*onnx.GraphProto, error) {
	schemas := schema.NewLayered(opt.Schemas)
	functions := make(map[functionKey]*onnx.FunctionProto, len(proto.Functions))
	for i := range proto.Functions {
		fn := localFunction(&proto.Functions[i], proto.OpsetImport)
		if err := schemas.Register(schema.FromFunction(fn, 1)); err != nil {
			return nil, fmt.Errorf("function %s: %w", fn.Name, err)
		}
		functions[functionKey{domain: fn.Domain, name: fn.Name}] = fn
	}
	schemas.Freeze()

	graph := proto.Graph.Clone()
	for depth := 0; ; depth++ {
		expanded := 0
		nodes := graph.Nodes
		graph.Nodes = make([]onnx.NodeProto, 0, len(nodes))
		for i := range nodes {
			call := &nodes[i]
			fn, ok := functions[functionKey{domain: call.Domain, name: call.OpType}]
			if !ok {
				graph.AddNode(*call)
				continue
			}
			if depth >= maxInlineDepth {
				return nil, onnx.WrapNodeError(call, ErrRecursiveFunction)
			}
			prefix := fmt.Sprintf("_%d_%d", depth, i)
			body, err := inline.Expand(call, fn, inline.ExpandOptions{
				Prefix:  prefix,
				Schemas: schemas,
				Logger:  opt.Logger,
			})
			if err != nil {
				return nil, err
			}
			// A named call in the body becomes the scope of its own
			// expansion next round, so it must be unique per call site.
			scope := call.Name
			if scope == "" {
				scope = fn.Name + prefix
			}
			for j := range body {
				if body[j].Name != "" {
					body[j].Name = scope + "/" + body[j].Name
				}
				graph.AddNode(body[j])
			}
			expanded++
		}
		opt.Logger.Debug("inlined function calls", "round", depth, "calls", expanded)
		if expanded == 0 {
			return graph, nil
		}
	}
}

// localFunction returns fn with an opset import for its own domain. Calls
// to a model-local function are resolved against the function's imports,
// which normally only list the domains its body uses; the function's own
// domain takes the model's version, or 1 when the model does not import it.
func localFunction(fn *onnx.FunctionProto, modelOpsets []onnx.OperatorSetID) *onnx.FunctionProto {
	if _, ok := onnx.OpsetVersion(fn.OpsetImport, fn.Domain); ok {
		return fn
	}
	version, ok := onnx.OpsetVersion(modelOpsets, fn.Domain)
	if !ok {
		version = 1
	}
	c := *fn
	c.OpsetImport = append(append([]onnx.OperatorSetID(nil), fn.OpsetImport...),
		onnx.OperatorSetID{Domain: fn.Domain, Version: version})
	return &c
}
