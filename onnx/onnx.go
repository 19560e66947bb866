// Package onnx provides rewriting of ONNX model graphs.
//
// It loads .onnx files and rewrites their graphs in place: calls to
// model-local functions are expanded into the function bodies, arbitrary
// graphs can be spliced into function bodies, and nodes are migrated
// between adjacent opset versions by registered adapters.
//
// # Features
//
//   - ONNX format parsing (protobuf-based), including model-local functions
//   - Function expansion with positional argument binding and attribute defaults
//   - Graph inlining into function bodies with collision-free renaming
//   - Opset conversion by chains of single-step adapters
//   - Operator schemas for the standard domain, extensible from YAML
//
// # Example Usage
//
//	import "github.com/bentheiii/onnx/onnx"
//
//	// Load a model, inline its functions and downgrade it to opset 12.
//	opts := onnx.DefaultLoadOptions()
//	opts.TargetOpset = 12
//	model, err := onnx.Load("model.onnx", opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Print(model.Graph())
//
// # Adapters
//
// The default adapter registry moves the axes input of Squeeze, Unsqueeze
// and ReduceSum back to an attribute when going from opset 13 to 12, and
// does the same for the other reductions from opset 18 to 17. Use
// [NewAdapterRegistry] and [ConvertOptions] to supply your own.
package onnx

import (
	"github.com/bentheiii/onnx/internal/convert"
	"github.com/bentheiii/onnx/internal/inline"
	"github.com/bentheiii/onnx/internal/ir"
	"github.com/bentheiii/onnx/internal/model"
	internalonnx "github.com/bentheiii/onnx/internal/onnx"
	"github.com/bentheiii/onnx/internal/schema"
)

// Protobuf message types.
type (
	ModelProto     = internalonnx.ModelProto
	GraphProto     = internalonnx.GraphProto
	NodeProto      = internalonnx.NodeProto
	FunctionProto  = internalonnx.FunctionProto
	AttributeProto = internalonnx.AttributeProto
	TensorProto    = internalonnx.TensorProto
	ValueInfoProto = internalonnx.ValueInfoProto
	OperatorSetID  = internalonnx.OperatorSetID
	NodeError      = internalonnx.NodeError
)

// Graph is a mutable graph of nodes with exact use counts.
type Graph = ir.Graph

// Node is a node owned by a Graph.
type Node = ir.Node

// Errors reported while expanding, converting and loading.
var (
	ErrArity             = inline.ErrArity
	ErrUnresolvedOpset   = inline.ErrUnresolvedOpset
	ErrSchemaNotFound    = schema.ErrSchemaNotFound
	ErrAdaptation        = convert.ErrAdaptation
	ErrMalformedConstant = convert.ErrMalformedConstant
	ErrUnresolvedAxes    = convert.ErrUnresolvedAxes
	ErrNoAdapter         = convert.ErrNoAdapter
	ErrRecursiveFunction = model.ErrRecursiveFunction
)

// ParseFile parses an ONNX model file without preparing it for rewriting.
func ParseFile(path string) (*ModelProto, error) {
	return internalonnx.ParseFile(path)
}

// Parse parses an ONNX model from bytes.
func Parse(data []byte) (*ModelProto, error) {
	return internalonnx.Parse(data)
}

// NewGraph builds a Graph from a GraphProto and the opset imports that
// apply to it.
func NewGraph(proto *GraphProto, opsets []OperatorSetID) (*Graph, error) {
	return ir.FromProto(proto, opsets)
}

// LoadOptions configures model loading behavior.
type LoadOptions = model.LoadOptions

// DefaultLoadOptions returns the default options for loading ONNX models.
//
// Default configuration:
//   - Function inlining: enabled
//   - Opset conversion: disabled
//   - Schemas and adapters: the built-in registries
func DefaultLoadOptions() LoadOptions {
	return model.DefaultLoadOptions()
}

// Load loads an ONNX model from a file path.
//
// Example:
//
//	model, err := onnx.Load("resnet18.onnx")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println("Inputs:", model.InputNames())
//	fmt.Println("Opset:", model.OpsetVersion())
func Load(path string, opts ...LoadOptions) (Model, error) {
	m, err := model.Load(path, opts...)
	if m == nil {
		return nil, err
	}
	return m, err
}

// LoadFromBytes loads an ONNX model from raw bytes.
//
// Example:
//
//	modelBytes, _ := os.ReadFile("model.onnx")
//	model, err := onnx.LoadFromBytes(modelBytes)
func LoadFromBytes(data []byte, opts ...LoadOptions) (Model, error) {
	m, err := model.LoadFromBytes(data, opts...)
	if m == nil {
		return nil, err
	}
	return m, err
}

// ModelInfo contains metadata about an ONNX model without building its graph.
type ModelInfo = model.ModelInfo

// GetModelInfo extracts metadata from an ONNX file.
//
// Example:
//
//	info, err := onnx.GetModelInfo("model.onnx")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Producer: %s\n", info.ProducerName)
//	fmt.Printf("Functions: %v\n", info.Functions)
func GetModelInfo(path string) (*ModelInfo, error) {
	return model.GetModelInfo(path)
}

// ListSupportedOps returns the operators with a built-in schema.
func ListSupportedOps() []string {
	return schema.Default().SupportedOps()
}

// Schema describes one version of an operator.
type Schema = schema.Schema

// SchemaRegistry resolves operator schemas by type, version and domain.
type SchemaRegistry = schema.Registry

// DefaultSchemas returns the shared, read-only registry of built-in schemas.
func DefaultSchemas() *SchemaRegistry {
	return schema.Default()
}

// NewSchemaRegistry creates a registry layered over parent. A nil parent
// gives an empty standalone registry.
func NewSchemaRegistry(parent *SchemaRegistry) *SchemaRegistry {
	if parent == nil {
		return schema.NewRegistry()
	}
	return schema.NewLayered(parent)
}

// ExpandOptions configures function expansion.
type ExpandOptions = inline.ExpandOptions

// NodeAppender receives expanded nodes. *GraphProto, *FunctionProto and
// *Graph implement it.
type NodeAppender = inline.NodeAppender

// ExpandFunction expands call, a node invoking fn, appending the resulting
// nodes to target. On error nothing is appended.
func ExpandFunction(call *NodeProto, fn *FunctionProto, target NodeAppender, opts ...ExpandOptions) error {
	return inline.ExpandFunction(call, fn, target, opts...)
}

// FunctionBuilder accumulates a function body from inlined graphs.
type FunctionBuilder = inline.FunctionBuilder

// NewFunctionBuilder returns a builder appending to fn, or to a new
// function when fn is nil.
func NewFunctionBuilder(fn *FunctionProto) *FunctionBuilder {
	return inline.NewFunctionBuilder(fn)
}

// Renamer allocates collision-free names when copying nodes between scopes.
type Renamer = inline.Renamer

// NewRenamer creates a renamer whose fresh names start with prefix.
func NewRenamer(prefix string, reserved ...string) *Renamer {
	return inline.NewRenamer(prefix, reserved...)
}

// Adapter conversion types.
type (
	Adapter         = convert.Adapter
	OpSetID         = convert.OpSetID
	AdapterRegistry = convert.Registry
	ConvertOptions  = convert.ConvertOptions
	Converter       = convert.Converter
)

// DefaultAdapters returns the shared, read-only registry of built-in adapters.
func DefaultAdapters() *AdapterRegistry {
	return convert.DefaultRegistry()
}

// NewAdapterRegistry creates an empty adapter registry.
func NewAdapterRegistry() *AdapterRegistry {
	return convert.NewRegistry()
}

// NewAxesInputToAttribute creates an adapter that moves a constant axes
// input of opName into an "axes" attribute.
func NewAxesInputToAttribute(opName string, initial, target OpSetID) Adapter {
	return convert.NewAxesInputToAttribute(opName, initial, target)
}

// NewConverter creates a converter that migrates graphs between opset
// versions.
func NewConverter(opts ...ConvertOptions) *Converter {
	return convert.NewConverter(opts...)
}
