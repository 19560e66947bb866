package inline

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/bentheiii/onnx/internal/onnx"
	"github.com/bentheiii/onnx/internal/schema"
)

// NodeAppender receives the nodes produced by an expansion.
// *onnx.GraphProto, *onnx.FunctionProto and *ir.Graph implement it.
type NodeAppender interface {
	AddNode(node onnx.NodeProto)
}

// SchemaSource resolves operator schemas. *schema.Registry implements it.
type SchemaSource interface {
	Lookup(opType string, version int64, domain string) (*schema.Schema, error)
}

// ExpandOptions configures function expansion.
type ExpandOptions struct {
	// Prefix disambiguates internal names of an unnamed call node. When
	// empty a random prefix is generated per expansion.
	Prefix string

	// Schemas supplies attribute defaults (default: schema.Default()).
	Schemas SchemaSource

	// Logger receives debug records (default: discarded).
	Logger *slog.Logger
}

// DefaultExpandOptions returns default expansion options.
func DefaultExpandOptions() ExpandOptions {
	return ExpandOptions{
		Schemas: schema.Default(),
		Logger:  discardLogger(),
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ExpandFunction expands call, a node invoking fn, and appends the resulting
// nodes to target in body order. On error nothing is appended.
//
// Example:
//
//	err := inline.ExpandFunction(&graph.Nodes[i], fn, expanded)
//	if err != nil {
//	    return err
//	}
func ExpandFunction(call *onnx.NodeProto, fn *onnx.FunctionProto, target NodeAppender, opts ...ExpandOptions) error {
	opt := DefaultExpandOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}

	nodes, err := Expand(call, fn, opt)
	if err != nil {
		return err
	}
	for i := range nodes {
		target.AddNode(nodes[i])
	}
	return nil
}

// Expand returns the nodes that replace call without appending them
// anywhere. fn is only read.
func Expand(call *onnx.NodeProto, fn *onnx.FunctionProto, opt ExpandOptions) ([]onnx.NodeProto, error) {
	if opt.Schemas == nil {
		opt.Schemas = schema.Default()
	}
	if opt.Logger == nil {
		opt.Logger = discardLogger()
	}

	prefix := opt.Prefix
	if prefix == "" {
		prefix = uuid.NewString()
	}
	nodeName := call.Name
	if nodeName == "" {
		nodeName = fn.Name + prefix
	}

	names, err := bindArguments(call, fn)
	if err != nil {
		return nil, onnx.WrapNodeError(call, err)
	}
	attrs, err := callAttributes(call, fn, opt.Schemas)
	if err != nil {
		return nil, onnx.WrapNodeError(call, err)
	}

	rename := func(name string) string {
		if name == "" {
			return ""
		}
		if actual, ok := names[name]; ok {
			return actual
		}
		return internalName(nodeName, name)
	}

	nodes := make([]onnx.NodeProto, 0, len(fn.Nodes))
	for i := range fn.Nodes {
		body := &fn.Nodes[i]
		node := onnx.NodeProto{
			Name:      body.Name,
			OpType:    body.OpType,
			Domain:    body.Domain,
			DocString: body.DocString,
			Inputs:    make([]string, len(body.Inputs)),
			Outputs:   make([]string, len(body.Outputs)),
		}
		for j, in := range body.Inputs {
			node.Inputs[j] = rename(in)
		}
		for j, out := range body.Outputs {
			node.Outputs[j] = rename(out)
		}
		for j := range body.Attributes {
			attr := &body.Attributes[j]
			if !attr.IsDeferred() {
				node.Attributes = append(node.Attributes, attr.Clone())
				continue
			}
			value, ok := attrs[attr.RefAttrName]
			if !ok {
				// Optional attribute left unset by the call and without a default.
				opt.Logger.Debug("dropping unresolved attribute reference",
					"function", fn.Name, "node", nodeName,
					"attribute", attr.Name, "ref", attr.RefAttrName)
				continue
			}
			resolved := value.Clone()
			resolved.Name = attr.Name
			node.Attributes = append(node.Attributes, resolved)
		}
		nodes = append(nodes, node)
	}

	opt.Logger.Debug("expanded function call",
		"function", fn.Name, "domain", fn.Domain, "node", nodeName, "nodes", len(nodes))
	return nodes, nil
}

// bindArguments maps formal input and output names to the call's actual
// names. An empty actual output leaves the formal unbound so the body can
// still use it as an intermediate value.
func bindArguments(call *onnx.NodeProto, fn *onnx.FunctionProto) (map[string]string, error) {
	if len(call.Inputs) > len(fn.Inputs) {
		return nil, fmt.Errorf("%w: %d inputs given, function %s declares %d",
			ErrArity, len(call.Inputs), fn.Name, len(fn.Inputs))
	}
	if len(call.Outputs) > len(fn.Outputs) {
		return nil, fmt.Errorf("%w: %d outputs given, function %s declares %d",
			ErrArity, len(call.Outputs), fn.Name, len(fn.Outputs))
	}

	names := make(map[string]string, len(call.Inputs)+len(call.Outputs))
	for i, actual := range call.Inputs {
		names[fn.Inputs[i]] = actual
	}
	for i, actual := range call.Outputs {
		if actual == "" {
			continue
		}
		names[fn.Outputs[i]] = actual
	}
	return names, nil
}

// callAttributes collects the call's attributes and fills in schema
// defaults for the ones it does not set.
func callAttributes(call *onnx.NodeProto, fn *onnx.FunctionProto, schemas SchemaSource) (map[string]onnx.AttributeProto, error) {
	attrs := make(map[string]onnx.AttributeProto, len(call.Attributes))
	for i := range call.Attributes {
		attrs[call.Attributes[i].Name] = call.Attributes[i]
	}

	version, ok := onnx.OpsetVersion(fn.OpsetImport, call.Domain)
	if !ok {
		return nil, fmt.Errorf("%w: domain %q in function %s", ErrUnresolvedOpset, call.Domain, fn.Name)
	}
	s, err := schemas.Lookup(call.OpType, version, call.Domain)
	if err != nil {
		return nil, err
	}
	for i := range s.Attributes {
		def := &s.Attributes[i]
		if _, set := attrs[def.Name]; !set {
			attrs[def.Name] = *def
		}
	}
	return attrs, nil
}

// internalName names a function-local value at a particular call site.
func internalName(nodeName, name string) string {
	return nodeName + "/" + name
}
