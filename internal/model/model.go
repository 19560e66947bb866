package model

import (
	"slices"

	"github.com/bentheiii/onnx/internal/ir"
	"github.com/bentheiii/onnx/internal/onnx"
)

// Model is a parsed ONNX model whose main graph is held as an ir.Graph.
type Model struct {
	proto *onnx.ModelProto
	graph *ir.Graph
}

// Graph returns the model's graph. Changes made through it are reflected
// by Proto.
func (m *Model) Graph() *ir.Graph {
	return m.graph
}

// Proto returns a ModelProto carrying the current graph and opset imports.
// Nodes appended out of order are sorted topologically first. Model-local
// functions are omitted once their calls have been inlined.
func (m *Model) Proto() *onnx.ModelProto {
	m.graph.Sort()
	p := *m.proto
	p.Graph = m.graph.Proto()
	p.OpsetImport = m.graph.OpsetImports()
	p.MetadataProps = slices.Clone(m.proto.MetadataProps)
	if !m.hasCalls() {
		p.Functions = nil
	}
	return &p
}

func (m *Model) hasCalls() bool {
	for i := range m.proto.Functions {
		fn := &m.proto.Functions[i]
		for _, n := range m.graph.Nodes() {
			if n.OpType == fn.Name && n.Domain == fn.Domain {
				return true
			}
		}
	}
	return false
}

// InputNames returns the names of model inputs, excluding initializers.
func (m *Model) InputNames() []string {
	return inputNames(m.graph.InputNames(), m.graph.Initializers())
}

// OutputNames returns the names of model outputs.
func (m *Model) OutputNames() []string {
	return m.graph.OutputNames()
}

// OpsetVersion returns the default-domain opset version, or 0 if the model
// does not import it.
func (m *Model) OpsetVersion() int64 {
	v, _ := m.graph.OpsetVersion("")
	return v
}

// Metadata returns model metadata as key-value pairs.
func (m *Model) Metadata() map[string]string {
	meta := make(map[string]string)
	for _, prop := range m.proto.MetadataProps {
		meta[prop.Key] = prop.Value
	}
	meta["producer_name"] = m.proto.ProducerName
	meta["producer_version"] = m.proto.ProducerVersion
	meta["domain"] = m.proto.Domain
	return meta
}

func inputNames(inputs []string, initializers []onnx.TensorProto) []string {
	initNames := make(map[string]bool, len(initializers))
	for i := range initializers {
		initNames[initializers[i].Name] = true
	}
	names := make([]string, 0, len(inputs))
	for _, name := range inputs {
		if !initNames[name] {
			names = append(names, name)
		}
	}
	return names
}

// ModelInfo contains basic information about an ONNX model without
// building its graph.
type ModelInfo struct {
	IRVersion       int64
	OpsetVersion    int64
	ProducerName    string
	ProducerVersion string
	InputNames      []string
	OutputNames     []string
	NodeCount       int
	WeightCount     int
	Functions       []string
	Opsets          []onnx.OperatorSetID
}

// GetModelInfo extracts basic info from an ONNX file.
func GetModelInfo(path string) (*ModelInfo, error) {
	proto, err := onnx.ParseFile(path)
	if err != nil {
		return nil, err
	}
	return Info(proto), nil
}

// Info summarizes a parsed model.
func Info(proto *onnx.ModelProto) *ModelInfo {
	info := &ModelInfo{
		IRVersion:       proto.IRVersion,
		ProducerName:    proto.ProducerName,
		ProducerVersion: proto.ProducerVersion,
		Opsets:          slices.Clone(proto.OpsetImport),
	}
	info.OpsetVersion, _ = onnx.OpsetVersion(proto.OpsetImport, "")

	for i := range proto.Functions {
		fn := &proto.Functions[i]
		name := fn.Name
		if fn.Domain != "" {
			name = fn.Domain + "::" + fn.Name
		}
		info.Functions = append(info.Functions, name)
	}

	if g := proto.Graph; g != nil {
		info.InputNames = inputNames(g.InputNames(), g.Initializers)
		info.OutputNames = g.OutputNames()
		info.NodeCount = len(g.Nodes)
		info.WeightCount = len(g.Initializers)
	}
	return info
}
