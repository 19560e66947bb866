package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bentheiii/onnx/internal/convert"
	"github.com/bentheiii/onnx/internal/ir"
	"github.com/bentheiii/onnx/internal/onnx"
)

const fooModel = "testdata/foo.onnx"

func TestLoad(t *testing.T) {
	m, err := Load(fooModel)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, m.InputNames())
	assert.Equal(t, []string{"d"}, m.OutputNames())
	assert.Equal(t, int64(13), m.OpsetVersion())

	nodes := m.Graph().Nodes()
	require.Len(t, nodes, 4)
	assert.Equal(t, "Add", nodes[0].OpType, "Foo call is inlined")
	assert.Equal(t, []string{"a", "b"}, nodes[0].Inputs())
	assert.Equal(t, []string{"c"}, nodes[0].Outputs())
	assert.Empty(t, m.Proto().Functions, "inlined functions are dropped")
}

func TestLoadWithoutInlining(t *testing.T) {
	m, err := Load(fooModel, LoadOptions{})
	require.NoError(t, err)

	nodes := m.Graph().Nodes()
	require.Len(t, nodes, 4)
	assert.Equal(t, "Foo", nodes[0].OpType)
	assert.Equal(t, "custom", nodes[0].Domain)
	assert.Len(t, m.Proto().Functions, 1)
}

func TestLoadAndConvert(t *testing.T) {
	opt := DefaultLoadOptions()
	opt.TargetOpset = 12
	m, err := Load(fooModel, opt)
	require.NoError(t, err)

	assert.Equal(t, int64(12), m.OpsetVersion())
	proto := m.Proto()
	assert.Equal(t, []onnx.OperatorSetID{{Version: 12}, {Domain: "custom", Version: 1}}, proto.OpsetImport)
	require.Len(t, proto.Graph.Nodes, 3)

	gold := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	gold.Assert(t, "foo_opset12", []byte(m.Graph().String()))
}

func TestLoadFromBytes(t *testing.T) {
	data, err := os.ReadFile(fooModel)
	require.NoError(t, err)

	m, err := LoadFromBytes(data)
	require.NoError(t, err)
	assert.Equal(t, 4, m.Graph().NumNodes())

	_, err = LoadFromBytes(data[:len(data)/2])
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.onnx"))
	assert.Error(t, err)
}

func TestMetadata(t *testing.T) {
	m, err := Load(fooModel)
	require.NoError(t, err)

	meta := m.Metadata()
	assert.Equal(t, "test", meta["author"])
	assert.Equal(t, "onnxir-test", meta["producer_name"])
	assert.Equal(t, "1.0", meta["producer_version"])
	assert.Equal(t, "com.example", meta["domain"])
}

func TestGetModelInfo(t *testing.T) {
	info, err := GetModelInfo(fooModel)
	require.NoError(t, err)

	assert.Equal(t, int64(8), info.IRVersion)
	assert.Equal(t, int64(13), info.OpsetVersion)
	assert.Equal(t, "onnxir-test", info.ProducerName)
	assert.Equal(t, []string{"a", "b"}, info.InputNames)
	assert.Equal(t, []string{"d"}, info.OutputNames)
	assert.Equal(t, 4, info.NodeCount)
	assert.Equal(t, 0, info.WeightCount)
	assert.Equal(t, []string{"custom::Foo"}, info.Functions)
}

func addFunction() onnx.FunctionProto {
	return onnx.FunctionProto{
		Name:        "Foo",
		Domain:      "custom",
		Inputs:      []string{"x", "y"},
		Outputs:     []string{"z"},
		Nodes:       []onnx.NodeProto{{OpType: "Add", Inputs: []string{"x", "y"}, Outputs: []string{"z"}}},
		OpsetImport: []onnx.OperatorSetID{{Version: 13}},
	}
}

func TestInlineNestedFunctions(t *testing.T) {
	bar := onnx.FunctionProto{
		Name:    "Bar",
		Domain:  "custom",
		Inputs:  []string{"x"},
		Outputs: []string{"y"},
		Nodes: []onnx.NodeProto{
			{OpType: "Foo", Domain: "custom", Inputs: []string{"x", "x"}, Outputs: []string{"t"}},
			{OpType: "Relu", Inputs: []string{"t"}, Outputs: []string{"y"}},
		},
		OpsetImport: []onnx.OperatorSetID{{Version: 13}, {Domain: "custom", Version: 1}},
	}
	proto := &onnx.ModelProto{
		OpsetImport: []onnx.OperatorSetID{{Version: 13}, {Domain: "custom", Version: 1}},
		Graph: &onnx.GraphProto{
			Name:    "main",
			Inputs:  []onnx.ValueInfoProto{{Name: "a"}},
			Outputs: []onnx.ValueInfoProto{{Name: "b"}},
			Nodes:   []onnx.NodeProto{{Name: "call", OpType: "Bar", Domain: "custom", Inputs: []string{"a"}, Outputs: []string{"b"}}},
		},
		Functions: []onnx.FunctionProto{addFunction(), bar},
	}

	m, err := LoadFromProto(proto, DefaultLoadOptions())
	require.NoError(t, err)

	nodes := m.Graph().Nodes()
	require.Len(t, nodes, 2)
	assert.Equal(t, "Add", nodes[0].OpType)
	assert.Equal(t, []string{"a", "a"}, nodes[0].Inputs())
	assert.Equal(t, []string{"call/t"}, nodes[0].Outputs())
	assert.Equal(t, "Relu", nodes[1].OpType)
	assert.Equal(t, []string{"b"}, nodes[1].Outputs())
	assert.NoError(t, m.Graph().Validate())

	assert.Equal(t, "Bar", proto.Graph.Nodes[0].OpType, "the parsed model is not modified")
}

func TestInlineNamedNestedCallTwice(t *testing.T) {
	baz := onnx.FunctionProto{
		Name:    "Baz",
		Domain:  "custom",
		Inputs:  []string{"x"},
		Outputs: []string{"y"},
		Nodes: []onnx.NodeProto{
			{OpType: "Relu", Inputs: []string{"x"}, Outputs: []string{"s"}},
			{OpType: "Relu", Inputs: []string{"s"}, Outputs: []string{"y"}},
		},
		OpsetImport: []onnx.OperatorSetID{{Version: 13}},
	}
	bar := onnx.FunctionProto{
		Name:    "Bar",
		Domain:  "custom",
		Inputs:  []string{"x"},
		Outputs: []string{"y"},
		Nodes: []onnx.NodeProto{
			{Name: "inner", OpType: "Baz", Domain: "custom", Inputs: []string{"x"}, Outputs: []string{"y"}},
		},
		OpsetImport: []onnx.OperatorSetID{{Domain: "custom", Version: 1}},
	}
	proto := &onnx.ModelProto{
		OpsetImport: []onnx.OperatorSetID{{Version: 13}, {Domain: "custom", Version: 1}},
		Graph: &onnx.GraphProto{
			Name:    "main",
			Inputs:  []onnx.ValueInfoProto{{Name: "a"}},
			Outputs: []onnx.ValueInfoProto{{Name: "c"}},
			Nodes: []onnx.NodeProto{
				{Name: "call1", OpType: "Bar", Domain: "custom", Inputs: []string{"a"}, Outputs: []string{"b"}},
				{Name: "call2", OpType: "Bar", Domain: "custom", Inputs: []string{"b"}, Outputs: []string{"c"}},
			},
		},
		Functions: []onnx.FunctionProto{baz, bar},
	}

	m, err := LoadFromProto(proto, DefaultLoadOptions())
	require.NoError(t, err)

	nodes := m.Graph().Nodes()
	require.Len(t, nodes, 4)
	assert.Equal(t, []string{"call1/inner/s"}, nodes[0].Outputs())
	assert.Equal(t, []string{"call1/inner/s"}, nodes[1].Inputs())
	assert.Equal(t, []string{"b"}, nodes[1].Outputs())
	assert.Equal(t, []string{"b"}, nodes[2].Inputs())
	assert.Equal(t, []string{"call2/inner/s"}, nodes[2].Outputs())
	assert.Equal(t, []string{"c"}, nodes[3].Outputs())
	assert.NoError(t, m.Graph().Validate())
}

func TestInlineScopesNodeNames(t *testing.T) {
	m, err := Load(fooModel)
	require.NoError(t, err)
	assert.Equal(t, "n1/add", m.Graph().Nodes()[0].Name)
}

func TestInlineRecursiveFunction(t *testing.T) {
	rec := onnx.FunctionProto{
		Name:        "Rec",
		Domain:      "custom",
		Inputs:      []string{"x"},
		Outputs:     []string{"y"},
		Nodes:       []onnx.NodeProto{{OpType: "Rec", Domain: "custom", Inputs: []string{"x"}, Outputs: []string{"y"}}},
		OpsetImport: []onnx.OperatorSetID{{Domain: "custom", Version: 1}},
	}
	proto := &onnx.ModelProto{
		Graph: &onnx.GraphProto{
			Nodes: []onnx.NodeProto{{OpType: "Rec", Domain: "custom", Inputs: []string{"a"}, Outputs: []string{"b"}}},
		},
		Functions: []onnx.FunctionProto{rec},
	}

	_, err := LoadFromProto(proto, DefaultLoadOptions())
	assert.ErrorIs(t, err, ErrRecursiveFunction)
}

func TestLoadNoGraph(t *testing.T) {
	_, err := LoadFromProto(&onnx.ModelProto{}, DefaultLoadOptions())
	assert.ErrorIs(t, err, ErrNoGraph)
}

func TestLoadConversionFailure(t *testing.T) {
	proto := &onnx.ModelProto{
		OpsetImport: []onnx.OperatorSetID{{Version: 13}},
		Graph: &onnx.GraphProto{
			Inputs: []onnx.ValueInfoProto{{Name: "x"}, {Name: "axes"}},
			Nodes:  []onnx.NodeProto{{Name: "sq", OpType: "Squeeze", Inputs: []string{"x", "axes"}, Outputs: []string{"y"}}},
		},
	}
	opt := DefaultLoadOptions()
	opt.TargetOpset = 12

	m, err := LoadFromProto(proto, opt)
	require.ErrorIs(t, err, convert.ErrUnresolvedAxes)
	require.NotNil(t, m, "the partially converted model is still returned")
	assert.Equal(t, int64(12), m.OpsetVersion())
}

func TestLoadRejectsInitializerOutput(t *testing.T) {
	proto := &onnx.ModelProto{
		OpsetImport: []onnx.OperatorSetID{{Version: 13}},
		Graph: &onnx.GraphProto{
			Initializers: []onnx.TensorProto{{Name: "w", Int64Data: []int64{1}}},
			Nodes:        []onnx.NodeProto{{OpType: "Relu", Inputs: []string{"x"}, Outputs: []string{"w"}}},
		},
	}
	_, err := LoadFromProto(proto, DefaultLoadOptions())
	assert.ErrorIs(t, err, ir.ErrDuplicateValue)
}

func TestProtoSortsNodes(t *testing.T) {
	proto := &onnx.ModelProto{
		OpsetImport: []onnx.OperatorSetID{{Version: 13}},
		Graph: &onnx.GraphProto{
			Nodes: []onnx.NodeProto{{Name: "second", OpType: "Relu", Inputs: []string{"h"}, Outputs: []string{"y"}}},
		},
	}
	m, err := LoadFromProto(proto, DefaultLoadOptions())
	require.NoError(t, err)

	m.Graph().AddNode(onnx.NodeProto{Name: "first", OpType: "Relu", Inputs: []string{"x"}, Outputs: []string{"h"}})

	nodes := m.Proto().Graph.Nodes
	require.Len(t, nodes, 2)
	assert.Equal(t, "first", nodes[0].Name)
	assert.Equal(t, "second", nodes[1].Name)
}
