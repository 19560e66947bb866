package onnx

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsDefaultDomain(t *testing.T) {
	assert.True(t, IsDefaultDomain(""))
	assert.True(t, IsDefaultDomain("ai.onnx"))
	assert.False(t, IsDefaultDomain("ai.onnx.ml"))
	assert.False(t, IsDefaultDomain("custom"))
}

func TestOpsetVersion(t *testing.T) {
	imports := []OperatorSetID{{Domain: "", Version: 13}, {Domain: "custom", Version: 1}, {Domain: "custom", Version: 2}}

	v, ok := OpsetVersion(imports, "")
	assert.True(t, ok)
	assert.Equal(t, int64(13), v)

	v, ok = OpsetVersion(imports, "custom")
	assert.True(t, ok)
	assert.Equal(t, int64(1), v, "first matching import wins")

	_, ok = OpsetVersion(imports, "other")
	assert.False(t, ok)
}

func TestNodeSetAttribute(t *testing.T) {
	n := NodeProto{OpType: "Squeeze"}
	n.SetAttribute(IntsAttr("axes", []int64{0}))
	n.SetAttribute(IntAttr("keepdims", 1))
	n.SetAttribute(IntsAttr("axes", []int64{1, 2}))

	require.Len(t, n.Attributes, 2)
	axes, ok := n.Attribute("axes")
	require.True(t, ok)
	assert.Equal(t, []int64{1, 2}, axes.Ints)
	assert.Equal(t, int32(AttributeProtoInts), axes.Type)

	_, ok = n.Attribute("missing")
	assert.False(t, ok)
}

func TestRefAttr(t *testing.T) {
	ref := RefAttr("alpha", "scale", AttributeProtoFloat)
	assert.True(t, ref.IsDeferred())

	concrete := FloatAttr("alpha", 1)
	assert.False(t, concrete.IsDeferred())
}

func TestCloneIsDeep(t *testing.T) {
	value := TensorProto{DataType: TensorProtoInt64, Dims: []int64{2}, Int64Data: []int64{0, 1}}
	body := GraphProto{Nodes: []NodeProto{{OpType: "Identity", Inputs: []string{"a"}, Outputs: []string{"b"}}}}
	n := NodeProto{
		OpType:  "If",
		Inputs:  []string{"cond"},
		Outputs: []string{"out"},
		Attributes: []AttributeProto{
			TensorAttr("value", &value),
			{Name: "then_branch", Type: AttributeProtoGraph, G: &body},
			StringAttr("mode", "constant"),
		},
	}

	c := n.Clone()
	c.Inputs[0] = "changed"
	c.Attributes[0].T.Int64Data[0] = 42
	c.Attributes[1].G.Nodes[0].Inputs[0] = "changed"
	c.Attributes[2].S[0] = 'X'

	assert.Equal(t, "cond", n.Inputs[0])
	assert.Equal(t, int64(0), n.Attributes[0].T.Int64Data[0])
	assert.Equal(t, "a", n.Attributes[1].G.Nodes[0].Inputs[0])
	assert.Equal(t, "constant", string(n.Attributes[2].S))
}

func TestTensorAttrCopies(t *testing.T) {
	value := TensorProto{Int64Data: []int64{1}}
	attr := TensorAttr("value", &value)
	value.Int64Data[0] = 5
	assert.Equal(t, []int64{1}, attr.T.Int64Data)
}

func TestNodeError(t *testing.T) {
	cause := errors.New("boom")
	err := WrapNodeError(&NodeProto{Name: "n1", OpType: "Foo", Domain: "custom"}, cause)

	assert.EqualError(t, err, "node n1 (custom::Foo): boom")
	assert.ErrorIs(t, err, cause)

	var nodeErr *NodeError
	require.ErrorAs(t, err, &nodeErr)
	assert.Equal(t, "Foo", nodeErr.OpType)

	err = WrapNodeError(&NodeProto{OpType: "Add"}, cause)
	assert.EqualError(t, err, "node <unnamed> (ai.onnx::Add): boom")

	assert.NoError(t, WrapNodeError(&NodeProto{}, nil))
}
