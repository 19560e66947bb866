package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bentheiii/onnx/internal/onnx"
)

func TestDefaultRegistry(t *testing.T) {
	r := Default()
	assert.True(t, r.Frozen())

	essentialOps := []string{
		"Add", "Sub", "Mul", "Div", "MatMul",
		"Relu", "Sigmoid", "Tanh", "Softmax",
		"Reshape", "Transpose", "Squeeze", "Unsqueeze",
		"Identity", "Dropout", "Constant", "ReduceSum", "ReduceMean",
	}
	for _, opType := range essentialOps {
		_, err := r.Lookup(opType, 18, "")
		assert.NoError(t, err, opType)
	}
	assert.GreaterOrEqual(t, len(r.SupportedOps()), 30)
}

func TestLookupUnknown(t *testing.T) {
	_, err := Default().Lookup("UnknownOp", 13, "")
	require.ErrorIs(t, err, ErrSchemaNotFound)
	assert.Contains(t, err.Error(), "ai.onnx::UnknownOp version 13")
}

func TestLookupSelectsVersionInEffect(t *testing.T) {
	r := Default()

	tests := []struct {
		version int64
		since   int64
		axis    int64
	}{
		{1, 1, 1},
		{12, 1, 1},
		{13, 13, -1},
		{21, 13, -1},
	}
	for _, tt := range tests {
		s, err := r.Lookup("Softmax", tt.version, "")
		require.NoError(t, err)
		assert.Equal(t, tt.since, s.SinceVersion, "opset %d", tt.version)
		axis, ok := s.Default("axis")
		require.True(t, ok)
		assert.Equal(t, tt.axis, axis.I, "opset %d", tt.version)
	}

	_, err := r.Lookup("Gelu", 18, "")
	assert.ErrorIs(t, err, ErrSchemaNotFound, "Gelu predates its first version")
}

func TestLookupDefaultDomainAliases(t *testing.T) {
	s1, err := Default().Lookup("Squeeze", 13, "")
	require.NoError(t, err)
	s2, err := Default().Lookup("Squeeze", 13, onnx.DefaultDomain)
	require.NoError(t, err)
	assert.Same(t, s1, s2)
}

func TestRegisterReplacesSameVersion(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(
		&Schema{Domain: "com.example", OpType: "Scale", SinceVersion: 1, MinInputs: 1, MaxInputs: 1, MinOutputs: 1, MaxOutputs: 1,
			Attributes: []onnx.AttributeProto{onnx.FloatAttr("factor", 1)}},
		&Schema{Domain: "com.example", OpType: "Scale", SinceVersion: 1, MinInputs: 1, MaxInputs: 1, MinOutputs: 1, MaxOutputs: 1,
			Attributes: []onnx.AttributeProto{onnx.FloatAttr("factor", 2)}},
	)

	s, err := r.Lookup("Scale", 5, "com.example")
	require.NoError(t, err)
	factor, ok := s.Default("factor")
	require.True(t, ok)
	assert.InDelta(t, 2.0, factor.F, 1e-6)

	_, err = r.Lookup("Scale", 5, "")
	assert.ErrorIs(t, err, ErrSchemaNotFound, "domains are distinct")
}

func TestRegisterRejectsInvalid(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		name   string
		schema *Schema
	}{
		{"empty op type", &Schema{SinceVersion: 1}},
		{"zero version", &Schema{OpType: "X"}},
		{"inverted inputs", &Schema{OpType: "X", SinceVersion: 1, MinInputs: 2, MaxInputs: 1}},
		{"inverted outputs", &Schema{OpType: "X", SinceVersion: 1, MinOutputs: 2, MaxOutputs: 1}},
		{"duplicate attribute", &Schema{OpType: "X", SinceVersion: 1,
			Attributes: []onnx.AttributeProto{onnx.IntAttr("a", 1), onnx.IntAttr("a", 2)}}},
		{"deferred default", &Schema{OpType: "X", SinceVersion: 1,
			Attributes: []onnx.AttributeProto{onnx.RefAttr("a", "b", onnx.AttributeProtoInt)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, r.Register(tt.schema), ErrInvalidSchema)
		})
	}
}

func TestFrozenRegistry(t *testing.T) {
	err := Default().Register(&Schema{OpType: "MyCustomOp", SinceVersion: 1})
	assert.ErrorIs(t, err, ErrFrozen)

	assert.Panics(t, func() {
		Default().MustRegister(&Schema{OpType: "MyCustomOp", SinceVersion: 1})
	})
}

func TestLayeredRegistry(t *testing.T) {
	r := NewLayered(Default())
	require.NoError(t, r.Register(&Schema{OpType: "Softmax", SinceVersion: 13, MinInputs: 1, MaxInputs: 1, MinOutputs: 1, MaxOutputs: 1,
		Attributes: []onnx.AttributeProto{onnx.IntAttr("axis", 0)}}))
	require.NoError(t, r.Register(&Schema{Domain: "custom", OpType: "MyCustomOp", SinceVersion: 1}))

	s, err := r.Lookup("Softmax", 13, "")
	require.NoError(t, err)
	axis, _ := s.Default("axis")
	assert.Equal(t, int64(0), axis.I, "local schema shadows parent")

	s, err = r.Lookup("Softmax", 12, "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), s.SinceVersion, "older versions still come from parent")

	_, err = r.Lookup("MyCustomOp", 1, "custom")
	assert.NoError(t, err)
	_, err = Default().Lookup("MyCustomOp", 1, "custom")
	assert.ErrorIs(t, err, ErrSchemaNotFound, "parent is untouched")

	assert.Contains(t, r.SupportedOps(), "custom::MyCustomOp")
	assert.Contains(t, r.SupportedOps(), "Relu")
}

func TestSchemaArity(t *testing.T) {
	s, err := Default().Lookup("Concat", 13, "")
	require.NoError(t, err)
	assert.False(t, s.AcceptsInputs(0))
	assert.True(t, s.AcceptsInputs(1))
	assert.True(t, s.AcceptsInputs(100))
	assert.True(t, s.AcceptsOutputs(1))
	assert.False(t, s.AcceptsOutputs(2))
	assert.Equal(t, "ai.onnx::Concat-13", s.String())
}

func TestFromFunction(t *testing.T) {
	fn := &onnx.FunctionProto{
		Name:       "Foo",
		Domain:     "custom",
		Inputs:     []string{"x", "y"},
		Outputs:    []string{"z"},
		Attributes: []string{"scale"},
		AttributeProtos: []onnx.AttributeProto{
			onnx.IntAttr("bias", 4),
		},
	}

	s := FromFunction(fn, 1)
	assert.Equal(t, "custom::Foo-1", s.String())
	assert.True(t, s.AcceptsInputs(0))
	assert.True(t, s.AcceptsInputs(2))
	assert.False(t, s.AcceptsInputs(3))

	bias, ok := s.Default("bias")
	require.True(t, ok)
	assert.Equal(t, int64(4), bias.I)
	_, ok = s.Default("scale")
	assert.False(t, ok, "attributes without a default are not listed")

	fn.AttributeProtos[0].I = 9
	assert.Equal(t, int64(4), bias.I, "defaults are copied")
}
