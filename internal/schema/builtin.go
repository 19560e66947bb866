package schema

import "github.com/bentheiii/onnx/internal/onnx"

// registerBuiltins adds the standard operator schemas known to the engine.
func (r *Registry) registerBuiltins() {
	r.registerMathOps()
	r.registerActivations()
	r.registerShapeOps()
	r.registerReduceOps()
	r.registerUtilityOps()
	r.registerFunctionOps()
}

// op builds a schema in the default domain.
func op(opType string, since int64, minIn, maxIn, minOut, maxOut int, attrs ...onnx.AttributeProto) *Schema {
	return &Schema{
		OpType:       opType,
		SinceVersion: since,
		MinInputs:    minIn,
		MaxInputs:    maxIn,
		MinOutputs:   minOut,
		MaxOutputs:   maxOut,
		Attributes:   attrs,
	}
}

func (r *Registry) registerMathOps() {
	for _, name := range []string{"Add", "Sub", "Mul", "Div"} {
		r.MustRegister(op(name, 7, 2, 2, 1, 1), op(name, 13, 2, 2, 1, 1), op(name, 14, 2, 2, 1, 1))
	}
	r.MustRegister(
		op("MatMul", 13, 2, 2, 1, 1),
		op("Gemm", 13, 2, 3, 1, 1,
			onnx.FloatAttr("alpha", 1.0),
			onnx.FloatAttr("beta", 1.0),
			onnx.IntAttr("transA", 0),
			onnx.IntAttr("transB", 0),
		),
		op("Sqrt", 13, 1, 1, 1, 1),
		op("Exp", 13, 1, 1, 1, 1),
		op("Log", 13, 1, 1, 1, 1),
		op("Pow", 15, 2, 2, 1, 1),
		op("Sum", 13, 1, Unbounded, 1, 1),
	)
}

func (r *Registry) registerActivations() {
	r.MustRegister(
		op("Relu", 14, 1, 1, 1, 1),
		op("Sigmoid", 13, 1, 1, 1, 1),
		op("Tanh", 13, 1, 1, 1, 1),
		op("LeakyRelu", 16, 1, 1, 1, 1, onnx.FloatAttr("alpha", 0.01)),
		op("Softmax", 1, 1, 1, 1, 1, onnx.IntAttr("axis", 1)),
		op("Softmax", 13, 1, 1, 1, 1, onnx.IntAttr("axis", -1)),
		op("Clip", 13, 1, 3, 1, 1),
	)
}

func (r *Registry) registerShapeOps() {
	r.MustRegister(
		op("Squeeze", 1, 1, 1, 1, 1),
		op("Squeeze", 11, 1, 1, 1, 1),
		op("Squeeze", 13, 1, 2, 1, 1),
		op("Unsqueeze", 1, 1, 1, 1, 1),
		op("Unsqueeze", 11, 1, 1, 1, 1),
		op("Unsqueeze", 13, 2, 2, 1, 1),
		op("Reshape", 14, 2, 2, 1, 1, onnx.IntAttr("allowzero", 0)),
		op("Transpose", 13, 1, 1, 1, 1),
		op("Flatten", 13, 1, 1, 1, 1, onnx.IntAttr("axis", 1)),
		op("Concat", 13, 1, Unbounded, 1, 1),
		op("Shape", 15, 1, 1, 1, 1, onnx.IntAttr("start", 0)),
	)
}

// registerReduceOps registers the reductions. Opset 13 moved ReduceSum's
// axes from an attribute to an input; opset 18 did the same for the rest.
func (r *Registry) registerReduceOps() {
	keepdims := onnx.IntAttr("keepdims", 1)
	noopEmptyAxes := onnx.IntAttr("noop_with_empty_axes", 0)

	r.MustRegister(
		op("ReduceSum", 1, 1, 1, 1, 1, keepdims),
		op("ReduceSum", 11, 1, 1, 1, 1, keepdims),
		op("ReduceSum", 13, 1, 2, 1, 1, keepdims, noopEmptyAxes),
	)
	for _, name := range []string{
		"ReduceMax", "ReduceMean", "ReduceMin", "ReduceProd", "ReduceL1",
		"ReduceL2", "ReduceLogSum", "ReduceLogSumExp", "ReduceSumSquare",
	} {
		r.MustRegister(
			op(name, 1, 1, 1, 1, 1, keepdims),
			op(name, 11, 1, 1, 1, 1, keepdims),
			op(name, 13, 1, 1, 1, 1, keepdims),
			op(name, 18, 1, 2, 1, 1, keepdims, noopEmptyAxes),
		)
	}
}

func (r *Registry) registerUtilityOps() {
	r.MustRegister(
		op("Constant", 13, 0, 0, 1, 1),
		op("Identity", 16, 1, 1, 1, 1),
		op("Cast", 13, 1, 1, 1, 1),
		op("Dropout", 13, 1, 3, 1, 2),
		op("Where", 16, 3, 3, 1, 1),
	)
}

// registerFunctionOps registers operators whose standard definition is a
// function body and which are therefore candidates for expansion.
func (r *Registry) registerFunctionOps() {
	r.MustRegister(
		op("Celu", 12, 1, 1, 1, 1, onnx.FloatAttr("alpha", 1.0)),
		op("Gelu", 20, 1, 1, 1, 1, onnx.StringAttr("approximate", "none")),
		op("HardSwish", 14, 1, 1, 1, 1),
		op("LayerNormalization", 17, 2, 3, 1, 3,
			onnx.IntAttr("axis", -1),
			onnx.FloatAttr("epsilon", 1e-5),
			onnx.IntAttr("stash_type", 1),
		),
		op("MeanVarianceNormalization", 13, 1, 1, 1, 1, onnx.IntsAttr("axes", []int64{0, 2, 3})),
		op("Mish", 18, 1, 1, 1, 1),
	)
}
