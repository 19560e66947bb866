// Package onnx provides the ONNX protobuf message types and a decoder for
// .onnx model files.
//
// The decoder is hand-written and covers the subset of the ONNX schema used
// for graph rewriting:
//   - ModelProto: metadata, opset imports, the main graph and model-local functions
//   - GraphProto: nodes, inputs, outputs, value infos and initializers
//   - NodeProto: a single operator call with its attributes
//   - AttributeProto: scalar, list, tensor, sub-graph and deferred reference attributes
//   - FunctionProto: a named, reusable body of nodes with formal parameters
//   - TensorProto: initializer and constant data, typed or raw
//
// Example usage:
//
//	model, err := onnx.ParseFile("resnet50.onnx")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, fn := range model.Functions {
//	    fmt.Printf("function %s::%s with %d nodes\n", fn.Domain, fn.Name, len(fn.Nodes))
//	}
package onnx
