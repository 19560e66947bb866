package onnx

import "github.com/bentheiii/onnx/internal/model"

// Model is a loaded ONNX model whose graph is ready for rewriting.
//
// This interface hides the internal implementation and allows for:
//   - Easy mocking in tests
//   - Decoupling from internal package structure
type Model interface {
	// Graph returns the model's main graph. Rewrites made through it are
	// reflected by Proto.
	Graph() *Graph

	// Proto returns the model with its current graph and opset imports.
	Proto() *ModelProto

	// InputNames returns the names of model inputs, excluding initializers.
	InputNames() []string

	// OutputNames returns the names of model outputs.
	OutputNames() []string

	// OpsetVersion returns the default-domain opset version.
	OpsetVersion() int64

	// Metadata returns model metadata as key-value pairs.
	//
	// Common metadata keys:
	//   - "producer_name": Framework that exported the model (e.g., "pytorch")
	//   - "producer_version": Version of the exporter
	//   - "domain": Domain of the model (usually "")
	//   - Custom keys from model.metadata_props
	Metadata() map[string]string
}

var _ Model = (*model.Model)(nil)
