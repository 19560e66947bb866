// Package schema provides the operator schema registry consulted during
// function expansion.
//
// A schema describes one version of an operator: the opset version it was
// introduced in, its formal input/output arity and the default values of its
// optional attributes. Lookups follow ONNX versioning rules: the schema
// selected for (op type, version, domain) is the one with the greatest
// SinceVersion not exceeding the requested version.
//
// The process-wide table returned by [Default] is built once and is frozen;
// it may be shared by concurrent readers.
package schema
