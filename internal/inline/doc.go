// Package inline flattens function calls and embedded graphs into an
// enclosing graph or function body.
//
// [ExpandFunction] replaces a call node with a copy of the called
// function's body, binding formal inputs and outputs to the call's actual
// names and resolving deferred attribute references against the call's
// attributes and the operator schema's defaults.
//
// [FunctionBuilder.AddInlinedCall] splices an arbitrary graph into a
// function body under a name prefix, turning the graph's initializers into
// Constant nodes.
//
// Both use a [Renamer] so that every name introduced into the target scope
// is unique there.
package inline
