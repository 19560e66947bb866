package onnx

import "fmt"

// NodeError attaches the identity of the offending node to an error so
// callers can report which node of a model failed.
type NodeError struct {
	Node   string // Node name (may be empty)
	OpType string
	Domain string
	Err    error
}

// Error implements error.
func (e *NodeError) Error() string {
	domain := e.Domain
	if domain == "" {
		domain = DefaultDomain
	}
	if e.Node == "" {
		return fmt.Sprintf("node <unnamed> (%s::%s): %v", domain, e.OpType, e.Err)
	}
	return fmt.Sprintf("node %s (%s::%s): %v", e.Node, domain, e.OpType, e.Err)
}

// Unwrap returns the underlying error.
func (e *NodeError) Unwrap() error {
	return e.Err
}

// WrapNodeError wraps err with the identity of node. A nil err stays nil.
func WrapNodeError(node *NodeProto, err error) error {
	if err == nil {
		return nil
	}
	return &NodeError{Node: node.Name, OpType: node.OpType, Domain: node.Domain, Err: err}
}
