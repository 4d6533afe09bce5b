package node

import "github.com/vk/synnia/internal/port"

// EdgeTypeOutput labels the edge from a recipe node to its latest product.
const EdgeTypeOutput = "output"

// Edge connects a source port to a target port.
type Edge struct {
	ID           string `json:"id"`
	Source       string `json:"source"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	Target       string `json:"target"`
	TargetHandle string `json:"targetHandle,omitempty"`
	Type         string `json:"type,omitempty"`
}

// SourcePort returns the source handle, defaulting to output.
func (e Edge) SourcePort() string {
	if e.SourceHandle == "" {
		return port.Output
	}
	return e.SourceHandle
}

// TargetPort returns the target handle, defaulting to origin.
func (e Edge) TargetPort() string {
	if e.TargetHandle == "" {
		return port.Origin
	}
	return e.TargetHandle
}

// IsOutput reports whether e links a recipe's product port to a product.
func (e Edge) IsOutput() bool {
	return e.Type == EdgeTypeOutput || (e.SourcePort() == port.Product && e.TargetPort() == port.Origin)
}
