package graph

import "errors"

var (
	ErrNodeNotFound  = errors.New("node not found")
	ErrAssetNotFound = errors.New("asset not found")
	ErrEdgeNotFound  = errors.New("edge not found")
	ErrInvalidNode   = errors.New("invalid node")
	ErrInvalidAsset  = errors.New("invalid asset")
)

// RejectionError is returned when a connection is refused. Nothing was
// mutated; Reason is meant to be shown to the user.
type RejectionError struct {
	Reason string
}

func (e *RejectionError) Error() string {
	return e.Reason
}
