package node

// Patch is a declarative change to one node. Nil fields are left alone. A
// DockedTo or Error pointing at an empty string clears the value. Type and
// AssetID are not patchable.
type Patch struct {
	ID                 string
	Position           *Position
	Style              *Style
	Title              *string
	Collapsed          *bool
	DockedTo           *string
	State              *State
	Error              *string
	SetExecutionResult bool
	ExecutionResult    any
	HasProductHandle   *bool
	Extra              map[string]any
}

// Ptr is a small helper for building patches inline.
func Ptr[T any](v T) *T {
	return &v
}

// Apply returns a copy of n with p applied.
func Apply(n Node, p Patch) Node {
	out := n.Clone()
	if p.Position != nil {
		out.Position = *p.Position
	}
	if p.Style != nil {
		s := *p.Style
		out.Style = &s
	}
	if p.Title != nil {
		out.Data.Title = *p.Title
	}
	if p.Collapsed != nil {
		out.Data.Collapsed = *p.Collapsed
	}
	if p.DockedTo != nil {
		out.Data.DockedTo = *p.DockedTo
	}
	if p.State != nil {
		out.Data.State = *p.State
	}
	if p.Error != nil {
		out.Data.Error = *p.Error
	}
	if p.SetExecutionResult {
		out.Data.ExecutionResult = p.ExecutionResult
	}
	if p.HasProductHandle != nil {
		out.Data.HasProductHandle = *p.HasProductHandle
	}
	if len(p.Extra) > 0 {
		if out.Data.Extra == nil {
			out.Data.Extra = make(map[string]any, len(p.Extra))
		}
		for k, v := range p.Extra {
			out.Data.Extra[k] = v
		}
	}
	return out
}
