package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/synnia/internal/asset"
	"github.com/vk/synnia/internal/behavior"
	"github.com/vk/synnia/internal/node"
	"github.com/vk/synnia/internal/port"
)

func TestDefault(t *testing.T) {
	list := &asset.Asset{ID: "l", ValueType: asset.TypeArray, Value: []any{"a", "b"}}
	rec := &asset.Asset{ID: "r", ValueType: asset.TypeRecord, Value: map[string]any{"name": "Ada", "tags": []any{"x"}}}
	text := &asset.Asset{ID: "t", ValueType: asset.TypeText, Value: "draft"}

	testCases := []struct {
		name     string
		asset    *asset.Asset
		port     string
		expected *port.Value
	}{
		{"list on output", list, port.Output, &port.Value{Type: port.KindArray, Value: []any{"a", "b"}}},
		{"record on origin", rec, port.Origin, &port.Value{Type: port.KindJSON, Value: map[string]any{"name": "Ada", "tags": []any{"x"}}}},
		{"text on output", text, port.Output, &port.Value{Type: port.KindText, Value: "draft"}},
		{"record field", rec, "field:name", &port.Value{Type: port.KindText, Value: "Ada"}},
		{"record list field", rec, "field:tags", &port.Value{Type: port.KindArray, Value: []any{"x"}}},
		{"missing field", rec, "field:age", nil},
		{"field on non-record", text, "field:name", nil},
		{"unknown port", text, port.Trigger, nil},
		{"bare key is not a field port", rec, "name", nil},
		{"nil asset", nil, port.Output, nil},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Default(tc.asset, tc.port))
		})
	}
}

func TestDefault_IsIdempotent(t *testing.T) {
	rec := &asset.Asset{ID: "r", ValueType: asset.TypeRecord, Value: map[string]any{"k": []any{1.0}}}
	first := Default(rec, port.Output)
	second := Default(rec, port.Output)
	require.Equal(t, first, second)

	// Mutating a resolved value must not leak back into the asset.
	first.Value.(map[string]any)["k"] = "changed"
	assert.Equal(t, second, Default(rec, port.Output))
}

func TestResolve_BehaviorOverrideAndFallthrough(t *testing.T) {
	reg := behavior.NewRegistry()
	reg.Register(context.Background(), node.TypeImage, &behavior.Behavior{
		ResolveOutput: func(rc behavior.ResolveContext) (*port.Value, bool) {
			if rc.Port != port.Output {
				return nil, false
			}
			return &port.Value{Type: port.KindImage, Value: rc.Asset.Value}, true
		},
	})

	img := node.Node{ID: "i", Type: node.TypeImage}
	a := &asset.Asset{ID: "a", ValueType: asset.TypeImage, Value: "https://x/y.png"}

	v := Resolve(context.Background(), reg, nil, img, a, port.Output)
	assert.Equal(t, port.KindImage, v.Type)

	v = Resolve(context.Background(), reg, nil, img, a, port.Origin)
	assert.Equal(t, port.KindText, v.Type, "unhandled ports use the default resolution")
}
