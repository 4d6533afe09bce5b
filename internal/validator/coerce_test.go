package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/synnia/internal/port"
	"github.com/vk/synnia/internal/schema"
)

func field(key string, typ schema.FieldType, requiredKeys ...string) *schema.Field {
	return &schema.Field{Key: key, Type: typ, RequiredKeys: requiredKeys}
}

func TestCoerce_Table(t *testing.T) {
	person := map[string]any{"name": "Ada"}

	testCases := []struct {
		name       string
		field      *schema.Field
		src        *port.Value
		compatible bool
		value      any
		warnings   int
	}{
		{
			name:       "object from list takes the first element",
			field:      field("person", schema.TypeObject),
			src:        port.New([]any{person, map[string]any{"name": "Bob"}}),
			compatible: true,
			value:      person,
		},
		{
			name:  "object from list of text is incompatible",
			field: field("person", schema.TypeObject),
			src:   port.New([]any{"a", "b"}),
		},
		{
			name:       "object from object warns on missing keys",
			field:      field("person", schema.TypeObject, "name", "age"),
			src:        port.New(person),
			compatible: true,
			value:      person,
			warnings:   1,
		},
		{
			name:  "object from text is incompatible",
			field: field("person", schema.TypeObject),
			src:   port.New("Ada"),
		},
		{
			name:       "array from array",
			field:      field("items", schema.TypeArray),
			src:        port.New([]any{1.0, 2.0}),
			compatible: true,
			value:      []any{1.0, 2.0},
		},
		{
			name:       "array from object wraps",
			field:      field("items", schema.TypeArray),
			src:        port.New(person),
			compatible: true,
			value:      []any{person},
		},
		{
			name:  "array from text is incompatible",
			field: field("items", schema.TypeArray),
			src:   port.New("x"),
		},
		{
			name:       "number from numeric text",
			field:      field("count", schema.TypeNumber),
			src:        port.New("42"),
			compatible: true,
			value:      42.0,
		},
		{
			name:  "number from non-numeric text is incompatible",
			field: field("count", schema.TypeNumber),
			src:   port.New("abc"),
		},
		{
			name:  "number from empty text is incompatible",
			field: field("count", schema.TypeNumber),
			src:   port.New(""),
		},
		{
			name:       "number from boolean",
			field:      field("count", schema.TypeNumber),
			src:        port.New(true),
			compatible: true,
			value:      1.0,
		},
		{
			name:       "string from number",
			field:      field("label", schema.TypeString),
			src:        port.New(3.0),
			compatible: true,
			value:      "3",
		},
		{
			name:       "string from object encodes json",
			field:      field("label", schema.TypeString),
			src:        port.New(person),
			compatible: true,
			value:      `{"name":"Ada"}`,
		},
		{
			name:       "boolean from text",
			field:      field("flag", schema.TypeBoolean),
			src:        port.New("false"),
			compatible: true,
			value:      false,
		},
		{
			name:       "boolean from arbitrary text is truthy",
			field:      field("flag", schema.TypeBoolean),
			src:        port.New("yes please"),
			compatible: true,
			value:      true,
		},
		{
			name:       "any passes through",
			field:      field("whatever", schema.TypeAny),
			src:        port.New(person),
			compatible: true,
			value:      person,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res := Coerce(tc.field, tc.src, port.Field(tc.field.Key))
			require.Equal(t, tc.compatible, res.Compatible, "reason: %s", res.Reason)
			if !tc.compatible {
				assert.NotEmpty(t, res.Reason)
				return
			}
			assert.True(t, res.HasValue)
			assert.Equal(t, tc.value, res.Value)
			assert.Len(t, res.Warnings, tc.warnings)
		})
	}
}

func TestCoerce_ReservedPortsBypass(t *testing.T) {
	res := Coerce(field("x", schema.TypeNumber), port.New("abc"), port.Trigger)
	assert.True(t, res.Compatible)
	assert.Equal(t, "abc", res.Value)
}

func TestCoerce_NilSourceIsNotAnError(t *testing.T) {
	res := Coerce(field("x", schema.TypeNumber), nil, "field:x")
	assert.True(t, res.Compatible)
	assert.False(t, res.HasValue)
}

func TestCoerce_LegacyFallback(t *testing.T) {
	t.Run("from first list element", func(t *testing.T) {
		res := Coerce(nil, port.New([]any{map[string]any{"topic": "cats"}}), "field:topic")
		assert.Equal(t, "cats", res.Value)
	})
	t.Run("from object", func(t *testing.T) {
		res := Coerce(nil, port.New(map[string]any{"topic": "dogs"}), "topic")
		assert.Equal(t, "dogs", res.Value)
	})
	t.Run("primitive verbatim", func(t *testing.T) {
		res := Coerce(nil, port.New(7.0), "field:count")
		assert.Equal(t, 7.0, res.Value)
	})
	t.Run("object without the key yields nothing", func(t *testing.T) {
		res := Coerce(nil, port.New(map[string]any{"other": 1}), "field:topic")
		assert.True(t, res.Compatible)
		assert.False(t, res.HasValue)
	})
}
