package hcl

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/synnia/internal/node"
	"github.com/vk/synnia/internal/provider"
	"github.com/vk/synnia/internal/recipe"
	"github.com/vk/synnia/internal/schema"
)

const storyHCL = `
recipe "story" {
  name          = "Story"
  category      = "text"
  provider      = "llm"
  model         = "gpt-4o-mini"
  system_prompt = "You are a storyteller."
  prompt        = "Write a ${input.tone} story about ${upper(input.topic)}. {{extra}}"

  input "topic" {
    label    = "Topic"
    type     = string
    required = true
  }
  input "tone" {
    type    = string
    default = "short"
  }
  input "count" {
    type    = number
    default = "3"
  }
  input "meta" {
    type          = map(string)
    required_keys = ["source"]
    connectable   = false
  }
  input "extra" {}

  config = {
    temperature = 0.2
  }

  output {
    node_type = "text"
    placement = "right"
    title     = "Story"
    parse     = "lines"
    dock      = true
  }
}
`

func TestLoadBytes(t *testing.T) {
	// --- Arrange ---
	ctx := context.Background()

	// --- Act ---
	defs, err := NewLoader().LoadBytes(ctx, []byte(storyHCL), "story.hcl")

	// --- Assert ---
	require.NoError(t, err)
	require.Len(t, defs, 1)
	def := defs[0]

	assert.Equal(t, "story", def.ID)
	assert.Equal(t, "Story", def.Name)
	assert.Equal(t, "text", def.Category)
	assert.Equal(t, provider.CategoryLLM, def.Manifest.Provider)
	assert.Equal(t, "gpt-4o-mini", def.Manifest.Model)
	assert.Equal(t, "You are a storyteller.", def.Manifest.SystemPrompt)
	assert.Equal(t, map[string]any{"temperature": 0.2}, def.Manifest.Config)

	require.Len(t, def.Inputs, 5)
	topic, _ := def.Inputs.Get("topic")
	assert.Equal(t, schema.TypeString, topic.Type)
	assert.True(t, topic.Required)
	assert.Equal(t, "Topic", topic.Label)
	assert.True(t, topic.Connection.Input)

	count, _ := def.Inputs.Get("count")
	assert.Equal(t, schema.TypeNumber, count.Type)
	assert.Equal(t, 3.0, count.Default, "defaults are converted to the declared type")

	meta, _ := def.Inputs.Get("meta")
	assert.Equal(t, schema.TypeObject, meta.Type)
	assert.Equal(t, []string{"source"}, meta.RequiredKeys)
	assert.False(t, meta.Connection.Input)

	extra, _ := def.Inputs.Get("extra")
	assert.Equal(t, schema.TypeAny, extra.Type)

	require.NotNil(t, def.Output)
	assert.Equal(t, node.TypeText, def.Output.NodeType)
	assert.Equal(t, recipe.PlaceRight, def.Output.Placement)
	assert.Equal(t, recipe.ParseLines, def.Output.Parse)
	assert.True(t, def.Output.Dock)
}

func TestPromptRendering(t *testing.T) {
	ctx := context.Background()
	defs, err := NewLoader().LoadBytes(ctx, []byte(storyHCL), "story.hcl")
	require.NoError(t, err)
	render := defs[0].Manifest.RenderPrompt
	require.NotNil(t, render)

	t.Run("inputs are bound", func(t *testing.T) {
		got, err := render(map[string]any{"topic": "dragons", "tone": "long", "extra": "The end."})
		require.NoError(t, err)
		assert.Equal(t, "Write a long story about DRAGONS. The end.", got)
	})

	t.Run("missing declared inputs render empty", func(t *testing.T) {
		got, err := render(map[string]any{"topic": "cats"})
		require.NoError(t, err)
		assert.Equal(t, "Write a  story about CATS. {{extra}}", got)
	})
}

func TestLoadBytesDefaults(t *testing.T) {
	src := `
recipe "echo-ish" {
  prompt = "{{text}}"
  input "text" {
    type = string
  }
}
`
	defs, err := NewLoader().LoadBytes(context.Background(), []byte(src), "min.hcl")
	require.NoError(t, err)
	require.Len(t, defs, 1)

	def := defs[0]
	assert.Equal(t, "echo-ish", def.Name, "name falls back to the id")
	assert.Empty(t, def.Manifest.Provider)
	assert.Nil(t, def.Output)
	assert.Nil(t, def.Manifest.Config)
	assert.Empty(t, def.Manifest.SystemPrompt)

	got, err := def.Manifest.RenderPrompt(map[string]any{"text": "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hi", got)
}

func TestLoadBytesErrors(t *testing.T) {
	testCases := []struct {
		name string
		src  string
	}{
		{"syntax error", `recipe "x" {`},
		{"unknown provider", `recipe "x" {
  provider = "fax"
  prompt   = "a"
}`},
		{"no prompt or delegate", `recipe "x" {}`},
		{"unknown type", `recipe "x" {
  prompt = "a"
  input "a" { type = widget }
}`},
		{"bad default", `recipe "x" {
  prompt = "a"
  input "a" {
    type    = number
    default = "many"
  }
}`},
		{"duplicate input", `recipe "x" {
  prompt = "a"
  input "a" {}
  input "a" {}
}`},
		{"required keys on a string", `recipe "x" {
  prompt = "a"
  input "a" {
    type          = string
    required_keys = ["k"]
  }
}`},
		{"system prompt with inputs", `recipe "x" {
  prompt        = "a"
  system_prompt = "${input.a}"
}`},
		{"recipe product", `recipe "x" {
  prompt = "a"
  output { node_type = "recipe:y" }
}`},
		{"bad placement", `recipe "x" {
  prompt = "a"
  output { placement = "above" }
}`},
		{"bad parse mode", `recipe "x" {
  prompt = "a"
  output { parse = "yaml" }
}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewLoader().LoadBytes(context.Background(), []byte(tc.src), "bad.hcl")
			assert.Error(t, err)
		})
	}
}

func TestLoadWalksDirectories(t *testing.T) {
	// --- Arrange ---
	dir := t.TempDir()
	write := func(rel, content string) {
		path := filepath.Join(dir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	write("a.hcl", `recipe "a" { prompt = "a" }`)
	write("nested/b.hcl", `recipe "b" { delegate = "a" }`)
	write("nested/notes.txt", `not hcl`)

	// --- Act ---
	defs, err := NewLoader().Load(context.Background(), dir, filepath.Join(dir, "a.hcl"), filepath.Join(dir, "missing"))

	// --- Assert ---
	require.NoError(t, err)
	ids := make([]string, 0, len(defs))
	for _, d := range defs {
		ids = append(ids, d.ID)
	}
	assert.ElementsMatch(t, []string{"a", "b"}, ids)

	for _, d := range defs {
		if d.ID == "b" {
			assert.Equal(t, "a", d.Delegate)
			assert.Nil(t, d.Manifest.RenderPrompt)
		}
	}
}

func TestLoadRejectsDuplicateIDs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "one.hcl"), []byte(`recipe "a" { prompt = "1" }`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "two.hcl"), []byte(`recipe "a" { prompt = "2" }`), 0o644))

	_, err := NewLoader().Load(context.Background(), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `recipe "a"`)
}

func TestFieldType(t *testing.T) {
	testCases := []struct {
		src  string
		want schema.FieldType
	}{
		{"string", schema.TypeString},
		{"number", schema.TypeNumber},
		{"bool", schema.TypeBoolean},
		{"boolean", schema.TypeBoolean},
		{"object", schema.TypeObject},
		{"map(number)", schema.TypeObject},
		{"list(string)", schema.TypeArray},
		{"set(number)", schema.TypeArray},
		{"array", schema.TypeArray},
		{"any", schema.TypeAny},
	}
	for _, tc := range testCases {
		t.Run(tc.src, func(t *testing.T) {
			src := `recipe "x" {
  prompt = "a"
  input "v" { type = ` + tc.src + ` }
}`
			defs, err := NewLoader().LoadBytes(context.Background(), []byte(src), "types.hcl")
			require.NoError(t, err)
			f, _ := defs[0].Inputs.Get("v")
			assert.Equal(t, tc.want, f.Type)
		})
	}
}
