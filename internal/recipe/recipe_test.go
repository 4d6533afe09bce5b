package recipe

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/synnia/internal/asset"
	"github.com/vk/synnia/internal/node"
	"github.com/vk/synnia/internal/provider"
	"github.com/vk/synnia/internal/schema"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	def := &Definition{ID: "summarize", Inputs: schema.Fields{{Key: "text", Type: schema.TypeString}}}
	require.NoError(t, r.Register(def))
	require.Error(t, r.Register(&Definition{ID: "summarize"}), "duplicate ids are rejected")
	require.Error(t, r.Register(&Definition{}))

	got, ok := r.Get("summarize")
	require.True(t, ok)
	assert.Same(t, def, got)
	assert.Equal(t, node.Type("recipe:summarize"), got.NodeType())

	fields, ok := r.InputSchema("summarize")
	require.True(t, ok)
	assert.Equal(t, []string{"text"}, fields.Keys())

	_, ok = r.InputSchema("missing")
	assert.False(t, ok)
}

func TestRender(t *testing.T) {
	inputs := map[string]any{"topic": "cats", "count": 3.0, "tags": []any{"a"}}
	out := Render("Write {{count}} lines about {{ topic }} with {{tags}} and {{unknown}}.", inputs)
	assert.Equal(t, `Write 3 lines about cats with ["a"] and {{unknown}}.`, out)
}

func TestParse(t *testing.T) {
	v, err := Parse("```json\n{\"a\": 1}\n```", ParseJSON)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 1.0}, v)

	_, err = Parse("not json", ParseJSON)
	require.Error(t, err)

	v, err = Parse("- one\n\n* two\nthree  \n", ParseLines)
	require.NoError(t, err)
	assert.Equal(t, []any{"one", "two", "three"}, v)

	v, err = Parse("as is", ParseText)
	require.NoError(t, err)
	assert.Equal(t, "as is", v)
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `[1,2]`, StripCodeFence("```\n[1,2]\n```"))
	assert.Equal(t, `{"a":1}`, StripCodeFence("```json{\"a\":1}```"))
	assert.Equal(t, "plain", StripCodeFence("  plain "))
}

func TestSynthesize(t *testing.T) {
	t.Run("single text node", func(t *testing.T) {
		specs, err := Synthesize(&OutputConfig{NodeType: node.TypeText, Title: "Story"}, &Result{Success: true, Data: "result-1"})
		require.NoError(t, err)
		require.Len(t, specs, 1)
		assert.Equal(t, NodeSpec{Type: node.TypeText, Title: "Story", ValueType: asset.TypeText, Value: "result-1", Placement: PlaceBelow}, specs[0])
	})

	t.Run("lines become a docked chain", func(t *testing.T) {
		specs, err := Synthesize(&OutputConfig{NodeType: node.TypeText, Title: "Idea", Dock: true, Parse: ParseLines}, &Result{Success: true, Text: "a\nb\nc"})
		require.NoError(t, err)
		require.Len(t, specs, 3)
		assert.Equal(t, "", specs[0].DockedTo)
		assert.Equal(t, PrevRef, specs[1].DockedTo)
		assert.Equal(t, PrevRef, specs[2].DockedTo)
		assert.Equal(t, "Idea 2", specs[1].Title)
		assert.Equal(t, "c", specs[2].Value)
	})

	t.Run("collections keep the list whole", func(t *testing.T) {
		specs, err := Synthesize(&OutputConfig{NodeType: node.TypeCollection}, &Result{Success: true, Data: []any{map[string]any{"id": "1"}}})
		require.NoError(t, err)
		require.Len(t, specs, 1)
		assert.Equal(t, asset.TypeCollection, specs[0].ValueType)
	})

	t.Run("records on text nodes are stringified", func(t *testing.T) {
		specs, err := Synthesize(&OutputConfig{}, &Result{Success: true, Data: map[string]any{"a": 1.0}})
		require.NoError(t, err)
		assert.Equal(t, `{"a":1}`, specs[0].Value)
	})

	t.Run("nothing to synthesize", func(t *testing.T) {
		specs, err := Synthesize(&OutputConfig{}, &Result{Success: true})
		require.NoError(t, err)
		assert.Empty(t, specs)
	})
}

func stubRegistry(t *testing.T, fn func(context.Context, provider.Input) (*provider.Result, error)) *provider.Registry {
	t.Helper()
	reg := provider.NewRegistry()
	reg.Register(context.Background(), &provider.Func{Name: "stub", Cat: provider.CategoryLLM, Fn: fn})
	return reg
}

func TestRunManifest(t *testing.T) {
	var seen provider.Input
	providers := stubRegistry(t, func(_ context.Context, in provider.Input) (*provider.Result, error) {
		seen = in
		return &provider.Result{Success: true, Text: "done"}, nil
	})
	def := &Definition{
		ID:       "write",
		Manifest: Manifest{SystemPrompt: "You write about {{topic}}.", Prompt: "Topic: {{topic}}", Model: "tiny"},
	}
	ec := &ExecContext{
		Inputs:    map[string]any{"topic": "owls", "images": []any{"https://img/1.png"}},
		Recipe:    def,
		Providers: providers,
		Chat:      ChatConfig{Credentials: provider.Credentials{"K": "v"}},
	}

	res, err := Run(context.Background(), ec)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "done", res.Text)
	assert.Equal(t, "Topic: owls", seen.Prompt)
	assert.Equal(t, "You write about owls.", seen.SystemPrompt)
	assert.Equal(t, "tiny", seen.Model)
	assert.Equal(t, []string{"https://img/1.png"}, seen.Images)
	assert.Equal(t, "v", seen.Credentials["K"])
}

func TestDelegation(t *testing.T) {
	recipes := NewRegistry()
	require.NoError(t, recipes.Register(&Definition{ID: "inner", Execute: func(_ context.Context, ec *ExecContext) (*Result, error) {
		return &Result{Success: true, Data: ec.Inputs["x"]}, nil
	}}))
	require.NoError(t, recipes.Register(&Definition{ID: "outer", Delegate: "inner"}))
	require.NoError(t, recipes.Register(&Definition{ID: "loop", Delegate: "outer"}))

	outer, _ := recipes.Get("outer")
	res, err := Run(context.Background(), &ExecContext{Inputs: map[string]any{"x": 7.0}, Recipe: outer, Recipes: recipes})
	require.NoError(t, err)
	assert.Equal(t, 7.0, res.Data)

	loop, _ := recipes.Get("loop")
	_, err = Run(context.Background(), &ExecContext{Recipe: loop, Recipes: recipes})
	require.ErrorIs(t, err, ErrNestedDelegation)

	missing := &Definition{ID: "broken", Delegate: "nope"}
	_, err = Run(context.Background(), &ExecContext{Recipe: missing, Recipes: recipes})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCallProvider_NoRegistry(t *testing.T) {
	_, err := (&ExecContext{Recipe: &Definition{ID: "x"}}).CallProvider(context.Background(), provider.CategoryLLM, provider.Input{})
	require.True(t, errors.Is(err, provider.ErrNoProvider))
}
