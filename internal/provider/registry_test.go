package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stub(id string, cat Category, cred string) *Func {
	return &Func{Name: id, Cat: cat, Credential: cred, Fn: func(context.Context, Input) (*Result, error) {
		return &Result{Success: true, Text: id}, nil
	}}
}

func TestSelect(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry()
	r.Register(ctx, stub("openai", CategoryLLM, "OPENAI_API_KEY"))
	r.Register(ctx, stub("ollama", CategoryLLM, ""))
	r.Register(ctx, stub("dalle", CategoryImage, "OPENAI_API_KEY"))

	t.Run("default model setting wins", func(t *testing.T) {
		p, model, err := r.Select(CategoryLLM, Settings{DefaultModels: map[Category]string{CategoryLLM: "openai/gpt-4o-mini"}}, nil)
		require.NoError(t, err)
		assert.Equal(t, "openai", p.ID())
		assert.Equal(t, "gpt-4o-mini", model)
	})

	t.Run("default naming another category is ignored", func(t *testing.T) {
		p, _, err := r.Select(CategoryLLM, Settings{DefaultModels: map[Category]string{CategoryLLM: "dalle"}}, nil)
		require.NoError(t, err)
		assert.Equal(t, "ollama", p.ID())
	})

	t.Run("first provider with configured credential", func(t *testing.T) {
		p, _, err := r.Select(CategoryLLM, Settings{}, Credentials{"OPENAI_API_KEY": "sk-test"})
		require.NoError(t, err)
		assert.Equal(t, "openai", p.ID())
	})

	t.Run("skips providers missing credentials", func(t *testing.T) {
		p, _, err := r.Select(CategoryLLM, Settings{}, Credentials{})
		require.NoError(t, err)
		assert.Equal(t, "ollama", p.ID())
	})

	t.Run("no candidate", func(t *testing.T) {
		_, _, err := r.Select(CategoryImage, Settings{}, Credentials{})
		require.ErrorIs(t, err, ErrNoProvider)
		_, _, err = r.Select(CategoryVideo, Settings{}, nil)
		require.ErrorIs(t, err, ErrNoProvider)
	})
}

func TestCredentialsFromEnv(t *testing.T) {
	t.Setenv("SYNNIA_TEST_KEY", "secret")
	creds := CredentialsFromEnv("SYNNIA_TEST_KEY", "SYNNIA_TEST_UNSET")
	assert.True(t, creds.Has("SYNNIA_TEST_KEY"))
	assert.False(t, creds.Has("SYNNIA_TEST_UNSET"))
}
