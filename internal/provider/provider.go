// Package provider defines the contract between recipes and the external
// compute backends (language models, image models, scripts, remote workers)
// that actually produce results.
package provider

import (
	"context"
	"errors"
	"os"
	"strings"
)

// ErrNoProvider is returned when no registered provider can serve a category.
var ErrNoProvider = errors.New("no provider available")

// Category groups providers that can stand in for one another.
type Category string

const (
	CategoryLLM    Category = "llm"
	CategoryImage  Category = "image"
	CategoryVideo  Category = "video"
	CategoryScript Category = "script"
	CategoryRemote Category = "remote"
)

// Capability is a free-form feature tag, e.g. "vision" or "json".
type Capability string

// Credentials maps credential names (OPENAI_API_KEY, ...) to secrets.
type Credentials map[string]string

// Has reports whether name is configured with a non-empty secret.
func (c Credentials) Has(name string) bool {
	return strings.TrimSpace(c[name]) != ""
}

// CredentialsFromEnv reads the named environment variables. Unset ones are
// left out.
func CredentialsFromEnv(names ...string) Credentials {
	creds := make(Credentials, len(names))
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			creds[name] = v
		}
	}
	return creds
}

// Settings carries user preferences relevant to provider selection.
type Settings struct {
	// DefaultModels maps a category to `providerID` or `providerID/model`.
	DefaultModels map[Category]string `json:"defaultModels,omitempty"`
}

// Input is what a recipe sends to a provider.
type Input struct {
	Prompt       string         `json:"prompt,omitempty"`
	SystemPrompt string         `json:"systemPrompt,omitempty"`
	Images       []string       `json:"images,omitempty"`
	Model        string         `json:"model,omitempty"`
	Config       map[string]any `json:"config,omitempty"`
	Credentials  Credentials    `json:"-"`
}

// Result is what a provider returns. Success=false with Error set is a
// regular failure, not a Go error.
type Result struct {
	Success      bool     `json:"success"`
	Text         string   `json:"text,omitempty"`
	Data         any      `json:"data,omitempty"`
	Images       []string `json:"images,omitempty"`
	VideoURL     string   `json:"videoUrl,omitempty"`
	Error        string   `json:"error,omitempty"`
	WasTruncated bool     `json:"wasTruncated,omitempty"`
}

// Provider is a compute backend.
type Provider interface {
	ID() string
	Category() Category
	Capabilities() []Capability
	// RequiredCredential names the credential the provider cannot run
	// without, or "" when it needs none.
	RequiredCredential() string
	Execute(ctx context.Context, in Input) (*Result, error)
}

// Func adapts a plain function into a Provider.
type Func struct {
	Name       string
	Cat        Category
	Caps       []Capability
	Credential string
	Fn         func(ctx context.Context, in Input) (*Result, error)
}

func (f *Func) ID() string                 { return f.Name }
func (f *Func) Category() Category         { return f.Cat }
func (f *Func) Capabilities() []Capability { return f.Caps }
func (f *Func) RequiredCredential() string { return f.Credential }

// Execute calls the wrapped function.
func (f *Func) Execute(ctx context.Context, in Input) (*Result, error) {
	return f.Fn(ctx, in)
}

// Failure builds an unsuccessful Result.
func Failure(msg string) *Result {
	return &Result{Success: false, Error: msg}
}
