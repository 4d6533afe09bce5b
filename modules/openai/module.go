package openai

import (
	"os"
	"strings"

	"github.com/vk/synnia/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct {
	// Getenv defaults to os.Getenv.
	Getenv func(string) string
}

// Register registers the hosted OpenAI provider, and an Ollama provider when
// OLLAMA_HOST is set. The hosted provider is only selected once an
// OPENAI_API_KEY credential is configured.
func (m *Module) Register(r *registry.Registry) {
	getenv := m.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	opts := []Option{WithAPIKey(getenv(CredentialAPIKey))}
	if base := getenv("OPENAI_BASE_URL"); base != "" {
		opts = append(opts, WithBaseURL(base))
	}
	r.RegisterProvider(New(opts...))

	if host := getenv("OLLAMA_HOST"); host != "" {
		if !strings.Contains(host, "://") {
			host = "http://" + host
		}
		model := getenv("OLLAMA_MODEL")
		if model == "" {
			model = "llama3.2"
		}
		r.RegisterProvider(New(
			WithID("ollama"),
			WithBaseURL(host),
			WithCredential(""),
			WithModel(model),
		))
	}
}
