// Package openai implements a compute provider for OpenAI-compatible chat
// completion APIs. The same provider serves local model servers such as
// Ollama, which expose the same endpoint.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vk/synnia/internal/ctxlog"
	"github.com/vk/synnia/internal/provider"
	"github.com/vk/synnia/internal/retry"
)

const (
	defaultBaseURL = "https://api.openai.com"
	defaultModel   = "gpt-4o-mini"

	// CredentialAPIKey is the credential the hosted API requires.
	CredentialAPIKey = "OPENAI_API_KEY"
)

// Provider sends prompts to /v1/chat/completions.
type Provider struct {
	id         string
	baseURL    string
	apiKey     string
	credential string
	model      string
	httpClient *http.Client
	policy     retry.Policy
}

// Option configures a Provider.
type Option func(*Provider)

// WithID sets the provider id used in settings (`<id>/<model>`).
func WithID(id string) Option {
	return func(p *Provider) { p.id = id }
}

// WithBaseURL overrides the API base URL.
func WithBaseURL(url string) Option {
	return func(p *Provider) { p.baseURL = strings.TrimRight(url, "/") }
}

// WithAPIKey sets the key used when the run carries no credential.
func WithAPIKey(key string) Option {
	return func(p *Provider) { p.apiKey = key }
}

// WithCredential names the credential the provider requires. An empty name
// means the provider runs without one.
func WithCredential(name string) Option {
	return func(p *Provider) { p.credential = name }
}

func WithModel(model string) Option {
	return func(p *Provider) { p.model = model }
}

func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) { p.httpClient = c }
}

func WithRetryPolicy(policy retry.Policy) Option {
	return func(p *Provider) { p.policy = policy }
}

// New creates a provider for the hosted OpenAI API unless options say
// otherwise.
func New(opts ...Option) *Provider {
	p := &Provider{
		id:         "openai",
		baseURL:    defaultBaseURL,
		credential: CredentialAPIKey,
		model:      defaultModel,
		httpClient: newHTTPClient(DefaultTimeout),
		policy:     retry.DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) ID() string                  { return p.id }
func (p *Provider) Category() provider.Category { return provider.CategoryLLM }
func (p *Provider) RequiredCredential() string  { return p.credential }

func (p *Provider) Capabilities() []provider.Capability {
	return []provider.Capability{"vision", "json"}
}

// statusError is a non-2xx answer from the API.
type statusError struct {
	code    int
	message string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.code, e.message)
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

// Execute sends one chat completion request. API errors come back as an
// unsuccessful result; transport failures that survive the retries are
// returned as errors.
func (p *Provider) Execute(ctx context.Context, in provider.Input) (*provider.Result, error) {
	logger := ctxlog.FromContext(ctx).With("provider", p.id)

	model := in.Model
	if model == "" {
		model = p.model
	}
	payload, err := json.Marshal(p.buildRequestBody(model, in))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	key := p.apiKey
	if p.credential != "" && in.Credentials.Has(p.credential) {
		key = in.Credentials[p.credential]
	}

	policy := p.policy
	policy.OnRetry = func(err error, attempt int, delay time.Duration) {
		logger.Warn("Completion request failed, retrying.", "attempt", attempt+1, "delay", delay, "error", err)
	}

	logger.Debug("Sending completion request.", "model", model, "prompt_len", len(in.Prompt))
	body, err := retry.Do(ctx, policy, func() ([]byte, error) {
		return p.post(ctx, key, payload)
	})
	if err != nil {
		var serr *statusError
		if errors.As(err, &serr) {
			return provider.Failure(serr.Error()), nil
		}
		return nil, err
	}
	return parseResponse(body)
}

func (p *Provider) post(ctx context.Context, key string, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		serr := &statusError{code: resp.StatusCode, message: errorMessage(body)}
		if retryableStatus(resp.StatusCode) {
			return nil, serr
		}
		return nil, retry.Permanent(serr)
	}
	return body, nil
}

// buildRequestBody maps the input to the chat format. Images are sent as
// image_url content parts next to the prompt; config keys are passed through
// (temperature, max_tokens, ...).
func (p *Provider) buildRequestBody(model string, in provider.Input) map[string]any {
	var messages []map[string]any
	if in.SystemPrompt != "" {
		messages = append(messages, map[string]any{"role": "system", "content": in.SystemPrompt})
	}
	if len(in.Images) == 0 {
		messages = append(messages, map[string]any{"role": "user", "content": in.Prompt})
	} else {
		parts := []map[string]any{{"type": "text", "text": in.Prompt}}
		for _, img := range in.Images {
			parts = append(parts, map[string]any{"type": "image_url", "image_url": map[string]any{"url": img}})
		}
		messages = append(messages, map[string]any{"role": "user", "content": parts})
	}

	body := make(map[string]any, len(in.Config)+2)
	for k, v := range in.Config {
		body[k] = v
	}
	body["model"] = model
	body["messages"] = messages
	return body
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func parseResponse(body []byte) (*provider.Result, error) {
	var resp completionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response JSON: %w", err)
	}
	if len(resp.Choices) == 0 {
		return provider.Failure("The model returned no choices."), nil
	}
	choice := resp.Choices[0]
	return &provider.Result{
		Success:      true,
		Text:         choice.Message.Content,
		WasTruncated: choice.FinishReason == "length",
	}, nil
}

// errorMessage extracts error.message from an API error body.
func errorMessage(body []byte) string {
	var env struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &env); err == nil && env.Error.Message != "" {
		return env.Error.Message
	}
	return strings.TrimSpace(string(body))
}
