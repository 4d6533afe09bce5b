// Package socketio provides a compute provider that hands work to remote
// workers over a persistent socket.io connection.
//
// A request is emitted as `requestEvent` with a correlation id; the worker
// answers on `resultEvent` with the same id and a provider result:
//
//	-> synnia:execute {"id": "...", "prompt": "...", "config": {...}, ...}
//	<- synnia:result  {"id": "...", "success": true, "text": "..."}
package socketio

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vk/synnia/internal/ctxlog"
	"github.com/vk/synnia/internal/provider"
	"github.com/vk/synnia/internal/registry"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

const (
	DefaultRequestEvent   = "synnia:execute"
	DefaultResultEvent    = "synnia:result"
	DefaultTimeout        = 60 * time.Second
	DefaultConnectTimeout = 15 * time.Second

	// CredentialToken, when configured, is sent along with every request.
	CredentialToken = "SYNNIA_WORKER_TOKEN"
)

// Module implements the registry.Module interface for this package. Nothing
// is registered without a URL.
type Module struct {
	URL                string
	Namespace          string
	InsecureSkipVerify bool
}

// Register registers the remote worker provider with the engine.
func (m *Module) Register(r *registry.Registry) {
	if m.URL == "" {
		return
	}
	r.RegisterProvider(New(m.URL, Config{Namespace: m.Namespace, InsecureSkipVerify: m.InsecureSkipVerify}))
}

// Config tunes a Provider. Zero values take the defaults.
type Config struct {
	Namespace          string
	RequestEvent       string
	ResultEvent        string
	Timeout            time.Duration
	ConnectTimeout     time.Duration
	InsecureSkipVerify bool
}

// Provider is a remote compute provider.
type Provider struct {
	url string
	cfg Config

	mu      sync.Mutex
	client  *socket.Socket
	pending map[string]chan map[string]any
}

// New creates a provider for the worker at rawURL. The connection is opened
// on first use.
func New(rawURL string, cfg Config) *Provider {
	if cfg.Namespace == "" {
		cfg.Namespace = "/"
	}
	if cfg.RequestEvent == "" {
		cfg.RequestEvent = DefaultRequestEvent
	}
	if cfg.ResultEvent == "" {
		cfg.ResultEvent = DefaultResultEvent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}
	return &Provider{url: rawURL, cfg: cfg, pending: make(map[string]chan map[string]any)}
}

func (p *Provider) ID() string                          { return "socketio" }
func (p *Provider) Category() provider.Category         { return provider.CategoryRemote }
func (p *Provider) Capabilities() []provider.Capability { return nil }
func (p *Provider) RequiredCredential() string          { return "" }

// Execute emits the request and waits for the matching result.
func (p *Provider) Execute(ctx context.Context, in provider.Input) (*provider.Result, error) {
	logger := ctxlog.FromContext(ctx).With("provider", p.ID(), "url", p.url)

	client, err := p.connect(ctx)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	ch := make(chan map[string]any, 1)
	p.mu.Lock()
	p.pending[id] = ch
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		delete(p.pending, id)
		p.mu.Unlock()
	}()

	logger.Debug("Emitting request.", "event", p.cfg.RequestEvent, "requestID", id)
	client.Emit(p.cfg.RequestEvent, buildPayload(id, in))

	timer := time.NewTimer(p.cfg.Timeout)
	defer timer.Stop()
	select {
	case payload := <-ch:
		logger.Debug("Result received.", "requestID", id)
		return decodeResult(payload)
	case <-timer.C:
		return provider.Failure(fmt.Sprintf("Timed out after %s waiting for the worker.", p.cfg.Timeout)), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close disconnects the client.
func (p *Provider) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client != nil {
		p.client.Disconnect()
		p.client = nil
	}
}

// connect returns the live client, dialing when there is none.
func (p *Provider) connect(ctx context.Context) (*socket.Socket, error) {
	p.mu.Lock()
	if p.client != nil && p.client.Connected() {
		c := p.client
		p.mu.Unlock()
		return c, nil
	}
	p.mu.Unlock()

	logger := ctxlog.FromContext(ctx).With("url", p.url)
	parsedURL, err := url.Parse(p.url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	opts := socket.DefaultOptions()
	opts.SetPath(parsedURL.Path)
	if p.cfg.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	connectChan := make(chan error, 1)
	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(p.cfg.Namespace, opts)

	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("Connected to remote worker", "sid", io.Id())
		select {
		case connectChan <- nil:
		default:
		}
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err := fmt.Errorf("connect error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		select {
		case connectChan <- err:
		default:
		}
	})
	io.On(types.EventName(p.cfg.ResultEvent), p.dispatch)

	logger.Debug("Initiating connection...")
	io.Connect()

	timer := time.NewTimer(p.cfg.ConnectTimeout)
	defer timer.Stop()
	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection")
	case <-timer.C:
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for socket.io connection", p.cfg.ConnectTimeout)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client != nil {
		p.client.Disconnect()
	}
	p.client = io
	return io, nil
}

// dispatch routes a result event to the request waiting for its id.
// Results nobody waits for are dropped.
func (p *Provider) dispatch(data ...any) {
	if len(data) == 0 {
		return
	}
	payload, ok := data[0].(map[string]any)
	if !ok {
		return
	}
	id, _ := payload["id"].(string)

	p.mu.Lock()
	ch, ok := p.pending[id]
	p.mu.Unlock()
	if !ok {
		return
	}
	select {
	case ch <- payload:
	default:
	}
}

func buildPayload(id string, in provider.Input) map[string]any {
	payload := map[string]any{
		"id":     id,
		"prompt": in.Prompt,
	}
	if in.SystemPrompt != "" {
		payload["systemPrompt"] = in.SystemPrompt
	}
	if in.Model != "" {
		payload["model"] = in.Model
	}
	if len(in.Images) > 0 {
		payload["images"] = in.Images
	}
	if len(in.Config) > 0 {
		payload["config"] = in.Config
	}
	if in.Credentials.Has(CredentialToken) {
		payload["token"] = in.Credentials[CredentialToken]
	}
	return payload
}

func decodeResult(payload map[string]any) (*provider.Result, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode worker result: %w", err)
	}
	var res provider.Result
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("failed to decode worker result: %w", err)
	}
	if !res.Success && res.Error == "" {
		res.Error = "The worker reported a failure."
	}
	return &res, nil
}
