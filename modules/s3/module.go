// Package s3 provides the "s3-upload" recipe, which PUTs a value to a
// pre-signed object URL.
package s3

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vk/synnia/internal/ctxlog"
	"github.com/vk/synnia/internal/recipe"
	"github.com/vk/synnia/internal/registry"
	"github.com/vk/synnia/internal/schema"
)

// Module implements the registry.Module interface for this package.
type Module struct {
	// Client defaults to a shared client with a one minute timeout.
	Client *http.Client
}

// httpClient is shared by all uploads to reuse TCP connections.
var httpClient = &http.Client{Timeout: time.Minute}

// Uploader performs the upload for one recipe run.
type Uploader struct {
	client *http.Client
}

// OnRun uploads the content input to the url input. Strings are sent as is,
// anything else as JSON.
func (u *Uploader) OnRun(ctx context.Context, ec *recipe.ExecContext) (*recipe.Result, error) {
	target, _ := ec.Inputs["url"].(string)
	parsed, err := url.Parse(target)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return &recipe.Result{Success: false, Error: fmt.Sprintf("Invalid upload URL %q.", target)}, nil
	}
	contentType, _ := ec.Inputs["content_type"].(string)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	body := recipe.Stringify(ec.Inputs["content"])

	// The query string of a pre-signed URL carries the signature.
	display := parsed.Scheme + "://" + parsed.Host + parsed.Path
	logger := ctxlog.FromContext(ctx).With("action", "upload")

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, target, strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.ContentLength = int64(len(body))

	logger.Info("Uploading to S3", "target", display, "size", len(body), "contentType", contentType)
	resp, err := u.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute S3 upload request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &recipe.Result{Success: false, Error: fmt.Sprintf("S3 upload failed with status: %s", resp.Status)}, nil
	}
	logger.Info("Successfully uploaded", "status", resp.Status)

	return &recipe.Result{Success: true, Data: map[string]any{
		"url":    display,
		"status": resp.Status,
		"bytes":  float64(len(body)),
	}}, nil
}

// Register registers the handler and recipe with the engine.
func (m *Module) Register(r *registry.Registry) {
	client := m.Client
	if client == nil {
		client = httpClient
	}
	u := &Uploader{client: client}

	r.RegisterHandler("OnRunS3Upload", u.OnRun)
	r.RegisterRecipe(&recipe.Definition{
		ID:          "s3-upload",
		Name:        "Upload to S3",
		Description: "PUTs the connected content to a pre-signed URL.",
		Inputs: schema.Fields{
			{Key: "url", Label: "Pre-signed URL", Type: schema.TypeString, Required: true, Connection: schema.Connection{Input: true}},
			{Key: "content", Label: "Content", Type: schema.TypeAny, Required: true, Connection: schema.Connection{Input: true}},
			{Key: "content_type", Label: "Content type", Type: schema.TypeString, Default: "text/plain; charset=utf-8"},
		},
		Execute: u.OnRun,
	})
}
