package openai

import (
	"net/http"
	"time"
)

// DefaultTimeout bounds a single completion request.
const DefaultTimeout = 120 * time.Second

// newHTTPClient returns the client shared by every request of a provider so
// TCP connections are reused.
func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}
