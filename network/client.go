// Package network provides the shared HTTP clients for API calls and media fetches.
package network

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/arsu-cli/arsu/constant"
)

// Client is used for API requests; the overall timeout is applied per request from config.
var Client = &http.Client{
	Transport: newTransport(),
}

// MediaClient fetches manifests and segments. It has no overall timeout since
// segment bodies may legitimately take long to stream.
var MediaClient = &http.Client{
	Transport: newTransport(),
}

func newTransport() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 100
	t.MaxIdleConnsPerHost = 16
	t.IdleConnTimeout = 30 * time.Second
	t.ResponseHeaderTimeout = 30 * time.Second
	return t
}

// NewRequest builds a request carrying the application User-Agent.
func NewRequest(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", constant.UserAgent)
	return req, nil
}
