// Package api is the client of the ARSU REST backend: users, videos and comments.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/arsu-cli/arsu/auth"
	"github.com/arsu-cli/arsu/key"
	"github.com/arsu-cli/arsu/log"
	"github.com/arsu-cli/arsu/network"
	"github.com/spf13/viper"
)

const maxErrorBody = 4 << 10

// StatusError is returned for any non-2xx answer.
type StatusError struct {
	Code    int
	Status  string
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: %s", e.Status)
	}
	return fmt.Sprintf("api: %s: %s", e.Status, e.Message)
}

// Client talks to one backend on behalf of an optional user session.
type Client struct {
	BaseURL string
	// Session authenticates requests when it carries a token.
	Session *auth.Session
	HTTP    *http.Client
	// Timeout bounds each call except uploads. Zero means no bound.
	Timeout time.Duration
}

// New returns a client for the configured backend.
func New(session *auth.Session) *Client {
	return &Client{
		BaseURL: viper.GetString(key.APIURL),
		Session: session,
		HTTP:    network.Client,
		Timeout: time.Duration(viper.GetInt(key.APITimeout)) * time.Second,
	}
}

func (c *Client) url(route string) string {
	return strings.TrimRight(c.BaseURL, "/") + route
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.Timeout)
}

func (c *Client) newRequest(ctx context.Context, method, route string, body io.Reader) (*http.Request, error) {
	req, err := network.NewRequest(ctx, method, c.url(route), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if authz := c.Session.Authorization(); authz != "" {
		req.Header.Set("Authorization", authz)
	}
	return req, nil
}

// send executes req and returns the body of a 2xx answer.
func (c *Client) send(req *http.Request) ([]byte, error) {
	started := time.Now()
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	log.WithFields(log.Fields{
		"method":  req.Method,
		"path":    req.URL.Path,
		"status":  resp.StatusCode,
		"elapsed": time.Since(started).String(),
	}).Debug("api request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{
			Code:    resp.StatusCode,
			Status:  resp.Status,
			Message: errorMessage(raw),
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return data, nil
}

func (c *Client) getJSON(ctx context.Context, route string) ([]byte, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	req, err := c.newRequest(ctx, http.MethodGet, route, nil)
	if err != nil {
		return nil, err
	}
	return c.send(req)
}

func (c *Client) postJSON(ctx context.Context, route string, in, out interface{}) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	payload, err := json.Marshal(in)
	if err != nil {
		return err
	}

	req, err := c.newRequest(ctx, http.MethodPost, route, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	data, err := c.send(req)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", route, err)
	}
	return nil
}

// errorMessage pulls a human message out of an error body.
func errorMessage(raw []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(raw, &body) == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}

	msg := strings.TrimSpace(string(raw))
	if len(msg) > 200 {
		msg = msg[:200] + "..."
	}
	return msg
}
