// Package client talks to a unifiedfs server over HTTP. Caller performs
// cross-process calls such as uriFromFile, Bridge opens and inspects content
// URIs.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"unifiedfs/internal/logging"
	"unifiedfs/internal/provider"

	"github.com/google/uuid"
)

var (
	clientLogger = logging.GetLogger().WithPrefix("client")
)

// DefaultTimeout bounds every request when Config.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// Config holds client configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client is a thin JSON client for one server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new client.
func New(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Client{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:    10,
				IdleConnTimeout: 90 * time.Second,
			},
		},
	}
}

// APIError is a failed request as reported by the server.
type APIError struct {
	Status  int
	Kind    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d (%s): %s", e.Status, e.Kind, e.Message)
}

// Unwrap maps the reported kind back to the provider sentinel, so callers can
// use errors.Is(err, provider.ErrNotFound).
func (e *APIError) Unwrap() error {
	switch e.Kind {
	case provider.KindNotFound.String():
		return provider.ErrNotFound
	case provider.KindInvalidArgument.String():
		return provider.ErrInvalidArgument
	case provider.KindMissingArgument.String():
		return provider.ErrMissingArgument
	case provider.KindIOFailure.String():
		return provider.ErrIOFailure
	case "UnknownMethod":
		return provider.ErrUnknownMethod
	}
	return nil
}

// Ping checks that the server is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.getJSON(ctx, "/health", nil, nil)
}

// QueryRoots returns the provider's root rows.
func (c *Client) QueryRoots(ctx context.Context) ([]provider.RootInfo, error) {
	var roots []provider.RootInfo
	err := c.getJSON(ctx, "/roots", nil, &roots)
	return roots, err
}

// QueryDocument returns the row for one document.
func (c *Client) QueryDocument(ctx context.Context, id string) (provider.Document, error) {
	var doc provider.Document
	err := c.getJSON(ctx, "/document", url.Values{"id": {id}}, &doc)
	return doc, err
}

// QueryChildDocuments lists the children of a document.
func (c *Client) QueryChildDocuments(ctx context.Context, id string) ([]provider.Document, error) {
	var docs []provider.Document
	err := c.getJSON(ctx, "/children", url.Values{"id": {id}}, &docs)
	return docs, err
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, query, nil, "")
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, query url.Values, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := c.newRequest(ctx, http.MethodPost, path, query, body, "application/json")
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string) (*http.Request, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("X-Request-ID", uuid.New().String())
	return req, nil
}

// do sends req and decodes a JSON body into out (when non-nil). Non-2xx
// responses become *APIError.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	clientLogger.Trace("%s %s -> %d", req.Method, req.URL.Path, resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	var body struct {
		Error string `json:"error"`
		Kind  string `json:"kind"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err := json.Unmarshal(data, &body); err == nil {
		apiErr.Kind = body.Kind
		apiErr.Message = body.Error
	} else {
		apiErr.Message = string(bytes.TrimSpace(data))
	}
	return apiErr
}

// IsNotFound reports whether err is a NotFound response.
func IsNotFound(err error) bool {
	return errors.Is(err, provider.ErrNotFound)
}
