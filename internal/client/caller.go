package client

import (
	"context"
	"fmt"
	"os"

	"unifiedfs/internal/provider"
)

// CallError is a call that reached the provider but came back with an error
// code in its result bundle.
type CallError struct {
	Code    int
	Message string
}

func (e *CallError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("call failed with code %d (%s)", e.Code, provider.Kind(e.Code))
	}
	return fmt.Sprintf("call failed with code %d: %s", e.Code, e.Message)
}

// Unwrap returns the provider sentinel for the code.
func (e *CallError) Unwrap() error {
	switch e.Code {
	case provider.CodeIOFailure:
		return provider.ErrIOFailure
	case provider.CodeFileNotMatch:
		return provider.ErrFileNotMatch
	case provider.CodeMissingArgument:
		return provider.ErrMissingArgument
	}
	return nil
}

// Caller performs cross-process calls against a provider authority.
type Caller struct {
	client *Client
}

// NewCaller wraps c.
func NewCaller(c *Client) *Caller {
	return &Caller{client: c}
}

// Call invokes method with arg and extras and returns the result bundle.
func (c *Caller) Call(ctx context.Context, method, arg string, extras provider.Bundle) (provider.Bundle, error) {
	req := struct {
		Method string          `json:"method"`
		Arg    string          `json:"arg,omitempty"`
		Extras provider.Bundle `json:"extras,omitempty"`
	}{method, arg, extras}

	var result provider.Bundle
	if err := c.client.postJSON(ctx, "/call", nil, req, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetURIFromFilePath asks the provider registered under authority for the
// content URI of filePath.
func (c *Caller) GetURIFromFilePath(ctx context.Context, authority, filePath string) (string, error) {
	result, err := c.Call(ctx, provider.MethodURIFromFile, "", provider.Bundle{
		provider.Arg1: authority,
		provider.Arg2: filePath,
	})
	if err != nil {
		return "", err
	}

	if code, ok := result.Int(provider.ResultError); ok {
		return "", &CallError{Code: code, Message: result.String(provider.ResultErrorMessage)}
	}
	return result.String(provider.ResultURI), nil
}

// GetURIFromFile is GetURIFromFilePath for an open file.
func (c *Caller) GetURIFromFile(ctx context.Context, authority string, f *os.File) (string, error) {
	return c.GetURIFromFilePath(ctx, authority, f.Name())
}
