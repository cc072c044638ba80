// Package toolexec performs the outbound call to the external tool-execution
// server, attaching the per-invocation credential as a bearer token.
package toolexec

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const executePath = "/api/tool-execute"

// UnreachableError reports a network-level failure reaching the tool server:
// timeout, connection refused, DNS failure. Distinct from an application
// rejection, which arrives as a *RejectedError.
type UnreachableError struct {
	Err error
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("tool server unreachable: %v", e.Err)
}

func (e *UnreachableError) Unwrap() error { return e.Err }

// RejectedError reports an application-level rejection from the tool server.
// Status distinguishes a refused credential (401/403) from bad arguments
// (other 4xx); Body carries the server's error payload.
type RejectedError struct {
	Tool   string
	Status int
	Body   string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("tool server rejected '%s' with status %d", e.Tool, e.Status)
}

// TokenRejected reports whether the rejection indicates a refused credential
// rather than a bad argument set.
func (e *RejectedError) TokenRejected() bool {
	return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
}

// executeRequest is the wire format the tool server expects.
type executeRequest struct {
	ToolName  string         `json:"tool_name"`
	Arguments map[string]any `json:"arguments"`
}

// Invoker calls the tool-execution server. It holds its own configured HTTP
// client with a timeout, so a hung tool call cannot outlive the credential's
// validity window. A single attempt is made per invocation; no retries.
type Invoker struct {
	baseURL    string
	httpClient *http.Client
}

func NewInvoker(baseURL string, timeout time.Duration) *Invoker {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Invoker{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Invoke executes one tool call, returning the raw JSON of the response's
// "result" field on success.
func (inv *Invoker) Invoke(ctx context.Context, tool string, args map[string]any, token string) (string, error) {
	payload, err := json.Marshal(executeRequest{ToolName: tool, Arguments: args})
	if err != nil {
		return "", fmt.Errorf("failed to encode tool request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, inv.baseURL+executePath, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create tool request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", "Gemini-UI-Server/1.0")

	resp, err := inv.httpClient.Do(req)
	if err != nil {
		return "", &UnreachableError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &UnreachableError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &RejectedError{Tool: tool, Status: resp.StatusCode, Body: string(body)}
	}

	// The server wraps its payload as {"result": ...}; fall back to the whole
	// body when the wrapper is absent.
	if result := gjson.GetBytes(body, "result"); result.Exists() {
		return result.Raw, nil
	}
	return string(body), nil
}
