// Package api defines the JSON payloads exchanged with the browser client.
package api

import "encoding/json"

// ProcessRequest is the body of POST /api/process.
type ProcessRequest struct {
	UserPrompt string `json:"user_prompt" binding:"required"`
}

// ProcessResponse is returned for every successfully answered prompt.
// ToolCalled, ToolResult and Action are populated only when the model
// requested a tool invocation during the exchange.
type ProcessResponse struct {
	Message     string          `json:"message"`
	Action      string          `json:"action"`
	ToolResult  json.RawMessage `json:"tool_result,omitempty"`
	LLMResult   string          `json:"llm_result"`
	ModelUsed   string          `json:"model_used"`
	Usage       Usage           `json:"usage"`
	LatencyMS   int64           `json:"latency_ms"`
	CacheStatus string          `json:"cache_status"`
}

// ErrorResponse is the structured error payload. Detail carries the tool
// server's rejection body when one exists; raw stack traces never appear.
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// Usage holds token accounting for a request, cumulative across both model
// rounds of a tool-augmented exchange.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Add accumulates another round's usage into u.
func (u *Usage) Add(other Usage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
}
