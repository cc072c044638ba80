package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/ShaofengChu/gemini-ui-server/internal/api"
	"github.com/ShaofengChu/gemini-ui-server/internal/llm"
	"github.com/ShaofengChu/gemini-ui-server/internal/orchestrator"
	"github.com/ShaofengChu/gemini-ui-server/internal/toolexec"
	"github.com/ShaofengChu/gemini-ui-server/internal/tools"
	cacheversion "github.com/ShaofengChu/gemini-ui-server/internal/version"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// promptHandler is the orchestrator's surface as the HTTP layer sees it.
type promptHandler interface {
	HandlePrompt(ctx context.Context, prompt string) (*orchestrator.Answer, error)
}

// GatewayHandler serves POST /api/process. The Redis client is optional;
// when nil, the response cache is disabled.
type GatewayHandler struct {
	orchestrator promptHandler
	modelID      string
	rdb          *redis.Client
	cacheTTL     time.Duration
}

func NewGatewayHandler(orch promptHandler, modelID string, rdb *redis.Client, cacheTTL time.Duration) *GatewayHandler {
	return &GatewayHandler{
		orchestrator: orch,
		modelID:      modelID,
		rdb:          rdb,
		cacheTTL:     cacheTTL,
	}
}

func (h *GatewayHandler) HandleProcess(c *gin.Context) {
	startTime := time.Now()

	var req api.ProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid request: " + err.Error()})
		return
	}

	log.Printf("--- New Request (Prompt: '%.30s...') ---", req.UserPrompt)

	cacheKey := cacheversion.GenerateVersionedCacheKey("llmcache", req.UserPrompt)
	if cached, found := h.checkCache(c.Request.Context(), cacheKey); found {
		log.Println("✅ Cache HIT")
		cached.LatencyMS = time.Since(startTime).Milliseconds()
		cached.CacheStatus = "HIT"
		c.JSON(http.StatusOK, cached)
		return
	}

	answer, err := h.orchestrator.HandlePrompt(c.Request.Context(), req.UserPrompt)
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := api.ProcessResponse{
		Message:     "Answer provided directly by LLM.",
		Action:      "Direct LLM Response",
		LLMResult:   answer.Text,
		ModelUsed:   h.modelID,
		Usage:       answer.Usage,
		LatencyMS:   time.Since(startTime).Milliseconds(),
		CacheStatus: "MISS",
	}
	if answer.ToolCalled != "" {
		resp.Message = "Tool executed via tool server, final answer generated by LLM."
		resp.Action = "Called tool server for tool: " + answer.ToolCalled
		resp.ToolResult = json.RawMessage(answer.ToolResult)
	}

	// Only direct answers are cached. A tool-backed answer reflects live
	// external state and a credential that was valid for that one call.
	if answer.ToolCalled == "" {
		h.setCache(c.Request.Context(), cacheKey, resp)
	}

	c.JSON(http.StatusOK, resp)
}

// writeError converts the per-request error taxonomy into structured JSON.
// Raw stack traces never reach the caller.
func (h *GatewayHandler) writeError(c *gin.Context, err error) {
	var malformed *tools.MalformedCallError
	var rejected *toolexec.RejectedError
	var unreachable *toolexec.UnreachableError
	var upstream *llm.UpstreamError

	switch {
	case errors.Is(err, orchestrator.ErrEmptyPrompt):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Prompt must not be empty."})
	case errors.As(err, &malformed):
		log.Printf("⚠️ Malformed function call: %v", err)
		c.JSON(http.StatusBadGateway, api.ErrorResponse{
			Error:  "The model requested a tool call that does not match the declared tool set.",
			Detail: malformed.Reason,
		})
	case errors.As(err, &rejected):
		log.Printf("⚠️ Tool server rejected call: %v", err)
		msg := "The tool server rejected the call arguments."
		if rejected.TokenRejected() {
			msg = "The tool server refused the authorization token."
		}
		c.JSON(rejected.Status, api.ErrorResponse{Error: msg, Detail: rejected.Body})
	case errors.As(err, &unreachable):
		log.Printf("⚠️ Tool server unreachable: %v", err)
		c.JSON(http.StatusBadGateway, api.ErrorResponse{Error: "Could not reach the tool server."})
	case errors.Is(err, orchestrator.ErrChainedToolCall):
		log.Printf("⚠️ Chained tool call: %v", err)
		c.JSON(http.StatusBadGateway, api.ErrorResponse{Error: "The model requested more than one tool call per prompt, which is not supported."})
	case errors.As(err, &upstream):
		log.Printf("⚠️ Upstream model error: %v", err)
		c.JSON(http.StatusBadGateway, api.ErrorResponse{Error: "The language model service failed to answer."})
	default:
		log.Printf("❌ Internal error: %v", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Internal server error."})
	}
}

func (h *GatewayHandler) checkCache(ctx context.Context, key string) (*api.ProcessResponse, bool) {
	if h.rdb == nil {
		return nil, false
	}
	raw, err := h.rdb.Get(ctx, key).Result()
	if err != nil {
		return nil, false
	}
	var resp api.ProcessResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, false
	}
	return &resp, true
}

func (h *GatewayHandler) setCache(ctx context.Context, key string, resp api.ProcessResponse) {
	if h.rdb == nil {
		return
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		log.Printf("WARNING: Failed to marshal response for caching: %v", err)
		return
	}
	if err := h.rdb.Set(ctx, key, raw, h.cacheTTL).Err(); err != nil {
		log.Printf("WARNING: Failed to cache response: %v", err)
		return
	}
	log.Println("✅ Response CACHED")
}
