// Package llm contains the model gateway: the client interface the
// orchestrator talks to and its Gemini implementation.
package llm

import (
	"context"
	"fmt"

	"github.com/ShaofengChu/gemini-ui-server/internal/api"
	"github.com/ShaofengChu/gemini-ui-server/internal/tools"
)

// UpstreamError reports a failed model API exchange: the API was unreachable,
// returned a malformed payload, or rejected the request (quota, auth). It is
// never retried at this layer.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("model API %s failed: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Completion is the outcome of one model round: either plain text or a
// request to call a declared tool. Exactly one of Text and Call is
// meaningful; Call == nil means the model answered directly.
type Completion struct {
	Text  string
	Call  *tools.FunctionCall
	Usage api.Usage

	// turn is the provider's raw representation of the model's reply,
	// replayed verbatim on the follow-up round so provider-internal state
	// (e.g. thought signatures) survives. Implementations may leave it nil,
	// in which case the follow-up round reconstructs the turn from Call.
	turn any
}

// Client is the gateway to the hosted language model. Implementations are
// stateless across invocations; every call is a single network exchange.
type Client interface {
	// Complete sends the prompt together with the declared tool set and
	// returns the model's reply. The model alone decides whether to answer
	// directly or to request a tool call; the client does not second-guess.
	Complete(ctx context.Context, prompt string) (*Completion, error)

	// CompleteWithToolResult performs the second round of a tool-augmented
	// exchange: it replays the original prompt and the model's function-call
	// turn from prior, attaches the tool's result, and returns the model's
	// final reply.
	CompleteWithToolResult(ctx context.Context, prompt string, prior *Completion, toolResult string) (*Completion, error)
}
