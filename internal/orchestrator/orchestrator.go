// Package orchestrator sequences a single prompt through the model gateway,
// the credential issuer and the tool invoker. One prompt in, one final answer
// out, with at most one tool invocation per request.
package orchestrator

import (
	"context"
	"errors"
	"log"

	"github.com/ShaofengChu/gemini-ui-server/internal/api"
	"github.com/ShaofengChu/gemini-ui-server/internal/llm"
	"github.com/ShaofengChu/gemini-ui-server/internal/tools"
)

// ErrEmptyPrompt rejects requests whose prompt is empty or missing.
var ErrEmptyPrompt = errors.New("prompt must not be empty")

// ErrChainedToolCall is returned when the follow-up model round requests yet
// another tool call. The service supports exactly one tool round per prompt.
var ErrChainedToolCall = errors.New("model requested a second tool call in one exchange")

// CredentialIssuer mints a signed credential scoped to one tool invocation.
type CredentialIssuer interface {
	Issue(tool string, args map[string]any) (string, error)
}

// ToolInvoker executes one tool call on the remote tool server.
type ToolInvoker interface {
	Invoke(ctx context.Context, tool string, args map[string]any, token string) (string, error)
}

// CallValidator checks a model-requested call against the declared tool set.
type CallValidator interface {
	Validate(call *tools.FunctionCall) error
}

// Answer is the final payload for one prompt. ToolCalled and ToolResult are
// set only when the exchange went through a tool round.
type Answer struct {
	Text       string
	ToolCalled string
	ToolResult string
	Usage      api.Usage
}

// Orchestrator holds no per-request state; a single instance serves all
// requests concurrently.
type Orchestrator struct {
	model   llm.Client
	issuer  CredentialIssuer
	invoker ToolInvoker
	catalog CallValidator
}

func New(model llm.Client, issuer CredentialIssuer, invoker ToolInvoker, catalog CallValidator) *Orchestrator {
	return &Orchestrator{
		model:   model,
		issuer:  issuer,
		invoker: invoker,
		catalog: catalog,
	}
}

// HandlePrompt runs the request flow: ask the model, and when it requests a
// function call, validate the call, issue a credential for it, invoke the
// tool, and feed the result back for the final answer. Steps are strictly
// sequential; a tool failure ends the request without a second model round.
func (o *Orchestrator) HandlePrompt(ctx context.Context, prompt string) (*Answer, error) {
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}

	first, err := o.model.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	if first.Call == nil {
		return &Answer{Text: first.Text, Usage: first.Usage}, nil
	}

	call := first.Call
	log.Printf("🔧 Model requested tool: %s(%v)", call.Name, call.Args)

	if err := o.catalog.Validate(call); err != nil {
		return nil, err
	}

	token, err := o.issuer.Issue(call.Name, call.Args)
	if err != nil {
		return nil, err
	}

	result, err := o.invoker.Invoke(ctx, call.Name, call.Args, token)
	if err != nil {
		return nil, err
	}

	final, err := o.model.CompleteWithToolResult(ctx, prompt, first, result)
	if err != nil {
		return nil, err
	}
	if final.Call != nil {
		return nil, ErrChainedToolCall
	}

	usage := first.Usage
	usage.Add(final.Usage)

	return &Answer{
		Text:       final.Text,
		ToolCalled: call.Name,
		ToolResult: result,
		Usage:      usage,
	}, nil
}
