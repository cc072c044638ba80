package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/ShaofengChu/gemini-ui-server/internal/api"
	"github.com/ShaofengChu/gemini-ui-server/internal/llm"
	"github.com/ShaofengChu/gemini-ui-server/internal/toolexec"
	"github.com/ShaofengChu/gemini-ui-server/internal/tools"
)

type stubModel struct {
	first    *llm.Completion
	firstErr error
	final    *llm.Completion
	finalErr error

	completeCalls int
	followUpCalls int
	gotToolResult string
}

func (m *stubModel) Complete(ctx context.Context, prompt string) (*llm.Completion, error) {
	m.completeCalls++
	return m.first, m.firstErr
}

func (m *stubModel) CompleteWithToolResult(ctx context.Context, prompt string, prior *llm.Completion, toolResult string) (*llm.Completion, error) {
	m.followUpCalls++
	m.gotToolResult = toolResult
	return m.final, m.finalErr
}

type stubIssuer struct {
	token   string
	err     error
	calls   int
	gotTool string
	gotArgs map[string]any
}

func (i *stubIssuer) Issue(tool string, args map[string]any) (string, error) {
	i.calls++
	i.gotTool = tool
	i.gotArgs = args
	return i.token, i.err
}

type stubInvoker struct {
	result   string
	err      error
	calls    int
	gotTool  string
	gotToken string
}

func (inv *stubInvoker) Invoke(ctx context.Context, tool string, args map[string]any, token string) (string, error) {
	inv.calls++
	inv.gotTool = tool
	inv.gotToken = token
	return inv.result, inv.err
}

func TestHandlePromptDirectAnswer(t *testing.T) {
	model := &stubModel{
		first: &llm.Completion{
			Text:  "Paris is the capital of France.",
			Usage: api.Usage{PromptTokens: 8, CompletionTokens: 7, TotalTokens: 15},
		},
	}
	issuer := &stubIssuer{token: "never"}
	invoker := &stubInvoker{}
	orch := New(model, issuer, invoker, tools.DefaultCatalog())

	answer, err := orch.HandlePrompt(context.Background(), "What is the capital of France?")
	if err != nil {
		t.Fatalf("handle prompt: %v", err)
	}
	if answer.Text != "Paris is the capital of France." {
		t.Fatalf("text = %q", answer.Text)
	}
	if answer.ToolCalled != "" {
		t.Fatalf("tool recorded on a direct answer: %q", answer.ToolCalled)
	}
	if issuer.calls != 0 || invoker.calls != 0 {
		t.Fatalf("issuer calls = %d, invoker calls = %d, want 0/0", issuer.calls, invoker.calls)
	}
	if model.followUpCalls != 0 {
		t.Fatalf("follow-up model calls = %d, want 0", model.followUpCalls)
	}
}

func TestHandlePromptToolRound(t *testing.T) {
	model := &stubModel{
		first: &llm.Completion{
			Call:  &tools.FunctionCall{Name: "get_google_calendar_events", Args: map[string]any{"date": "tomorrow"}},
			Usage: api.Usage{PromptTokens: 10, CompletionTokens: 4, TotalTokens: 14},
		},
		final: &llm.Completion{
			Text:  "You have no meetings tomorrow.",
			Usage: api.Usage{PromptTokens: 20, CompletionTokens: 6, TotalTokens: 26},
		},
	}
	issuer := &stubIssuer{token: "signed-token"}
	invoker := &stubInvoker{result: `{"meetings":[]}`}
	orch := New(model, issuer, invoker, tools.DefaultCatalog())

	answer, err := orch.HandlePrompt(context.Background(), "Do I have any meetings tomorrow?")
	if err != nil {
		t.Fatalf("handle prompt: %v", err)
	}

	if answer.Text != "You have no meetings tomorrow." {
		t.Fatalf("text = %q", answer.Text)
	}
	if answer.ToolCalled != "get_google_calendar_events" {
		t.Fatalf("tool called = %q", answer.ToolCalled)
	}
	if answer.ToolResult != `{"meetings":[]}` {
		t.Fatalf("tool result = %q", answer.ToolResult)
	}
	if issuer.gotTool != "get_google_calendar_events" {
		t.Fatalf("issuer tool = %q", issuer.gotTool)
	}
	if issuer.gotArgs["date"] != "tomorrow" {
		t.Fatalf("issuer args = %v", issuer.gotArgs)
	}
	if invoker.gotToken != "signed-token" {
		t.Fatalf("invoker token = %q", invoker.gotToken)
	}
	if model.gotToolResult != `{"meetings":[]}` {
		t.Fatalf("model received tool result %q", model.gotToolResult)
	}
	wantUsage := api.Usage{PromptTokens: 30, CompletionTokens: 10, TotalTokens: 40}
	if answer.Usage != wantUsage {
		t.Fatalf("usage = %+v, want %+v", answer.Usage, wantUsage)
	}
}

func TestHandlePromptToolRejected(t *testing.T) {
	model := &stubModel{
		first: &llm.Completion{
			Call: &tools.FunctionCall{Name: "search_the_web", Args: map[string]any{"query": "go"}},
		},
	}
	issuer := &stubIssuer{token: "signed-token"}
	invoker := &stubInvoker{err: &toolexec.RejectedError{Tool: "search_the_web", Status: 403, Body: `{"detail":"bad token"}`}}
	orch := New(model, issuer, invoker, tools.DefaultCatalog())

	_, err := orch.HandlePrompt(context.Background(), "search something")

	var rejected *toolexec.RejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("error = %v, want *toolexec.RejectedError", err)
	}
	if model.completeCalls != 1 || model.followUpCalls != 0 {
		t.Fatalf("model calls = %d/%d, want exactly one first round and no follow-up",
			model.completeCalls, model.followUpCalls)
	}
}

func TestHandlePromptToolUnreachable(t *testing.T) {
	model := &stubModel{
		first: &llm.Completion{
			Call: &tools.FunctionCall{Name: "search_the_web", Args: map[string]any{"query": "go"}},
		},
	}
	invoker := &stubInvoker{err: &toolexec.UnreachableError{Err: errors.New("connection refused")}}
	orch := New(model, &stubIssuer{token: "t"}, invoker, tools.DefaultCatalog())

	_, err := orch.HandlePrompt(context.Background(), "search something")

	var unreachable *toolexec.UnreachableError
	if !errors.As(err, &unreachable) {
		t.Fatalf("error = %v, want *toolexec.UnreachableError", err)
	}
	if model.followUpCalls != 0 {
		t.Fatalf("follow-up model calls = %d, want 0", model.followUpCalls)
	}
}

func TestHandlePromptMalformedCall(t *testing.T) {
	model := &stubModel{
		first: &llm.Completion{
			Call: &tools.FunctionCall{Name: "launch_missiles", Args: map[string]any{}},
		},
	}
	issuer := &stubIssuer{token: "never"}
	invoker := &stubInvoker{}
	orch := New(model, issuer, invoker, tools.DefaultCatalog())

	_, err := orch.HandlePrompt(context.Background(), "do something odd")

	var malformed *tools.MalformedCallError
	if !errors.As(err, &malformed) {
		t.Fatalf("error = %v, want *tools.MalformedCallError", err)
	}
	if issuer.calls != 0 {
		t.Fatalf("credential issued for a malformed call (%d issuer calls)", issuer.calls)
	}
	if invoker.calls != 0 {
		t.Fatalf("invoker called for a malformed call (%d calls)", invoker.calls)
	}
}

func TestHandlePromptChainedToolCallRejected(t *testing.T) {
	model := &stubModel{
		first: &llm.Completion{
			Call: &tools.FunctionCall{Name: "search_the_web", Args: map[string]any{"query": "go"}},
		},
		final: &llm.Completion{
			Call: &tools.FunctionCall{Name: "get_google_calendar_events", Args: map[string]any{"date": "today"}},
		},
	}
	invoker := &stubInvoker{result: `{"hits":[]}`}
	orch := New(model, &stubIssuer{token: "t"}, invoker, tools.DefaultCatalog())

	_, err := orch.HandlePrompt(context.Background(), "search something")
	if !errors.Is(err, ErrChainedToolCall) {
		t.Fatalf("error = %v, want ErrChainedToolCall", err)
	}
	if invoker.calls != 1 {
		t.Fatalf("invoker calls = %d, want 1", invoker.calls)
	}
}

func TestHandlePromptEmptyPrompt(t *testing.T) {
	model := &stubModel{}
	orch := New(model, &stubIssuer{}, &stubInvoker{}, tools.DefaultCatalog())

	_, err := orch.HandlePrompt(context.Background(), "")
	if !errors.Is(err, ErrEmptyPrompt) {
		t.Fatalf("error = %v, want ErrEmptyPrompt", err)
	}
	if model.completeCalls != 0 {
		t.Fatalf("model called for an empty prompt (%d calls)", model.completeCalls)
	}
}

func TestHandlePromptUpstreamModelError(t *testing.T) {
	model := &stubModel{firstErr: &llm.UpstreamError{Op: "completion", Err: errors.New("quota exceeded")}}
	issuer := &stubIssuer{}
	orch := New(model, issuer, &stubInvoker{}, tools.DefaultCatalog())

	_, err := orch.HandlePrompt(context.Background(), "anything")

	var upstream *llm.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("error = %v, want *llm.UpstreamError", err)
	}
	if issuer.calls != 0 {
		t.Fatalf("issuer calls = %d, want 0", issuer.calls)
	}
}
