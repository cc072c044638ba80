package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ShaofengChu/gemini-ui-server/internal/api"
	"github.com/ShaofengChu/gemini-ui-server/internal/tools"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiClient is the Client implementation backed by Google's Gemini models.
// The declared tool set is attached once at construction; configuration is
// read-only afterwards, so a single client is safe to share across requests.
type GeminiClient struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

var _ Client = (*GeminiClient)(nil)

func NewGeminiClient(ctx context.Context, apiKey, modelID string, catalog *tools.Catalog, maxOutputTokens int32) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, errors.New("gemini API key cannot be empty")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	model := client.GenerativeModel(modelID)
	if maxOutputTokens > 0 {
		model.SetMaxOutputTokens(maxOutputTokens)
	}
	model.Tools = toGeminiTools(catalog.Definitions())
	return &GeminiClient{client: client, model: model}, nil
}

// Close releases the underlying API connection.
func (c *GeminiClient) Close() error {
	return c.client.Close()
}

// Complete sends the prompt with the declared tool set and parses the reply.
func (c *GeminiClient) Complete(ctx context.Context, prompt string) (*Completion, error) {
	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, &UpstreamError{Op: "completion", Err: err}
	}
	return parseGeminiResponse(resp)
}

// CompleteWithToolResult replays the first round and hands the tool's result
// back to the model as a function response part.
func (c *GeminiClient) CompleteWithToolResult(ctx context.Context, prompt string, prior *Completion, toolResult string) (*Completion, error) {
	if prior == nil || prior.Call == nil {
		return nil, &UpstreamError{Op: "tool follow-up", Err: errors.New("prior completion carries no function call")}
	}

	chat := c.model.StartChat()
	chat.History = []*genai.Content{
		{Role: "user", Parts: []genai.Part{genai.Text(prompt)}},
		modelTurn(prior),
	}

	// The tool server answers with arbitrary JSON; hand it to the model as a
	// decoded structure when possible, raw text otherwise.
	var decoded any
	if err := json.Unmarshal([]byte(toolResult), &decoded); err != nil {
		decoded = toolResult
	}

	resp, err := chat.SendMessage(ctx, genai.FunctionResponse{
		Name:     prior.Call.Name,
		Response: map[string]any{"result": decoded},
	})
	if err != nil {
		return nil, &UpstreamError{Op: "tool follow-up", Err: err}
	}
	return parseGeminiResponse(resp)
}

// modelTurn returns the model's function-call turn for replay. The raw turn
// from the first round is preferred; when absent it is rebuilt from the
// parsed call.
func modelTurn(prior *Completion) *genai.Content {
	if content, ok := prior.turn.(*genai.Content); ok && content != nil {
		return content
	}
	return &genai.Content{
		Role:  "model",
		Parts: []genai.Part{genai.FunctionCall{Name: prior.Call.Name, Args: prior.Call.Args}},
	}
}

// toGeminiTools converts the catalog's definitions to the SDK's format.
func toGeminiTools(defs []tools.Tool) []*genai.Tool {
	declarations := make([]*genai.FunctionDeclaration, 0, len(defs))
	for _, def := range defs {
		declarations = append(declarations, &genai.FunctionDeclaration{
			Name:        def.Name,
			Description: def.Description,
			Parameters:  convertSchema(def.Parameters),
		})
	}
	if len(declarations) == 0 {
		return nil
	}
	return []*genai.Tool{{FunctionDeclarations: declarations}}
}

// convertSchema converts our JSONSchema to the Gemini SDK's schema type.
func convertSchema(s tools.JSONSchema) *genai.Schema {
	schema := &genai.Schema{
		Description: s.Description,
		Required:    s.Required,
	}
	switch s.Type {
	case "object":
		schema.Type = genai.TypeObject
	case "string":
		schema.Type = genai.TypeString
	case "number":
		schema.Type = genai.TypeNumber
	case "integer":
		schema.Type = genai.TypeInteger
	case "boolean":
		schema.Type = genai.TypeBoolean
	case "array":
		schema.Type = genai.TypeArray
	}
	if s.Properties != nil {
		schema.Properties = make(map[string]*genai.Schema)
		for k, v := range s.Properties {
			schema.Properties[k] = convertSchema(*v)
		}
	}
	return schema
}

// parseGeminiResponse converts an API response into a Completion. The first
// function-call part wins; the gateway supports one tool invocation per
// exchange.
func parseGeminiResponse(resp *genai.GenerateContentResponse) (*Completion, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, &UpstreamError{Op: "completion", Err: errors.New("no content returned from Gemini")}
	}

	candidate := resp.Candidates[0]
	var contentBuilder strings.Builder
	var call *tools.FunctionCall

	for _, part := range candidate.Content.Parts {
		switch v := part.(type) {
		case genai.Text:
			contentBuilder.WriteString(string(v))
		case genai.FunctionCall:
			if call == nil {
				call = &tools.FunctionCall{Name: v.Name, Args: v.Args}
			}
		}
	}

	completion := &Completion{
		Text: strings.TrimSpace(contentBuilder.String()),
		Call: call,
		turn: candidate.Content,
	}
	if resp.UsageMetadata != nil {
		completion.Usage = api.Usage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}
	return completion, nil
}
