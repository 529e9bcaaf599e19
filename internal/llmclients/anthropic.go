// Package llmclients provides concrete, swappable implementations of
// internal/llm.Client. Neither adapter is imported by internal/agent
// itself; they are wired together only at the cmd/ entrypoint, selected by
// the configured llm.provider.
package llmclients

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/arjunkade/agentcore/internal/llm"
	"github.com/arjunkade/agentcore/pkg/models"
)

// DefaultMaxTokens caps a single Chat response when a request leaves
// MaxTokens unset.
const DefaultMaxTokens = 4096

// Anthropic adapts github.com/anthropics/anthropic-sdk-go to the llm.Client
// contract, translating the wire-neutral Message/ToolCall shapes to and
// from Anthropic's content-block message format and normalising its
// "tool_use" stop_reason to the spelling llm.IsToolRequest recognises.
type Anthropic struct {
	client anthropic.Client
}

// NewAnthropic builds an adapter authenticated with apiKey. baseURL may be
// empty to use Anthropic's default endpoint.
func NewAnthropic(apiKey, baseURL string) *Anthropic {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &Anthropic{client: anthropic.NewClient(opts...)}
}

// Provider implements llm.Client.
func (a *Anthropic) Provider() string { return "anthropic" }

// Chat implements llm.Client.
func (a *Anthropic) Chat(ctx context.Context, req llm.Request) (llm.Response, error) {
	system, messages, err := convertMessages(req.Messages)
	if err != nil {
		return llm.Response{}, fmt.Errorf("llmclients: anthropic: convert messages: %w", err)
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		Messages:  messages,
		MaxTokens: int64(maxTokens),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if len(req.Tools) > 0 {
		tools, err := convertTools(req.Tools)
		if err != nil {
			return llm.Response{}, fmt.Errorf("llmclients: anthropic: convert tools: %w", err)
		}
		params.Tools = tools
	}

	msg, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return llm.Response{}, fmt.Errorf("llmclients: anthropic: chat: %w", err)
	}

	return llm.Response{Choices: []llm.Choice{convertResponse(msg)}}, nil
}

func convertMessages(msgs []models.Message) (system string, out []anthropic.MessageParam, err error) {
	for _, m := range msgs {
		if m.Role == models.RoleSystem {
			system = m.TextOrEmpty()
			continue
		}

		var blocks []anthropic.ContentBlockParamUnion
		if m.Content != nil && *m.Content != "" {
			blocks = append(blocks, anthropic.NewTextBlock(*m.Content))
		}
		if m.Role == models.RoleTool {
			blocks = append(blocks, anthropic.NewToolResultBlock(m.ToolCallID, m.TextOrEmpty(), false))
			out = append(out, anthropic.NewUserMessage(blocks...))
			continue
		}
		for _, tc := range m.ToolCalls {
			var input map[string]any
			if err := json.Unmarshal([]byte(tc.Arguments), &input); err != nil {
				return "", nil, fmt.Errorf("tool call %s has invalid arguments: %w", tc.ID, err)
			}
			blocks = append(blocks, anthropic.NewToolUseBlock(tc.ID, input, tc.Name))
		}

		if m.Role == models.RoleAssistant {
			out = append(out, anthropic.NewAssistantMessage(blocks...))
		} else {
			out = append(out, anthropic.NewUserMessage(blocks...))
		}
	}
	return system, out, nil
}

func convertTools(tools []llm.ToolSchema) ([]anthropic.ToolUnionParam, error) {
	out := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		raw, err := json.Marshal(t.Function.Parameters)
		if err != nil {
			return nil, fmt.Errorf("tool %s: marshal parameters: %w", t.Function.Name, err)
		}
		var schema anthropic.ToolInputSchemaParam
		if err := json.Unmarshal(raw, &schema); err != nil {
			return nil, fmt.Errorf("tool %s: invalid parameter schema: %w", t.Function.Name, err)
		}
		param := anthropic.ToolUnionParamOfTool(schema, t.Function.Name)
		if param.OfTool != nil {
			param.OfTool.Description = anthropic.String(t.Function.Description)
		}
		out = append(out, param)
	}
	return out, nil
}

func convertResponse(msg *anthropic.Message) llm.Choice {
	var text string
	var toolCalls []models.ToolCall

	for _, block := range msg.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			text += variant.Text
		case anthropic.ToolUseBlock:
			toolCalls = append(toolCalls, models.ToolCall{
				ID:        variant.ID,
				Name:      variant.Name,
				Arguments: string(variant.Input),
			})
		}
	}

	finishReason := string(msg.StopReason)
	if finishReason == "tool_use" {
		finishReason = llm.FinishReasonToolUse
	}

	if len(toolCalls) > 0 {
		return llm.Choice{
			Message:      models.NewToolCallMessage(toolCalls),
			FinishReason: finishReason,
		}
	}
	return llm.Choice{
		Message:      models.NewTextMessage(models.RoleAssistant, text),
		FinishReason: finishReason,
	}
}
