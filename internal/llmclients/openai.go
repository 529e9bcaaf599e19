package llmclients

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/arjunkade/agentcore/internal/llm"
	"github.com/arjunkade/agentcore/pkg/models"
)

// OpenAICompatible adapts github.com/sashabaranov/go-openai to the
// llm.Client contract. baseURL lets it target any OpenAI-compatible
// endpoint (self-hosted gateways, proxies), not only api.openai.com.
type OpenAICompatible struct {
	client *openai.Client
}

// NewOpenAICompatible builds an adapter authenticated with apiKey. An empty
// baseURL uses the official OpenAI endpoint.
func NewOpenAICompatible(apiKey, baseURL string) *OpenAICompatible {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAICompatible{client: openai.NewClientWithConfig(cfg)}
}

// Provider implements llm.Client.
func (o *OpenAICompatible) Provider() string { return "openai" }

// Chat implements llm.Client.
func (o *OpenAICompatible) Chat(ctx context.Context, req llm.Request) (llm.Response, error) {
	messages, err := convertMessagesOpenAI(req.Messages)
	if err != nil {
		return llm.Response{}, fmt.Errorf("llmclients: openai: convert messages: %w", err)
	}

	chatReq := openai.ChatCompletionRequest{
		Model:    req.Model,
		Messages: messages,
	}
	if req.MaxTokens > 0 {
		chatReq.MaxTokens = req.MaxTokens
	}
	if len(req.Tools) > 0 {
		chatReq.Tools = convertToolsOpenAI(req.Tools)
	}

	resp, err := o.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return llm.Response{}, fmt.Errorf("llmclients: openai: chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return llm.Response{}, fmt.Errorf("llmclients: openai: response had no choices")
	}

	return llm.Response{Choices: []llm.Choice{convertChoiceOpenAI(resp.Choices[0])}}, nil
}

func convertMessagesOpenAI(msgs []models.Message) ([]openai.ChatCompletionMessage, error) {
	out := make([]openai.ChatCompletionMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, openai.ChatCompletionMessage{
			Role:       string(m.Role),
			Content:    m.TextOrEmpty(),
			ToolCallID: m.ToolCallID,
			ToolCalls:  convertToolCallsOpenAI(m.ToolCalls),
		})
	}
	return out, nil
}

func convertToolCallsOpenAI(calls []models.ToolCall) []openai.ToolCall {
	if len(calls) == 0 {
		return nil
	}
	out := make([]openai.ToolCall, 0, len(calls))
	for _, c := range calls {
		out = append(out, openai.ToolCall{
			ID:   c.ID,
			Type: openai.ToolTypeFunction,
			Function: openai.FunctionCall{
				Name:      c.Name,
				Arguments: c.Arguments,
			},
		})
	}
	return out
}

func convertToolsOpenAI(tools []llm.ToolSchema) []openai.Tool {
	out := make([]openai.Tool, 0, len(tools))
	for _, t := range tools {
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Function.Name,
				Description: t.Function.Description,
				Parameters:  t.Function.Parameters,
			},
		})
	}
	return out
}

func convertChoiceOpenAI(choice openai.ChatCompletionChoice) llm.Choice {
	finishReason := string(choice.FinishReason)

	if len(choice.Message.ToolCalls) > 0 {
		calls := make([]models.ToolCall, 0, len(choice.Message.ToolCalls))
		for _, tc := range choice.Message.ToolCalls {
			calls = append(calls, models.ToolCall{
				ID:        tc.ID,
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			})
		}
		return llm.Choice{
			Message:      models.NewToolCallMessage(calls),
			FinishReason: llm.FinishReasonToolCalls,
		}
	}

	return llm.Choice{
		Message:      models.NewTextMessage(models.RoleAssistant, choice.Message.Content),
		FinishReason: finishReason,
	}
}
