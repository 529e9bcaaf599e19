// Package llm defines the wire-neutral contract the turn loop and the
// compactor speak to a language model provider, plus the two finish-reason
// spellings the loop must accept.
package llm

import (
	"context"

	"github.com/arjunkade/agentcore/pkg/models"
)

// The two finish_reason spellings different providers use for "the model
// wants to call a tool". Both are treated identically; exporting them as
// named constants (rather than comparing inline string literals in two
// places) is the guard against a third spelling showing up unnoticed.
const (
	FinishReasonToolCalls = "tool_calls"
	FinishReasonToolUse   = "tool_use"
)

// IsToolRequest reports whether finishReason plus the presence of tool
// calls together indicate a tool-requesting response.
func IsToolRequest(finishReason string, toolCalls []models.ToolCall) bool {
	if len(toolCalls) == 0 {
		return false
	}
	return finishReason == FinishReasonToolCalls || finishReason == FinishReasonToolUse
}

// ToolSchema describes one callable tool in the format providers expect for
// function-calling: {type:"function", function:{name, description, parameters}}.
type ToolSchema struct {
	Type     string           `json:"type"`
	Function ToolSchemaDetail `json:"function"`
}

// ToolSchemaDetail is the nested "function" object of a ToolSchema.
type ToolSchemaDetail struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Parameters  any    `json:"parameters"`
}

// Request is one Chat call: the full message history (system prompt
// included as the first message by convention), the model name, a response
// size cap, and the tool schemas currently on offer.
type Request struct {
	Model     string
	Messages  []models.Message
	MaxTokens int
	Tools     []ToolSchema
}

// Response is a provider's reply. Choices is a single-element slice to
// mirror the shape providers hand back; the loop only ever reads index 0.
type Response struct {
	Choices []Choice
}

// Choice pairs a candidate message with the reason generation stopped.
type Choice struct {
	Message      models.Message
	FinishReason string
}

// Client is the only interface the turn loop and compactor require of an
// LLM transport. Concrete adapters (Anthropic, OpenAI-compatible) live in
// sibling packages and are wired together only in cmd/.
type Client interface {
	Chat(ctx context.Context, req Request) (Response, error)
	// Provider names the transport for metrics labelling (e.g. "anthropic").
	Provider() string
}
