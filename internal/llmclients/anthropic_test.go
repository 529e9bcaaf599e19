package llmclients

import (
	"testing"

	"github.com/arjunkade/agentcore/internal/llm"
	"github.com/arjunkade/agentcore/pkg/models"
)

func TestConvertMessagesSplitsSystemPrompt(t *testing.T) {
	msgs := []models.Message{
		models.NewTextMessage(models.RoleSystem, "be helpful"),
		models.NewTextMessage(models.RoleUser, "hello"),
	}
	system, out, err := convertMessages(msgs)
	if err != nil {
		t.Fatalf("convertMessages: %v", err)
	}
	if system != "be helpful" {
		t.Fatalf("expected system prompt extracted, got %q", system)
	}
	if len(out) != 1 {
		t.Fatalf("expected system message excluded from the message list, got %d entries", len(out))
	}
}

func TestConvertMessagesRejectsMalformedToolArguments(t *testing.T) {
	msgs := []models.Message{
		models.NewToolCallMessage([]models.ToolCall{{ID: "c1", Name: "echo", Arguments: "not json"}}),
	}
	if _, _, err := convertMessages(msgs); err == nil {
		t.Fatalf("expected an error for malformed tool call arguments")
	}
}

func TestConvertToolsCarriesNameAndDescription(t *testing.T) {
	tools := []llm.ToolSchema{
		{Type: "function", Function: llm.ToolSchemaDetail{
			Name:        "echo",
			Description: "echoes text",
			Parameters:  map[string]any{"type": "object"},
		}},
	}
	out, err := convertTools(tools)
	if err != nil {
		t.Fatalf("convertTools: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected one converted tool, got %d", len(out))
	}
}
