package compaction

import (
	"context"
	"strings"
	"testing"

	"github.com/arjunkade/agentcore/internal/llm"
	"github.com/arjunkade/agentcore/pkg/models"
)

type fakeClient struct {
	response llm.Response
	calls    int
}

func (f *fakeClient) Chat(ctx context.Context, req llm.Request) (llm.Response, error) {
	f.calls++
	return f.response, nil
}

func (f *fakeClient) Provider() string { return "fake" }

func textResponse(text string) llm.Response {
	return llm.Response{Choices: []llm.Choice{{Message: models.NewTextMessage(models.RoleAssistant, text), FinishReason: "stop"}}}
}

func TestCompactBelowThresholdIsIdentity(t *testing.T) {
	fc := &fakeClient{response: textResponse("summary")}
	c := New(fc, "test-model")

	msgs := []models.Message{
		models.NewTextMessage(models.RoleUser, "hi"),
		models.NewTextMessage(models.RoleAssistant, "hello"),
	}
	out, err := c.Compact(context.Background(), msgs)
	if err != nil {
		t.Fatalf("Compact: %v", err)
	}
	if len(out) != len(msgs) {
		t.Fatalf("expected identity below threshold, got %d messages", len(out))
	}
	if fc.calls != 0 {
		t.Fatalf("expected no LLM calls below threshold, got %d", fc.calls)
	}
}

func TestCompactAboveThresholdPreservesTailAndReducesEstimate(t *testing.T) {
	fc := &fakeClient{response: textResponse("a short summary")}
	c := New(fc, "test-model")
	c.Threshold = 10 // force compaction with tiny history

	var msgs []models.Message
	for i := 0; i < 20; i++ {
		msgs = append(msgs, models.NewTextMessage(models.RoleUser, strings.Repeat("x", 50)))
		msgs = append(msgs, models.NewTextMessage(models.RoleAssistant, strings.Repeat("y", 50)))
	}
	recentTail := msgs[len(msgs)-4:]

	before, err := EstimateTokens(msgs)
	if err != nil {
		t.Fatalf("EstimateTokens: %v", err)
	}

	out, err := c.Compact(context.Background(), msgs)
	if err != nil {
		t.Fatalf("Compact: %v", err)
	}
	if fc.calls != 1 {
		t.Fatalf("expected exactly 1 LLM call, got %d", fc.calls)
	}

	after, err := EstimateTokens(out)
	if err != nil {
		t.Fatalf("EstimateTokens: %v", err)
	}
	if after >= before {
		t.Fatalf("expected compaction to reduce estimate: before=%d after=%d", before, after)
	}

	if !strings.Contains(out[0].TextOrEmpty(), "Conversation summary") {
		t.Fatalf("expected summary header, got %q", out[0].TextOrEmpty())
	}

	gotTail := out[len(out)-4:]
	for i := range recentTail {
		if gotTail[i].TextOrEmpty() != recentTail[i].TextOrEmpty() {
			t.Fatalf("recent tail not preserved verbatim at index %d", i)
		}
	}
}

func TestCompactWithNoOldHalfIsIdentity(t *testing.T) {
	fc := &fakeClient{response: textResponse("summary")}
	c := New(fc, "test-model")
	c.Threshold = 1

	msgs := []models.Message{models.NewTextMessage(models.RoleUser, "hi")}
	out, err := c.Compact(context.Background(), msgs)
	if err != nil {
		t.Fatalf("Compact: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected identity when old half is empty, got %d messages", len(out))
	}
	if fc.calls != 0 {
		t.Fatalf("expected no LLM call when nothing to summarise, got %d", fc.calls)
	}
}

func TestEstimateTokensIsCharDividedByFour(t *testing.T) {
	msgs := []models.Message{models.NewTextMessage(models.RoleUser, "hi")}
	est, err := EstimateTokens(msgs)
	if err != nil {
		t.Fatalf("EstimateTokens: %v", err)
	}
	// [{"role":"user","content":"hi"}] is 32 bytes of JSON; 32/4 = 8.
	if est != 8 {
		t.Fatalf("expected estimate 8, got %d", est)
	}
}

func TestRenderForSummaryFormatsToolMessages(t *testing.T) {
	msgs := []models.Message{
		models.NewToolCallMessage([]models.ToolCall{{ID: "c1", Name: "echo"}}),
		models.NewToolResultMessage("c1", "echoed: hi"),
	}
	rendered := renderForSummary(msgs)
	if !strings.Contains(rendered, "called tools: echo") {
		t.Fatalf("expected tool-call rendering, got %q", rendered)
	}
	if !strings.Contains(rendered, "[Tool result c1]: echoed: hi") {
		t.Fatalf("expected tool result rendering, got %q", rendered)
	}
}
