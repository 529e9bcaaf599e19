// Package compaction implements the context-window compactor: once a
// session's estimated size crosses a threshold, the older half of its
// history is replaced in place by a single LLM-generated summary message,
// and the recent tail is preserved verbatim.
package compaction

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/arjunkade/agentcore/internal/llm"
	"github.com/arjunkade/agentcore/internal/observability"
	"github.com/arjunkade/agentcore/pkg/models"
)

// DefaultThreshold is the default estimated-token trigger for compaction.
const DefaultThreshold = 100_000

const summaryMaxTokens = 2048

const summarySystemPrompt = "You are a conversation summariser. Condense the following conversation " +
	"history into a concise summary that preserves important facts, decisions, and open tasks. " +
	"Do not invent information that is not present in the transcript."

// Compactor summarises the older half of a session's history when its
// estimated size crosses Threshold.
type Compactor struct {
	Client    llm.Client
	Model     string
	Threshold int
	Recorder  observability.Recorder
}

// New creates a Compactor with DefaultThreshold and a no-op Recorder;
// override Threshold or Recorder directly on the returned value if needed.
func New(client llm.Client, model string) *Compactor {
	return &Compactor{Client: client, Model: model, Threshold: DefaultThreshold, Recorder: observability.NoopRecorder{}}
}

func (c *Compactor) recorder() observability.Recorder {
	if c.Recorder == nil {
		return observability.NoopRecorder{}
	}
	return c.Recorder
}

// EstimateTokens is a coarse, tokeniser-independent char-to-token proxy:
// the length of the JSON encoding of msgs divided by four. It is
// deliberately crude; exactness is explicitly out of scope for this core.
func EstimateTokens(msgs []models.Message) (int, error) {
	data, err := json.Marshal(msgs)
	if err != nil {
		return 0, fmt.Errorf("compaction: estimate tokens: %w", err)
	}
	return len(data) / 4, nil
}

// ShouldCompact reports whether msgs' estimated size has crossed c's
// threshold.
func (c *Compactor) ShouldCompact(msgs []models.Message) (bool, error) {
	est, err := EstimateTokens(msgs)
	if err != nil {
		return false, err
	}
	return est >= c.effectiveThreshold(), nil
}

func (c *Compactor) effectiveThreshold() int {
	if c.Threshold <= 0 {
		return DefaultThreshold
	}
	return c.Threshold
}

// Compact summarises the old half of msgs via the LLM and returns a new
// slice: one summary message (role=user) followed by the recent tail,
// verbatim. If msgs is below threshold, or the split would leave nothing to
// summarise, msgs is returned unchanged (the same backing slice — callers
// must not rely on this to defensively copy).
func (c *Compactor) Compact(ctx context.Context, msgs []models.Message) ([]models.Message, error) {
	should, err := c.ShouldCompact(msgs)
	if err != nil {
		return nil, err
	}
	if !should {
		return msgs, nil
	}

	split := splitIndex(msgs)
	old, recent := msgs[:split], msgs[split:]
	if len(old) == 0 {
		return msgs, nil
	}

	rendered := renderForSummary(old)
	start := time.Now()
	resp, err := c.Client.Chat(ctx, llm.Request{
		Model: c.Model,
		Messages: []models.Message{
			models.NewTextMessage(models.RoleSystem, summarySystemPrompt),
			models.NewTextMessage(models.RoleUser, rendered),
		},
		MaxTokens: summaryMaxTokens,
	})
	c.recorder().LLMCallDuration(c.Client.Provider(), c.Model, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("compaction: summarise: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("compaction: summariser returned no choices")
	}
	summary := resp.Choices[0].Message.TextOrEmpty()

	header := fmt.Sprintf("[Conversation summary of %d earlier messages]\n\n%s", len(old), summary)
	out := make([]models.Message, 0, 1+len(recent))
	out = append(out, models.NewTextMessage(models.RoleUser, header))
	out = append(out, recent...)
	c.recorder().CompactionPerformed()
	return out, nil
}

// splitIndex picks the boundary between "old" and "recent": the first user
// message at or after the midpoint; failing that, the nearest user message
// before the midpoint; failing that, the exact midpoint.
func splitIndex(msgs []models.Message) int {
	mid := len(msgs) / 2
	for i := mid; i < len(msgs); i++ {
		if msgs[i].Role == models.RoleUser {
			return i
		}
	}
	for i := mid - 1; i >= 0; i-- {
		if msgs[i].Role == models.RoleUser {
			return i
		}
	}
	return mid
}

// renderForSummary flattens old history into plain text for the summariser
// prompt: user/assistant text as "Role: content", tool results truncated to
// 500 chars, and tool-calls-only assistant messages reduced to the names of
// the tools they invoked.
func renderForSummary(msgs []models.Message) string {
	var b strings.Builder
	for _, m := range msgs {
		switch {
		case m.Role == models.RoleTool:
			content := m.TextOrEmpty()
			if len(content) > 500 {
				content = content[:500]
			}
			fmt.Fprintf(&b, "[Tool result %s]: %s\n", m.ToolCallID, content)
		case m.Role == models.RoleAssistant && m.HasToolCalls():
			names := make([]string, len(m.ToolCalls))
			for i, tc := range m.ToolCalls {
				names[i] = tc.Name
			}
			fmt.Fprintf(&b, "Assistant: [called tools: %s]\n", strings.Join(names, ", "))
		default:
			role := string(m.Role)
			if len(role) > 0 {
				role = strings.ToUpper(role[:1]) + role[1:]
			}
			fmt.Fprintf(&b, "%s: %s\n", role, m.TextOrEmpty())
		}
	}
	return b.String()
}
