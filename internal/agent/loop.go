package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/arjunkade/agentcore/internal/compaction"
	"github.com/arjunkade/agentcore/internal/llm"
	"github.com/arjunkade/agentcore/internal/observability"
	"github.com/arjunkade/agentcore/internal/sessions"
	"github.com/arjunkade/agentcore/pkg/models"
)

// DefaultMaxTurns bounds the number of tool cycles a single turn may run
// before the loop gives up and returns the budget sentinel.
const DefaultMaxTurns = 20

// BudgetExhaustedText is the fixed sentinel returned when a turn hits
// MaxTurns without producing a final assistant text.
const BudgetExhaustedText = "(max tool turns reached)"

// OnToolUse is invoked once per executed tool, after it completes and
// before the step is persisted.
type OnToolUse func(name string, args json.RawMessage, result string)

// Loop drives one conversation: loads history, sanitises it, compacts it if
// due, appends the user's message, and alternates LLM calls with tool
// execution until the model produces final text or the turn budget is
// exhausted.
type Loop struct {
	Client    llm.Client
	Log       *sessions.Log
	Registry  *Registry
	Compactor *compaction.Compactor // nil disables compaction
	MaxTurns  int
	OnToolUse OnToolUse
	Recorder  observability.Recorder
	logger    *slog.Logger
}

// NewLoop wires the collaborators a turn needs. Compactor may be nil to
// disable context-window compaction entirely. Recorder defaults to a
// no-op; set Loop.Recorder directly to observe turns and LLM call latency.
func NewLoop(client llm.Client, log *sessions.Log, registry *Registry, compactor *compaction.Compactor) *Loop {
	return &Loop{
		Client:    client,
		Log:       log,
		Registry:  registry,
		Compactor: compactor,
		MaxTurns:  DefaultMaxTurns,
		Recorder:  observability.NoopRecorder{},
		logger:    slog.Default().With("component", "agent.Loop"),
	}
}

// Run executes one turn for sessionKey: one user message in, one final
// assistant message out, with zero or more tool cycles in between.
func (l *Loop) Run(ctx context.Context, sessionKey, model, systemPrompt, userText string) (string, error) {
	history, err := l.Log.Load(sessionKey)
	if err != nil {
		return "", fmt.Errorf("agent: load session %s: %w", sessionKey, err)
	}
	history = sessions.Sanitise(history)

	if l.Compactor != nil {
		compacted, err := l.Compactor.Compact(ctx, history)
		if err != nil {
			return "", fmt.Errorf("agent: compact session %s: %w", sessionKey, err)
		}
		// Compact returns history itself when it does not compact and a new
		// slice when it does, which may have the same length (split at 1).
		if len(compacted) != len(history) || (len(compacted) > 0 && &compacted[0] != &history[0]) {
			if err := l.Log.Overwrite(sessionKey, compacted); err != nil {
				return "", fmt.Errorf("agent: persist compacted session %s: %w", sessionKey, err)
			}
		}
		history = compacted
	}

	userMsg := models.NewTextMessage(models.RoleUser, userText)
	if err := l.Log.Append(sessionKey, userMsg); err != nil {
		return "", fmt.Errorf("agent: append user message: %w", err)
	}
	history = append(history, userMsg)

	// MaxTurns <= 0 is not coerced to DefaultMaxTurns here: an explicit 0
	// must run zero iterations and return the budget sentinel without ever
	// calling the LLM, matching the original loop's range(max_turns).
	// NewLoop already installs DefaultMaxTurns, so the zero-value concern
	// only bites a Loop built by hand without going through NewLoop.
	for iteration := 0; iteration < l.MaxTurns; iteration++ {
		start := time.Now()
		resp, err := l.Client.Chat(ctx, llm.Request{
			Model:    model,
			Messages: withSystemPrompt(systemPrompt, history),
			Tools:    l.Registry.Schemas(),
		})
		l.Recorder.LLMCallDuration(l.Client.Provider(), model, time.Since(start))
		if err != nil {
			// Transport errors propagate as-is; everything persisted so far
			// (a valid prefix, by the atomicity rule below) survives for the
			// next attempt to resume from.
			return "", fmt.Errorf("agent: chat: %w", err)
		}
		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("agent: chat returned no choices")
		}
		choice := resp.Choices[0]

		if !llm.IsToolRequest(choice.FinishReason, choice.Message.ToolCalls) {
			assistantMsg := models.NewTextMessage(models.RoleAssistant, choice.Message.TextOrEmpty())
			if err := l.Log.Append(sessionKey, assistantMsg); err != nil {
				return "", fmt.Errorf("agent: append assistant message: %w", err)
			}
			l.Recorder.TurnCompleted(model)
			return choice.Message.TextOrEmpty(), nil
		}

		toolResults := l.executeToolCalls(ctx, choice.Message.ToolCalls)

		// Atomicity rule: the assistant-with-tool-calls message and every
		// one of its tool results are appended together, only after all
		// tools have finished, and in declaration order. A crash before
		// this point leaves the log ending on the prior, already-answered
		// step; the sanitiser then trims nothing extra on the next load.
		assistantMsg := models.NewToolCallMessage(choice.Message.ToolCalls)
		step := append([]models.Message{assistantMsg}, toolResults...)
		if err := l.Log.AppendAll(sessionKey, step); err != nil {
			return "", fmt.Errorf("agent: persist tool step: %w", err)
		}
		history = append(history, step...)
	}

	l.Recorder.TurnCompleted(model)
	return BudgetExhaustedText, nil
}

// executeToolCalls runs each call in declaration order and returns the
// matching tool-result messages in the same order. Argument parse failures
// become an empty object rather than aborting the turn.
func (l *Loop) executeToolCalls(ctx context.Context, calls []models.ToolCall) []models.Message {
	results := make([]models.Message, len(calls))
	for i, call := range calls {
		args := parseArguments(call.Arguments)
		result := l.Registry.Execute(ctx, call.Name, args)
		l.Recorder.ToolInvoked(call.Name, toolOutcome(result))
		if l.OnToolUse != nil {
			l.OnToolUse(call.Name, args, result)
		}
		results[i] = models.NewToolResultMessage(call.ID, result)
	}
	return results
}

// toolOutcome classifies a tool's result string for metrics labelling,
// matching the "Error: ..."/"Denied: ..." result-string conventions tools
// use instead of returning a Go error (§7).
func toolOutcome(result string) string {
	switch {
	case strings.HasPrefix(result, "Error:"):
		return "error"
	case strings.HasPrefix(result, "Denied:"):
		return "denied"
	default:
		return "ok"
	}
}

// parseArguments decodes a tool call's arguments text into a JSON object.
// A parse failure (or a non-object value) yields "{}", never an error.
func parseArguments(raw string) json.RawMessage {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return json.RawMessage("{}")
	}
	if _, ok := v.(map[string]any); !ok {
		return json.RawMessage("{}")
	}
	return json.RawMessage(raw)
}

// withSystemPrompt prepends the agent's system prompt as a system message;
// it is never itself persisted to the session log (§3: "the system message
// is NOT stored").
func withSystemPrompt(systemPrompt string, history []models.Message) []models.Message {
	out := make([]models.Message, 0, len(history)+1)
	out = append(out, models.NewTextMessage(models.RoleSystem, systemPrompt))
	out = append(out, history...)
	return out
}
