package router

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/arjunkade/agentcore/internal/agent"
	"github.com/arjunkade/agentcore/internal/sessions"
	"github.com/arjunkade/agentcore/pkg/models"
)

// registeredAgent pairs an agent with the lowercased prefix it matches on
// (empty for the default agent).
type registeredAgent struct {
	agent       models.Agent
	lowerPrefix string
}

// Router dispatches an incoming (channel, user_id, text) to one of several
// registered agents by a case-insensitive leading-prefix match, first
// registration wins.
type Router struct {
	loop    *agent.Loop
	locker  *sessions.Locker
	def     models.Agent
	hasDef  bool
	entries []registeredAgent
	logger  *slog.Logger
}

// New creates a Router that drives turns through loop, serialising turns on
// the same session key via a fresh Locker so unrelated sessions never block
// one another (§4.H).
func New(loop *agent.Loop) *Router {
	return &Router{
		loop:   loop,
		locker: sessions.NewLocker(),
		logger: slog.Default().With("component", "router.Router"),
	}
}

// RegisterDefault sets the agent used when no prefix matches. Exactly one
// agent must be registered as default.
func (r *Router) RegisterDefault(a models.Agent) {
	r.def = a
	r.hasDef = true
}

// Register adds a a non-default agent keyed on its (non-empty) Prefix.
// Registration order determines prefix-match precedence: earlier wins.
func (r *Router) Register(a models.Agent) error {
	if a.Prefix == "" {
		return fmt.Errorf("router: agent %q has no prefix; use RegisterDefault for the default agent", a.Name)
	}
	r.entries = append(r.entries, registeredAgent{agent: a, lowerPrefix: strings.ToLower(a.Prefix)})
	return nil
}

// Resolve picks the agent for text: the first registered prefix whose
// lowercased form matches text's leading run, or the default agent if none
// match. On a match, the prefix and any following whitespace are stripped;
// an empty remainder is replaced with NoQueryPlaceholder.
func (r *Router) Resolve(text string) (models.Agent, string) {
	lower := strings.ToLower(text)
	for _, e := range r.entries {
		if strings.HasPrefix(lower, e.lowerPrefix) {
			rest := strings.TrimSpace(text[len(e.lowerPrefix):])
			if rest == "" {
				rest = NoQueryPlaceholder
			}
			return e.agent, rest
		}
	}
	return r.def, text
}

// Run resolves text to an agent, composes that agent's session key, and
// runs one turn through the loop. Turns on the same session key serialise;
// turns on distinct keys proceed concurrently (§4.H).
func (r *Router) Run(ctx context.Context, channel, userID, text string) (string, error) {
	a, cleaned := r.Resolve(text)
	return r.runLocked(ctx, SessionKey(a, channel, userID), a, cleaned)
}

func (r *Router) runLocked(ctx context.Context, sessionKey string, a models.Agent, text string) (string, error) {
	unlock, err := r.locker.Lock(ctx, sessionKey)
	if err != nil {
		return "", fmt.Errorf("router: acquire session lock %s: %w", sessionKey, err)
	}
	defer unlock()

	out, err := r.loop.Run(ctx, sessionKey, a.Model, a.SystemPrompt, text)
	if err != nil {
		r.logger.Error("turn failed", "agent", a.Name, "error", err)
		return "", err
	}
	return out, nil
}

// SessionKey composes the session key an interactive turn for agent a on
// channel/userID resolves to.
func SessionKey(a models.Agent, channel, userID string) string {
	return fmt.Sprintf("%s:%s:%s", a.SessionNamespace, channel, userID)
}

// HeartbeatSessionKey composes the dedicated, interactive-traffic-isolated
// session key a named heartbeat fires on for agent a.
func HeartbeatSessionKey(a models.Agent, heartbeatName string) string {
	return fmt.Sprintf("%s:heartbeat:%s", a.SessionNamespace, heartbeatName)
}

// byName finds a registered agent (default or prefixed) by its Name field.
func (r *Router) byName(name string) (models.Agent, bool) {
	if r.hasDef && r.def.Name == name {
		return r.def, true
	}
	for _, e := range r.entries {
		if e.agent.Name == name {
			return e.agent, true
		}
	}
	return models.Agent{}, false
}

// RunHeartbeat fires h's prompt through its named agent on the dedicated
// heartbeat session key, isolated from that agent's interactive traffic.
// An unknown AgentName is an error; the heartbeat scheduler logs and drops
// the fire rather than propagating it.
func (r *Router) RunHeartbeat(ctx context.Context, h models.Heartbeat) (string, error) {
	a, ok := r.byName(h.AgentName)
	if !ok {
		return "", fmt.Errorf("router: heartbeat %q references unknown agent %q", h.Name, h.AgentName)
	}
	return r.runLocked(ctx, HeartbeatSessionKey(a, h.Name), a, h.Prompt)
}
