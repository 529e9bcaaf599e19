package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/arjunkade/agentcore/internal/llm"
)

// Tool is one named capability the turn loop can dispatch to. Execute must
// never panic in normal operation and should prefer returning an
// "Error: ..."-prefixed string over any other failure signalling; the
// Registry additionally recovers from panics as a last resort so a single
// broken handler cannot take down a turn.
type Tool interface {
	Name() string
	Description() string
	// Schema is the tool's parameters as a JSON Schema document (the
	// "parameters" field of the advertised function-calling descriptor).
	Schema() json.RawMessage
	Execute(ctx context.Context, args json.RawMessage) string
}

// Registry holds registered tools and dispatches by name. It is pure
// dispatch: concurrency safety of a handler's own state is that handler's
// responsibility, not the Registry's.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]Tool
	logger *slog.Logger
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		tools:  make(map[string]Tool),
		logger: slog.Default().With("component", "agent.Registry"),
	}
}

// Register adds tool under its own Name(). Unlike a registry that silently
// replaces an existing entry, a duplicate name is a registration-time
// configuration error and fails loudly rather than shadowing the first
// registration.
func (r *Registry) Register(tool Tool) error {
	if tool.Name() == "" {
		return fmt.Errorf("agent: tool has empty name")
	}

	compiled := jsonschema.NewCompiler()
	schemaBytes := tool.Schema()
	if len(schemaBytes) == 0 {
		schemaBytes = []byte(`{}`)
	}
	if err := compiled.AddResource(tool.Name()+".json", bytes.NewReader(schemaBytes)); err != nil {
		return fmt.Errorf("agent: tool %q has invalid parameter schema: %w", tool.Name(), err)
	}
	if _, err := compiled.Compile(tool.Name() + ".json"); err != nil {
		return fmt.Errorf("agent: tool %q has invalid parameter schema: %w", tool.Name(), err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[tool.Name()]; exists {
		return fmt.Errorf("agent: tool %q is already registered", tool.Name())
	}
	r.tools[tool.Name()] = tool
	return nil
}

// Get returns the tool registered under name, if any.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Schemas returns the function-calling descriptors for every registered
// tool, for advertising to the LLM.
func (r *Registry) Schemas() []llm.ToolSchema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]llm.ToolSchema, 0, len(r.tools))
	for _, t := range r.tools {
		var params any
		_ = json.Unmarshal(t.Schema(), &params)
		out = append(out, llm.ToolSchema{
			Type: "function",
			Function: llm.ToolSchemaDetail{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  params,
			},
		})
	}
	return out
}

// Execute dispatches to the named tool and returns its result string.
// Execute never returns an error: an unknown tool name or a panicking
// handler both produce an "Error: ..."-prefixed result string instead.
func (r *Registry) Execute(ctx context.Context, name string, args json.RawMessage) (result string) {
	tool, ok := r.Get(name)
	if !ok {
		return fmt.Sprintf("Error: Unknown tool '%s'", name)
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("tool panicked", "tool", name, "panic", rec)
			result = fmt.Sprintf("Error executing %s: %v", name, rec)
		}
	}()
	return tool.Execute(ctx, args)
}
