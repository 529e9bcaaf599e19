package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/arjunkade/agentcore/internal/memory"
)

// MemorySearch wraps memory.Store.Search behind the tool-call contract.
type MemorySearch struct {
	Store *memory.Store
}

func (t *MemorySearch) Name() string { return "memory_search" }
func (t *MemorySearch) Description() string {
	return "Search stored memories for all given query tokens."
}

func (t *MemorySearch) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {"query": {"type": "string"}},
		"required": ["query"]
	}`)
}

type memorySearchArgs struct {
	Query string `json:"query"`
}

func (t *MemorySearch) Execute(ctx context.Context, args json.RawMessage) string {
	var a memorySearchArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return "Error: missing or invalid 'query' argument"
	}
	result, err := t.Store.Search(a.Query)
	if err != nil {
		return fmt.Sprintf("Error: %v", err)
	}
	return result
}

// MemorySave wraps memory.Store.Save behind the tool-call contract.
type MemorySave struct {
	Store *memory.Store
}

func (t *MemorySave) Name() string        { return "memory_save" }
func (t *MemorySave) Description() string { return "Save content to memory under a named key." }

func (t *MemorySave) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"key": {"type": "string"},
			"content": {"type": "string"}
		},
		"required": ["key", "content"]
	}`)
}

type memorySaveArgs struct {
	Key     string `json:"key"`
	Content string `json:"content"`
}

func (t *MemorySave) Execute(ctx context.Context, args json.RawMessage) string {
	var a memorySaveArgs
	if err := json.Unmarshal(args, &a); err != nil || a.Key == "" {
		return "Error: missing or invalid 'key' argument"
	}
	if err := t.Store.Save(a.Key, a.Content); err != nil {
		return fmt.Sprintf("Error: %v", err)
	}
	return fmt.Sprintf("Saved memory %q", a.Key)
}
