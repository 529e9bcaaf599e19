package tools

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/arjunkade/agentcore/internal/memory"
)

func TestMemorySaveThenSearchFindsIt(t *testing.T) {
	store, err := memory.New(t.TempDir())
	if err != nil {
		t.Fatalf("memory.New: %v", err)
	}
	save := &MemorySave{Store: store}
	search := &MemorySearch{Store: store}

	saveArgs, _ := json.Marshal(map[string]string{"key": "favorite-color", "content": "The user's favorite color is blue."})
	save.Execute(context.Background(), saveArgs)

	searchArgs, _ := json.Marshal(map[string]string{"query": "favorite color"})
	got := search.Execute(context.Background(), searchArgs)
	if !strings.Contains(got, "blue") {
		t.Fatalf("expected search to surface saved memory, got %q", got)
	}
}

func TestMemorySearchNoMatchSentinel(t *testing.T) {
	store, err := memory.New(t.TempDir())
	if err != nil {
		t.Fatalf("memory.New: %v", err)
	}
	search := &MemorySearch{Store: store}
	args, _ := json.Marshal(map[string]string{"query": "nonexistent"})
	got := search.Execute(context.Background(), args)
	if got != memory.NoMatchText {
		t.Fatalf("expected no-match sentinel, got %q", got)
	}
}
