package tools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteFileThenReadFileRoundTrips(t *testing.T) {
	ws := t.TempDir()
	w := &WriteFile{Workspace: ws}
	r := &ReadFile{Workspace: ws}

	writeArgs, _ := json.Marshal(map[string]string{"path": "notes/todo.md", "content": "buy milk"})
	out := w.Execute(context.Background(), writeArgs)
	if strings.HasPrefix(out, "Error") {
		t.Fatalf("unexpected write error: %s", out)
	}

	readArgs, _ := json.Marshal(map[string]string{"path": "notes/todo.md"})
	got := r.Execute(context.Background(), readArgs)
	if got != "buy milk" {
		t.Fatalf("expected 'buy milk', got %q", got)
	}
}

func TestReadFileRejectsPathEscapingWorkspace(t *testing.T) {
	ws := t.TempDir()
	r := &ReadFile{Workspace: ws}
	args, _ := json.Marshal(map[string]string{"path": "../../etc/passwd"})
	got := r.Execute(context.Background(), args)
	if !strings.HasPrefix(got, "Error:") {
		t.Fatalf("expected an error for a path escaping the workspace, got %q", got)
	}
}

func TestWriteFileCreatesParentDirectories(t *testing.T) {
	ws := t.TempDir()
	w := &WriteFile{Workspace: ws}
	args, _ := json.Marshal(map[string]string{"path": "a/b/c.txt", "content": "x"})
	w.Execute(context.Background(), args)
	if _, err := os.Stat(filepath.Join(ws, "a", "b", "c.txt")); err != nil {
		t.Fatalf("expected nested file to exist: %v", err)
	}
}

func TestReadFileMissingFileReturnsError(t *testing.T) {
	ws := t.TempDir()
	r := &ReadFile{Workspace: ws}
	args, _ := json.Marshal(map[string]string{"path": "missing.txt"})
	got := r.Execute(context.Background(), args)
	if !strings.HasPrefix(got, "Error:") {
		t.Fatalf("expected error for missing file, got %q", got)
	}
}
