package sessions

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/arjunkade/agentcore/pkg/models"
)

func newTestLog(t *testing.T) *Log {
	t.Helper()
	dir := t.TempDir()
	l, err := NewLog(dir)
	if err != nil {
		t.Fatalf("NewLog: %v", err)
	}
	return l
}

func TestSanitiseKeyReplacesDisallowedBytes(t *testing.T) {
	got := SanitiseKey("agent:main:repl:u1/../etc")
	for _, r := range got {
		allowed := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '-'
		if !allowed {
			t.Fatalf("SanitiseKey left disallowed byte %q in %q", r, got)
		}
	}
}

func TestSanitiseKeyCollisionsAreStable(t *testing.T) {
	a := SanitiseKey("foo/bar")
	b := SanitiseKey("foo:bar")
	if a != b {
		t.Fatalf("expected colliding sanitised keys, got %q and %q", a, b)
	}
}

func TestLoadMissingSessionReturnsEmpty(t *testing.T) {
	l := newTestLog(t)
	msgs, err := l.Load("nope")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("expected empty, got %d messages", len(msgs))
	}
}

func TestAppendThenLoadRoundTrips(t *testing.T) {
	l := newTestLog(t)
	key := "agent:main:repl:u1"

	want := []models.Message{
		models.NewTextMessage(models.RoleUser, "hello"),
		models.NewTextMessage(models.RoleAssistant, "hi"),
	}
	for _, m := range want {
		if err := l.Append(key, m); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	got, err := l.Load(key)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d messages, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].TextOrEmpty() != want[i].TextOrEmpty() || got[i].Role != want[i].Role {
			t.Fatalf("message %d mismatch: got %+v want %+v", i, got[i], want[i])
		}
	}
}

func TestLoadSkipsMalformedTrailingLine(t *testing.T) {
	l := newTestLog(t)
	key := "crashy"

	if err := l.Append(key, models.NewTextMessage(models.RoleUser, "hello")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	// Simulate a crash mid-write: append a truncated JSON fragment directly.
	f, err := os.OpenFile(filepath.Join(l.dir, SanitiseKey(key)+".jsonl"), os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open for corruption: %v", err)
	}
	if _, err := f.WriteString(`{"role":"user","content":"unterm`); err != nil {
		t.Fatalf("write fragment: %v", err)
	}
	f.Close()

	msgs, err := l.Load(key)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("expected the malformed trailing line to be skipped, got %d messages", len(msgs))
	}
}

func TestOverwriteReplacesLog(t *testing.T) {
	l := newTestLog(t)
	key := "k"

	if err := l.Append(key, models.NewTextMessage(models.RoleUser, "first")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	replacement := []models.Message{models.NewTextMessage(models.RoleUser, "[Conversation summary of 1 earlier messages]\n\nsummary")}
	if err := l.Overwrite(key, replacement); err != nil {
		t.Fatalf("Overwrite: %v", err)
	}

	got, err := l.Load(key)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 1 || got[0].TextOrEmpty() != replacement[0].TextOrEmpty() {
		t.Fatalf("Overwrite did not replace log contents: %+v", got)
	}
}

func TestOverwriteOfLoadIsNoOp(t *testing.T) {
	l := newTestLog(t)
	key := "idempotent"
	msgs := []models.Message{
		models.NewTextMessage(models.RoleUser, "hello"),
		models.NewTextMessage(models.RoleAssistant, "hi"),
	}
	if err := l.AppendAll(key, msgs); err != nil {
		t.Fatalf("AppendAll: %v", err)
	}

	before, err := os.ReadFile(filepath.Join(l.dir, SanitiseKey(key)+".jsonl"))
	if err != nil {
		t.Fatalf("read before: %v", err)
	}

	loaded, err := l.Load(key)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := l.Overwrite(key, loaded); err != nil {
		t.Fatalf("Overwrite: %v", err)
	}

	after, err := os.ReadFile(filepath.Join(l.dir, SanitiseKey(key)+".jsonl"))
	if err != nil {
		t.Fatalf("read after: %v", err)
	}
	if string(before) != string(after) {
		t.Fatalf("Overwrite(Load(k)) was not a no-op:\nbefore=%q\nafter=%q", before, after)
	}
}

func TestDeleteAndExists(t *testing.T) {
	l := newTestLog(t)
	key := "to-delete"
	if l.Exists(key) {
		t.Fatalf("Exists should be false before any append")
	}
	if err := l.Append(key, models.NewTextMessage(models.RoleUser, "hi")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if !l.Exists(key) {
		t.Fatalf("Exists should be true after append")
	}
	if err := l.Delete(key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if l.Exists(key) {
		t.Fatalf("Exists should be false after delete")
	}
}

func TestListReturnsSanitisedStems(t *testing.T) {
	l := newTestLog(t)
	if err := l.Append("a:b", models.NewTextMessage(models.RoleUser, "hi")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := l.Append("c:d", models.NewTextMessage(models.RoleUser, "hi")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	keys, err := l.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("expected 2 keys, got %d: %v", len(keys), keys)
	}
	if keys[0] != "a_b" || keys[1] != "c_d" {
		t.Fatalf("expected sanitised stems [a_b c_d], got %v", keys)
	}
}
