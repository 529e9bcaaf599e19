// Package sessions implements the crash-safe append-only session log, the
// load-time history sanitiser, and the per-session-key serialisation
// primitive that the turn loop builds on.
package sessions

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/arjunkade/agentcore/pkg/models"
)

// sanitiseKeyPattern matches every byte NOT in [A-Za-z0-9_-]; such bytes are
// replaced with '_' when mapping a session key to a filename.
var sanitiseKeyPattern = regexp.MustCompile(`[^a-zA-Z0-9_\-]`)

// SanitiseKey maps an opaque session key to a safe filename stem. Two keys
// that differ only in disallowed bytes intentionally collide.
func SanitiseKey(key string) string {
	return sanitiseKeyPattern.ReplaceAllString(key, "_")
}

// Log is a durable, append-only, crash-safe per-session message history
// backed by one newline-delimited JSON file per session.
type Log struct {
	dir    string
	logger *slog.Logger
}

// NewLog creates a Log rooted at dir, creating the directory if needed.
func NewLog(dir string) (*Log, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("sessions: create log dir: %w", err)
	}
	return &Log{dir: dir, logger: slog.Default().With("component", "sessions.Log")}, nil
}

func (l *Log) path(key string) string {
	return filepath.Join(l.dir, SanitiseKey(key)+".jsonl")
}

// Load returns the messages recorded for key in append order. A missing
// file yields an empty slice. Blank lines and lines that fail to parse as a
// Message (including a truncated trailing line left by a crash mid-write)
// are silently skipped rather than aborting the load.
func (l *Log) Load(key string) ([]models.Message, error) {
	f, err := os.Open(l.path(key))
	if os.IsNotExist(err) {
		return []models.Message{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sessions: open %s: %w", key, err)
	}
	defer f.Close()

	var out []models.Message
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var msg models.Message
		if err := json.Unmarshal([]byte(line), &msg); err != nil {
			l.logger.Warn("skipping malformed session line", "key", key, "error", err)
			continue
		}
		out = append(out, msg)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("sessions: read %s: %w", key, err)
	}
	if out == nil {
		out = []models.Message{}
	}
	return out, nil
}

// Append adds a single message to the end of key's log, flushing to disk
// before returning.
func (l *Log) Append(key string, msg models.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("sessions: encode message: %w", err)
	}
	f, err := os.OpenFile(l.path(key), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("sessions: open %s for append: %w", key, err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("sessions: write %s: %w", key, err)
	}
	return f.Sync()
}

// AppendAll appends msgs to key's log, as repeated single appends; each
// individual append still flushes before the next begins.
func (l *Log) AppendAll(key string, msgs []models.Message) error {
	for _, msg := range msgs {
		if err := l.Append(key, msg); err != nil {
			return err
		}
	}
	return nil
}

// Overwrite replaces the entire log for key with msgs. Used only by the
// compactor.
func (l *Log) Overwrite(key string, msgs []models.Message) error {
	tmp := l.path(key) + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("sessions: open %s for overwrite: %w", key, err)
	}
	for _, msg := range msgs {
		data, err := json.Marshal(msg)
		if err != nil {
			f.Close()
			return fmt.Errorf("sessions: encode message: %w", err)
		}
		if _, err := f.Write(append(data, '\n')); err != nil {
			f.Close()
			return fmt.Errorf("sessions: write %s: %w", key, err)
		}
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sessions: sync %s: %w", key, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("sessions: close %s: %w", key, err)
	}
	return os.Rename(tmp, l.path(key))
}

// Exists reports whether a log file exists for key.
func (l *Log) Exists(key string) bool {
	_, err := os.Stat(l.path(key))
	return err == nil
}

// Delete removes key's log file, if any.
func (l *Log) Delete(key string) error {
	err := os.Remove(l.path(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("sessions: delete %s: %w", key, err)
	}
	return nil
}

// Count returns the number of well-formed messages recorded for key.
func (l *Log) Count(key string) (int, error) {
	msgs, err := l.Load(key)
	if err != nil {
		return 0, err
	}
	return len(msgs), nil
}

// List returns the session keys (as recovered from sanitised filenames) for
// every log file present. Because sanitisation is lossy, the returned value
// is the sanitised stem, not necessarily the original key.
func (l *Log) List() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("sessions: list %s: %w", l.dir, err)
	}
	var keys []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasSuffix(name, ".jsonl") {
			keys = append(keys, strings.TrimSuffix(name, ".jsonl"))
		}
	}
	return keys, nil
}
