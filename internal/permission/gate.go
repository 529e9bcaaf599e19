// Package permission implements the command permission gate: a three-way
// classifier (safe / approved / needs_approval) backed by a configured
// base-command allow-list and a persisted exact-command allow/deny set.
//
// The approvals file is not write-serialised across processes; if a
// multi-process deployment needs that, layer file locking above this
// package. The single-process assumption is deliberate, not an oversight.
package permission

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Decision is the outcome of classifying a command.
type Decision string

const (
	Safe          Decision = "safe"
	Approved      Decision = "approved"
	NeedsApproval Decision = "needs_approval"
)

// DefaultSafeCommands are the base commands considered safe without any
// approval, matching the conservative read-only/dev-tool defaults a
// personal assistant ships with.
var DefaultSafeCommands = []string{
	"ls", "cat", "head", "tail", "wc", "date", "whoami", "echo", "pwd",
	"which", "git", "python", "python3", "node", "npm", "npx", "uv", "pip",
	"find", "grep", "sort", "uniq", "tr", "cut", "env",
}

// approvalsFile is the on-disk shape of the persisted decision store.
type approvalsFile struct {
	Allowed []string `json:"allowed"`
	Denied  []string `json:"denied"`
}

// PromptFunc asks a human (or a policy) whether to allow a command that
// needs approval. A nil PromptFunc is treated as always answering false.
type PromptFunc func(command string) bool

// Gate classifies shell commands and persists approval/denial decisions.
type Gate struct {
	path     string
	safeBase map[string]struct{}
	prompt   PromptFunc
	mu       sync.Mutex
	allowed  map[string]struct{}
	denied   map[string]struct{}
	logger   *slog.Logger
}

// New creates a Gate backed by the approvals file at path, with safeBase as
// the allow-listed first-token commands. The file is loaded eagerly; a
// missing or corrupt file is treated as an empty approvals set.
func New(path string, safeBase []string, prompt PromptFunc) *Gate {
	if len(safeBase) == 0 {
		safeBase = DefaultSafeCommands
	}
	g := &Gate{
		path:     path,
		safeBase: toSet(safeBase),
		prompt:   prompt,
		allowed:  map[string]struct{}{},
		denied:   map[string]struct{}{},
		logger:   slog.Default().With("component", "permission.Gate"),
	}
	g.load()
	return g
}

func toSet(items []string) map[string]struct{} {
	m := make(map[string]struct{}, len(items))
	for _, item := range items {
		m[item] = struct{}{}
	}
	return m
}

func (g *Gate) load() {
	data, err := os.ReadFile(g.path)
	if err != nil {
		if !os.IsNotExist(err) {
			g.logger.Warn("failed to read approvals file, treating as empty", "path", g.path, "error", err)
		}
		return
	}
	var f approvalsFile
	if err := json.Unmarshal(data, &f); err != nil {
		g.logger.Warn("approvals file is corrupt, treating as empty", "path", g.path, "error", err)
		return
	}
	for _, c := range f.Allowed {
		g.allowed[c] = struct{}{}
	}
	for _, c := range f.Denied {
		g.denied[c] = struct{}{}
	}
}

// Check classifies command without mutating any state.
func (g *Gate) Check(command string) Decision {
	base := firstToken(command)
	if _, ok := g.safeBase[base]; ok {
		return Safe
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.allowed[command]; ok {
		return Approved
	}
	return NeedsApproval
}

// RequestApproval asks the configured prompt callback whether to allow
// command, persists the decision (to the allow-set on true, the deny-set on
// false), and returns the callback's answer. A nil callback always denies.
func (g *Gate) RequestApproval(command string) bool {
	allowed := false
	if g.prompt != nil {
		allowed = g.prompt(command)
	}

	g.mu.Lock()
	if allowed {
		g.allowed[command] = struct{}{}
	} else {
		g.denied[command] = struct{}{}
	}
	err := g.saveLocked()
	g.mu.Unlock()

	if err != nil {
		g.logger.Error("failed to persist approval decision", "error", err)
	}
	return allowed
}

// saveLocked writes the current allow/deny sets to disk. Caller must hold g.mu.
func (g *Gate) saveLocked() error {
	f := approvalsFile{
		Allowed: keys(g.allowed),
		Denied:  keys(g.denied),
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("permission: encode approvals: %w", err)
	}
	if err := os.WriteFile(g.path, data, 0o644); err != nil {
		return fmt.Errorf("permission: write approvals file: %w", err)
	}
	return nil
}

func keys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func firstToken(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
