// Package tools holds the reference tool implementations the cmd/agentcore
// binary registers to exercise the Tool Registry and Permission Gate end to
// end. Production hosts are expected to replace or extend these.
package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/google/uuid"

	"github.com/arjunkade/agentcore/internal/permission"
)

// ShellTimeout bounds how long a single shell invocation may run before
// being killed.
const ShellTimeout = 30 * time.Second

// Shell runs a command line through the Permission Gate before executing
// it via os/exec. A command that is not safe and not already approved
// returns a denial string without running anything; RequestApproval is the
// caller's job (typically a channel-specific confirmation flow), not this
// tool's.
type Shell struct {
	gate   *permission.Gate
	logger *slog.Logger
}

// NewShell builds a Shell tool backed by gate.
func NewShell(gate *permission.Gate) *Shell {
	return &Shell{gate: gate, logger: slog.Default().With("component", "tools.Shell")}
}

func (s *Shell) Name() string        { return "shell" }
func (s *Shell) Description() string { return "Run a shell command and return its combined output." }

func (s *Shell) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"command": {"type": "string", "description": "The shell command line to run."}
		},
		"required": ["command"]
	}`)
}

type shellArgs struct {
	Command string `json:"command"`
}

func (s *Shell) Execute(ctx context.Context, args json.RawMessage) string {
	var a shellArgs
	if err := json.Unmarshal(args, &a); err != nil || a.Command == "" {
		return "Error: missing or invalid 'command' argument"
	}

	invocationID := uuid.NewString()

	switch s.gate.Check(a.Command) {
	case permission.Safe, permission.Approved:
		// proceed
	default:
		s.logger.Warn("command denied", "invocation_id", invocationID, "command", a.Command)
		return fmt.Sprintf("Denied: %q requires approval before it can run.", a.Command)
	}

	runCtx, cancel := context.WithTimeout(ctx, ShellTimeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "sh", "-c", a.Command)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	s.logger.Info("running command", "invocation_id", invocationID, "command", a.Command)
	if err := cmd.Run(); err != nil {
		s.logger.Error("command failed", "invocation_id", invocationID, "error", err)
		return fmt.Sprintf("Error: %v\n%s", err, out.String())
	}
	return out.String()
}
