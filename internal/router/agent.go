// Package router implements the agent registry (named personalities with
// distinct system prompts, models, and session namespaces) and the
// prefix-based dispatcher that picks one for an incoming message.
package router

import (
	"fmt"
	"time"

	"github.com/arjunkade/agentcore/pkg/models"
)

// NoQueryPlaceholder substitutes for an empty remainder after a prefix is
// stripped, so the turn loop never receives a blank user message.
const NoQueryPlaceholder = "(no query provided)"

// AgentSpec is the declarative shape an agent is built from (config or
// builder); NewAgent turns it into a models.Agent with its system prompt
// computed once.
type AgentSpec struct {
	Name             string
	Model            string
	SoulText         string
	Prefix           string
	SessionNamespace string
	Workspace        string
}

// NewAgent builds a models.Agent from spec, computing its full system
// prompt once (soul text plus the dynamic context block) rather than lazily
// memoizing it on first access: agents are long-lived but not so long-lived
// that a process-start-time date snapshot is a problem in practice, and
// one-shot initialisation removes an entire class of lazy-field bugs.
func NewAgent(spec AgentSpec, now time.Time) models.Agent {
	return models.Agent{
		Name:             spec.Name,
		Model:            spec.Model,
		SoulText:         spec.SoulText,
		Prefix:           spec.Prefix,
		SessionNamespace: spec.SessionNamespace,
		Workspace:        spec.Workspace,
		SystemPrompt:     buildSystemPrompt(spec.SoulText, spec.Workspace, now),
	}
}

func buildSystemPrompt(soulText, workspace string, now time.Time) string {
	prompt := soulText + "\n\n## Context\n- Current date: " + now.Format("2006-01-02")
	if workspace != "" {
		prompt += fmt.Sprintf("\n- Workspace: %s", workspace)
	}
	return prompt
}

// DefaultSoul is used when an agent spec supplies no soul text of its own.
const DefaultSoul = `## Who You Are
You are a helpful personal assistant.

## Personality
Direct, concise, and honest about uncertainty.

## Boundaries
Never fabricate information you do not have. Ask for clarification when a
request is ambiguous rather than guessing.

## Memory
You may be given access to a memory store; use it to recall facts the user
has asked you to remember, not to invent new ones.`
