// Package models defines the wire-neutral data shapes shared across the
// session store, the tool registry, and the turn loop.
package models

import "encoding/json"

// Role identifies the author of a Message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is one function invocation requested by the model inside an
// assistant Message. Arguments is the raw JSON-object text the model
// produced; callers decode it themselves rather than trusting a fixed shape.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Message is one record in a session's history. Content is a pointer so a
// tool-calls-only assistant message can encode "no content" distinctly from
// an empty string.
type Message struct {
	Role       Role       `json:"role"`
	Content    *string    `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// toolCallFunction is the "function" object nested inside a wire-format
// tool call.
type toolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// toolCallWire is the on-disk/on-wire shape of a ToolCall: {id,
// type:"function", function:{name,arguments}}, matching the session log's
// external-interface contract. ToolCall itself stays flat in memory; this
// nesting exists only at the json.Marshal/Unmarshal boundary.
type toolCallWire struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function toolCallFunction `json:"function"`
}

// messageWire mirrors Message's field order with ToolCalls swapped for its
// wire representation.
type messageWire struct {
	Role       Role           `json:"role"`
	Content    *string        `json:"content"`
	ToolCalls  []toolCallWire `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
}

// MarshalJSON encodes ToolCalls in the nested {id,type,function:{name,
// arguments}} form the session log's external-interface spec requires.
func (m Message) MarshalJSON() ([]byte, error) {
	wire := messageWire{Role: m.Role, Content: m.Content, ToolCallID: m.ToolCallID}
	if len(m.ToolCalls) > 0 {
		wire.ToolCalls = make([]toolCallWire, len(m.ToolCalls))
		for i, tc := range m.ToolCalls {
			wire.ToolCalls[i] = toolCallWire{
				ID:       tc.ID,
				Type:     "function",
				Function: toolCallFunction{Name: tc.Name, Arguments: tc.Arguments},
			}
		}
	}
	return json.Marshal(wire)
}

// UnmarshalJSON decodes the nested wire form back into the flat in-memory
// ToolCall shape.
func (m *Message) UnmarshalJSON(data []byte) error {
	var wire messageWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	m.Role = wire.Role
	m.Content = wire.Content
	m.ToolCallID = wire.ToolCallID
	if len(wire.ToolCalls) > 0 {
		m.ToolCalls = make([]ToolCall, len(wire.ToolCalls))
		for i, tc := range wire.ToolCalls {
			m.ToolCalls[i] = ToolCall{ID: tc.ID, Name: tc.Function.Name, Arguments: tc.Function.Arguments}
		}
	} else {
		m.ToolCalls = nil
	}
	return nil
}

// NewTextMessage builds a plain-content message for the given role.
func NewTextMessage(role Role, content string) Message {
	return Message{Role: role, Content: &content}
}

// NewToolResultMessage builds the tool-role reply to a single ToolCall.
func NewToolResultMessage(toolCallID, content string) Message {
	return Message{Role: RoleTool, Content: &content, ToolCallID: toolCallID}
}

// NewToolCallMessage builds an assistant message that carries only tool
// calls (Content stays nil, matching the invariant that content is null
// exactly when the message consists solely of tool calls).
func NewToolCallMessage(calls []ToolCall) Message {
	return Message{Role: RoleAssistant, ToolCalls: calls}
}

// HasToolCalls reports whether the message carries one or more tool calls.
func (m Message) HasToolCalls() bool {
	return len(m.ToolCalls) > 0
}

// TextOrEmpty returns Content dereferenced, or "" when Content is nil.
func (m Message) TextOrEmpty() string {
	if m.Content == nil {
		return ""
	}
	return *m.Content
}

// Agent is a named personality: a system prompt plus a model and the
// namespace its sessions live under.
type Agent struct {
	Name             string
	Model            string
	SoulText         string
	Prefix           string // empty for the default agent
	SessionNamespace string
	Workspace        string

	// SystemPrompt is computed once at construction (see NewAgent) and
	// cached here; it is SoulText plus the dynamic context block.
	SystemPrompt string
}

// Heartbeat is a recurring prompt delivered through an Agent on its own
// dedicated session.
type Heartbeat struct {
	Name        string
	CadenceExpr string
	Prompt      string
	AgentName   string
}
