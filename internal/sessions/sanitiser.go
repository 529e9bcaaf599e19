package sessions

import "github.com/arjunkade/agentcore/pkg/models"

// Sanitise returns the longest prefix of msgs that does not end with an
// assistant message carrying unanswered tool calls. It trims, never
// reorders or synthesises: a tool-call message at the tail can never have
// its answers following it (there is nothing after the tail), so it and
// anything after it is dropped, repeatedly, until the tail is either empty
// or a non-tool-calls message.
//
// Sanitise never mutates storage; callers decide whether to persist the
// trimmed result (the turn loop only does so indirectly, via compaction's
// Overwrite).
func Sanitise(msgs []models.Message) []models.Message {
	end := len(msgs)
	for end > 0 && msgs[end-1].Role == models.RoleAssistant && msgs[end-1].HasToolCalls() {
		end--
	}
	out := make([]models.Message, end)
	copy(out, msgs[:end])
	return out
}
