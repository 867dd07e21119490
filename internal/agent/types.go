package agent

import "time"

// MessageRole identifies who produced a ChatMessage (spec §3's Message).
type MessageRole string

const (
	RoleUser   MessageRole = "user"
	RoleAgent  MessageRole = "agent"
	RoleSystem MessageRole = "system"
	RoleError  MessageRole = "error"
	RoleTool   MessageRole = "tool"
)

// ToolStatus is a ToolMessageInfo's lifecycle state.
type ToolStatus string

const (
	ToolRunning   ToolStatus = "running"
	ToolCompleted ToolStatus = "completed"
	ToolFailed    ToolStatus = "failed"
)

// ToolMessageInfo is the live record a Tool-role ChatMessage carries while
// its tool call is in flight, updated in place as ToolProgress/Stdout/
// Stderr/Result/End events arrive for its ID (spec §4.7).
type ToolMessageInfo struct {
	ID       string                 `json:"id"`
	Name     string                 `json:"name"`
	Summary  string                 `json:"summary"`
	Args     map[string]interface{} `json:"args,omitempty"`
	Status   ToolStatus             `json:"status"`
	Stdout   string                 `json:"stdout,omitempty"`
	Stderr   string                 `json:"stderr,omitempty"`
	Result   interface{}            `json:"result,omitempty"`
	Error    string                 `json:"error,omitempty"`
	Duration time.Duration          `json:"duration_ns,omitempty"`
}

// ChatMessage is one entry in a Session's append-only message log.
type ChatMessage struct {
	Role      MessageRole      `json:"role"`
	Content   string           `json:"content"`
	Tool      *ToolMessageInfo `json:"tool,omitempty"` // non-nil only when Role == RoleTool
	CreatedAt time.Time        `json:"created_at"`

	// ToolCalls, when set on an Agent-role message, is replayed by
	// convertHistory as that assistant message's tool_calls. Session records
	// Agent messages without ToolCalls, and records tool outcomes as Tool
	// messages whose Tool.ID carries the call id; it does not set ToolCallID.
	ToolCallID string         `json:"tool_call_id,omitempty"`
	ToolCalls  []WireToolCall `json:"tool_calls,omitempty"`
}
