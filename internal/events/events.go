// Package events implements the application's unbounded, single-consumer,
// many-producer event bus, and the value types that flow across it.
package events

import (
	"fmt"
	"sync"
)

// ToolName is the stable, catalog-wide tag for a registered tool.
type ToolName string

const (
	FsRead            ToolName = "fs.read"
	FsSearch          ToolName = "fs.search"
	FsWrite           ToolName = "fs.write"
	FsApplyPatch      ToolName = "fs.apply_patch"
	FsFind            ToolName = "fs.find"
	ShellExec         ToolName = "shell.exec"
	CodeSymbols       ToolName = "code.symbols"
	LargeContextFetch ToolName = "large_context_fetch"
)

// TokenUsage is attached to each model turn.
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// ToolSpec is the static catalog entry for one tool.
type ToolSpec struct {
	Name          ToolName               `json:"name"`
	InputSchema   map[string]interface{} `json:"input_schema"`
	OutputSchema  map[string]interface{} `json:"output_schema"`
	Streaming     bool                   `json:"streaming"`
	SideEffects   bool                   `json:"side_effects"`
	NeedsApproval bool                   `json:"needs_approval"`
	TimeoutMs     int64                  `json:"timeout_ms"`
}

// ResponseMetadata carries per-turn accounting surfaced to the caller.
type ResponseMetadata struct {
	ProcessingTimeMs int64
}

// AgentResponse is the successful outcome of one agent.Submit call.
type AgentResponse struct {
	Content  string
	Metadata ResponseMetadata
}

// AgentErrorKind is the agent-boundary error taxonomy from spec §4.6/§7.
type AgentErrorKind string

const (
	ErrNetwork       AgentErrorKind = "network"
	ErrConfiguration AgentErrorKind = "configuration"
	ErrProcessing    AgentErrorKind = "processing"
	ErrUnavailable   AgentErrorKind = "unavailable"
)

// AgentError is returned by Agent.Submit on failure.
type AgentError struct {
	Kind    AgentErrorKind
	Message string
}

func (e *AgentError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func NewAgentError(kind AgentErrorKind, format string, args ...interface{}) *AgentError {
	return &AgentError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Kind tags the variant of an Event. Fields below are populated per-kind;
// unused fields for a given kind are left zero.
type Kind string

const (
	KindUserInput        Kind = "user_input"
	KindAgentResponse     Kind = "agent_response"
	KindAgentError        Kind = "agent_error"
	KindAgentThinking     Kind = "agent_thinking"
	KindQuit              Kind = "quit"
	KindClear             Kind = "clear"
	KindChatCreated       Kind = "chat_created"
	KindChatDelta         Kind = "chat_delta"
	KindChatCompleted     Kind = "chat_completed"
	KindToolBegin         Kind = "tool_begin"
	KindToolProgress      Kind = "tool_progress"
	KindToolStdout        Kind = "tool_stdout"
	KindToolStderr        Kind = "tool_stderr"
	KindToolResult        Kind = "tool_result"
	KindToolEnd           Kind = "tool_end"
	KindApprovalRequest   Kind = "approval_request"
	KindApprovalDecision  Kind = "approval_decision"
	KindError             Kind = "error"
	KindTokenCount        Kind = "token_count"
	KindBackground        Kind = "background"
)

// Event is a single AppEvent value.
type Event struct {
	Kind Kind

	// UserInput, ChatDelta, AgentThinking, Background
	Text string

	// AgentResponse
	Response *AgentResponse

	// AgentError
	Err error

	// ChatCompleted, TokenCount
	TokenUsage *TokenUsage

	// Tool*, ApprovalRequest/Decision, and Error (Message)
	ID         string
	Tool       ToolName
	Summary    string
	Args       map[string]interface{}
	Message    string
	Chunk      string
	Payload    interface{}
	OK         bool
	DurationMs int64
	Approved   bool
}

// ErrChannelClosed is returned by Sender.Send once the bus has been closed.
// Callers are expected to swallow it silently (spec §4.1/§7: "a closed
// receiver means the UI is gone").
var ErrChannelClosed = fmt.Errorf("event channel is closed")

// Bus is the single-consumer event queue. It never blocks a sender: Send
// enqueues onto an internal unbounded slice guarded by a mutex/condvar, and
// Recv drains it from the one owning consumer.
type Bus struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []Event
	closed bool
}

func NewBus() *Bus {
	b := &Bus{}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Sender returns a cloneable handle producers use to publish events.
func (b *Bus) Sender() *Sender {
	return &Sender{bus: b}
}

// Recv blocks until an event is available or the bus is closed, in which
// case it returns (Event{}, false). This is intended for the single owning
// consumer (the UI loop).
func (b *Bus) Recv() (Event, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for len(b.queue) == 0 && !b.closed {
		b.cond.Wait()
	}
	if len(b.queue) == 0 && b.closed {
		return Event{}, false
	}
	ev := b.queue[0]
	b.queue = b.queue[1:]
	return ev, true
}

// Close marks the bus closed; further sends fail with ErrChannelClosed.
func (b *Bus) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.cond.Broadcast()
}

func (b *Bus) send(ev Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrChannelClosed
	}
	b.queue = append(b.queue, ev)
	b.cond.Signal()
	return nil
}

// Sender is a clone of the bus's producer handle.
type Sender struct {
	bus *Bus
}

func (s *Sender) Send(ev Event) error {
	return s.bus.send(ev)
}

func (s *Sender) SendUserInput(message string) error {
	return s.Send(Event{Kind: KindUserInput, Text: message})
}

func (s *Sender) SendAgentResponse(resp AgentResponse) error {
	return s.Send(Event{Kind: KindAgentResponse, Response: &resp})
}

func (s *Sender) SendAgentError(err *AgentError) error {
	return s.Send(Event{Kind: KindAgentError, Err: err})
}

func (s *Sender) SendAgentThinking(thinking string) error {
	return s.Send(Event{Kind: KindAgentThinking, Text: thinking})
}

func (s *Sender) SendQuit() error {
	return s.Send(Event{Kind: KindQuit})
}

func (s *Sender) SendError(id string, message string) error {
	return s.Send(Event{Kind: KindError, ID: id, Message: message})
}
