// Package session owns the append-only conversation log and routes tool
// lifecycle events into it, grounded on original_source/core/src/session.rs.
// The teacher keeps this state inline in its tui.Model; this repo splits it
// out so the Session can be exercised independently of bubbletea.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/codeforge-dev/codeforge/internal/agent"
	"github.com/codeforge-dev/codeforge/internal/events"
)

const welcomeMessage = "Welcome to Codeforge. Ask for something to get started."

// Session owns the message log exclusively; only its own mutators touch it.
// The background agent task it spawns never mutates the log directly — it
// only reports its outcome onto the bus.
type Session struct {
	mu       sync.Mutex
	messages []agent.ChatMessage

	ag     agent.Agent
	sender *events.Sender

	historyPath string
}

// New creates a Session wired to ag, publishing lifecycle and turn events
// onto sender. The message log starts with a welcome system message, same as
// Clear().
func New(ag agent.Agent, sender *events.Sender) *Session {
	s := &Session{ag: ag, sender: sender, historyPath: DefaultHistoryPath()}
	s.messages = []agent.ChatMessage{{Role: agent.RoleSystem, Content: welcomeMessage, CreatedAt: time.Now()}}
	return s
}

// AgentInfo reports the identity of the wired agent, for /info.
func (s *Session) AgentInfo() agent.AgentInfo {
	return s.ag.Info()
}

// Messages returns a snapshot of the log in insertion order.
func (s *Session) Messages() []agent.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]agent.ChatMessage, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *Session) AddUserMessage(text string) {
	s.mu.Lock()
	s.messages = append(s.messages, agent.ChatMessage{Role: agent.RoleUser, Content: text, CreatedAt: time.Now()})
	s.mu.Unlock()
}

// AddAgentMessage appends the assistant's final text and auto-saves, the
// same trigger point original_source/core/src/session.rs uses.
func (s *Session) AddAgentMessage(text string, toolCalls []agent.WireToolCall) {
	s.mu.Lock()
	s.messages = append(s.messages, agent.ChatMessage{Role: agent.RoleAgent, Content: text, ToolCalls: toolCalls, CreatedAt: time.Now()})
	s.mu.Unlock()
	if err := s.Save(); err != nil {
		s.sender.Send(events.Event{Kind: events.KindError, Message: fmt.Sprintf("failed to save chat history: %s", err)})
	}
}

func (s *Session) AddSystemMessage(text string) {
	s.mu.Lock()
	s.messages = append(s.messages, agent.ChatMessage{Role: agent.RoleSystem, Content: text, CreatedAt: time.Now()})
	s.mu.Unlock()
}

func (s *Session) AddErrorMessage(text string) {
	s.mu.Lock()
	s.messages = append(s.messages, agent.ChatMessage{Role: agent.RoleError, Content: text, CreatedAt: time.Now()})
	s.mu.Unlock()
}

// AddToolMessage records a new in-flight tool call, called from
// HandleToolBegin.
func (s *Session) AddToolMessage(info *agent.ToolMessageInfo) {
	s.mu.Lock()
	s.messages = append(s.messages, agent.ChatMessage{Role: agent.RoleTool, Tool: info, CreatedAt: time.Now()})
	s.mu.Unlock()
}

// Clear truncates the log, then seeds it with a welcome message again.
func (s *Session) Clear() {
	s.mu.Lock()
	s.messages = []agent.ChatMessage{{Role: agent.RoleSystem, Content: welcomeMessage, CreatedAt: time.Now()}}
	s.mu.Unlock()
}

// ReplaceMessages swaps the whole log, used by LoadInto.
func (s *Session) ReplaceMessages(msgs []agent.ChatMessage) {
	s.mu.Lock()
	s.messages = msgs
	s.mu.Unlock()
}

// HandleUserInput appends the user's message, snapshots history, and spawns
// a background task that submits the turn to the agent and reports its
// outcome onto the bus. It does not await the agent call.
func (s *Session) HandleUserInput(ctx context.Context, text string) {
	s.AddUserMessage(text)
	history := s.Messages()

	go func() {
		resp, err := s.ag.Submit(ctx, text, history)
		if err != nil {
			if agentErr, ok := err.(*events.AgentError); ok {
				s.sender.Send(events.Event{Kind: events.KindAgentError, Err: agentErr})
			} else {
				s.sender.Send(events.Event{Kind: events.KindAgentError, Err: events.NewAgentError(events.ErrProcessing, "%s", err)})
			}
			return
		}
		s.sender.Send(events.Event{Kind: events.KindAgentResponse, Response: &resp})
	}()
}

// HandleEvent is the single entry point the UI's event loop calls for every
// bus event that may affect session state — tool lifecycle events update
// the matching Tool message in place; AgentResponse/AgentError append the
// final turn outcome.
func (s *Session) HandleEvent(ev events.Event) {
	switch ev.Kind {
	case events.KindToolBegin:
		s.handleToolBegin(ev)
	case events.KindToolProgress:
		s.updateTool(ev.ID, func(info *agent.ToolMessageInfo) {})
	case events.KindToolStdout:
		s.updateTool(ev.ID, func(info *agent.ToolMessageInfo) { info.Stdout += ev.Chunk })
	case events.KindToolStderr:
		s.updateTool(ev.ID, func(info *agent.ToolMessageInfo) { info.Stderr += ev.Chunk })
	case events.KindToolResult:
		s.updateTool(ev.ID, func(info *agent.ToolMessageInfo) { info.Result = ev.Payload })
	case events.KindToolEnd:
		s.updateTool(ev.ID, func(info *agent.ToolMessageInfo) {
			if ev.OK {
				info.Status = agent.ToolCompleted
			} else {
				info.Status = agent.ToolFailed
			}
			info.Duration = time.Duration(ev.DurationMs) * time.Millisecond
		})
	case events.KindAgentResponse:
		if ev.Response != nil {
			s.AddAgentMessage(ev.Response.Content, nil)
		}
	case events.KindAgentError:
		if ev.Err != nil {
			s.AddErrorMessage(ev.Err.Error())
		}
	case events.KindClear:
		s.Clear()
	}
}

func (s *Session) handleToolBegin(ev events.Event) {
	s.AddToolMessage(&agent.ToolMessageInfo{
		ID:      ev.ID,
		Name:    string(ev.Tool),
		Summary: ev.Summary,
		Args:    ev.Args,
		Status:  agent.ToolRunning,
	})
}

// updateTool scans the log from the tail for the most recent Tool message
// whose id matches and applies mutate to it. An id is unique per session
// within one turn: the dispatcher is the sole id issuer.
func (s *Session) updateTool(id string, mutate func(*agent.ToolMessageInfo)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.messages) - 1; i >= 0; i-- {
		m := &s.messages[i]
		if m.Role == agent.RoleTool && m.Tool != nil && m.Tool.ID == id {
			mutate(m.Tool)
			return
		}
	}
}

// DefaultHistoryPath is $HOME/.codeforge/chat_history.json.
func DefaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".codeforge", "chat_history.json")
}

// Save serializes the message log as indented JSON to DefaultHistoryPath.
func (s *Session) Save() error {
	return s.saveTo(s.historyPath)
}

func (s *Session) saveTo(path string) error {
	s.mu.Lock()
	encoded, err := json.MarshalIndent(s.messages, "", "  ")
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to encode chat history: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		return fmt.Errorf("failed to write chat history: %w", err)
	}
	return nil
}

// LoadInto replaces the in-memory log from path (DefaultHistoryPath if
// empty), appending a welcome message if the loaded log is empty.
func (s *Session) LoadInto(path string) error {
	if path == "" {
		path = s.historyPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			s.Clear()
			return nil
		}
		return fmt.Errorf("failed to read chat history: %w", err)
	}

	var msgs []agent.ChatMessage
	if err := json.Unmarshal(data, &msgs); err != nil {
		return fmt.Errorf("failed to decode chat history: %w", err)
	}
	if len(msgs) == 0 {
		msgs = []agent.ChatMessage{{Role: agent.RoleSystem, Content: welcomeMessage, CreatedAt: time.Now()}}
	}
	s.ReplaceMessages(msgs)
	return nil
}

// ChatEntry is one row of ListChats' directory listing.
type ChatEntry struct {
	Path    string
	Title   string
	ModTime time.Time
}

var titleSanitizer = regexp.MustCompile(`[^a-zA-Z0-9-]+`)

// namedChatsDir is the directory holding one JSON file per saved chat,
// alongside the single default chat_history.json.
func namedChatsDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".codeforge", "chats")
}

// SanitizeTitle derives a filesystem-safe slug from the first user message,
// truncated to a reasonable filename length.
func SanitizeTitle(firstMessage string) string {
	slug := titleSanitizer.ReplaceAllString(strings.TrimSpace(firstMessage), "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "chat"
	}
	if len(slug) > 48 {
		slug = slug[:48]
	}
	return strings.ToLower(slug)
}

// SaveNamed writes the current log to <slug>_<epoch>.json under the named
// chats directory.
func (s *Session) SaveNamed(title string) (string, error) {
	dir := namedChatsDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create chats directory: %w", err)
	}
	filename := fmt.Sprintf("%s_%d.json", SanitizeTitle(title), time.Now().Unix())
	path := filepath.Join(dir, filename)
	if err := s.saveTo(path); err != nil {
		return "", err
	}
	return path, nil
}

// LoadNamed replaces the in-memory log with the saved chat whose ListChats
// title matches exactly, returning its path.
func (s *Session) LoadNamed(title string) (string, error) {
	chats, err := ListChats()
	if err != nil {
		return "", err
	}
	for _, c := range chats {
		if c.Title == title {
			return c.Path, s.LoadInto(c.Path)
		}
	}
	return "", fmt.Errorf("no saved chat named %q", title)
}

// ListChats enumerates saved named chats, sorted by mtime descending.
func ListChats() ([]ChatEntry, error) {
	dir := namedChatsDir()
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read chats directory: %w", err)
	}

	var chats []ChatEntry
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		chats = append(chats, ChatEntry{
			Path:    filepath.Join(dir, e.Name()),
			Title:   strings.TrimSuffix(e.Name(), ".json"),
			ModTime: info.ModTime(),
		})
	}
	sort.Slice(chats, func(i, j int) bool { return chats[i].ModTime.After(chats[j].ModTime) })
	return chats, nil
}
