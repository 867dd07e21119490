package session

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/codeforge-dev/codeforge/internal/agent"
	"github.com/codeforge-dev/codeforge/internal/events"
)

type stubAgent struct {
	resp events.AgentResponse
	err  error
}

func (s *stubAgent) Submit(ctx context.Context, message string, history []agent.ChatMessage) (events.AgentResponse, error) {
	return s.resp, s.err
}

func (s *stubAgent) Info() agent.AgentInfo {
	return agent.AgentInfo{Name: "Stub"}
}

func newTestSession(t *testing.T, ag agent.Agent) (*Session, *events.Bus) {
	t.Helper()
	bus := events.NewBus()
	sess := New(ag, bus.Sender())
	sess.historyPath = filepath.Join(t.TempDir(), "chat_history.json")
	return sess, bus
}

func TestSession_StartsWithWelcomeMessage(t *testing.T) {
	sess, _ := newTestSession(t, &stubAgent{})
	msgs := sess.Messages()
	if len(msgs) != 1 || msgs[0].Role != agent.RoleSystem {
		t.Fatalf("expected a single welcome system message, got %+v", msgs)
	}
}

func TestSession_AddMessagesAppendOnlyOrder(t *testing.T) {
	sess, _ := newTestSession(t, &stubAgent{})
	sess.AddUserMessage("hi")
	sess.AddAgentMessage("hello", nil)
	sess.AddSystemMessage("note")
	sess.AddErrorMessage("oops")

	msgs := sess.Messages()
	if len(msgs) != 5 {
		t.Fatalf("expected 5 messages, got %d", len(msgs))
	}
	wantRoles := []agent.MessageRole{agent.RoleSystem, agent.RoleUser, agent.RoleAgent, agent.RoleSystem, agent.RoleError}
	for i, want := range wantRoles {
		if msgs[i].Role != want {
			t.Errorf("msgs[%d].Role = %q, want %q", i, msgs[i].Role, want)
		}
	}
}

func TestSession_Clear(t *testing.T) {
	sess, _ := newTestSession(t, &stubAgent{})
	sess.AddUserMessage("hi")
	sess.Clear()
	msgs := sess.Messages()
	if len(msgs) != 1 || msgs[0].Role != agent.RoleSystem {
		t.Fatalf("expected Clear() to reset to a single welcome message, got %+v", msgs)
	}
}

func TestSession_HandleUserInput_Success(t *testing.T) {
	ag := &stubAgent{resp: events.AgentResponse{Content: "final answer"}}
	sess, bus := newTestSession(t, ag)

	sess.HandleUserInput(context.Background(), "do something")

	ev, ok := bus.Recv()
	if !ok {
		t.Fatal("expected an event on the bus")
	}
	if ev.Kind != events.KindAgentResponse {
		t.Fatalf("Kind = %q, want agent_response", ev.Kind)
	}
	if ev.Response.Content != "final answer" {
		t.Errorf("Content = %q, want %q", ev.Response.Content, "final answer")
	}

	msgs := sess.Messages()
	if msgs[len(msgs)-1].Role != agent.RoleUser {
		t.Errorf("expected the user message to be appended synchronously, got %+v", msgs[len(msgs)-1])
	}
}

func TestSession_HandleUserInput_Error(t *testing.T) {
	ag := &stubAgent{err: events.NewAgentError(events.ErrNetwork, "boom")}
	sess, bus := newTestSession(t, ag)

	sess.HandleUserInput(context.Background(), "do something")

	ev, ok := bus.Recv()
	if !ok {
		t.Fatal("expected an event on the bus")
	}
	if ev.Kind != events.KindAgentError {
		t.Fatalf("Kind = %q, want agent_error", ev.Kind)
	}
	if ev.Err == nil {
		t.Fatal("expected a non-nil error")
	}
}

func TestSession_ToolEventRouting(t *testing.T) {
	sess, _ := newTestSession(t, &stubAgent{})

	sess.HandleEvent(events.Event{Kind: events.KindToolBegin, ID: "t1", Tool: events.ShellExec, Summary: "Executing: ls"})
	sess.HandleEvent(events.Event{Kind: events.KindToolStdout, ID: "t1", Chunk: "file1\n"})
	sess.HandleEvent(events.Event{Kind: events.KindToolStdout, ID: "t1", Chunk: "file2\n"})
	sess.HandleEvent(events.Event{Kind: events.KindToolResult, ID: "t1", Payload: map[string]int{"exit_code": 0}})
	sess.HandleEvent(events.Event{Kind: events.KindToolEnd, ID: "t1", OK: true, DurationMs: 42})

	msgs := sess.Messages()
	last := msgs[len(msgs)-1]
	if last.Role != agent.RoleTool || last.Tool == nil {
		t.Fatalf("expected a tool message, got %+v", last)
	}
	if last.Tool.Stdout != "file1\nfile2\n" {
		t.Errorf("Stdout = %q", last.Tool.Stdout)
	}
	if last.Tool.Status != agent.ToolCompleted {
		t.Errorf("Status = %q, want completed", last.Tool.Status)
	}
	if last.Tool.Duration != 42*time.Millisecond {
		t.Errorf("Duration = %v, want 42ms", last.Tool.Duration)
	}
}

func TestSession_ToolEventRouting_Failure(t *testing.T) {
	sess, _ := newTestSession(t, &stubAgent{})
	sess.HandleEvent(events.Event{Kind: events.KindToolBegin, ID: "t1", Tool: events.ShellExec})
	sess.HandleEvent(events.Event{Kind: events.KindToolEnd, ID: "t1", OK: false})

	msgs := sess.Messages()
	last := msgs[len(msgs)-1]
	if last.Tool.Status != agent.ToolFailed {
		t.Errorf("Status = %q, want failed", last.Tool.Status)
	}
}

func TestSession_SaveAndLoad(t *testing.T) {
	sess, _ := newTestSession(t, &stubAgent{})
	sess.AddUserMessage("hello")
	sess.AddAgentMessage("hi there", nil)

	if err := sess.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	data, err := os.ReadFile(sess.historyPath)
	if err != nil {
		t.Fatalf("expected history file to exist: %v", err)
	}
	var decoded []agent.ChatMessage
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("saved history is not valid JSON: %v", err)
	}
	if len(decoded) != 3 {
		t.Fatalf("expected 3 persisted messages, got %d", len(decoded))
	}

	sess2, _ := newTestSession(t, &stubAgent{})
	sess2.historyPath = sess.historyPath
	if err := sess2.LoadInto(sess.historyPath); err != nil {
		t.Fatalf("LoadInto() error = %v", err)
	}
	msgs := sess2.Messages()
	if len(msgs) != 3 || msgs[1].Content != "hello" {
		t.Fatalf("unexpected loaded messages: %+v", msgs)
	}
}

func TestSession_LoadInto_MissingFileClears(t *testing.T) {
	sess, _ := newTestSession(t, &stubAgent{})
	sess.AddUserMessage("hi")

	if err := sess.LoadInto(filepath.Join(t.TempDir(), "nonexistent.json")); err != nil {
		t.Fatalf("LoadInto() error = %v", err)
	}
	msgs := sess.Messages()
	if len(msgs) != 1 || msgs[0].Role != agent.RoleSystem {
		t.Fatalf("expected a fresh welcome message, got %+v", msgs)
	}
}

func TestSanitizeTitle(t *testing.T) {
	cases := map[string]string{
		"Fix the login bug!": "fix-the-login-bug",
		"   ":                "chat",
		"a/b\\c":              "a-b-c",
	}
	for input, want := range cases {
		if got := SanitizeTitle(input); got != want {
			t.Errorf("SanitizeTitle(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestSession_SaveNamedAndListChats(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	sess, _ := newTestSession(t, &stubAgent{})
	sess.AddUserMessage("investigate the flaky test")

	path, err := sess.SaveNamed("investigate the flaky test")
	if err != nil {
		t.Fatalf("SaveNamed() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected named chat file to exist: %v", err)
	}

	chats, err := ListChats()
	if err != nil {
		t.Fatalf("ListChats() error = %v", err)
	}
	if len(chats) != 1 {
		t.Fatalf("expected 1 chat, got %d", len(chats))
	}
}
