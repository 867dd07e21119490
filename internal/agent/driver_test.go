package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/codeforge-dev/codeforge/internal/events"
	"github.com/codeforge-dev/codeforge/internal/tools"
)

func newTestDriver(t *testing.T, configs []ModelConfig) (*Driver, *events.Bus) {
	t.Helper()
	bus := events.NewBus()
	registry := tools.NewRegistry()
	sender := bus.Sender()
	dispatcher := tools.NewDispatcher(registry, sender)
	d := &Driver{
		configs:      configs,
		sender:       sender,
		registry:     registry,
		dispatcher:   dispatcher,
		httpClient:   http.DefaultClient,
		systemPrompt: "test system prompt",
	}
	return d, bus
}

// drainBus lets assertions run without a Session consuming the bus.
func drainBus(bus *events.Bus) {
	go func() {
		for {
			if _, ok := bus.Recv(); !ok {
				return
			}
		}
	}()
}

func TestDriver_SimpleResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id": "1", "model": "test",
			"choices": []map[string]interface{}{
				{"message": map[string]interface{}{"role": "assistant", "content": "hello there"}},
			},
		})
	}))
	defer server.Close()

	d, bus := newTestDriver(t, []ModelConfig{{BaseURL: server.URL, APIKey: "k", Model: "m", Name: "Test"}})
	drainBus(bus)

	resp, err := d.Submit(context.Background(), "hi", nil)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if resp.Content != "hello there" {
		t.Errorf("Content = %q, want %q", resp.Content, "hello there")
	}
}

func TestDriver_TurnLoopWithTool(t *testing.T) {
	var call int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&call, 1)
		w.Header().Set("Content-Type", "application/json")
		if n == 1 {
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"id": "1", "model": "test",
				"choices": []map[string]interface{}{
					{"message": map[string]interface{}{
						"role": "assistant",
						"tool_calls": []map[string]interface{}{
							{"id": "call_1", "type": "function", "function": map[string]interface{}{
								"name":      "fs.read",
								"arguments": `{"path":"driver_test.go"}`,
							}},
						},
					}},
				},
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id": "2", "model": "test",
			"choices": []map[string]interface{}{
				{"message": map[string]interface{}{"role": "assistant", "content": "read it"}},
			},
		})
	}))
	defer server.Close()

	d, bus := newTestDriver(t, []ModelConfig{{BaseURL: server.URL, APIKey: "k", Model: "m", Name: "Test"}})
	drainBus(bus)

	resp, err := d.Submit(context.Background(), "read the file", nil)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if resp.Content != "read it" {
		t.Errorf("Content = %q, want %q", resp.Content, "read it")
	}
	if atomic.LoadInt32(&call) != 2 {
		t.Errorf("expected 2 completion calls, got %d", call)
	}
}

func TestDriver_FallbackOnNonSuccess(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer bad.Close()

	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id": "1", "model": "test",
			"choices": []map[string]interface{}{
				{"message": map[string]interface{}{"role": "assistant", "content": "from second provider"}},
			},
		})
	}))
	defer good.Close()

	d, bus := newTestDriver(t, []ModelConfig{
		{BaseURL: bad.URL, APIKey: "k", Model: "m", Name: "Bad"},
		{BaseURL: good.URL, APIKey: "k", Model: "m", Name: "Good"},
	})
	drainBus(bus)

	resp, err := d.Submit(context.Background(), "hi", nil)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if resp.Content != "from second provider" {
		t.Errorf("Content = %q, want %q", resp.Content, "from second provider")
	}
}

func TestDriver_AllProvidersFail(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer bad.Close()

	d, bus := newTestDriver(t, []ModelConfig{{BaseURL: bad.URL, APIKey: "k", Model: "m", Name: "Bad"}})
	drainBus(bus)

	_, err := d.Submit(context.Background(), "hi", nil)
	if err == nil {
		t.Fatal("expected error when all providers fail")
	}
	agentErr, ok := err.(*events.AgentError)
	if !ok {
		t.Fatalf("expected *events.AgentError, got %T", err)
	}
	if agentErr.Kind != events.ErrNetwork {
		t.Errorf("Kind = %q, want %q", agentErr.Kind, events.ErrNetwork)
	}
}

func TestConvertHistory_ToolMessageRoundTrip(t *testing.T) {
	history := []ChatMessage{
		{Role: RoleUser, Content: "do a thing"},
		{Role: RoleTool, Tool: &ToolMessageInfo{
			ID: "call_1", Name: "shell.exec",
			Args:   map[string]interface{}{"command": []interface{}{"echo", "hi"}},
			Stdout: "hi\n",
		}},
		{Role: RoleAgent, Content: "done"},
	}

	wire := convertHistory(history)
	if len(wire) != 4 {
		t.Fatalf("expected 4 wire messages (user, synthetic assistant, tool, agent), got %d", len(wire))
	}
	if wire[1].Role != "assistant" || len(wire[1].ToolCalls) != 1 {
		t.Errorf("expected synthetic assistant tool-call message, got %+v", wire[1])
	}
	if wire[2].Role != "tool" || wire[2].ToolCallID != "call_1" {
		t.Errorf("expected tool message with matching tool_call_id, got %+v", wire[2])
	}
	var payload map[string]string
	if err := json.Unmarshal([]byte(*wire[2].Content), &payload); err != nil {
		t.Fatalf("tool content not valid JSON: %v", err)
	}
	if payload["stdout"] != "hi\n" {
		t.Errorf("stdout = %q, want %q", payload["stdout"], "hi\n")
	}
}
