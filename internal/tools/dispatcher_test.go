package tools

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/codeforge-dev/codeforge/internal/events"
)

func TestDispatcher_EmitsBeginResultEnd(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(path, []byte("hi"), 0o644); err != nil {
		t.Fatal(err)
	}

	bus := events.NewBus()
	sender := bus.Sender()
	d := NewDispatcher(NewRegistry(), sender)

	var got []events.Kind
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			ev, ok := bus.Recv()
			if !ok {
				return
			}
			got = append(got, ev.Kind)
			if ev.Kind == events.KindToolEnd {
				return
			}
		}
	}()

	result, err := d.Dispatch(context.Background(), events.FsRead, map[string]interface{}{"path": path})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if result.(FsReadResult).Contents != "hi" {
		t.Errorf("unexpected result: %+v", result)
	}
	<-done

	if len(got) < 3 {
		t.Fatalf("expected at least begin/result/end events, got %v", got)
	}
	if got[0] != events.KindToolBegin {
		t.Errorf("first event = %q, want tool_begin", got[0])
	}
	if got[len(got)-1] != events.KindToolEnd {
		t.Errorf("last event = %q, want tool_end", got[len(got)-1])
	}
}

func TestDispatcher_UnknownTool(t *testing.T) {
	bus := events.NewBus()
	d := NewDispatcher(NewRegistry(), bus.Sender())
	go func() {
		for {
			if _, ok := bus.Recv(); !ok {
				return
			}
		}
	}()

	_, err := d.Dispatch(context.Background(), events.ToolName("bogus"), nil)
	if err == nil {
		t.Fatal("expected error for unknown tool")
	}
}

func TestDispatcher_Truncate(t *testing.T) {
	bus := events.NewBus()
	d := NewDispatcher(NewRegistry(), bus.Sender())
	d.maxOutputBytes = 10

	small := d.truncate(map[string]string{"a": "b"})
	if _, ok := small.(map[string]interface{}); ok {
		t.Errorf("small payload should not be replaced with a truncation digest: %+v", small)
	}

	big := d.truncate(map[string]string{"a": strings.Repeat("x", 100)})
	digest, ok := big.(map[string]interface{})
	if !ok {
		t.Fatalf("expected a truncation digest map, got %T", big)
	}
	if digest["truncated"] != true {
		t.Errorf("digest = %+v, want truncated=true", digest)
	}
}

func TestSummarize(t *testing.T) {
	cases := []struct {
		name events.ToolName
		args map[string]interface{}
		want string
	}{
		{events.FsRead, map[string]interface{}{"path": "a.go"}, "Reading file: a.go"},
		{events.ShellExec, map[string]interface{}{"command": []interface{}{"go", "test"}}, "Executing: go test"},
		{events.FsFind, map[string]interface{}{"query": "foo"}, "Finding: foo"},
	}
	for _, c := range cases {
		if got := Summarize(c.name, c.args); got != c.want {
			t.Errorf("Summarize(%q, %+v) = %q, want %q", c.name, c.args, got, c.want)
		}
	}
}
