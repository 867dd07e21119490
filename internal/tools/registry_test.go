package tools

import (
	"testing"

	"github.com/codeforge-dev/codeforge/internal/events"
)

func TestRegistry_GetAllSpecs(t *testing.T) {
	r := NewRegistry()
	specs := r.GetAllSpecs()
	want := []events.ToolName{
		events.FsRead, events.FsSearch, events.FsWrite, events.FsApplyPatch,
		events.FsFind, events.ShellExec, events.CodeSymbols, events.LargeContextFetch,
	}
	if len(specs) != len(want) {
		t.Fatalf("got %d specs, want %d", len(specs), len(want))
	}
	for i, spec := range specs {
		if spec.Name != want[i] {
			t.Errorf("specs[%d].Name = %q, want %q", i, spec.Name, want[i])
		}
	}
}

func TestRegistry_GetSpec(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.GetSpec(events.FsRead); !ok {
		t.Error("expected fs.read to be registered")
	}
	if _, ok := r.GetSpec(events.ToolName("nonexistent")); ok {
		t.Error("did not expect an unknown tool to resolve")
	}
}

func TestRegistry_ValidateArgs(t *testing.T) {
	r := NewRegistry()
	if err := r.ValidateArgs(events.FsRead, map[string]interface{}{"path": "a.go"}); err != nil {
		t.Errorf("ValidateArgs() with required field present: %v", err)
	}
	if err := r.ValidateArgs(events.FsRead, map[string]interface{}{}); err == nil {
		t.Error("expected error when required field is missing")
	}
	if err := r.ValidateArgs(events.ToolName("nonexistent"), nil); err == nil {
		t.Error("expected error for unknown tool")
	}
}
