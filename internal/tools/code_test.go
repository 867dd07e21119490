package tools

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestExecuteCodeSymbols_Go(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.go")
	src := "package sample\n\nfunc DoThing() {}\n\ntype Widget struct{}\n\nconst Max = 10\n"
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	result, err := ExecuteCodeSymbols(context.Background(), "1", map[string]interface{}{"path": path}, testSender())
	if err != nil {
		t.Fatalf("ExecuteCodeSymbols() error = %v", err)
	}
	res := result.(CodeSymbolsResult)
	if res.Language != "go" {
		t.Errorf("Language = %q, want %q", res.Language, "go")
	}
	want := map[string]string{"DoThing": "function", "Widget": "type", "Max": "const"}
	got := make(map[string]string)
	for _, s := range res.Symbols {
		got[s.Name] = s.Kind
	}
	for name, kind := range want {
		if got[name] != kind {
			t.Errorf("symbol %q kind = %q, want %q", name, got[name], kind)
		}
	}
}

func TestExecuteCodeSymbols_UnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.bin")
	if err := os.WriteFile(path, []byte("binary"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := ExecuteCodeSymbols(context.Background(), "1", map[string]interface{}{"path": path}, testSender())
	if err == nil {
		t.Fatal("expected error for unsupported extension")
	}
}
