package tools

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestExecuteFsFind_Fuzzy(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	mustMkdirAll(t, filepath.Join(dir, "internal", "agent"))
	mustWriteFile(t, filepath.Join(dir, "internal", "agent", "driver.go"), "package agent")
	mustWriteFile(t, filepath.Join(dir, "internal", "agent", "mock.go"), "package agent")

	result, err := ExecuteFsFind(context.Background(), "1", map[string]interface{}{"query": "drvr"}, testSender())
	if err != nil {
		t.Fatalf("ExecuteFsFind() error = %v", err)
	}
	res := result.(FsFindResult)
	found := false
	for _, m := range res.Matches {
		if filepath.Base(m.Path) == "driver.go" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected driver.go among fuzzy matches, got %+v", res.Matches)
	}
}

func TestExecuteFsFind_Glob(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	mustWriteFile(t, filepath.Join(dir, "a.go"), "package main")
	mustWriteFile(t, filepath.Join(dir, "b.txt"), "text")

	result, err := ExecuteFsFind(context.Background(), "1", map[string]interface{}{"query": "*.go", "glob": true}, testSender())
	if err != nil {
		t.Fatalf("ExecuteFsFind() error = %v", err)
	}
	res := result.(FsFindResult)
	if len(res.Matches) != 1 || res.Matches[0].Path != "a.go" {
		t.Errorf("Matches = %+v, want exactly a.go", res.Matches)
	}
}

func TestFuzzyScore(t *testing.T) {
	if _, ok := fuzzyScore("xyz", "abc"); ok {
		t.Error("expected no match for non-subsequence")
	}
	score1, ok := fuzzyScore("drv", "driver.go")
	if !ok {
		t.Fatal("expected subsequence match")
	}
	score2, ok := fuzzyScore("drv", "dxrxvxer.go")
	if !ok {
		t.Fatal("expected subsequence match")
	}
	if score1 <= score2 {
		t.Errorf("contiguous match score %d should exceed scattered match score %d", score1, score2)
	}
}

func mustMkdirAll(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatal(err)
	}
}

func mustWriteFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
}
