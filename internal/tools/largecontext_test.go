package tools

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestExecuteLargeContextFetch_HeuristicRank(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	mustWriteFile(t, filepath.Join(dir, "auth.go"), "package main\n\nfunc Login() {}\n")
	mustWriteFile(t, filepath.Join(dir, "unrelated.go"), "package main\n\nfunc Ping() {}\n")

	result, err := ExecuteLargeContextFetch(context.Background(), "1", map[string]interface{}{
		"user_query": "login authentication flow",
	}, testSender())
	if err != nil {
		t.Fatalf("ExecuteLargeContextFetch() error = %v", err)
	}
	res := result.(LargeContextFetchResult)
	found := false
	for _, s := range res.Selections {
		if s.FilePath == "auth.go" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected auth.go among selections, got %+v", res.Selections)
	}
}

func TestExecuteLargeContextFetch_RequiresUserQuery(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	_, err := ExecuteLargeContextFetch(context.Background(), "1", map[string]interface{}{}, testSender())
	if err == nil {
		t.Fatal("expected error when user_query is missing")
	}
}

func TestLooksLikeText(t *testing.T) {
	if !looksLikeText([]byte("hello world")) {
		t.Error("expected plain text to look like text")
	}
	if looksLikeText([]byte{0x00, 0x01, 0x02}) {
		t.Error("expected null-byte data to not look like text")
	}
}

func TestExecuteLargeContextFetch_SkipsBinaryFiles(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile(filepath.Join(dir, "blob.bin"), []byte{0x00, 0x01, 'l', 'o', 'g', 'i', 'n'}, 0o644); err != nil {
		t.Fatal(err)
	}

	result, err := ExecuteLargeContextFetch(context.Background(), "1", map[string]interface{}{
		"user_query": "login",
	}, testSender())
	if err != nil {
		t.Fatalf("ExecuteLargeContextFetch() error = %v", err)
	}
	res := result.(LargeContextFetchResult)
	for _, s := range res.Selections {
		if s.FilePath == "blob.bin" {
			t.Error("binary file should have been skipped")
		}
	}
}
