package tools

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExecuteFsApplyPatch_ReplaceOnce(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.go")
	if err := os.WriteFile(path, []byte("package main\n\nfunc old() {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	result, err := ExecuteFsApplyPatch(context.Background(), "1", map[string]interface{}{
		"ops": []interface{}{
			map[string]interface{}{"op": "replace_once", "path": path, "find": "func old()", "replace": "func new()"},
		},
	}, testSender())
	if err != nil {
		t.Fatalf("ExecuteFsApplyPatch() error = %v", err)
	}
	res := result.(FsApplyPatchResult)
	if !res.Success {
		t.Fatalf("expected success, got summary: %s", res.Summary)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "func new()") {
		t.Errorf("file contents = %q, want replacement applied", data)
	}
	if !strings.Contains(res.Summary, "Modified files: "+path) {
		t.Errorf("summary = %q, want it to mention modified file", res.Summary)
	}
}

func TestExecuteFsApplyPatch_AmbiguousAnchor(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(path, []byte("foo bar foo"), 0o644); err != nil {
		t.Fatal(err)
	}

	result, err := ExecuteFsApplyPatch(context.Background(), "1", map[string]interface{}{
		"ops": []interface{}{
			map[string]interface{}{"op": "replace_once", "path": path, "find": "foo", "replace": "baz"},
		},
	}, testSender())
	if err != nil {
		t.Fatalf("ExecuteFsApplyPatch() returned a Go error, want (result, nil) even on failure: %v", err)
	}
	res := result.(FsApplyPatchResult)
	if res.Success {
		t.Fatal("expected Success=false for an ambiguous anchor")
	}
	if len(res.RejectedHunks) == 0 || !strings.Contains(res.RejectedHunks[0], "ambiguous") {
		t.Errorf("RejectedHunks = %v, want an ambiguous-anchor message", res.RejectedHunks)
	}

	data, _ := os.ReadFile(path)
	if string(data) != "foo bar foo" {
		t.Errorf("file was modified despite a failed patch: %q", data)
	}
}

func TestExecuteFsApplyPatch_AnchorNotFound(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	result, err := ExecuteFsApplyPatch(context.Background(), "1", map[string]interface{}{
		"ops": []interface{}{
			map[string]interface{}{"op": "insert_after", "path": path, "anchor": "missing", "insert": "x"},
		},
	}, testSender())
	if err != nil {
		t.Fatalf("unexpected Go error: %v", err)
	}
	res := result.(FsApplyPatchResult)
	if res.Success {
		t.Fatal("expected Success=false")
	}
	if !strings.Contains(res.RejectedHunks[0], "not found") {
		t.Errorf("RejectedHunks = %v, want an anchor-not-found message", res.RejectedHunks)
	}
}

func TestExecuteFsApplyPatch_DryRunLeavesDiskUntouched(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	result, err := ExecuteFsApplyPatch(context.Background(), "1", map[string]interface{}{
		"dry_run": true,
		"ops": []interface{}{
			map[string]interface{}{"op": "replace_once", "path": path, "find": "hello", "replace": "goodbye"},
		},
	}, testSender())
	if err != nil {
		t.Fatalf("ExecuteFsApplyPatch() error = %v", err)
	}
	res := result.(FsApplyPatchResult)
	if !res.Success {
		t.Fatalf("expected success, got: %s", res.Summary)
	}
	if !strings.HasPrefix(res.Summary, "Dry run: no changes were written.") {
		t.Errorf("summary = %q, want dry-run prefix", res.Summary)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "hello" {
		t.Errorf("dry run wrote to disk: %q", data)
	}
}

func TestExecuteFsApplyPatch_SetFileCreatesNew(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "new.txt")

	result, err := ExecuteFsApplyPatch(context.Background(), "1", map[string]interface{}{
		"ops": []interface{}{
			map[string]interface{}{"op": "set_file", "path": path, "contents": "fresh content"},
		},
	}, testSender())
	if err != nil {
		t.Fatalf("ExecuteFsApplyPatch() error = %v", err)
	}
	res := result.(FsApplyPatchResult)
	if !res.Success {
		t.Fatalf("expected success, got: %s", res.Summary)
	}
	if !strings.Contains(res.Summary, "Created files: "+path) {
		t.Errorf("summary = %q, want created-files mention", res.Summary)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "fresh content" {
		t.Errorf("file contents = %q", data)
	}
}

func TestExecuteFsApplyPatch_RenameThenEdit(t *testing.T) {
	dir := t.TempDir()
	from := filepath.Join(dir, "old.txt")
	to := filepath.Join(dir, "new.txt")
	if err := os.WriteFile(from, []byte("contents here"), 0o644); err != nil {
		t.Fatal(err)
	}

	result, err := ExecuteFsApplyPatch(context.Background(), "1", map[string]interface{}{
		"ops": []interface{}{
			map[string]interface{}{"op": "rename_file", "path": from, "to": to},
			map[string]interface{}{"op": "replace_once", "path": to, "find": "contents", "replace": "new contents"},
		},
	}, testSender())
	if err != nil {
		t.Fatalf("ExecuteFsApplyPatch() error = %v", err)
	}
	res := result.(FsApplyPatchResult)
	if !res.Success {
		t.Fatalf("expected success, got: %s", res.Summary)
	}
	if _, err := os.Stat(from); !os.IsNotExist(err) {
		t.Error("source file still exists after rename")
	}
	data, err := os.ReadFile(to)
	if err != nil {
		t.Fatalf("destination file missing: %v", err)
	}
	if string(data) != "new contents here" {
		t.Errorf("file contents = %q", data)
	}
}

func TestExactlyOnce(t *testing.T) {
	if _, err := exactlyOnce("abcabc", "x"); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("want 'not found' error, got %v", err)
	}
	if _, err := exactlyOnce("abcabc", "abc"); err == nil || !strings.Contains(err.Error(), "ambiguous") {
		t.Errorf("want 'ambiguous' error, got %v", err)
	}
	idx, err := exactlyOnce("xxayyy", "a")
	if err != nil || idx != 2 {
		t.Errorf("idx = %d, err = %v, want 2, nil", idx, err)
	}
}
