package tools

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/codeforge-dev/codeforge/internal/events"
)

func testSender() *events.Sender {
	return events.NewBus().Sender()
}

func TestExecuteFsRead(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hello.txt")
	if err := os.WriteFile(path, []byte("hello world"), 0o644); err != nil {
		t.Fatal(err)
	}

	result, err := ExecuteFsRead(context.Background(), "1", map[string]interface{}{"path": path}, testSender())
	if err != nil {
		t.Fatalf("ExecuteFsRead() error = %v", err)
	}
	res := result.(FsReadResult)
	if res.Contents != "hello world" {
		t.Errorf("Contents = %q, want %q", res.Contents, "hello world")
	}
	if res.Truncated {
		t.Error("Truncated = true, want false")
	}
}

func TestExecuteFsRead_TruncatesLargeFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.txt")
	data := make([]byte, fsReadMaxBytes+1024)
	for i := range data {
		data[i] = 'a'
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	result, err := ExecuteFsRead(context.Background(), "1", map[string]interface{}{"path": path}, testSender())
	if err != nil {
		t.Fatalf("ExecuteFsRead() error = %v", err)
	}
	res := result.(FsReadResult)
	if !res.Truncated {
		t.Error("Truncated = false, want true for a file over the 1 MiB cap")
	}
	if len(res.Contents) != fsReadMaxBytes {
		t.Errorf("len(Contents) = %d, want %d", len(res.Contents), fsReadMaxBytes)
	}
}

func TestExecuteFsRead_Range(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hello.txt")
	if err := os.WriteFile(path, []byte("hello world"), 0o644); err != nil {
		t.Fatal(err)
	}

	result, err := ExecuteFsRead(context.Background(), "1", map[string]interface{}{
		"path":  path,
		"range": map[string]interface{}{"start": 0, "end": 5},
	}, testSender())
	if err != nil {
		t.Fatalf("ExecuteFsRead() error = %v", err)
	}
	res := result.(FsReadResult)
	if res.Contents != "hello" {
		t.Errorf("Contents = %q, want %q", res.Contents, "hello")
	}
	if !res.Truncated {
		t.Error("Truncated = false, want true")
	}
}

func TestExecuteFsRead_NotFound(t *testing.T) {
	dir := t.TempDir()
	_, err := ExecuteFsRead(context.Background(), "1", map[string]interface{}{"path": filepath.Join(dir, "missing.txt")}, testSender())
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestExecuteFsRead_Directory(t *testing.T) {
	dir := t.TempDir()
	_, err := ExecuteFsRead(context.Background(), "1", map[string]interface{}{"path": dir}, testSender())
	if err == nil {
		t.Fatal("expected error reading a directory")
	}
}

func TestExecuteFsWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out.txt")

	result, err := ExecuteFsWrite(context.Background(), "1", map[string]interface{}{
		"path": path, "contents": "hi",
	}, testSender())
	if err != nil {
		t.Fatalf("ExecuteFsWrite() error = %v", err)
	}
	res := result.(FsWriteResult)
	if res.BytesWritten != 2 {
		t.Errorf("BytesWritten = %d, want 2", res.BytesWritten)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hi" {
		t.Errorf("file contents = %q, want %q", data, "hi")
	}
}

func TestExecuteFsWrite_RefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")
	if err := os.WriteFile(path, []byte("original"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := ExecuteFsWrite(context.Background(), "1", map[string]interface{}{
		"path": path, "contents": "new",
	}, testSender())
	if err == nil {
		t.Fatal("expected error when overwrite is false and file exists")
	}

	_, err = ExecuteFsWrite(context.Background(), "1", map[string]interface{}{
		"path": path, "contents": "new", "overwrite": true,
	}, testSender())
	if err != nil {
		t.Fatalf("ExecuteFsWrite() with overwrite=true error = %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "new" {
		t.Errorf("file contents = %q, want %q", data, "new")
	}
}

func TestExecuteFsSearch(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("alpha\nbeta needle\ngamma"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "b.txt"), []byte("nothing here"), 0o644); err != nil {
		t.Fatal(err)
	}

	result, err := ExecuteFsSearch(context.Background(), "1", map[string]interface{}{"query": "needle"}, testSender())
	if err != nil {
		t.Fatalf("ExecuteFsSearch() error = %v", err)
	}
	res := result.(FsSearchResult)
	if len(res.Matches) != 1 {
		t.Fatalf("expected 1 file match, got %d", len(res.Matches))
	}
	if res.Matches[0].Path != "a.txt" {
		t.Errorf("Path = %q, want %q", res.Matches[0].Path, "a.txt")
	}
	if len(res.Matches[0].Lines) != 1 || res.Matches[0].Lines[0].Ln != 2 {
		t.Errorf("unexpected line match: %+v", res.Matches[0].Lines)
	}
}

func TestExecuteFsSearch_Regex(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("foo123\nbar"), 0o644); err != nil {
		t.Fatal(err)
	}

	result, err := ExecuteFsSearch(context.Background(), "1", map[string]interface{}{
		"query": `\d+`, "regex": true,
	}, testSender())
	if err != nil {
		t.Fatalf("ExecuteFsSearch() error = %v", err)
	}
	res := result.(FsSearchResult)
	if len(res.Matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(res.Matches))
	}
}
