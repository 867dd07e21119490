package tools

import (
	"context"
	"runtime"
	"testing"
)

func TestExecuteShellExec_Success(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses a posix shell command")
	}
	result, err := ExecuteShellExec(context.Background(), "1", map[string]interface{}{
		"command": []interface{}{"echo", "hello"},
	}, testSender())
	if err != nil {
		t.Fatalf("ExecuteShellExec() error = %v", err)
	}
	res := result.(ShellExecResult)
	if res.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", res.ExitCode)
	}
	if res.Stdout != "hello\n" {
		t.Errorf("Stdout = %q, want %q", res.Stdout, "hello\n")
	}
}

func TestExecuteShellExec_NonZeroExit(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses a posix shell command")
	}
	result, err := ExecuteShellExec(context.Background(), "1", map[string]interface{}{
		"command": []interface{}{"sh", "-c", "exit 3"},
	}, testSender())
	if err == nil {
		t.Fatal("expected error for non-zero exit code")
	}
	res, ok := result.(ShellExecResult)
	if !ok {
		t.Fatalf("expected a ShellExecResult alongside the error, got %T", result)
	}
	if res.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", res.ExitCode)
	}
}

func TestExecuteShellExec_Timeout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses a posix shell command")
	}
	_, err := ExecuteShellExec(context.Background(), "1", map[string]interface{}{
		"command":    []interface{}{"sleep", "5"},
		"timeout_ms": 50,
	}, testSender())
	if err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestExecuteShellExec_EmptyCommand(t *testing.T) {
	_, err := ExecuteShellExec(context.Background(), "1", map[string]interface{}{
		"command": []interface{}{},
	}, testSender())
	if err == nil {
		t.Fatal("expected error for empty command")
	}
}
