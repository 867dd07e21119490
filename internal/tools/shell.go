package tools

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/codeforge-dev/codeforge/internal/events"
)

// ExecuteShellExec implements shell.exec, grounded on
// original_source/core/src/tools/executors/shell.rs::execute_with_result:
// stdout/stderr are drained line-by-line by two goroutines that both stream
// ToolStdout/ToolStderr events and accumulate the buffered output, the
// ToolResult event carries the untruncated result, and a non-zero exit code
// only becomes an error after that event has already gone out.
func ExecuteShellExec(ctx context.Context, id string, rawArgs map[string]interface{}, sender *events.Sender) (interface{}, error) {
	var args ShellExecArgs
	if err := decodeArgs(rawArgs, &args); err != nil {
		return nil, fmt.Errorf("invalid shell.exec arguments: %w", err)
	}
	if len(args.Command) == 0 {
		return nil, fmt.Errorf("empty command")
	}

	sender.Send(events.Event{Kind: events.KindToolProgress, ID: id, Message: "Executing: " + strings.Join(args.Command, " ")})

	timeoutMs := args.TimeoutMs
	if timeoutMs <= 0 {
		timeoutMs = 30000
	}
	runCtx, cancel := context.WithTimeout(ctx, time.Duration(timeoutMs)*time.Millisecond)
	defer cancel()

	cmd := exec.CommandContext(runCtx, args.Command[0], args.Command[1:]...)
	if args.Cwd != "" {
		cmd.Dir = args.Cwd
	}
	if len(args.Env) > 0 {
		env := cmd.Environ()
		for _, pair := range args.Env {
			if len(pair) == 2 {
				env = append(env, pair[0]+"="+pair[1])
			}
		}
		cmd.Env = env
	}

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to get stdout: %w", err)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to get stderr: %w", err)
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to spawn command: %w", err)
	}

	var wg sync.WaitGroup
	var stdoutBuf, stderrBuf strings.Builder
	wg.Add(2)
	go drainLines(stdoutPipe, &stdoutBuf, func(line string) {
		sender.Send(events.Event{Kind: events.KindToolStdout, ID: id, Chunk: line})
	}, &wg)
	go drainLines(stderrPipe, &stderrBuf, func(line string) {
		sender.Send(events.Event{Kind: events.KindToolStderr, ID: id, Chunk: line})
	}, &wg)
	wg.Wait()

	waitErr := cmd.Wait()
	durationMs := time.Since(start).Milliseconds()
	if durationMs < 1 {
		durationMs = 1
	}

	if runCtx.Err() != nil {
		return nil, fmt.Errorf("command timed out")
	}

	exitCode := 0
	if waitErr != nil {
		if exitErr, ok := waitErr.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			return nil, fmt.Errorf("process wait error: %w", waitErr)
		}
	}

	result := ShellExecResult{
		ExitCode:   exitCode,
		DurationMs: durationMs,
		Stdout:     stdoutBuf.String(),
		Stderr:     stderrBuf.String(),
	}

	sender.Send(events.Event{Kind: events.KindToolResult, ID: id, Payload: result})

	if exitCode != 0 {
		return result, fmt.Errorf("command failed with exit code: %d", exitCode)
	}
	return result, nil
}

func drainLines(r interface{ Read([]byte) (int, error) }, buf *strings.Builder, emit func(string), wg *sync.WaitGroup) {
	defer wg.Done()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text() + "\n"
		emit(line)
		buf.WriteString(line)
	}
}
