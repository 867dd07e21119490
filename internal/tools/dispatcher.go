package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/codeforge-dev/codeforge/internal/config"
	"github.com/codeforge-dev/codeforge/internal/events"
)

// Executor performs one tool invocation. It may emit any number of
// ToolProgress/ToolStdout/ToolStderr events via sender, and must emit
// exactly one ToolResult on success. On failure it returns a non-nil error
// and emits no ToolResult.
type Executor func(ctx context.Context, id string, args map[string]interface{}, sender *events.Sender) (interface{}, error)

// Dispatcher looks up a tool by name and routes to the per-tool Executor
// while emitting the Begin/End lifecycle events and enforcing output
// truncation (spec §4.3). It does not validate arguments; the Driver checks
// them with Registry.ValidateArgs before dispatching.
type Dispatcher struct {
	registry       *Registry
	sender         *events.Sender
	executors      map[events.ToolName]Executor
	maxOutputBytes int
}

func NewDispatcher(registry *Registry, sender *events.Sender) *Dispatcher {
	d := &Dispatcher{
		registry:       registry,
		sender:         sender,
		executors:      make(map[events.ToolName]Executor),
		maxOutputBytes: config.ToolMaxOutputSize(),
	}
	d.executors[events.FsRead] = ExecuteFsRead
	d.executors[events.FsSearch] = ExecuteFsSearch
	d.executors[events.FsWrite] = ExecuteFsWrite
	d.executors[events.FsApplyPatch] = ExecuteFsApplyPatch
	d.executors[events.FsFind] = ExecuteFsFind
	d.executors[events.ShellExec] = ExecuteShellExec
	d.executors[events.CodeSymbols] = ExecuteCodeSymbols
	d.executors[events.LargeContextFetch] = ExecuteLargeContextFetch
	return d
}

// Dispatch runs one tool call end to end and returns the (possibly
// truncated) JSON-able result the caller should feed back to the model. It
// is the sole id issuer for tool-call correlation ids (spec §4.7).
func (d *Dispatcher) Dispatch(ctx context.Context, name events.ToolName, args map[string]interface{}) (interface{}, error) {
	id := uuid.New().String()
	summary := Summarize(name, args)

	d.sender.Send(events.Event{Kind: events.KindToolBegin, ID: id, Tool: name, Summary: summary, Args: args})

	executor, ok := d.executors[name]
	if !ok {
		d.sender.Send(events.Event{Kind: events.KindToolEnd, ID: id, OK: false, DurationMs: 0})
		return nil, fmt.Errorf("unknown tool: %s", name)
	}

	start := time.Now()
	result, err := executor(ctx, id, args, d.sender)
	duration := time.Since(start)

	d.sender.Send(events.Event{Kind: events.KindToolEnd, ID: id, OK: err == nil, DurationMs: duration.Milliseconds()})

	if err != nil {
		return nil, err
	}

	return d.truncate(result), nil
}

// truncate substitutes a fixed-shape stub when the canonical JSON
// serialization of result exceeds the configured cap. The UI already
// received the untruncated payload via ToolResult; this is only what the
// caller (the agent loop) sees.
func (d *Dispatcher) truncate(result interface{}) interface{} {
	encoded, err := json.Marshal(result)
	if err != nil {
		return result
	}
	size := len(encoded)
	if size <= d.maxOutputBytes {
		return result
	}
	return map[string]interface{}{
		"truncated":          true,
		"original_size_bytes": size,
		"max_allowed_bytes":  d.maxOutputBytes,
		"message":            "tool result exceeded the maximum allowed size and was truncated",
		"note":               "the full result was shown in the UI; only this digest was sent to the model",
	}
}

// Summarize derives the one-line human description emitted with ToolBegin.
func Summarize(name events.ToolName, args map[string]interface{}) string {
	switch name {
	case events.FsRead:
		if path, ok := args["path"].(string); ok {
			return "Reading file: " + path
		}
		return "Reading file"
	case events.FsSearch:
		if query, ok := args["query"].(string); ok {
			return "Searching for: " + query
		}
		return "Searching files"
	case events.FsWrite:
		if path, ok := args["path"].(string); ok {
			return "Writing to file: " + path
		}
		return "Writing file"
	case events.FsApplyPatch:
		return "Applying patch"
	case events.FsFind:
		if query, ok := args["query"].(string); ok {
			return "Finding: " + query
		}
		return "Finding files"
	case events.ShellExec:
		if cmd, ok := args["command"].([]interface{}); ok {
			parts := make([]string, 0, len(cmd))
			for _, c := range cmd {
				if s, ok := c.(string); ok {
					parts = append(parts, s)
				}
			}
			return "Executing: " + strings.Join(parts, " ")
		}
		return "Executing command"
	case events.CodeSymbols:
		if path, ok := args["path"].(string); ok {
			return "Extracting symbols: " + path
		}
		return "Extracting symbols"
	case events.LargeContextFetch:
		return "Fetching large context"
	default:
		return string(name)
	}
}
