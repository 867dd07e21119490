// Package agent implements the turn loop that drives one conversation turn
// against an OpenAI-compatible chat-completions endpoint, with automatic
// fallback across a short ordered list of providers. Grounded on
// original_source/core/src/agent/agent_logic.rs::MultiModelAgent.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/codeforge-dev/codeforge/internal/config"
	"github.com/codeforge-dev/codeforge/internal/events"
	"github.com/codeforge-dev/codeforge/internal/prompts"
	"github.com/codeforge-dev/codeforge/internal/tools"
)

const maxTurns = 25

// Agent is the capability set a Session drives: submit a turn, report what
// kind of agent is running (spec §9's trait-dispatch design note).
type Agent interface {
	Submit(ctx context.Context, message string, history []ChatMessage) (events.AgentResponse, error)
	Info() AgentInfo
}

// AgentInfo identifies which Agent implementation is in play.
type AgentInfo struct {
	Name        string
	Description string
	Version     string
}

// ModelConfig is one provider entry in the fallback chain (spec §4.6).
type ModelConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Name    string
}

// Driver is the real Agent implementation: it holds the fallback chain, the
// tool registry/dispatcher, and runs the request/tool-call/response loop.
type Driver struct {
	configs      []ModelConfig
	sender       *events.Sender
	registry     *tools.Registry
	dispatcher   *tools.Dispatcher
	httpClient   *http.Client
	systemPrompt string
}

// NewDriver builds the provider fallback chain the way
// MultiModelAgent::new does: OpenRouter primary (model/key from the
// caller), an optional Vercel AI Gateway secondary from env, and if neither
// secondary materializes, a duplicate "Fallback" entry so the loop always
// has at least two attempts.
func NewDriver(apiKey, model string, sender *events.Sender, registry *tools.Registry, dispatcher *tools.Dispatcher) *Driver {
	primaryURL := "https://openrouter.ai/api/v1/chat/completions"
	if override := config.GetLLMBaseURLOverride(); override != "" {
		primaryURL = override
	}

	configs := []ModelConfig{
		{BaseURL: primaryURL, APIKey: apiKey, Model: model, Name: "OpenRouter"},
	}

	if gwKey := config.GetVercelAIGatewayKey(); gwKey != "" {
		if gwModel := config.GetVercelAIGatewayModel(); gwModel != "" {
			configs = append(configs, ModelConfig{
				BaseURL: "https://ai-gateway.vercel.sh/v1/chat/completions",
				APIKey:  gwKey,
				Model:   gwModel,
				Name:    "Vercel AI Gateway",
			})
		}
	}

	if len(configs) == 1 {
		configs = append(configs, ModelConfig{BaseURL: primaryURL, APIKey: apiKey, Model: model, Name: "OpenRouter Fallback"})
	}

	return &Driver{
		configs:      configs,
		sender:       sender,
		registry:     registry,
		dispatcher:   dispatcher,
		httpClient:   &http.Client{Timeout: 120 * time.Second},
		systemPrompt: prompts.BuildSystemPrompt(),
	}
}

// Info reports static identity for the real, network-backed agent.
func (d *Driver) Info() AgentInfo {
	return AgentInfo{
		Name:        "Multi-Model Agent",
		Description: "Agent with multiple model provider support and fallback",
		Version:     "0.1.0",
	}
}

// Submit runs the turn loop for one user message against the accumulated
// history, executing any tool calls the model requests and returning its
// final textual response.
func (d *Driver) Submit(ctx context.Context, message string, history []ChatMessage) (events.AgentResponse, error) {
	start := time.Now()

	messages := []WireMessage{{Role: "system", Content: strPtr(d.systemPrompt)}}
	messages = append(messages, convertHistory(history)...)
	messages = append(messages, WireMessage{Role: "user", Content: strPtr(message)})

	wireTools := d.toolSpecsForWire()

	var finalText string
	var tokenUsage *events.TokenUsage

	for turn := 1; turn <= maxTurns; turn++ {
		if turn == 1 {
			d.sender.Send(events.Event{Kind: events.KindChatCreated})
		}

		resp, err := d.httpPost(ctx, messages, wireTools)
		if err != nil {
			return events.AgentResponse{}, err
		}

		if resp.Usage != nil {
			tokenUsage = &events.TokenUsage{
				InputTokens:  resp.Usage.PromptTokens,
				OutputTokens: resp.Usage.CompletionTokens,
				TotalTokens:  resp.Usage.TotalTokens,
			}
		}

		if len(resp.Choices) == 0 {
			return events.AgentResponse{}, events.NewAgentError(events.ErrProcessing, "no choices")
		}
		choice := resp.Choices[0]
		if choice.Message == nil {
			break
		}

		if choice.Message.Reasoning != nil && *choice.Message.Reasoning != "" {
			d.sender.SendAgentThinking(*choice.Message.Reasoning)
		}

		if len(choice.Message.ToolCalls) > 0 {
			var content *string
			if choice.Message.Content != nil {
				content = choice.Message.Content
			}
			messages = append(messages, WireMessage{Role: "assistant", Content: content, ToolCalls: choice.Message.ToolCalls})

			for _, call := range choice.Message.ToolCalls {
				toolName := events.ToolName(call.Function.Name)
				if _, ok := d.registry.GetSpec(toolName); !ok {
					return events.AgentResponse{}, events.NewAgentError(events.ErrProcessing, "unknown tool: %s", call.Function.Name)
				}

				var args map[string]interface{}
				if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
					return events.AgentResponse{}, events.NewAgentError(events.ErrProcessing, "invalid tool args: %s", err)
				}

				var resultPayload interface{}
				if err := d.registry.ValidateArgs(toolName, args); err != nil {
					d.sender.Send(events.Event{Kind: events.KindError, Message: fmt.Sprintf("tool args validation failed: %s", err)})
					resultPayload = map[string]interface{}{"error": err.Error(), "tool": call.Function.Name, "args": args}
				} else if result, err := d.dispatcher.Dispatch(ctx, toolName, args); err != nil {
					resultPayload = map[string]interface{}{"error": err.Error(), "tool": call.Function.Name, "args": args}
				} else {
					resultPayload = result
				}

				encoded, err := json.Marshal(resultPayload)
				if err != nil {
					encoded = []byte("{}")
				}
				messages = append(messages, WireMessage{Role: "tool", Content: strPtr(string(encoded)), ToolCallID: call.ID})
			}
			continue
		}

		if choice.Message.Content != nil {
			messages = append(messages, WireMessage{Role: "assistant", Content: choice.Message.Content})
			finalText = *choice.Message.Content
		}
		break
	}

	d.sender.Send(events.Event{Kind: events.KindChatCompleted, TokenUsage: tokenUsage})
	if tokenUsage != nil {
		d.sender.Send(events.Event{Kind: events.KindTokenCount, TokenUsage: tokenUsage})
	}

	return events.AgentResponse{
		Content:  finalText,
		Metadata: events.ResponseMetadata{ProcessingTimeMs: time.Since(start).Milliseconds()},
	}, nil
}

func (d *Driver) toolSpecsForWire() []WireTool {
	specs := d.registry.GetAllSpecs()
	out := make([]WireTool, 0, len(specs))
	for _, spec := range specs {
		out = append(out, WireTool{
			Type: "function",
			Function: WireFunction{
				Name:        string(spec.Name),
				Description: toolDescription(spec.Name),
				Parameters:  spec.InputSchema,
			},
		})
	}
	return out
}

func toolDescription(name events.ToolName) string {
	switch name {
	case events.FsRead:
		return "Read a file's contents, optionally by byte range."
	case events.FsSearch:
		return "Search files for a literal or regex query, line by line."
	case events.FsWrite:
		return "Create a file or overwrite one wholesale."
	case events.FsApplyPatch:
		return "Apply an ordered list of structured, anchored edit operations to one or more files."
	case events.FsFind:
		return "Find files or directories by fuzzy name match or glob."
	case events.ShellExec:
		return "Run a shell command and stream its output."
	case events.CodeSymbols:
		return "Extract top-level symbols (functions, types, etc.) from a source file."
	case events.LargeContextFetch:
		return "Rank a large tree's files by relevance to a natural-language query."
	default:
		return string(name)
	}
}

// httpPost tries each provider in order, the way
// MultiModelAgent::http_post does: swallow transport errors and non-2xx
// responses and move to the next config, only failing once every config in
// the chain has been exhausted.
func (d *Driver) httpPost(ctx context.Context, messages []WireMessage, wireTools []WireTool) (*chatCompletionResponse, error) {
	var lastErr string

	for i, cfg := range d.configs {
		body := chatCompletionRequest{
			Model:            cfg.Model,
			Messages:         messages,
			Tools:            wireTools,
			ToolChoice:       "auto",
			IncludeReasoning: config.InterleavedThinkingEnabled(),
		}
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, events.NewAgentError(events.ErrProcessing, "failed to encode request: %s", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.BaseURL, bytes.NewReader(encoded))
		if err != nil {
			return nil, events.NewAgentError(events.ErrProcessing, "failed to build request: %s", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+cfg.APIKey)

		resp, err := d.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Sprintf("%s request error: %s", cfg.Name, err)
			d.sender.Send(events.Event{Kind: events.KindError, Message: fmt.Sprintf("Failed to connect to %s, trying next provider...", cfg.Name)})
			continue
		}

		responseBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = fmt.Sprintf("%s read error: %s", cfg.Name, readErr)
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			lastErr = fmt.Sprintf("%s HTTP %d: %s", cfg.Name, resp.StatusCode, string(responseBody))
			d.sender.Send(events.Event{Kind: events.KindError, Message: fmt.Sprintf("%s returned %d, trying next provider...", cfg.Name, resp.StatusCode)})
			continue
		}

		var parsed chatCompletionResponse
		if err := json.Unmarshal(responseBody, &parsed); err != nil {
			lastErr = fmt.Sprintf("%s decode error: %s", cfg.Name, err)
			continue
		}

		if i > 0 {
			d.sender.Send(events.Event{Kind: events.KindError, Message: fmt.Sprintf("Successfully using %s after %d failed attempts", cfg.Name, i)})
		}
		return &parsed, nil
	}

	if lastErr == "" {
		lastErr = "all model providers failed"
	}
	return nil, events.NewAgentError(events.ErrNetwork, "%s", lastErr)
}

// convertHistory replays a Session's recorded ChatMessage log into the wire
// protocol, grounded on agent_logic.rs::convert_history. A Tool-role
// message is expanded into two wire messages: a synthetic assistant turn
// carrying the single tool_call it answers (reconstructed from the
// message's own Tool record), then the tool's response — every tool
// response is always preceded by a matching assistant tool_calls message,
// which plain replay of only the final text would not guarantee.
func convertHistory(history []ChatMessage) []WireMessage {
	var out []WireMessage
	for _, m := range history {
		switch m.Role {
		case RoleUser:
			out = append(out, WireMessage{Role: "user", Content: strPtr(m.Content)})
		case RoleAgent:
			if len(m.ToolCalls) > 0 {
				out = append(out, WireMessage{Role: "assistant", Content: nilIfEmpty(m.Content), ToolCalls: m.ToolCalls})
			} else {
				out = append(out, WireMessage{Role: "assistant", Content: strPtr(m.Content)})
			}
		case RoleSystem:
			out = append(out, WireMessage{Role: "system", Content: strPtr(m.Content)})
		case RoleError:
			out = append(out, WireMessage{Role: "system", Content: strPtr("[error] " + m.Content)})
		case RoleTool:
			if m.Tool == nil {
				out = append(out, WireMessage{Role: "tool", Content: strPtr(m.Content)})
				continue
			}
			argsJSON, _ := json.Marshal(m.Tool.Args)
			synthetic := WireToolCall{ID: m.Tool.ID, Type: "function"}
			synthetic.Function.Name = m.Tool.Name
			synthetic.Function.Arguments = string(argsJSON)
			out = append(out, WireMessage{Role: "assistant", Content: nil, ToolCalls: []WireToolCall{synthetic}})

			combined, _ := json.Marshal(map[string]string{"stdout": m.Tool.Stdout, "stderr": m.Tool.Stderr})
			out = append(out, WireMessage{Role: "tool", Content: strPtr(string(combined)), ToolCallID: m.Tool.ID})
		}
	}
	return out
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
