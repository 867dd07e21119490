package agent

// OpenAI-compatible chat-completions wire types (spec §4.6/§6), grounded on
// the teacher's internal/llm/{provider,types}.go tool-calling structs, now
// serving a single fixed wire protocol instead of a pluggable multi-vendor
// Provider interface.

// WireMessage is one message in a chat-completions request body. Content is
// a pointer so an assistant message carrying only tool_calls can serialize
// content as JSON null rather than an empty string.
type WireMessage struct {
	Role       string         `json:"role"`
	Content    *string        `json:"content"`
	ToolCalls  []WireToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
}

type WireTool struct {
	Type     string       `json:"type"` // "function"
	Function WireFunction `json:"function"`
}

type WireFunction struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

type WireToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type chatCompletionRequest struct {
	Model            string        `json:"model"`
	Messages         []WireMessage `json:"messages"`
	Tools            []WireTool    `json:"tools,omitempty"`
	ToolChoice       string        `json:"tool_choice,omitempty"`
	IncludeReasoning bool          `json:"include_reasoning,omitempty"`
}

type chatCompletionResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Usage   *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
	Choices []struct {
		FinishReason string `json:"finish_reason,omitempty"`
		Message      *struct {
			Role      string         `json:"role"`
			Content   *string        `json:"content,omitempty"`
			ToolCalls []WireToolCall `json:"tool_calls,omitempty"`
			Reasoning *string        `json:"reasoning,omitempty"`
		} `json:"message,omitempty"`
	} `json:"choices"`
}

func strPtr(s string) *string { return &s }
