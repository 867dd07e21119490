package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/codeforge-dev/codeforge/internal/config"
	"github.com/codeforge-dev/codeforge/internal/events"
	"github.com/codeforge-dev/codeforge/internal/ignore"
)

const (
	defaultLargeContextMaxFiles = 20
	largeContextFileCap         = 400 // hard ceiling on files walked, to bound the ranking prompt
	largeContextMaxFileBytes    = 64 * 1024
)

// CandidateFile is one file forwarded to the ranking pass.
type CandidateFile struct {
	Path     string
	Contents string
}

// ContextRanker picks the files most relevant to a query out of a candidate
// set.
type ContextRanker func(ctx context.Context, userQuery string, files []CandidateFile, maxFiles int) ([]FileSelection, error)

// selectRanker returns llmRank when a provider key is configured (the same
// OPENROUTER_API_KEY/VERCEL_AI_GATEWAY_API_KEY chain the Driver uses),
// falling back to the local keyword-overlap heuristic otherwise, grounded
// on original_source/core/src/tools/executors/llm.rs::analyze_relevance_with_llm.
func selectRanker() ContextRanker {
	if config.GetOpenRouterKey() != "" || config.GetVercelAIGatewayKey() != "" {
		return llmRank
	}
	return heuristicRank
}

// ExecuteLargeContextFetch implements large_context_fetch (spec §4.8):
// walk the tree under base_path, collect file contents (skipping ignored
// paths and anything too large to be worth forwarding), hand the batch plus
// the user's query to the ranker chosen by selectRanker, and return its
// relevant-file verdicts.
func ExecuteLargeContextFetch(ctx context.Context, id string, rawArgs map[string]interface{}, sender *events.Sender) (interface{}, error) {
	var args LargeContextFetchArgs
	if err := decodeArgs(rawArgs, &args); err != nil {
		return nil, fmt.Errorf("invalid large_context_fetch arguments: %w", err)
	}
	if args.UserQuery == "" {
		return nil, fmt.Errorf("user_query is required")
	}

	sender.Send(events.Event{Kind: events.KindToolProgress, ID: id, Message: "Scanning tree for relevant files..."})

	basePath := args.BasePath
	if basePath == "" {
		basePath = "."
	}
	maxFiles := args.MaxFiles
	if maxFiles <= 0 {
		maxFiles = defaultLargeContextMaxFiles
	}

	ignoreMatcher, _ := ignore.NewMatcher(basePath)

	var candidates []CandidateFile
	err := filepath.Walk(basePath, func(path string, info os.FileInfo, err error) error {
		if len(candidates) >= maxFiles || len(candidates) >= largeContextFileCap {
			return filepath.SkipAll
		}
		if err != nil {
			return nil
		}
		rel, relErr := filepath.Rel(basePath, path)
		if relErr != nil {
			rel = path
		}
		if ignoreMatcher != nil && ignoreMatcher.ShouldIgnore(rel) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() || info.Size() > largeContextMaxFileBytes {
			return nil
		}
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil
		}
		if !looksLikeText(data) {
			return nil
		}
		candidates = append(candidates, CandidateFile{Path: path, Contents: string(data)})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk error: %w", err)
	}

	sender.Send(events.Event{Kind: events.KindToolProgress, ID: id, Message: fmt.Sprintf("Ranking %d candidate files...", len(candidates))})

	selections, err := selectRanker()(ctx, args.UserQuery, candidates, maxFiles)
	if err != nil {
		return nil, fmt.Errorf("ranking failed: %w", err)
	}

	result := LargeContextFetchResult{Selections: selections}
	sender.Send(events.Event{Kind: events.KindToolResult, ID: id, Payload: result})
	return result, nil
}

func looksLikeText(data []byte) bool {
	if len(data) == 0 {
		return true
	}
	n := len(data)
	if n > 512 {
		n = 512
	}
	for _, b := range data[:n] {
		if b == 0 {
			return false
		}
	}
	return true
}

// heuristicRank scores each candidate by how many distinct query keywords
// appear in its path or contents. selectRanker uses it when no provider key
// is configured.
func heuristicRank(ctx context.Context, userQuery string, files []CandidateFile, maxFiles int) ([]FileSelection, error) {
	keywords := keywordsOf(userQuery)
	if len(keywords) == 0 {
		return nil, nil
	}

	type scored struct {
		file  CandidateFile
		score int
		hits  []string
	}
	var ranked []scored
	for _, f := range files {
		lowerPath := strings.ToLower(f.Path)
		lowerBody := strings.ToLower(f.Contents)
		score := 0
		var hits []string
		for _, kw := range keywords {
			pathHits := strings.Count(lowerPath, kw) * 5
			bodyHits := strings.Count(lowerBody, kw)
			if pathHits+bodyHits > 0 {
				hits = append(hits, kw)
			}
			score += pathHits + bodyHits
		}
		if score > 0 {
			ranked = append(ranked, scored{file: f, score: score, hits: hits})
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	if len(ranked) > maxFiles {
		ranked = ranked[:maxFiles]
	}

	selections := make([]FileSelection, 0, len(ranked))
	for _, r := range ranked {
		selections = append(selections, FileSelection{
			FilePath: r.file.Path,
			Reason:   "matched keywords: " + strings.Join(r.hits, ", "),
		})
	}
	return selections, nil
}

// largeContextSystemPrompt is the fixed analysis prompt sent to the
// chat-completion endpoint, ported from llm.rs's hardcoded system message.
const largeContextSystemPrompt = `You are a code analysis assistant. You will be given a user query and a list of code files with an index, path, language and content. Identify which files are most relevant to answering the query.

Format your response exactly like this:
REASONING: [Your reasoning here]
RELEVANT_FILES: [1, 5, 12, 23]`

type llmFileSummary struct {
	Index     int    `json:"index"`
	Path      string `json:"path"`
	Language  string `json:"language"`
	SizeBytes int    `json:"size_bytes"`
	Content   string `json:"content"`
}

type llmChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type llmChatRequest struct {
	Model       string           `json:"model"`
	Messages    []llmChatMessage `json:"messages"`
	Temperature float64          `json:"temperature"`
	MaxTokens   int              `json:"max_tokens"`
}

type llmChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// llmRank sends the candidate file set plus the user's query to an
// OpenAI-compatible chat-completion endpoint and asks it to pick the
// relevant ones, ported from
// original_source/core/src/tools/executors/llm.rs::analyze_relevance_with_llm.
// It reads the same config keys the Driver uses rather than a second,
// divergent env-var convention: the OpenRouter key and model when an
// OpenRouter key is set, otherwise the Vercel AI Gateway key and model, with
// CODEFORGE_LLM_BASE_URL as the endpoint in either case when it is set. Only
// that one provider is tried; there is no fallback to the other one.
func llmRank(ctx context.Context, userQuery string, files []CandidateFile, maxFiles int) ([]FileSelection, error) {
	apiKey := config.GetOpenRouterKey()
	model := config.GetOpenRouterModel()
	baseURL := config.GetLLMBaseURLOverride()
	if apiKey == "" {
		apiKey = config.GetVercelAIGatewayKey()
		model = config.GetVercelAIGatewayModel()
		if baseURL == "" {
			baseURL = "https://ai-gateway.vercel.sh/v1/chat/completions"
		}
	}
	if baseURL == "" {
		baseURL = "https://openrouter.ai/api/v1/chat/completions"
	}
	if apiKey == "" {
		return heuristicRank(ctx, userQuery, files, maxFiles)
	}

	summaries := make([]llmFileSummary, 0, len(files))
	for i, f := range files {
		summaries = append(summaries, llmFileSummary{
			Index:     i + 1,
			Path:      f.Path,
			Language:  languageFromExt(f.Path),
			SizeBytes: len(f.Contents),
			Content:   f.Contents,
		})
	}
	encodedSummaries, err := json.MarshalIndent(summaries, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode file summaries: %w", err)
	}

	body := llmChatRequest{
		Model: model,
		Messages: []llmChatMessage{
			{Role: "system", Content: largeContextSystemPrompt},
			{Role: "user", Content: fmt.Sprintf("User Query: %s\n\nCode Files to Analyze:\n%s", userQuery, encodedSummaries)},
		},
		Temperature: 0.1,
		MaxTokens:   2000,
	}
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode ranking request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("failed to build ranking request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	client := &http.Client{Timeout: 60 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ranking request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read ranking response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("ranking endpoint returned %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed llmChatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode ranking response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("ranking response had no choices")
	}

	reasoning, indices := parseLLMRankResponse(parsed.Choices[0].Message.Content)

	byIndex := make(map[int]CandidateFile, len(files))
	for i, f := range files {
		byIndex[i+1] = f
	}

	selections := make([]FileSelection, 0, len(indices))
	for _, idx := range indices {
		f, ok := byIndex[idx]
		if !ok {
			continue
		}
		selections = append(selections, FileSelection{FilePath: f.Path, Reason: reasoning})
		if len(selections) >= maxFiles {
			break
		}
	}
	return selections, nil
}

// parseLLMRankResponse splits the REASONING:/RELEVANT_FILES: formatted
// response apart, falling back to whole-content reasoning and a
// numeric-extraction pass over RELEVANT_FILES: when it isn't a valid JSON
// array — ported from llm.rs's parse_llm_response/extract_numbers_from_text.
func parseLLMRankResponse(content string) (string, []int) {
	filesIdx := strings.Index(content, "RELEVANT_FILES:")
	if filesIdx < 0 {
		return strings.TrimSpace(content), nil
	}

	reasoning := strings.TrimSpace(content[:filesIdx])
	if rIdx := strings.Index(reasoning, "REASONING:"); rIdx >= 0 {
		reasoning = strings.TrimSpace(reasoning[rIdx+len("REASONING:"):])
	}

	filesSection := content[filesIdx+len("RELEVANT_FILES:"):]
	start := strings.Index(filesSection, "[")
	end := strings.Index(filesSection, "]")
	if start >= 0 && end > start {
		var indices []int
		if err := json.Unmarshal([]byte(filesSection[start:end+1]), &indices); err == nil {
			return reasoning, indices
		}
	}
	return reasoning, extractNumbers(filesSection)
}

// extractNumbers does simple whitespace-split, trim-non-digits number
// extraction, avoiding a regex dependency for this one fallback path, same
// as llm.rs's comment on why it hand-rolls this instead of reaching for one.
func extractNumbers(text string) []int {
	var out []int
	for _, word := range strings.Fields(text) {
		trimmed := strings.TrimFunc(word, func(r rune) bool { return r < '0' || r > '9' })
		if trimmed == "" {
			continue
		}
		if n, err := strconv.Atoi(trimmed); err == nil {
			out = append(out, n)
		}
	}
	return out
}

func languageFromExt(path string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ext == "" {
		return "text"
	}
	return ext
}

func keywordsOf(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	seen := make(map[string]bool)
	var out []string
	for _, f := range fields {
		if len(f) < 3 || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}
