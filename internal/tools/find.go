package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/codeforge-dev/codeforge/internal/events"
	"github.com/codeforge-dev/codeforge/internal/ignore"
)

const defaultFindMaxResults = 50

// ExecuteFsFind implements fs.find: either a glob match against relative
// paths, or a fuzzy subsequence match scored by contiguity and match
// density, the same two modes spec §4.2 describes for locating files by
// name fragment instead of content (that's fs.search's job).
func ExecuteFsFind(ctx context.Context, id string, rawArgs map[string]interface{}, sender *events.Sender) (interface{}, error) {
	var args FsFindArgs
	if err := decodeArgs(rawArgs, &args); err != nil {
		return nil, fmt.Errorf("invalid fs.find arguments: %w", err)
	}
	if args.Query == "" {
		return nil, fmt.Errorf("empty query")
	}

	sender.Send(events.Event{Kind: events.KindToolProgress, ID: id, Message: "Finding: " + args.Query})

	basePath := args.BasePath
	if basePath == "" {
		basePath = "."
	}
	maxResults := args.MaxResults
	if maxResults <= 0 {
		maxResults = defaultFindMaxResults
	}

	ignoreMatcher, _ := ignore.NewMatcher(basePath)
	extraIgnore := make(map[string]bool, len(args.Ignore))
	for _, p := range args.Ignore {
		extraIgnore[p] = true
	}

	var matches []FindMatch
	err := filepath.Walk(basePath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		rel, relErr := filepath.Rel(basePath, path)
		if relErr != nil {
			rel = path
		}
		if rel == "." {
			return nil
		}
		if ignoreMatcher != nil && ignoreMatcher.ShouldIgnore(rel) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if extraIgnore[info.Name()] {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if args.Type == "file" && info.IsDir() {
			return nil
		}
		if args.Type == "dir" && !info.IsDir() {
			return nil
		}

		if args.Glob {
			if ok, _ := filepath.Match(args.Query, rel); ok || matchesAnyGlob(rel, []string{args.Query}) {
				matches = append(matches, FindMatch{Path: rel, Score: 0})
			}
			return nil
		}

		if score, ok := fuzzyScore(args.Query, filepath.Base(rel)); ok {
			matches = append(matches, FindMatch{Path: rel, Score: score})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk error: %w", err)
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if len(matches) > maxResults {
		matches = matches[:maxResults]
	}

	result := FsFindResult{Matches: matches}
	sender.Send(events.Event{Kind: events.KindToolResult, ID: id, Payload: result})
	return result, nil
}

// fuzzyScore reports whether query is a subsequence of name (case-insensitive)
// and, if so, a score rewarding contiguous runs and an early match start.
func fuzzyScore(query, name string) (int, bool) {
	q := strings.ToLower(query)
	n := strings.ToLower(name)
	if q == "" {
		return 0, true
	}

	qi := 0
	score := 0
	run := 0
	firstMatch := -1
	for ni := 0; ni < len(n) && qi < len(q); ni++ {
		if n[ni] == q[qi] {
			if firstMatch < 0 {
				firstMatch = ni
			}
			run++
			score += run
			qi++
		} else {
			run = 0
		}
	}
	if qi < len(q) {
		return 0, false
	}
	if firstMatch >= 0 {
		score += max0(20 - firstMatch)
	}
	if strings.Contains(n, q) {
		score += 50
	}
	return score, true
}

func max0(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
