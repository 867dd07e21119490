package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/codeforge-dev/codeforge/internal/events"
	"github.com/codeforge-dev/codeforge/internal/ignore"
)

// fsReadMaxBytes is the whole-file read cap (spec §4.2): files at or above
// this size are truncated rather than returned in full, mirroring
// original_source/core/src/tools/executor.rs's MAX_SIZE constant.
const fsReadMaxBytes = 1024 * 1024

// ExecuteFsRead implements fs.read (spec §4.2), grounded on
// original_source/core/src/tools/executor.rs::execute_fs_read_with_result.
func ExecuteFsRead(ctx context.Context, id string, rawArgs map[string]interface{}, sender *events.Sender) (interface{}, error) {
	var args FsReadArgs
	if err := decodeArgs(rawArgs, &args); err != nil {
		return nil, fmt.Errorf("invalid fs.read arguments: %w", err)
	}

	sender.Send(events.Event{Kind: events.KindToolProgress, ID: id, Message: "Reading file: " + args.Path})

	info, err := os.Stat(args.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %s", args.Path)
		}
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is not a file: %s", args.Path)
	}

	contents, err := os.ReadFile(args.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", args.Path, err)
	}

	encoding := args.Encoding
	if encoding == "" {
		encoding = "utf-8"
	}
	if encoding != "utf-8" {
		return nil, fmt.Errorf("unsupported encoding: %s", encoding)
	}

	text := string(contents)
	truncated := false
	if args.Range != nil {
		start := int(args.Range.Start)
		end := int(args.Range.End)
		if start < len(text) {
			if end > len(text) {
				end = len(text)
			}
			truncated = end < len(text)
			text = text[start:end]
		} else {
			text = ""
		}
	} else if len(text) >= fsReadMaxBytes {
		text = text[:fsReadMaxBytes]
		truncated = true
	}

	result := FsReadResult{Contents: text, Encoding: encoding, Truncated: truncated}
	sender.Send(events.Event{Kind: events.KindToolResult, ID: id, Payload: result})
	return result, nil
}

// ExecuteFsSearch implements fs.search, grounded on
// original_source/core/src/tools/executor.rs::execute_fs_search_with_result.
func ExecuteFsSearch(ctx context.Context, id string, rawArgs map[string]interface{}, sender *events.Sender) (interface{}, error) {
	var args FsSearchArgs
	if err := decodeArgs(rawArgs, &args); err != nil {
		return nil, fmt.Errorf("invalid fs.search arguments: %w", err)
	}

	sender.Send(events.Event{Kind: events.KindToolProgress, ID: id, Message: "Searching for: " + args.Query})

	maxResults := args.MaxResults
	if maxResults <= 0 {
		maxResults = 100
	}
	globs := args.Globs
	if len(globs) == 0 {
		globs = []string{"**/*"}
	}

	var matcher func(string) bool
	if args.Regex {
		reFlags := ""
		if args.CaseInsensitive {
			reFlags += "i"
		}
		if args.Multiline {
			reFlags += "m"
		}
		pattern := args.Query
		if reFlags != "" {
			pattern = "(?" + reFlags + ")" + pattern
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid regex: %w", err)
		}
		matcher = re.MatchString
	} else {
		query := args.Query
		if args.CaseInsensitive {
			query = strings.ToLower(query)
		}
		matcher = func(line string) bool {
			if args.CaseInsensitive {
				line = strings.ToLower(line)
			}
			return strings.Contains(line, query)
		}
	}

	root := "."
	ignoreMatcher, _ := ignore.NewMatcher(root)

	var results []SearchMatch
	total := 0
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if total >= maxResults {
			return filepath.SkipAll
		}
		if err != nil {
			return nil
		}
		if ignoreMatcher != nil && ignoreMatcher.ShouldIgnore(path) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() {
			return nil
		}
		if !matchesAnyGlob(path, globs) {
			return nil
		}

		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil
		}

		var lines []SearchLine
		for i, line := range strings.Split(string(data), "\n") {
			if total >= maxResults {
				break
			}
			if matcher(line) {
				lines = append(lines, SearchLine{Ln: i + 1, Text: line})
				total++
			}
		}
		if len(lines) > 0 {
			results = append(results, SearchMatch{Path: path, Lines: lines})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk error: %w", err)
	}

	result := FsSearchResult{Matches: results}
	sender.Send(events.Event{Kind: events.KindToolResult, ID: id, Payload: result})
	return result, nil
}

func matchesAnyGlob(path string, globs []string) bool {
	base := filepath.Base(path)
	for _, g := range globs {
		if g == "**/*" || g == "*" {
			return true
		}
		if ok, _ := filepath.Match(g, path); ok {
			return true
		}
		if ok, _ := filepath.Match(g, base); ok {
			return true
		}
		if strings.HasPrefix(g, "**/") {
			if ok, _ := filepath.Match(g[3:], base); ok {
				return true
			}
		}
	}
	return false
}

// ExecuteFsWrite implements fs.write, grounded on
// original_source/core/src/tools/executor.rs::execute_fs_write_with_result.
func ExecuteFsWrite(ctx context.Context, id string, rawArgs map[string]interface{}, sender *events.Sender) (interface{}, error) {
	var args FsWriteArgs
	if err := decodeArgs(rawArgs, &args); err != nil {
		return nil, fmt.Errorf("invalid fs.write arguments: %w", err)
	}

	sender.Send(events.Event{Kind: events.KindToolProgress, ID: id, Message: "Writing to file: " + args.Path})

	createIfMissing := true
	if args.CreateIfMissing != nil {
		createIfMissing = *args.CreateIfMissing
	}

	_, statErr := os.Stat(args.Path)
	if statErr == nil && !args.Overwrite {
		return nil, fmt.Errorf("file already exists and overwrite is false: %s", args.Path)
	}
	if os.IsNotExist(statErr) && !createIfMissing {
		return nil, fmt.Errorf("file does not exist and create_if_missing is false: %s", args.Path)
	}

	if createIfMissing {
		if parent := filepath.Dir(args.Path); parent != "" && parent != "." {
			if err := os.MkdirAll(parent, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create parent directories for %s: %w", args.Path, err)
			}
		}
	}

	if err := os.WriteFile(args.Path, []byte(args.Contents), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write file %s: %w", args.Path, err)
	}

	result := FsWriteResult{BytesWritten: int64(len(args.Contents))}
	sender.Send(events.Event{Kind: events.KindToolResult, ID: id, Payload: result})
	return result, nil
}
