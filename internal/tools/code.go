package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/codeforge-dev/codeforge/internal/events"
)

// symbolRule is one line-regex rule for a language: the first capture group
// is taken as the symbol name.
type symbolRule struct {
	kind string
	re   *regexp.Regexp
}

var languageRules = map[string][]symbolRule{
	".go": {
		{"function", regexp.MustCompile(`^func\s+(?:\([^)]*\)\s*)?(\w+)\s*\(`)},
		{"type", regexp.MustCompile(`^type\s+(\w+)\s+(?:struct|interface)\b`)},
		{"const", regexp.MustCompile(`^const\s+(\w+)\s*=`)},
		{"var", regexp.MustCompile(`^var\s+(\w+)\s`)},
	},
	".rs": {
		{"function", regexp.MustCompile(`^(?:pub\s+)?(?:async\s+)?fn\s+(\w+)`)},
		{"struct", regexp.MustCompile(`^(?:pub\s+)?struct\s+(\w+)`)},
		{"enum", regexp.MustCompile(`^(?:pub\s+)?enum\s+(\w+)`)},
		{"trait", regexp.MustCompile(`^(?:pub\s+)?trait\s+(\w+)`)},
		{"impl", regexp.MustCompile(`^impl(?:<[^>]*>)?\s+(?:\w+\s+for\s+)?(\w+)`)},
	},
	".py": {
		{"function", regexp.MustCompile(`^(?:async\s+)?def\s+(\w+)`)},
		{"class", regexp.MustCompile(`^class\s+(\w+)`)},
	},
	".ts": {
		{"function", regexp.MustCompile(`^(?:export\s+)?(?:async\s+)?function\s+(\w+)`)},
		{"class", regexp.MustCompile(`^(?:export\s+)?class\s+(\w+)`)},
		{"interface", regexp.MustCompile(`^(?:export\s+)?interface\s+(\w+)`)},
		{"const", regexp.MustCompile(`^export\s+const\s+(\w+)`)},
	},
	".js": {
		{"function", regexp.MustCompile(`^(?:export\s+)?(?:async\s+)?function\s+(\w+)`)},
		{"class", regexp.MustCompile(`^(?:export\s+)?class\s+(\w+)`)},
	},
}

func init() {
	languageRules[".tsx"] = languageRules[".ts"]
	languageRules[".jsx"] = languageRules[".js"]
}

var languageNames = map[string]string{
	".go": "go", ".rs": "rust", ".py": "python",
	".ts": "typescript", ".tsx": "typescript", ".js": "javascript", ".jsx": "javascript",
}

// ExecuteCodeSymbols implements code.symbols: a lightweight per-extension
// line-regex scan for top-level declarations, not a real parser — good
// enough for navigation without reading a whole file.
func ExecuteCodeSymbols(ctx context.Context, id string, rawArgs map[string]interface{}, sender *events.Sender) (interface{}, error) {
	var args CodeSymbolsArgs
	if err := decodeArgs(rawArgs, &args); err != nil {
		return nil, fmt.Errorf("invalid code.symbols arguments: %w", err)
	}

	sender.Send(events.Event{Kind: events.KindToolProgress, ID: id, Message: "Extracting symbols: " + args.Path})

	ext := strings.ToLower(filepath.Ext(args.Path))
	rules, ok := languageRules[ext]
	if !ok {
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}

	data, err := os.ReadFile(args.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %s", args.Path)
		}
		return nil, fmt.Errorf("failed to read file %s: %w", args.Path, err)
	}

	var symbols []Symbol
	for i, line := range strings.Split(string(data), "\n") {
		for _, rule := range rules {
			m := rule.re.FindStringSubmatch(line)
			if m != nil {
				symbols = append(symbols, Symbol{Name: m[1], Kind: rule.kind, Line: i + 1})
				break
			}
		}
	}

	result := CodeSymbolsResult{Language: languageNames[ext], Symbols: symbols}
	sender.Send(events.Event{Kind: events.KindToolResult, ID: id, Payload: result})
	return result, nil
}
