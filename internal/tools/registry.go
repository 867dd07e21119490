package tools

import (
	"fmt"

	"github.com/codeforge-dev/codeforge/internal/events"
)

// Registry exposes the fixed catalog of eight tools (spec §4.2), grounded
// on original_source/core/src/tools/registry.rs, generalized from its
// legacy unified_diff FsApplyPatch shape to the structured edit-op schema
// (spec §4.4) and extended with FsFind, CodeSymbols and LargeContextFetch,
// which the Rust registry omitted from its ToolName enum.
type Registry struct {
	specs map[events.ToolName]events.ToolSpec
	order []events.ToolName
}

func NewRegistry() *Registry {
	r := &Registry{specs: make(map[events.ToolName]events.ToolSpec)}
	r.registerBuiltinTools()
	return r
}

func (r *Registry) register(spec events.ToolSpec) {
	r.specs[spec.Name] = spec
	r.order = append(r.order, spec.Name)
}

func (r *Registry) registerBuiltinTools() {
	r.register(events.ToolSpec{
		Name: events.FsRead,
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"path": map[string]interface{}{"type": "string", "description": "File path to read"},
				"range": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"start": map[string]interface{}{"type": "integer", "minimum": 0},
						"end":   map[string]interface{}{"type": "integer", "minimum": 0},
					},
					"description": "Optional byte range to read",
				},
				"encoding": map[string]interface{}{"type": "string", "description": "File encoding (default: utf-8)"},
			},
			"required": []interface{}{"path"},
		},
		OutputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"contents":  map[string]interface{}{"type": "string"},
				"encoding":  map[string]interface{}{"type": "string"},
				"truncated": map[string]interface{}{"type": "boolean"},
			},
			"required": []interface{}{"contents", "encoding", "truncated"},
		},
		Streaming: false, SideEffects: false, NeedsApproval: false, TimeoutMs: 5000,
	})

	r.register(events.ToolSpec{
		Name: events.FsSearch,
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"query":            map[string]interface{}{"type": "string", "description": "Search query"},
				"globs":            map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}, "description": "File patterns to search"},
				"max_results":      map[string]interface{}{"type": "integer", "minimum": 1, "description": "Maximum results"},
				"regex":            map[string]interface{}{"type": "boolean", "description": "Use regex search"},
				"case_insensitive": map[string]interface{}{"type": "boolean", "description": "Case insensitive search"},
				"multiline":        map[string]interface{}{"type": "boolean", "description": "Multiline search"},
			},
			"required": []interface{}{"query"},
		},
		OutputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"matches": map[string]interface{}{
					"type": "array",
					"items": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"path": map[string]interface{}{"type": "string"},
							"lines": map[string]interface{}{
								"type": "array",
								"items": map[string]interface{}{
									"type": "object",
									"properties": map[string]interface{}{
										"ln":   map[string]interface{}{"type": "integer"},
										"text": map[string]interface{}{"type": "string"},
									},
								},
							},
						},
					},
				},
			},
		},
		Streaming: false, SideEffects: false, NeedsApproval: false, TimeoutMs: 10000,
	})

	r.register(events.ToolSpec{
		Name: events.FsWrite,
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"path":              map[string]interface{}{"type": "string", "description": "File path to write"},
				"contents":          map[string]interface{}{"type": "string", "description": "File contents"},
				"create_if_missing": map[string]interface{}{"type": "boolean", "description": "Create file if it doesn't exist (default true)"},
				"overwrite":         map[string]interface{}{"type": "boolean", "description": "Overwrite existing file (default false)"},
			},
			"required": []interface{}{"path", "contents"},
		},
		OutputSchema: map[string]interface{}{
			"type":       "object",
			"properties": map[string]interface{}{"bytes_written": map[string]interface{}{"type": "integer"}},
			"required":   []interface{}{"bytes_written"},
		},
		Streaming: false, SideEffects: true, NeedsApproval: true, TimeoutMs: 5000,
	})

	r.register(events.ToolSpec{
		Name: events.FsApplyPatch,
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"dry_run": map[string]interface{}{"type": "boolean", "description": "Dry run without applying changes"},
				"ops": map[string]interface{}{
					"type":        "array",
					"description": "Ordered list of structured edit operations",
					"items":       map[string]interface{}{"type": "object"},
				},
			},
			"required": []interface{}{"ops"},
		},
		OutputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"success":        map[string]interface{}{"type": "boolean"},
				"rejected_hunks": map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
				"summary":        map[string]interface{}{"type": "string"},
			},
			"required": []interface{}{"success", "summary"},
		},
		Streaming: false, SideEffects: true, NeedsApproval: true, TimeoutMs: 10000,
	})

	r.register(events.ToolSpec{
		Name: events.FsFind,
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"query":     map[string]interface{}{"type": "string", "description": "Name fragment or glob pattern"},
				"base_path": map[string]interface{}{"type": "string", "description": "Root to search under (default .)"},
				"glob":      map[string]interface{}{"type": "boolean", "description": "Treat query as a glob instead of fuzzy subsequence matching"},
				"type":      map[string]interface{}{"type": "string", "enum": []interface{}{"file", "dir"}, "description": "Restrict to files or directories"},
				"ignore":    map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
			},
			"required": []interface{}{"query"},
		},
		OutputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"matches": map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "object"}},
			},
		},
		Streaming: false, SideEffects: false, NeedsApproval: false, TimeoutMs: 10000,
	})

	r.register(events.ToolSpec{
		Name: events.ShellExec,
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"command": map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}, "description": "Command and arguments"},
				"cwd":     map[string]interface{}{"type": "string", "description": "Working directory"},
				"env": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}, "minItems": 2, "maxItems": 2},
					"description": "Environment variables",
				},
				"timeout_ms": map[string]interface{}{"type": "integer", "description": "Timeout in milliseconds"},
			},
			"required": []interface{}{"command"},
		},
		OutputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"exit_code":   map[string]interface{}{"type": "integer"},
				"duration_ms": map[string]interface{}{"type": "integer"},
			},
			"required": []interface{}{"exit_code", "duration_ms"},
		},
		Streaming: true, SideEffects: true, NeedsApproval: true, TimeoutMs: 30000,
	})

	r.register(events.ToolSpec{
		Name: events.CodeSymbols,
		InputSchema: map[string]interface{}{
			"type":       "object",
			"properties": map[string]interface{}{"path": map[string]interface{}{"type": "string", "description": "Source file to scan"}},
			"required":   []interface{}{"path"},
		},
		OutputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"language": map[string]interface{}{"type": "string"},
				"symbols":  map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "object"}},
			},
		},
		Streaming: false, SideEffects: false, NeedsApproval: false, TimeoutMs: 5000,
	})

	r.register(events.ToolSpec{
		Name: events.LargeContextFetch,
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"base_path":  map[string]interface{}{"type": "string", "description": "Root to walk (default .)"},
				"user_query": map[string]interface{}{"type": "string", "description": "Natural-language description of what's relevant"},
				"max_files":  map[string]interface{}{"type": "integer", "description": "Cap on files forwarded to the model"},
			},
			"required": []interface{}{"user_query"},
		},
		OutputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"selections": map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "object"}},
			},
		},
		Streaming: false, SideEffects: false, NeedsApproval: false, TimeoutMs: 60000,
	})
}

// GetAllSpecs returns the catalog in registration order.
func (r *Registry) GetAllSpecs() []events.ToolSpec {
	out := make([]events.ToolSpec, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.specs[name])
	}
	return out
}

func (r *Registry) GetSpec(name events.ToolName) (events.ToolSpec, bool) {
	spec, ok := r.specs[name]
	return spec, ok
}

// ValidateArgs performs only the shallow required-field check spec §4.2
// describes; the per-tool executor re-parses into a typed record and fails
// precisely on deeper mismatches.
func (r *Registry) ValidateArgs(name events.ToolName, args map[string]interface{}) error {
	spec, ok := r.GetSpec(name)
	if !ok {
		return fmt.Errorf("unknown tool: %s", name)
	}
	required, _ := spec.InputSchema["required"].([]interface{})
	for _, f := range required {
		field, ok := f.(string)
		if !ok {
			continue
		}
		if _, present := args[field]; !present {
			return fmt.Errorf("missing required field: %s", field)
		}
	}
	return nil
}
