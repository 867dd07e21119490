// Package prompts builds the system prompt sent on every agent turn.
// Grounded on the teacher's modular prompt builder; sections are rewritten
// to describe the fixed fs/shell/code/large-context tool catalog (spec §4.2)
// instead of the teacher's free-text JSON tool-calling tools.
package prompts

import (
	"fmt"
	"os"
	"runtime"
	"strings"
)

// PromptContext contains runtime context for prompt generation.
type PromptContext struct {
	CWD         string
	OS          string
	Shell       string
	HomeDir     string
	CustomRules string
}

func NewPromptContext() *PromptContext {
	cwd, _ := os.Getwd()
	home, _ := os.UserHomeDir()

	shell := os.Getenv("SHELL")
	if shell == "" {
		if runtime.GOOS == "windows" {
			shell = os.Getenv("COMSPEC")
			if shell == "" {
				shell = "cmd.exe"
			}
		} else {
			shell = "/bin/bash"
		}
	}

	osName := runtime.GOOS
	switch osName {
	case "darwin":
		osName = "macOS"
	case "linux":
		osName = "Linux"
	case "windows":
		osName = "Windows"
	}

	return &PromptContext{CWD: cwd, OS: osName, Shell: shell, HomeDir: home}
}

// PromptBuilder constructs the system prompt from components.
type PromptBuilder struct {
	ctx        *PromptContext
	components []func(*PromptContext) string
}

func NewPromptBuilder(ctx *PromptContext) *PromptBuilder {
	return &PromptBuilder{
		ctx: ctx,
		components: []func(*PromptContext) string{
			agentRole,
			capabilities,
			editingFiles,
			rules,
			systemInfo,
			objective,
		},
	}
}

func (b *PromptBuilder) Build() string {
	var sections []string
	for _, component := range b.components {
		if s := component(b.ctx); s != "" {
			sections = append(sections, s)
		}
	}
	if b.ctx.CustomRules != "" {
		sections = append(sections, fmt.Sprintf("USER INSTRUCTIONS\n\n%s", b.ctx.CustomRules))
	}
	return strings.Join(sections, "\n\n====\n\n")
}

func (b *PromptBuilder) WithCustomRules(rules string) *PromptBuilder {
	b.ctx.CustomRules = rules
	return b
}

func agentRole(ctx *PromptContext) string {
	return `You are Codeforge, a highly skilled software engineer with extensive knowledge in many programming languages, frameworks, design patterns, and best practices.`
}

func capabilities(ctx *PromptContext) string {
	return fmt.Sprintf(`CAPABILITIES

- You have access to a fixed tool catalog: fs.read, fs.search, fs.write, fs.apply_patch, fs.find, shell.exec, code.symbols, and large_context_fetch. These let you inspect and modify the working tree at '%s', run commands, and ask a second model pass to rank files relevant to a query when the codebase is too large to read directly.
- fs.search scans the tree for literal or regex matches, line by line, and fs.find locates files/directories by fuzzy name or glob.
- code.symbols extracts top-level functions, types, and similar declarations from a single file so you can navigate without reading the whole thing.
- large_context_fetch is for when you need to find relevant files across a large tree but don't know where to look: it forwards full file contents plus your query to a ranking pass and returns a short relevant-file list.`, ctx.CWD)
}

func editingFiles(ctx *PromptContext) string {
	return `EDITING FILES

You have two ways to change files on disk: fs.write and fs.apply_patch.

# fs.write
Create a new file, or overwrite the entire contents of an existing one. Use
it for new files, full rewrites, or boilerplate scaffolding. Requires
'overwrite: true' to replace an existing file.

# fs.apply_patch
Make targeted edits via an ordered list of structured operations, each
anchored to unique content in the file as currently planned:
- set_file{path, contents} — create or replace a file's contents wholesale.
- replace_once{path, find, replace} — find must occur exactly once.
- insert_before{path, anchor, insert} / insert_after{...} — anchor must
  occur exactly once.
- delete_file{path} — remove an existing file.
- rename_file{path, to} — move path to to; to must not already exist.

Anchors and find strings must be unique in the file's current content or the
operation fails outright with no changes applied. Pass dry_run: true to
preview a multi-op edit before committing it.

# Choosing the Appropriate Tool
- Default to fs.apply_patch for localized changes — it's precise and
  reports exactly what changed.
- Use fs.write for brand-new files or changes so extensive that describing
  them as anchored ops would be more error-prone than a full rewrite.`
}

func rules(ctx *PromptContext) string {
	return fmt.Sprintf(`RULES

- Your current working directory is: %s. You cannot 'cd' elsewhere — pass
  correct paths to every tool call.
- Always use paths relative to or rooted at '%s', never '~' or $HOME.
- Before shell.exec, consider the user's OS (%s) and default shell (%s) for
  compatibility. The command vector is executed directly, not through a
  shell; to run in another directory, pass it as shell.exec's cwd argument.
- Use fs.search or fs.find to locate things rather than asking the user for
  a path you can discover yourself.
- fs.apply_patch anchors must be exactly unique in the file's current
  content; if ambiguous, include more surrounding context in the anchor.
- Wait for each tool's result before deciding the next step; tool calls in
  the same turn that are genuinely independent may be issued together.
- Do not start responses with "Great", "Certainly", "Okay", or "Sure". Be
  direct and technical.
- Do not end a response with a question unless you genuinely need
  clarification to proceed.`, ctx.CWD, ctx.CWD, ctx.OS, ctx.Shell)
}

func systemInfo(ctx *PromptContext) string {
	return fmt.Sprintf(`SYSTEM INFORMATION

Operating System: %s
Default Shell: %s
Home Directory: %s
Current Working Directory: %s`, ctx.OS, ctx.Shell, ctx.HomeDir, ctx.CWD)
}

func objective(ctx *PromptContext) string {
	return `OBJECTIVE

Accomplish the given task iteratively:
1. Break the task into clear, achievable steps in a logical order.
2. Work through them one tool call at a time, using the most relevant tool
   for each step.
3. Once done, present the result plainly without soliciting further
   conversation.`
}

// BuildSystemPrompt is a convenience wrapper for the default builder.
func BuildSystemPrompt() string {
	return NewPromptBuilder(NewPromptContext()).Build()
}

// BuildSystemPromptWithRules builds a prompt with custom user rules appended.
func BuildSystemPromptWithRules(customRules string) string {
	return NewPromptBuilder(NewPromptContext()).WithCustomRules(customRules).Build()
}
