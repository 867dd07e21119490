package tools

// Argument and result records for the fixed tool catalog (spec §4.2),
// grounded on original_source/core/src/tools/types.rs.

type ByteRange struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

type FsReadArgs struct {
	Path     string     `json:"path"`
	Range    *ByteRange `json:"range,omitempty"`
	Encoding string     `json:"encoding,omitempty"`
}

type FsReadResult struct {
	Contents  string `json:"contents"`
	Encoding  string `json:"encoding"`
	Truncated bool   `json:"truncated"`
}

type FsSearchArgs struct {
	Query           string   `json:"query"`
	Globs           []string `json:"globs,omitempty"`
	MaxResults      int      `json:"max_results,omitempty"`
	Regex           bool     `json:"regex,omitempty"`
	CaseInsensitive bool     `json:"case_insensitive,omitempty"`
	Multiline       bool     `json:"multiline,omitempty"`
}

type SearchLine struct {
	Ln   int    `json:"ln"`
	Text string `json:"text"`
}

type SearchMatch struct {
	Path  string       `json:"path"`
	Lines []SearchLine `json:"lines"`
}

type FsSearchResult struct {
	Matches []SearchMatch `json:"matches"`
}

type FsWriteArgs struct {
	Path            string `json:"path"`
	Contents        string `json:"contents"`
	CreateIfMissing *bool  `json:"create_if_missing,omitempty"`
	Overwrite       bool   `json:"overwrite,omitempty"`
}

type FsWriteResult struct {
	BytesWritten int64 `json:"bytes_written"`
}

type FsFindArgs struct {
	Query    string   `json:"query"`
	BasePath string   `json:"base_path,omitempty"`
	Glob     bool     `json:"glob,omitempty"`
	Type     string   `json:"type,omitempty"` // "file" | "dir" | "" (both)
	Ignore   []string `json:"ignore,omitempty"`
	MaxResults int    `json:"max_results,omitempty"`
}

type FindMatch struct {
	Path  string `json:"path"`
	Score int    `json:"score"`
}

type FsFindResult struct {
	Matches []FindMatch `json:"matches"`
}

// SimpleEditOp is a tagged-union edit operation for fs.apply_patch. Only the
// fields relevant to Op are populated by the caller; others are ignored.
type SimpleEditOp struct {
	Op string `json:"op"` // set_file | replace_once | insert_before | insert_after | delete_file | rename_file

	Path     string `json:"path"`
	Contents string `json:"contents,omitempty"` // set_file

	Find    string `json:"find,omitempty"`    // replace_once
	Replace string `json:"replace,omitempty"` // replace_once

	Anchor string `json:"anchor,omitempty"` // insert_before/after
	Insert string `json:"insert,omitempty"` // insert_before/after

	To string `json:"to,omitempty"` // rename_file
}

const (
	OpSetFile      = "set_file"
	OpReplaceOnce  = "replace_once"
	OpInsertBefore = "insert_before"
	OpInsertAfter  = "insert_after"
	OpDeleteFile   = "delete_file"
	OpRenameFile   = "rename_file"
)

type FsApplyPatchArgs struct {
	DryRun bool           `json:"dry_run"`
	Ops    []SimpleEditOp `json:"ops"`
}

type FsApplyPatchResult struct {
	Success       bool     `json:"success"`
	RejectedHunks []string `json:"rejected_hunks,omitempty"`
	Summary       string   `json:"summary"`
}

type ShellExecArgs struct {
	Command   []string   `json:"command"`
	Cwd       string     `json:"cwd,omitempty"`
	Env       [][]string `json:"env,omitempty"` // [[key, value], ...]
	TimeoutMs int64      `json:"timeout_ms,omitempty"`
}

type ShellExecResult struct {
	ExitCode   int    `json:"exit_code"`
	DurationMs int64  `json:"duration_ms"`
	Stdout     string `json:"stdout"`
	Stderr     string `json:"stderr"`
}

type CodeSymbolsArgs struct {
	Path string `json:"path"`
}

type Symbol struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
	Line int    `json:"line"`
}

type CodeSymbolsResult struct {
	Language string   `json:"language"`
	Symbols  []Symbol `json:"symbols"`
}

type LargeContextFetchArgs struct {
	BasePath  string `json:"base_path,omitempty"`
	UserQuery string `json:"user_query"`
	MaxFiles  int    `json:"max_files,omitempty"`
}

type FileSelection struct {
	FilePath string `json:"file_path"`
	Reason   string `json:"reason"`
}

type LargeContextFetchResult struct {
	Selections []FileSelection `json:"selections"`
}
