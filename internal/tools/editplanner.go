package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/codeforge-dev/codeforge/internal/events"
)

// plannedFile mirrors original_source/core/src/tools/executors/fs/simple_edit.rs's
// PlannedFile: original is nil for a file that didn't exist on disk when
// first touched, current is nil once the op sequence deletes it.
type plannedFile struct {
	original *string
	current  *string
}

type rename struct {
	from, to     string
	shouldRename bool
}

// SimpleEditPlanner is the two-phase plan/commit engine behind fs.apply_patch.
// Every op is applied against an in-memory snapshot first; only once the
// whole op list has planned cleanly does commit() touch disk, and renames
// run before writes/deletes so a rename-then-edit sequence lands correctly.
type SimpleEditPlanner struct {
	dryRun       bool
	files        map[string]*plannedFile
	order        []string // insertion order, for deterministic commit
	renames      []rename
	created      map[string]bool
	modified     map[string]bool
	deleted      map[string]bool
	descriptions []string
	bytesAdded   int64
	bytesRemoved int64
}

func NewSimpleEditPlanner(dryRun bool) *SimpleEditPlanner {
	return &SimpleEditPlanner{
		dryRun:   dryRun,
		files:    make(map[string]*plannedFile),
		created:  make(map[string]bool),
		modified: make(map[string]bool),
		deleted:  make(map[string]bool),
	}
}

// ApplyOp stages a single structured op into the planner's in-memory state.
func (p *SimpleEditPlanner) ApplyOp(op SimpleEditOp) error {
	switch op.Op {
	case OpSetFile:
		if err := p.ensureEntryAllowNew(op.Path); err != nil {
			return err
		}
		if err := p.setCurrent(op.Path, normalizeNewlines(op.Contents)); err != nil {
			return err
		}
		p.descriptions = append(p.descriptions, fmt.Sprintf("set_file %s", op.Path))

	case OpReplaceOnce:
		if err := p.ensureEntry(op.Path); err != nil {
			return err
		}
		current, err := p.currentString(op.Path)
		if err != nil {
			return err
		}
		needle := normalizeNewlines(op.Find)
		replacement := normalizeNewlines(op.Replace)
		idx, err := exactlyOnce(current, needle)
		if err != nil {
			return err
		}
		newContent := current[:idx] + replacement + current[idx+len(needle):]
		if err := p.setCurrent(op.Path, newContent); err != nil {
			return err
		}
		p.descriptions = append(p.descriptions, fmt.Sprintf("replace_once %s", op.Path))

	case OpInsertBefore:
		if err := p.ensureEntry(op.Path); err != nil {
			return err
		}
		current, err := p.currentString(op.Path)
		if err != nil {
			return err
		}
		anchor := normalizeNewlines(op.Anchor)
		insertion := normalizeNewlines(op.Insert)
		idx, err := exactlyOnce(current, anchor)
		if err != nil {
			return err
		}
		newContent := current[:idx] + insertion + current[idx:]
		if err := p.setCurrent(op.Path, newContent); err != nil {
			return err
		}
		p.descriptions = append(p.descriptions, fmt.Sprintf("insert_before %s", op.Path))

	case OpInsertAfter:
		if err := p.ensureEntry(op.Path); err != nil {
			return err
		}
		current, err := p.currentString(op.Path)
		if err != nil {
			return err
		}
		anchor := normalizeNewlines(op.Anchor)
		insertion := normalizeNewlines(op.Insert)
		idx, err := exactlyOnce(current, anchor)
		if err != nil {
			return err
		}
		pos := idx + len(anchor)
		newContent := current[:pos] + insertion + current[pos:]
		if err := p.setCurrent(op.Path, newContent); err != nil {
			return err
		}
		p.descriptions = append(p.descriptions, fmt.Sprintf("insert_after %s", op.Path))

	case OpDeleteFile:
		if err := p.ensureEntry(op.Path); err != nil {
			return err
		}
		if err := p.deleteCurrent(op.Path); err != nil {
			return err
		}
		p.descriptions = append(p.descriptions, fmt.Sprintf("delete_file %s", op.Path))

	case OpRenameFile:
		if err := p.renameFile(op.Path, op.To); err != nil {
			return err
		}
		p.descriptions = append(p.descriptions, fmt.Sprintf("rename_file %s -> %s", op.Path, op.To))

	default:
		return fmt.Errorf("unknown op: %s", op.Op)
	}
	return nil
}

func (p *SimpleEditPlanner) renameFile(path, to string) error {
	if path == to {
		return fmt.Errorf("source and destination paths are the same")
	}
	if err := p.ensureEntry(path); err != nil {
		return err
	}
	entry := p.files[path]
	if entry.current == nil {
		return fmt.Errorf("file not found: %s", path)
	}

	if existing, ok := p.files[to]; ok {
		if existing.current != nil {
			return fmt.Errorf("target already exists: %s", to)
		}
		delete(p.files, to)
		delete(p.created, to)
		delete(p.modified, to)
		delete(p.deleted, to)
		p.removeFromOrder(to)
	} else if pathExistsOnDisk(to) {
		return fmt.Errorf("target already exists: %s", to)
	}

	delete(p.files, path)
	p.removeFromOrder(path)
	shouldRename := entry.original != nil
	p.files[to] = entry
	p.order = append(p.order, to)
	p.reassignPath(path, to)
	p.renames = append(p.renames, rename{from: path, to: to, shouldRename: shouldRename})
	return nil
}

func (p *SimpleEditPlanner) removeFromOrder(path string) {
	for i, o := range p.order {
		if o == path {
			p.order = append(p.order[:i], p.order[i+1:]...)
			return
		}
	}
}

func (p *SimpleEditPlanner) ensureEntry(path string) error {
	if _, ok := p.files[path]; ok {
		return nil
	}
	content, found, err := readFileNormalized(path)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("file not found: %s", path)
	}
	p.files[path] = &plannedFile{original: &content, current: &content}
	p.order = append(p.order, path)
	return nil
}

func (p *SimpleEditPlanner) ensureEntryAllowNew(path string) error {
	if _, ok := p.files[path]; ok {
		return nil
	}
	content, found, err := readFileNormalized(path)
	if err != nil {
		return err
	}
	if found {
		p.files[path] = &plannedFile{original: &content, current: &content}
	} else {
		p.files[path] = &plannedFile{}
	}
	p.order = append(p.order, path)
	return nil
}

func (p *SimpleEditPlanner) currentString(path string) (string, error) {
	entry, ok := p.files[path]
	if !ok {
		return "", fmt.Errorf("file state missing: %s", path)
	}
	if entry.current == nil {
		return "", fmt.Errorf("file has been deleted: %s", path)
	}
	return *entry.current, nil
}

func (p *SimpleEditPlanner) setCurrent(path, newContent string) error {
	entry, ok := p.files[path]
	if !ok {
		return fmt.Errorf("file state missing: %s", path)
	}
	prevLen := int64(0)
	if entry.current != nil {
		prevLen = int64(len(*entry.current))
	}
	originalIsNil := entry.original == nil
	entry.current = &newContent
	p.recordDelta(int64(len(newContent)) - prevLen)
	if originalIsNil {
		p.markCreated(path)
	} else {
		p.markModified(path)
	}
	return nil
}

func (p *SimpleEditPlanner) deleteCurrent(path string) error {
	entry, ok := p.files[path]
	if !ok {
		return fmt.Errorf("file state missing: %s", path)
	}
	if entry.current == nil {
		return fmt.Errorf("file already deleted: %s", path)
	}
	prevLen := int64(len(*entry.current))
	originalIsSome := entry.original != nil
	entry.current = nil
	p.recordDelta(-prevLen)
	if originalIsSome {
		p.markDeleted(path)
	} else {
		delete(p.created, path)
		delete(p.modified, path)
	}
	return nil
}

func (p *SimpleEditPlanner) markCreated(path string) {
	p.created[path] = true
	delete(p.modified, path)
	delete(p.deleted, path)
}

func (p *SimpleEditPlanner) markModified(path string) {
	if !p.created[path] {
		p.modified[path] = true
	}
	delete(p.deleted, path)
}

func (p *SimpleEditPlanner) markDeleted(path string) {
	delete(p.created, path)
	delete(p.modified, path)
	p.deleted[path] = true
}

func (p *SimpleEditPlanner) reassignPath(from, to string) {
	if p.created[from] {
		delete(p.created, from)
		p.created[to] = true
	}
	if p.modified[from] {
		delete(p.modified, from)
		p.modified[to] = true
	}
	if p.deleted[from] {
		delete(p.deleted, from)
		p.deleted[to] = true
	}
}

func (p *SimpleEditPlanner) recordDelta(delta int64) {
	if delta > 0 {
		p.bytesAdded += delta
	} else if delta < 0 {
		p.bytesRemoved += -delta
	}
}

// Finish commits the plan to disk (unless dry-run) and returns the summary.
func (p *SimpleEditPlanner) Finish() (string, error) {
	if !p.dryRun {
		if err := p.commit(); err != nil {
			return "", err
		}
	}
	return p.buildSummary(), nil
}

func (p *SimpleEditPlanner) commit() error {
	for _, r := range p.renames {
		if !r.shouldRename || r.from == r.to {
			continue
		}
		if parent := filepath.Dir(r.to); parent != "" && parent != "." {
			if err := os.MkdirAll(parent, 0o755); err != nil {
				return fmt.Errorf("failed to create parent directories for %s: %w", r.to, err)
			}
		}
		if err := os.Rename(r.from, r.to); err != nil {
			return fmt.Errorf("failed to rename %s to %s: %w", r.from, r.to, err)
		}
	}

	for _, path := range p.order {
		entry := p.files[path]
		if entry.current != nil {
			if entry.original == nil || *entry.original != *entry.current {
				if parent := filepath.Dir(path); parent != "" && parent != "." {
					if err := os.MkdirAll(parent, 0o755); err != nil {
						return fmt.Errorf("failed to create parent directories for %s: %w", path, err)
					}
				}
				if err := os.WriteFile(path, []byte(*entry.current), 0o644); err != nil {
					return fmt.Errorf("failed to write file %s: %w", path, err)
				}
			}
		} else if entry.original != nil {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("failed to delete file %s: %w", path, err)
			}
		}
	}
	return nil
}

func (p *SimpleEditPlanner) buildSummary() string {
	var lines []string
	if p.dryRun {
		lines = append(lines, "Dry run: no changes were written.")
	} else {
		lines = append(lines, "Edits applied successfully.")
	}

	if len(p.created) > 0 {
		lines = append(lines, "Created files: "+strings.Join(sortedKeys(p.created), ", "))
	}
	if len(p.modified) > 0 {
		lines = append(lines, "Modified files: "+strings.Join(sortedKeys(p.modified), ", "))
	}
	if len(p.deleted) > 0 {
		lines = append(lines, "Deleted files: "+strings.Join(sortedKeys(p.deleted), ", "))
	}
	if len(p.renames) > 0 {
		lines = append(lines, "Renamed files:")
		for _, r := range p.renames {
			lines = append(lines, fmt.Sprintf("  %s -> %s", r.from, r.to))
		}
	}
	if len(p.descriptions) > 0 {
		lines = append(lines, "Operations:")
		for _, d := range p.descriptions {
			lines = append(lines, "  - "+d)
		}
	}
	lines = append(lines, fmt.Sprintf("Bytes added: %d", p.bytesAdded))
	lines = append(lines, fmt.Sprintf("Bytes removed: %d", p.bytesRemoved))
	return strings.Join(lines, "\n")
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func readFileNormalized(path string) (string, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return normalizeNewlines(string(data)), true, nil
}

func pathExistsOnDisk(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func normalizeNewlines(text string) string {
	if strings.Contains(text, "\r") {
		text = strings.ReplaceAll(text, "\r\n", "\n")
		text = strings.ReplaceAll(text, "\r", "\n")
	}
	return text
}

// exactlyOnce returns the byte offset of needle in haystack, erroring if it
// occurs zero or more than one time.
func exactlyOnce(haystack, needle string) (int, error) {
	first := strings.Index(haystack, needle)
	if first < 0 {
		return 0, fmt.Errorf("anchor not found")
	}
	if strings.Index(haystack[first+len(needle):], needle) >= 0 {
		return 0, fmt.Errorf("anchor ambiguous (found >1)")
	}
	return first, nil
}

// ExecuteFsApplyPatch implements fs.apply_patch by running every op through
// a SimpleEditPlanner, grounded on
// original_source/core/src/tools/executors/fs/simple_edit.rs.
func ExecuteFsApplyPatch(ctx context.Context, id string, rawArgs map[string]interface{}, sender *events.Sender) (interface{}, error) {
	var args FsApplyPatchArgs
	if err := decodeArgs(rawArgs, &args); err != nil {
		return nil, fmt.Errorf("invalid fs.apply_patch arguments: %w", err)
	}

	sender.Send(events.Event{Kind: events.KindToolProgress, ID: id, Message: "Analyzing patch..."})

	planner := NewSimpleEditPlanner(args.DryRun)
	var applyErr error
	for _, op := range args.Ops {
		if err := planner.ApplyOp(op); err != nil {
			applyErr = err
			break
		}
	}

	if args.DryRun {
		sender.Send(events.Event{Kind: events.KindToolProgress, ID: id, Message: "Dry run completed"})
	} else {
		sender.Send(events.Event{Kind: events.KindToolProgress, ID: id, Message: "Applying changes..."})
	}

	var result FsApplyPatchResult
	if applyErr != nil {
		result = FsApplyPatchResult{Success: false, RejectedHunks: []string{applyErr.Error()}, Summary: fmt.Sprintf("Patch failed: %s", applyErr)}
	} else {
		summary, err := planner.Finish()
		if err != nil {
			result = FsApplyPatchResult{Success: false, RejectedHunks: []string{err.Error()}, Summary: fmt.Sprintf("Patch failed: %s", err)}
		} else {
			result = FsApplyPatchResult{Success: true, Summary: summary}
		}
	}

	sender.Send(events.Event{Kind: events.KindToolResult, ID: id, Payload: result})
	return result, nil
}
