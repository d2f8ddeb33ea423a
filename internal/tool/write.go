package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/warden-ai/warden/internal/event"
	"github.com/warden-ai/warden/internal/operr"
	"github.com/warden-ai/warden/internal/permission"
	"github.com/warden-ai/warden/internal/state"
)

const writeDescription = `Writes content to a file on the local filesystem.

Usage:
- The file_path parameter must be an absolute path
- This tool will overwrite existing files
- Parent directories will be created if they don't exist
- Writing to a path that has not been read this session requires approval
- ALWAYS prefer editing existing files over creating new ones`

// WriteTool implements file writing. A path with a read record this
// session may be written without asking; everything else goes through the
// permission gate.
type WriteTool struct {
	state *state.State
	perms *permission.Manager
}

// WriteInput represents the input for the write tool.
type WriteInput struct {
	FilePath string `json:"filePath"`
	Content  string `json:"content"`
}

// NewWriteTool creates a new write tool.
func NewWriteTool(st *state.State, perms *permission.Manager) *WriteTool {
	return &WriteTool{state: st, perms: perms}
}

func (t *WriteTool) ID() string          { return "write" }
func (t *WriteTool) Description() string { return writeDescription }

func (t *WriteTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"filePath": {
				"type": "string",
				"description": "The absolute path to the file to write"
			},
			"content": {
				"type": "string",
				"description": "The content to write to the file"
			}
		},
		"required": ["filePath", "content"]
	}`)
}

func (t *WriteTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	var params WriteInput
	if err := json.Unmarshal(input, &params); err != nil {
		return nil, operr.Validationf("invalid input: %v", err)
	}

	if !filepath.IsAbs(params.FilePath) {
		return nil, operr.Validationf("file path must be absolute: %s", params.FilePath)
	}
	path := filepath.Clean(params.FilePath)

	if !t.state.HasFileBeenRead(path) {
		ok, err := t.perms.CheckAndRequest(ctx, "write", path, nil)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, operr.PermissionDenied("write", path, fmt.Sprintf("permission denied: write %s", path))
		}
	}

	// Capture prior content for the diff; a brand-new file diffs from empty.
	var before string
	if data, err := os.ReadFile(path); err == nil {
		before = string(data)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, operr.IO("create directory", err)
	}

	// Marked before the rename so the file watcher does not mistake this
	// write for an external change and drop the read record.
	t.state.MarkSelfWrite(path)
	if err := writeFileAtomic(path, []byte(params.Content)); err != nil {
		return nil, operr.IO("write file", err)
	}

	// The agent now knows the file's content, so later edits need no prompt.
	t.state.RecordFileRead(path)

	event.Publish(event.Event{
		Type: event.FileEdited,
		Data: event.FileEditedData{Path: path},
	})

	diff, additions, deletions := buildDiffMetadata(path, before, params.Content, toolCtx.WorkDir)

	return &Result{
		Title: fmt.Sprintf("Wrote %s", filepath.Base(path)),
		Output: fmt.Sprintf("Successfully wrote %d bytes to %s",
			len(params.Content), path),
		Metadata: map[string]any{
			"file":      path,
			"bytes":     len(params.Content),
			"diff":      diff,
			"additions": additions,
			"deletions": deletions,
		},
	}, nil
}

// writeFileAtomic writes content to a temp file in the target directory
// and renames it into place, so readers never observe a partial write.
func writeFileAtomic(path string, content []byte) error {
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, content, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
