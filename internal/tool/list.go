package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/warden-ai/warden/internal/operr"
)

const listDescription = `Lists files and directories in a specified path.

Usage:
- Returns entry names, types (file/directory), sizes, and modification times
- Supports glob patterns like "*.go" or "**/*.ts" for filtering
- Use recursive to descend into subdirectories`

// ListTool implements directory listing with optional glob filtering and
// recursive descent.
type ListTool struct {
	workDir string
}

// ListInput represents the input for the list tool.
type ListInput struct {
	Path      string `json:"path,omitempty"`
	Pattern   string `json:"pattern,omitempty"`
	Recursive bool   `json:"recursive,omitempty"`
}

// FileEntry represents a file or directory entry.
type FileEntry struct {
	Name        string    `json:"name"`
	Path        string    `json:"path"`
	IsDirectory bool      `json:"isDirectory"`
	Size        int64     `json:"size,omitempty"`
	ModTime     time.Time `json:"modTime"`
}

// Directories never worth descending into.
var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
	"__pycache__":  true,
	".idea":        true,
	".vscode":      true,
}

// NewListTool creates a new list tool.
func NewListTool(workDir string) *ListTool {
	return &ListTool{workDir: workDir}
}

func (t *ListTool) ID() string          { return "list" }
func (t *ListTool) Description() string { return listDescription }

func (t *ListTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"path": {
				"type": "string",
				"description": "The directory to list (default: working directory)"
			},
			"pattern": {
				"type": "string",
				"description": "Glob pattern to filter entries"
			},
			"recursive": {
				"type": "boolean",
				"description": "Descend into subdirectories (default: false)"
			}
		}
	}`)
}

func (t *ListTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	var params ListInput
	if err := json.Unmarshal(input, &params); err != nil {
		return nil, operr.Validationf("invalid input: %v", err)
	}

	root := t.workDir
	if toolCtx != nil && toolCtx.WorkDir != "" {
		root = toolCtx.WorkDir
	}
	if params.Path != "" {
		if filepath.IsAbs(params.Path) {
			root = filepath.Clean(params.Path)
		} else {
			root = filepath.Join(root, params.Path)
		}
	}

	var entries []FileEntry
	var err error
	if params.Recursive {
		entries, err = listRecursive(root, params.Pattern)
	} else {
		entries, err = listFlat(root, params.Pattern)
	}
	if err != nil {
		if os.IsNotExist(err) {
			return nil, operr.NotFoundf("directory not found: %s", root)
		}
		return nil, operr.IO("read directory", err)
	}

	var sb strings.Builder
	for _, e := range entries {
		typeStr := "file"
		if e.IsDirectory {
			typeStr = "dir "
		}
		sb.WriteString(fmt.Sprintf("[%s] %s", typeStr, e.Name))
		if !e.IsDirectory {
			sb.WriteString(fmt.Sprintf(" (%d bytes)", e.Size))
		}
		sb.WriteString("\n")
	}

	return &Result{
		Title:  fmt.Sprintf("Listed %d items", len(entries)),
		Output: sb.String(),
		Metadata: map[string]any{
			"path":    root,
			"count":   len(entries),
			"entries": entries,
		},
	}, nil
}

func listFlat(root, pattern string) ([]FileEntry, error) {
	dirEntries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	var entries []FileEntry
	for _, de := range dirEntries {
		if pattern != "" {
			matched, err := doublestar.Match(pattern, de.Name())
			if err != nil {
				return nil, operr.Validationf("invalid glob pattern: %s", pattern)
			}
			if !matched {
				continue
			}
		}
		entries = append(entries, toEntry(root, de.Name(), de))
	}
	return entries, nil
}

func listRecursive(root, pattern string) ([]FileEntry, error) {
	var entries []FileEntry
	err := filepath.WalkDir(root, func(path string, de fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		if de.IsDir() && skipDirs[de.Name()] {
			return filepath.SkipDir
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = de.Name()
		}
		if pattern != "" {
			matched, matchErr := doublestar.Match(pattern, rel)
			if matchErr != nil {
				return operr.Validationf("invalid glob pattern: %s", pattern)
			}
			if !matched {
				return nil
			}
		}
		entries = append(entries, toEntry(filepath.Dir(path), de.Name(), de))
		return nil
	})
	return entries, err
}

func toEntry(dir, name string, de fs.DirEntry) FileEntry {
	entry := FileEntry{
		Name:        name,
		Path:        filepath.Join(dir, name),
		IsDirectory: de.IsDir(),
	}
	if info, err := de.Info(); err == nil {
		entry.ModTime = info.ModTime()
		if !de.IsDir() {
			entry.Size = info.Size()
		}
	}
	return entry
}
