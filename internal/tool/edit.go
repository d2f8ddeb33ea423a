package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/warden-ai/warden/internal/event"
	"github.com/warden-ai/warden/internal/operr"
	"github.com/warden-ai/warden/internal/state"
)

const editDescription = `Performs exact string replacements in files.

Usage:
- The file_path parameter must be an absolute path
- The file must have been read this session before it can be edited
- The old_string must exist in the file (exact match required)
- By default only the first occurrence is replaced
- Use replace_all to replace all occurrences`

// EditTool implements exact substring replacement, gated by the
// read-before-write ledger.
type EditTool struct {
	state *state.State
}

// EditInput represents the input for the edit tool.
type EditInput struct {
	FilePath   string `json:"filePath"`
	OldString  string `json:"oldString"`
	NewString  string `json:"newString"`
	ReplaceAll bool   `json:"replaceAll,omitempty"`
}

// NewEditTool creates a new edit tool.
func NewEditTool(st *state.State) *EditTool {
	return &EditTool{state: st}
}

func (t *EditTool) ID() string          { return "edit" }
func (t *EditTool) Description() string { return editDescription }

func (t *EditTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"filePath": {
				"type": "string",
				"description": "The absolute path to the file to edit"
			},
			"oldString": {
				"type": "string",
				"description": "The exact text to replace"
			},
			"newString": {
				"type": "string",
				"description": "The text to replace it with"
			},
			"replaceAll": {
				"type": "boolean",
				"description": "Replace all occurrences (default: false)"
			}
		},
		"required": ["filePath", "oldString", "newString"]
	}`)
}

func (t *EditTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	var params EditInput
	if err := json.Unmarshal(input, &params); err != nil {
		return nil, operr.Validationf("invalid input: %v", err)
	}

	if !filepath.IsAbs(params.FilePath) {
		return nil, operr.Validationf("file path must be absolute: %s", params.FilePath)
	}
	if params.OldString == params.NewString {
		return nil, operr.Validationf("old_string and new_string must be different")
	}
	path := filepath.Clean(params.FilePath)

	if !t.state.HasFileBeenRead(path) {
		return nil, operr.PermissionDenied("edit", path,
			fmt.Sprintf("file must be read before editing: %s", path))
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, operr.NotFoundf("file not found: %s", path)
		}
		return nil, operr.IO("read file", err)
	}
	text := string(content)

	count := strings.Count(text, params.OldString)
	if count == 0 {
		return nil, notFoundWithHint(text, params.OldString)
	}

	var newText string
	replaced := count
	if params.ReplaceAll {
		newText = strings.ReplaceAll(text, params.OldString, params.NewString)
	} else {
		newText = strings.Replace(text, params.OldString, params.NewString, 1)
		replaced = 1
	}

	t.state.MarkSelfWrite(path)
	if err := writeFileAtomic(path, []byte(newText)); err != nil {
		return nil, operr.IO("write file", err)
	}

	event.Publish(event.Event{
		Type: event.FileEdited,
		Data: event.FileEditedData{Path: path},
	})

	diff, additions, deletions := buildDiffMetadata(path, text, newText, toolCtx.WorkDir)

	return &Result{
		Title:  fmt.Sprintf("Edited %s", filepath.Base(path)),
		Output: fmt.Sprintf("Replaced %d occurrence(s)", replaced),
		Metadata: map[string]any{
			"file":         path,
			"replacements": replaced,
			"diff":         diff,
			"additions":    additions,
			"deletions":    deletions,
		},
	}, nil
}

// notFoundWithHint builds the zero-match error, pointing at the closest
// block in the file when one is reasonably similar.
func notFoundWithHint(text, target string) error {
	match, sim := findBestMatch(text, target)
	if match != "" && sim >= 0.7 {
		return operr.NotFoundf(
			"old_string not found in file; closest match is %.0f%% similar - the content may have changed since it was read",
			sim*100)
	}
	return operr.NotFoundf("old_string not found in file")
}

// findBestMatch finds the substring most similar to target, comparing
// line blocks of the same height.
func findBestMatch(text, target string) (string, float64) {
	lines := strings.Split(text, "\n")
	targetLines := strings.Split(target, "\n")
	targetLen := len(targetLines)

	bestMatch := ""
	bestSimilarity := 0.0
	for i := 0; i <= len(lines)-targetLen; i++ {
		block := strings.Join(lines[i:i+targetLen], "\n")
		if sim := similarity(block, target); sim > bestSimilarity {
			bestSimilarity = sim
			bestMatch = block
		}
	}
	return bestMatch, bestSimilarity
}

// similarity calculates normalized Levenshtein similarity.
func similarity(a, b string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	// Length-ratio approximation for extreme inputs
	if len(a) > 10000 || len(b) > 10000 {
		maxLen := max(len(a), len(b))
		minLen := min(len(a), len(b))
		return float64(minLen) / float64(maxLen)
	}

	dist := levenshtein.ComputeDistance(a, b)
	maxLen := max(len(a), len(b))
	return 1.0 - float64(dist)/float64(maxLen)
}
