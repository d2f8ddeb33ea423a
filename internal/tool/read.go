package tool

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/warden-ai/warden/internal/event"
	"github.com/warden-ai/warden/internal/operr"
	"github.com/warden-ai/warden/internal/state"
)

const (
	// DefaultReadLimit is the number of lines returned when no limit is given.
	DefaultReadLimit = 2000
	// MaxLineLength is the cap beyond which a single line is truncated.
	MaxLineLength = 2000
)

const readDescription = `Reads a file from the local filesystem.

Usage:
- The file_path parameter must be an absolute path
- By default, reads up to 2000 lines from the beginning
- You can optionally specify offset and limit for pagination
- Returns file contents with line numbers
- Reading a file is the precondition for overwriting or editing it`

// ReadTool implements file reading. A successful read registers the path
// in the read ledger, unlocking later writes and edits to it.
type ReadTool struct {
	state *state.State
}

// ReadInput represents the input for the read tool.
type ReadInput struct {
	FilePath string `json:"filePath"`
	Offset   int    `json:"offset,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

// NewReadTool creates a new read tool.
func NewReadTool(st *state.State) *ReadTool {
	return &ReadTool{state: st}
}

func (t *ReadTool) ID() string          { return "read" }
func (t *ReadTool) Description() string { return readDescription }

func (t *ReadTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"filePath": {
				"type": "string",
				"description": "The absolute path to the file to read"
			},
			"offset": {
				"type": "integer",
				"description": "1-indexed line number to start reading from"
			},
			"limit": {
				"type": "integer",
				"description": "Number of lines to read (default: 2000)"
			}
		},
		"required": ["filePath"]
	}`)
}

func (t *ReadTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	var params ReadInput
	if err := json.Unmarshal(input, &params); err != nil {
		return nil, operr.Validationf("invalid input: %v", err)
	}

	if !filepath.IsAbs(params.FilePath) {
		return nil, operr.Validationf("file path must be absolute: %s", params.FilePath)
	}
	path := filepath.Clean(params.FilePath)

	if params.Limit <= 0 {
		params.Limit = DefaultReadLimit
	}
	startLine := params.Offset
	if startLine < 1 {
		startLine = 1
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, operr.NotFoundf("file not found: %s", path)
		}
		return nil, operr.IO("stat file", err)
	}
	if info.IsDir() {
		return nil, operr.Validationf("path is a directory, not a file: %s", path)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, operr.IO("open file", err)
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	totalLines := 0

	for scanner.Scan() {
		totalLines++
		if totalLines < startLine || len(lines) >= params.Limit {
			// Keep scanning to count the remaining lines
			continue
		}

		line := scanner.Text()
		if len(line) > MaxLineLength {
			line = truncateLine(line, MaxLineLength)
		}
		lines = append(lines, fmt.Sprintf("%05d| %s", totalLines, line))
	}
	if err := scanner.Err(); err != nil {
		return nil, operr.IO("read file", err)
	}

	// An offset beyond end-of-file yields an empty window, not an error.
	endLine := startLine + len(lines) - 1
	if len(lines) == 0 {
		startLine, endLine = 0, 0
	}
	hasMore := len(lines) > 0 && endLine < totalLines

	var sb strings.Builder
	sb.WriteString("<file>\n")
	sb.WriteString(strings.Join(lines, "\n"))
	if hasMore {
		sb.WriteString(fmt.Sprintf("\n\n(File has more lines. Use 'offset' parameter to read beyond line %d)", endLine))
	} else {
		sb.WriteString(fmt.Sprintf("\n\n(End of file - total %d lines)", totalLines))
	}
	sb.WriteString("\n</file>")

	t.state.RecordFileRead(path)
	event.Publish(event.Event{
		Type: event.FileRead,
		Data: event.FileReadData{Path: path},
	})

	return &Result{
		Title:  fmt.Sprintf("Read %s", filepath.Base(path)),
		Output: sb.String(),
		Metadata: map[string]any{
			"file":       path,
			"startLine":  startLine,
			"endLine":    endLine,
			"totalLines": totalLines,
			"hasMore":    hasMore,
		},
	}, nil
}

// truncateLine caps a line at max bytes without splitting a multi-byte
// rune, appending a marker.
func truncateLine(line string, max int) string {
	cut := max
	for cut > 0 && !utf8.RuneStart(line[cut]) {
		cut--
	}
	return line[:cut] + "..."
}
