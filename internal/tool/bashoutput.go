package tool

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/warden-ai/warden/internal/operr"
	"github.com/warden-ai/warden/internal/state"
)

const bashOutputDescription = `Retrieves output from a background process started with bash.

Usage:
- Returns only output produced since the last call for this process
- Optional filter is a regular expression applied to each new line
- Reports whether the process is still running and its exit code once done`

// BashOutputTool polls a background process for output it has not
// returned before.
type BashOutputTool struct {
	state *state.State
}

// BashOutputInput represents the input for the bash_output tool.
type BashOutputInput struct {
	ProcessID string `json:"process_id"`
	Filter    string `json:"filter,omitempty"`
}

// NewBashOutputTool creates a new bash_output tool.
func NewBashOutputTool(st *state.State) *BashOutputTool {
	return &BashOutputTool{state: st}
}

func (t *BashOutputTool) ID() string          { return "bash_output" }
func (t *BashOutputTool) Description() string { return bashOutputDescription }

func (t *BashOutputTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"process_id": {
				"type": "string",
				"description": "The id of the background process"
			},
			"filter": {
				"type": "string",
				"description": "Regular expression to filter new output lines"
			}
		},
		"required": ["process_id"]
	}`)
}

func (t *BashOutputTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	var params BashOutputInput
	if err := json.Unmarshal(input, &params); err != nil {
		return nil, operr.Validationf("invalid input: %v", err)
	}
	if params.ProcessID == "" {
		return nil, operr.Validationf("process_id is required")
	}

	var filter *regexp.Regexp
	if params.Filter != "" {
		var err error
		filter, err = regexp.Compile(params.Filter)
		if err != nil {
			return nil, operr.Validationf("invalid filter: %v", err)
		}
	}

	delta, completed, exitCode, ok := t.state.PollIncrementalOutput(params.ProcessID)
	if !ok {
		return nil, operr.NotFoundf("no background process with id %s", params.ProcessID)
	}

	output := delta
	if filter != nil {
		output = filterLines(delta, filter)
	}

	status := "running"
	if completed {
		status = "completed"
		if exitCode != nil && *exitCode != 0 {
			status = "error"
		}
	}

	metadata := map[string]any{
		"processID": params.ProcessID,
		"status":    status,
	}
	if exitCode != nil {
		metadata["exitCode"] = *exitCode
	}

	return &Result{
		Title:    "Process " + params.ProcessID + " (" + status + ")",
		Output:   output,
		Metadata: metadata,
	}, nil
}

// filterLines keeps only the lines of s matching re. The filter never
// applies to output already returned by an earlier poll.
func filterLines(s string, re *regexp.Regexp) string {
	if s == "" {
		return ""
	}
	var kept []string
	for _, line := range strings.Split(s, "\n") {
		if re.MatchString(line) {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
