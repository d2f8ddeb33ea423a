package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/warden-ai/warden/internal/event"
	"github.com/warden-ai/warden/internal/logging"
	"github.com/warden-ai/warden/internal/operr"
	"github.com/warden-ai/warden/internal/permission"
	"github.com/warden-ai/warden/internal/state"
)

const (
	DefaultBashTimeout = 120 * time.Second
	MaxBashTimeout     = 10 * time.Minute
	MaxOutputLength    = 30000
)

const bashDescription = `Executes a shell command.

Usage:
- Command is required
- Optional timeout in milliseconds (max 600000); foreground only
- Provide a brief description of what the command does
- Output is captured from stdout and stderr
- Set background to true to run without blocking; poll with bash_output`

// BashTool implements shell command execution, foreground and background.
// Paths referenced by destructive commands go through the same permission
// gate as file writes before the command runs.
type BashTool struct {
	workDir string
	shell   string
	state   *state.State
	perms   *permission.Manager
}

// BashInput represents the input for the bash tool.
type BashInput struct {
	Command     string `json:"command"`
	Description string `json:"description,omitempty"`
	Timeout     int    `json:"timeout,omitempty"` // milliseconds
	Background  bool   `json:"background,omitempty"`
}

// NewBashTool creates a new bash tool.
func NewBashTool(workDir string, st *state.State, perms *permission.Manager) *BashTool {
	return &BashTool{
		workDir: workDir,
		shell:   detectShell(),
		state:   st,
		perms:   perms,
	}
}

func detectShell() string {
	if s := os.Getenv("SHELL"); s != "" {
		return s
	}
	if runtime.GOOS == "darwin" {
		return "/bin/zsh"
	}
	if bash, err := exec.LookPath("bash"); err == nil {
		return bash
	}
	return "/bin/sh"
}

func (t *BashTool) ID() string          { return "bash" }
func (t *BashTool) Description() string { return bashDescription }

func (t *BashTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"command": {
				"type": "string",
				"description": "The command to execute"
			},
			"description": {
				"type": "string",
				"description": "Brief description of what this command does"
			},
			"timeout": {
				"type": "integer",
				"description": "Optional timeout in milliseconds (max 600000)"
			},
			"background": {
				"type": "boolean",
				"description": "Run in the background and return a process id"
			}
		},
		"required": ["command"]
	}`)
}

func (t *BashTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	var params BashInput
	if err := json.Unmarshal(input, &params); err != nil {
		return nil, operr.Validationf("invalid input: %v", err)
	}
	if params.Command == "" {
		return nil, operr.Validationf("command is required")
	}

	workDir := t.workDir
	if toolCtx != nil && toolCtx.WorkDir != "" {
		workDir = toolCtx.WorkDir
	}

	if err := t.vetCommandPaths(ctx, params.Command, workDir); err != nil {
		return nil, err
	}

	if params.Background {
		return t.executeBackground(params, workDir)
	}
	return t.executeForeground(ctx, params, workDir)
}

// vetCommandPaths parses the command and routes every path touched by a
// destructive command through the permission gate. An unparseable command
// is vetted against the working directory itself.
func (t *BashTool) vetCommandPaths(ctx context.Context, command, workDir string) error {
	commands, err := permission.ParseCommands(command)
	if err != nil {
		ok, reqErr := t.perms.CheckAndRequest(ctx, "bash", workDir, nil)
		if reqErr != nil {
			return reqErr
		}
		if !ok {
			return operr.PermissionDenied("bash", workDir,
				fmt.Sprintf("permission denied: %s", command))
		}
		return nil
	}

	for _, cmd := range commands {
		if !permission.IsDestructiveCommand(cmd.Name) {
			continue
		}
		for _, p := range permission.ExtractPaths(cmd) {
			resolved := permission.ResolveCommandPath(p, workDir)
			ok, err := t.perms.CheckAndRequest(ctx, "bash", resolved, nil)
			if err != nil {
				return err
			}
			if !ok {
				return operr.PermissionDenied("bash", resolved,
					fmt.Sprintf("permission denied: %s touches %s", cmd.Name, resolved))
			}
		}
	}
	return nil
}

func (t *BashTool) executeForeground(ctx context.Context, params BashInput, workDir string) (*Result, error) {
	timeout := DefaultBashTimeout
	if params.Timeout > 0 {
		timeout = time.Duration(params.Timeout) * time.Millisecond
		if timeout > MaxBashTimeout {
			timeout = MaxBashTimeout
		}
	}

	cmdCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, t.shell, "-c", params.Command)
	cmd.Dir = workDir
	cmd.Env = os.Environ()
	if runtime.GOOS != "windows" {
		cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	}

	output, err := cmd.CombinedOutput()
	timedOut := cmdCtx.Err() == context.DeadlineExceeded

	result := string(output)
	if len(result) > MaxOutputLength {
		result = result[:MaxOutputLength] + "\n\n(Output truncated)"
	}
	if timedOut {
		result += fmt.Sprintf("\n\n(Command timed out after %v)", timeout)
	}

	exitCode := 0
	if cmd.ProcessState != nil {
		exitCode = cmd.ProcessState.ExitCode()
	}
	if err != nil && !timedOut {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			return nil, operr.IO("run command", err)
		}
	}

	title := params.Description
	if title == "" {
		title = "Run command"
	}

	return &Result{
		Title:  title,
		Output: result,
		Metadata: map[string]any{
			"exit":        exitCode,
			"description": params.Description,
			"timedOut":    timedOut,
		},
	}, nil
}

func (t *BashTool) executeBackground(params BashInput, workDir string) (*Result, error) {
	id := ulid.Make().String()

	// Not CommandContext: the process outlives this call.
	cmd := exec.Command(t.shell, "-c", params.Command)
	cmd.Dir = workDir
	cmd.Env = os.Environ()
	if runtime.GOOS != "windows" {
		cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, operr.IO("open stdout pipe", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, operr.IO("open stderr pipe", err)
	}

	t.state.StoreBackgroundProcess(id, cmd)

	if err := cmd.Start(); err != nil {
		t.state.RemoveBackgroundProcess(id)
		return nil, operr.IO("start command", err)
	}

	event.Publish(event.Event{
		Type: event.ProcessSpawned,
		Data: event.ProcessSpawnedData{ProcessID: id, Command: params.Command},
	})

	var readers sync.WaitGroup
	readers.Add(2)
	go t.accumulate(id, stdout, &readers)
	go t.accumulate(id, stderr, &readers)

	go func() {
		readers.Wait()
		err := cmd.Wait()

		exitCode := 0
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else if err != nil {
			exitCode = -1
		}
		t.state.MarkCompleted(id, exitCode)

		event.Publish(event.Event{
			Type: event.ProcessExited,
			Data: event.ProcessExitedData{ProcessID: id, ExitCode: exitCode},
		})
	}()

	title := params.Description
	if title == "" {
		title = "Run command in background"
	}

	return &Result{
		Title:  title,
		Output: fmt.Sprintf("Started background process %s", id),
		Metadata: map[string]any{
			"processID":  id,
			"background": true,
		},
	}, nil
}

// accumulate streams a pipe into the process's output buffer.
func (t *BashTool) accumulate(id string, r io.Reader, wg *sync.WaitGroup) {
	defer wg.Done()

	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			t.state.AppendOutput(id, string(buf[:n]))
		}
		if err != nil {
			if err != io.EOF {
				logging.Debug().Err(err).Str("processID", id).Msg("output pipe closed")
			}
			return
		}
	}
}
