package tool

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/warden-ai/warden/internal/logging"
	"github.com/warden-ai/warden/internal/operr"
	"github.com/warden-ai/warden/internal/permission"
	"github.com/warden-ai/warden/internal/state"
)

// Registry manages tool registration and dispatches requests to them.
type Registry struct {
	mu      sync.RWMutex
	tools   map[string]Tool
	workDir string
}

// NewRegistry creates a new tool registry.
func NewRegistry(workDir string) *Registry {
	return &Registry{
		tools:   make(map[string]Tool),
		workDir: workDir,
	}
}

// Register adds a tool to the registry.
func (r *Registry) Register(tool Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	logging.Debug().Str("tool", tool.ID()).Msg("registering tool")
	r.tools[tool.ID()] = tool
}

// Get retrieves a tool by ID.
func (r *Registry) Get(id string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[id]
	return tool, ok
}

// List returns all registered tools.
func (r *Registry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]Tool, 0, len(r.tools))
	for _, tool := range r.tools {
		tools = append(tools, tool)
	}
	return tools
}

// IDs returns all tool IDs.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.tools))
	for id := range r.tools {
		ids = append(ids, id)
	}
	return ids
}

// Dispatch routes a typed request to the named tool. Unknown names fail
// with NotFound; everything else is the tool's own typed result or error.
func (r *Registry) Dispatch(ctx context.Context, name string, input json.RawMessage, toolCtx *Context) (*Result, error) {
	t, ok := r.Get(name)
	if !ok {
		return nil, operr.NotFoundf("unknown tool: %s", name)
	}
	if toolCtx == nil {
		toolCtx = &Context{WorkDir: r.workDir}
	}
	if toolCtx.WorkDir == "" {
		toolCtx.WorkDir = r.workDir
	}
	return t.Execute(ctx, input, toolCtx)
}

// DefaultRegistry creates a registry with all built-in tools bound to the
// given state and permission manager.
func DefaultRegistry(workDir string, st *state.State, perms *permission.Manager) *Registry {
	r := NewRegistry(workDir)

	r.Register(NewReadTool(st))
	r.Register(NewWriteTool(st, perms))
	r.Register(NewEditTool(st))
	r.Register(NewListTool(workDir))
	r.Register(NewBashTool(workDir, st, perms))
	r.Register(NewBashOutputTool(st))

	return r
}
