package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/warden-ai/warden/internal/tool"
)

// ToolDefinition describes a registered tool.
type ToolDefinition struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// listTools handles GET /tool.
func (s *Server) listTools(w http.ResponseWriter, r *http.Request) {
	tools := s.toolReg.List()

	defs := make([]ToolDefinition, 0, len(tools))
	for _, t := range tools {
		defs = append(defs, ToolDefinition{
			ID:          t.ID(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}

	writeJSON(w, http.StatusOK, defs)
}

// executeTool handles POST /tool/{name}.
func (s *Server) executeTool(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "failed to read request body")
		return
	}
	if len(body) == 0 {
		body = []byte("{}")
	}

	workDir := r.URL.Query().Get("directory")
	if workDir == "" {
		workDir = s.config.Directory
	}

	result, err := s.toolReg.Dispatch(r.Context(), name, body, &tool.Context{
		CallID:  middleware.GetReqID(r.Context()),
		WorkDir: workDir,
	})
	if err != nil {
		writeOperationError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"title":    result.Title,
		"output":   result.Output,
		"metadata": result.Metadata,
	})
}

// listProcesses handles GET /process.
func (s *Server) listProcesses(w http.ResponseWriter, r *http.Request) {
	ids := s.state.BackgroundProcessIDs()

	procs := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		entry := map[string]any{"processID": id}
		if code, ok := s.state.ExitCode(id); ok && code != nil {
			entry["exitCode"] = *code
			entry["status"] = "completed"
		} else {
			entry["status"] = "running"
		}
		procs = append(procs, entry)
	}

	writeJSON(w, http.StatusOK, procs)
}

// health handles GET /health.
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
