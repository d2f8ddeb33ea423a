package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/warden-ai/warden/internal/state"
)

// PendingApproval describes one suspended operation awaiting a decision.
type PendingApproval struct {
	RequestID string `json:"requestID"`
}

// listPendingApprovals handles GET /approval.
func (s *Server) listPendingApprovals(w http.ResponseWriter, r *http.Request) {
	ids := s.state.PendingApprovalIDs()

	pending := make([]PendingApproval, 0, len(ids))
	for _, id := range ids {
		pending = append(pending, PendingApproval{RequestID: id})
	}

	writeJSON(w, http.StatusOK, pending)
}

type resolveApprovalRequest struct {
	Decision string `json:"decision"`
}

// resolveApproval handles POST /approval/{requestID}.
func (s *Server) resolveApproval(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "requestID")

	var req resolveApprovalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")
		return
	}

	if _, ok := state.ParseDecision(req.Decision); !ok {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid decision: "+req.Decision)
		return
	}

	if !s.perms.Resolve(requestID, req.Decision) {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "no pending approval with id "+requestID)
		return
	}

	writeSuccess(w)
}
