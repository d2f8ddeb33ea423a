package server

import (
	"github.com/go-chi/chi/v5"
)

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	r := s.router

	// Approval routes
	r.Route("/approval", func(r chi.Router) {
		r.Get("/", s.listPendingApprovals)
		r.Post("/{requestID}", s.resolveApproval)
	})

	// Tool execution
	r.Post("/tool/{name}", s.executeTool)
	r.Get("/tool", s.listTools)

	// Background processes
	r.Get("/process", s.listProcesses)

	// Event streaming (SSE)
	r.Get("/event", s.allEvents)

	// Health
	r.Get("/health", s.health)
}
