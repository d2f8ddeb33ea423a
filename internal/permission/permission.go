package permission

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/warden-ai/warden/internal/event"
	"github.com/warden-ai/warden/internal/logging"
	"github.com/warden-ai/warden/internal/operr"
	"github.com/warden-ai/warden/internal/state"
)

// BlobStore persists the KEY=VALUE settings blob the allow-list lives in.
type BlobStore interface {
	LoadBlob(ctx context.Context, key string) (string, error)
	SaveBlob(ctx context.Context, key string, blob string) error
}

// settingsKey is the logical identifier of the persisted settings blob.
const settingsKey = "permissions"

// Manager is the policy layer over operation state and the allow-list
// store. It decides auto-approve versus ask-and-wait.
type Manager struct {
	store BlobStore
	state *state.State
	log   zerolog.Logger
}

// NewManager creates a Manager bound to the given store and state.
func NewManager(store BlobStore, st *state.State) *Manager {
	return &Manager{
		store: store,
		state: st,
		log:   logging.For("permission"),
	}
}

// RequestApproval registers a pending approval for an operation on a path,
// emits an approval.requested event, and suspends the calling task until
// an external resolution arrives. There is no timeout: the wait ends only
// with a decision, context cancellation, or a dropped channel (Cancelled).
// lineContext optionally carries extra context for the prompt, such as a
// line number.
func (m *Manager) RequestApproval(ctx context.Context, operation, path string, lineContext *int) (state.Decision, error) {
	id := ulid.Make().String()
	ch := make(chan state.Decision, 1)
	m.state.StorePendingApproval(id, ch)

	m.log.Info().
		Str("requestID", id).
		Str("operation", operation).
		Str("path", path).
		Msg("approval requested")

	event.Publish(event.Event{
		Type: event.ApprovalRequested,
		Data: event.ApprovalRequestedData{
			RequestID: id,
			Operation: operation,
			Path:      path,
			Context:   lineContext,
		},
	})

	select {
	case <-ctx.Done():
		m.state.AbandonApproval(id)
		return "", ctx.Err()
	case d, ok := <-ch:
		if !ok {
			return "", operr.ErrCancelled
		}
		return d, nil
	}
}

// Resolve fulfills a pending approval request. It returns false if the
// request id is unknown or already resolved, or if the decision string is
// not one of "allow", "allow_and_save", "deny".
func (m *Manager) Resolve(requestID string, decision string) bool {
	d, ok := state.ParseDecision(decision)
	if !ok {
		m.log.Warn().Str("requestID", requestID).Str("decision", decision).Msg("unknown decision")
		return false
	}

	resolved := m.state.ResolveApproval(requestID, d)
	if resolved {
		event.Publish(event.Event{
			Type: event.ApprovalResolved,
			Data: event.ApprovalResolvedData{
				RequestID: requestID,
				Decision:  string(d),
			},
		})
	}
	return resolved
}

// CheckAndRequest short-circuits true when the path is covered by the
// allow-list; otherwise it asks and waits. Allow and AllowAndSave grant
// the operation, AllowAndSave additionally persists the path's parent
// directory (best effort). Deny returns false with no error.
func (m *Manager) CheckAndRequest(ctx context.Context, operation, path string, lineContext *int) (bool, error) {
	if m.IsPathAllowed(ctx, path) {
		return true, nil
	}

	d, err := m.RequestApproval(ctx, operation, path, lineContext)
	if err != nil {
		return false, err
	}

	switch d {
	case state.DecisionAllow:
		return true, nil
	case state.DecisionAllowAndSave:
		if err := m.AddToAllowlist(ctx, path); err != nil {
			// The grant stands even if persistence fails.
			m.log.Warn().Err(err).Str("path", path).Msg("failed to persist allow-list entry")
		}
		return true, nil
	default:
		return false, nil
	}
}

// IsPathAllowed reports whether path equals or is nested under any
// allow-list entry. Canonicalization failure of either side skips that
// candidate or entry instead of erroring.
func (m *Manager) IsPathAllowed(ctx context.Context, path string) bool {
	candidate, err := canonicalize(path)
	if err != nil {
		return false
	}

	for _, dir := range m.LoadAllowlist(ctx) {
		entry, err := canonicalize(dir)
		if err != nil {
			continue
		}
		if candidate == entry || isWithinDir(candidate, entry) {
			return true
		}
	}
	return false
}

// canonicalize normalizes a path lexically to an absolute, cleaned form.
// Symlinks are deliberately not resolved so paths that do not exist yet
// can still be checked.
func canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.Clean(abs), nil
}

// isWithinDir reports whether path is inside dir.
func isWithinDir(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return !strings.HasPrefix(rel, "..") && !filepath.IsAbs(rel)
}
