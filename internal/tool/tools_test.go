package tool

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/warden-ai/warden/internal/permission"
	"github.com/warden-ai/warden/internal/state"
	"github.com/warden-ai/warden/internal/storage"
)

// testContext returns a tool context for tests.
func testContext() *Context {
	return &Context{CallID: "test-call", WorkDir: "/tmp"}
}

// newTestPerms returns a permission manager whose allow-list covers
// allowedDir (pass "" for an empty allow-list).
func newTestPerms(t *testing.T, st *state.State, allowedDir string) *permission.Manager {
	t.Helper()
	store := storage.New(t.TempDir())
	perms := permission.NewManager(store, st)
	if allowedDir != "" {
		// AddToAllowlist persists the parent directory of the given path
		if err := perms.AddToAllowlist(context.Background(), filepath.Join(allowedDir, "seed")); err != nil {
			t.Fatalf("Failed to seed allow-list: %v", err)
		}
	}
	return perms
}

// resolveFirstPending waits for a pending approval and resolves it with
// the given decision.
func resolveFirstPending(t *testing.T, st *state.State, perms *permission.Manager, decision string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if ids := st.PendingApprovalIDs(); len(ids) > 0 {
			if !perms.Resolve(ids[0], decision) {
				t.Fatalf("Failed to resolve approval %s", ids[0])
			}
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("No approval became pending")
}
