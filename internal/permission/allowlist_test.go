package permission

import (
	"context"
	"testing"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warden-ai/warden/internal/state"
)

func TestLoadAllowlist_Empty(t *testing.T) {
	store := newMemStore()
	m := NewManager(store, state.New())

	assert.Empty(t, m.LoadAllowlist(context.Background()))
}

func TestLoadAllowlist_FailClosedOnGarbage(t *testing.T) {
	store := newMemStore()
	store.blobs[settingsKey] = `ALLOWED_DIRECTORIES="unterminated`
	m := NewManager(store, state.New())

	// Unparseable settings mean no path is auto-approved
	assert.Empty(t, m.LoadAllowlist(context.Background()))
}

func TestAddToAllowlist_Dedup(t *testing.T) {
	store := newMemStore()
	m := NewManager(store, state.New())
	ctx := context.Background()

	require.NoError(t, m.AddToAllowlist(ctx, "/data/reports/q3.txt"))
	require.NoError(t, m.AddToAllowlist(ctx, "/data/reports/q4.txt"))

	dirs := m.LoadAllowlist(ctx)
	assert.Equal(t, []string{"/data/reports"}, dirs, "same parent is stored once")
}

func TestAddToAllowlist_PreservesOtherKeys(t *testing.T) {
	store := newMemStore()
	blob, err := godotenv.Marshal(map[string]string{
		"THEME":      "dark",
		"MAX_TOKENS": "4096",
	})
	require.NoError(t, err)
	store.blobs[settingsKey] = blob

	m := NewManager(store, state.New())
	ctx := context.Background()

	require.NoError(t, m.AddToAllowlist(ctx, "/data/reports/q3.txt"))

	env, err := godotenv.Unmarshal(store.get(settingsKey))
	require.NoError(t, err)
	assert.Equal(t, "dark", env["THEME"])
	assert.Equal(t, "4096", env["MAX_TOKENS"])
	assert.Contains(t, env[allowlistKey], "/data/reports")
}

func TestAddToAllowlist_AppendsToExisting(t *testing.T) {
	store := newMemStore()
	m := NewManager(store, state.New())
	ctx := context.Background()

	require.NoError(t, m.AddToAllowlist(ctx, "/home/user/project/main.go"))
	require.NoError(t, m.AddToAllowlist(ctx, "/tmp/scratch/notes.txt"))

	dirs := m.LoadAllowlist(ctx)
	assert.ElementsMatch(t, []string{"/home/user/project", "/tmp/scratch"}, dirs)
}

func TestSplitDirectories(t *testing.T) {
	assert.Empty(t, splitDirectories(""))
	assert.Equal(t, []string{"/a"}, splitDirectories("/a"))
	assert.Equal(t, []string{"/a", "/b"}, splitDirectories("/a\n/b"))
	assert.Equal(t, []string{"/a", "/b"}, splitDirectories("\n /a \n\n/b\n"))
}
