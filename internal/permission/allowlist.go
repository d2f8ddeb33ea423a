package permission

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// allowlistKey is the settings key holding the approved directories as a
// newline-separated list of absolute paths.
const allowlistKey = "ALLOWED_DIRECTORIES"

// LoadAllowlist reads the persisted settings blob and extracts the
// approved directories. Any storage or parse failure is treated as an
// empty list: the gate fails closed and the caller falls back to asking.
func (m *Manager) LoadAllowlist(ctx context.Context) []string {
	blob, err := m.store.LoadBlob(ctx, settingsKey)
	if err != nil {
		return nil
	}

	env, err := godotenv.Unmarshal(blob)
	if err != nil {
		m.log.Warn().Err(err).Msg("failed to parse permission settings")
		return nil
	}

	return splitDirectories(env[allowlistKey])
}

// AddToAllowlist merges the parent directory of path into the persisted
// list, deduplicated, preserving every unrelated key in the blob.
func (m *Manager) AddToAllowlist(ctx context.Context, path string) error {
	canonical, err := canonicalize(path)
	if err != nil {
		return err
	}
	parent := filepath.Dir(canonical)

	env := map[string]string{}
	if blob, err := m.store.LoadBlob(ctx, settingsKey); err == nil {
		if parsed, perr := godotenv.Unmarshal(blob); perr == nil {
			env = parsed
		}
	}

	dirs := splitDirectories(env[allowlistKey])
	for _, d := range dirs {
		if d == parent {
			return nil
		}
	}
	dirs = append(dirs, parent)
	env[allowlistKey] = strings.Join(dirs, "\n")

	blob, err := godotenv.Marshal(env)
	if err != nil {
		return err
	}
	if err := m.store.SaveBlob(ctx, settingsKey, blob); err != nil {
		return err
	}

	m.log.Info().Str("directory", parent).Msg("added directory to allow-list")
	return nil
}

// splitDirectories splits the newline-separated directory list, dropping
// blanks.
func splitDirectories(raw string) []string {
	var dirs []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			dirs = append(dirs, line)
		}
	}
	return dirs
}
