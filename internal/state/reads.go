package state

import (
	"path/filepath"
	"time"
)

// RecordFileRead marks a path as read this session. Idempotent; a repeat
// read refreshes the timestamp.
func (s *State) RecordFileRead(path string) {
	path = filepath.Clean(path)

	s.readsMu.Lock()
	defer s.readsMu.Unlock()
	s.reads[path] = time.Now()
}

// HasFileBeenRead reports whether a path has been read this session.
// The record is the precondition for overwriting or editing that path.
func (s *State) HasFileBeenRead(path string) bool {
	path = filepath.Clean(path)

	s.readsMu.RLock()
	defer s.readsMu.RUnlock()
	_, ok := s.reads[path]
	return ok
}

// FileReadTime returns when a path was read, if it was.
func (s *State) FileReadTime(path string) (time.Time, bool) {
	path = filepath.Clean(path)

	s.readsMu.RLock()
	defer s.readsMu.RUnlock()
	t, ok := s.reads[path]
	return t, ok
}

// ClearFileRead drops the read record for a path. No-op if absent.
func (s *State) ClearFileRead(path string) {
	path = filepath.Clean(path)

	s.readsMu.Lock()
	defer s.readsMu.Unlock()
	delete(s.reads, path)
}

// selfWriteWindow bounds how long a self-write marker is honored. A
// marker older than this is stale (its filesystem notification was
// lost) and must not mask a real external change.
const selfWriteWindow = 2 * time.Second

// MarkSelfWrite records that the tools themselves are about to change
// path, so the resulting filesystem notification can be told apart from
// an external edit. Call before the change hits the disk.
func (s *State) MarkSelfWrite(path string) {
	path = filepath.Clean(path)

	s.readsMu.Lock()
	defer s.readsMu.Unlock()
	s.selfWrites[path] = time.Now()
}

// WasSelfWrite reports whether path carries a fresh self-write marker.
// Stale markers are dropped on query.
func (s *State) WasSelfWrite(path string) bool {
	path = filepath.Clean(path)

	s.readsMu.Lock()
	defer s.readsMu.Unlock()
	at, ok := s.selfWrites[path]
	if !ok {
		return false
	}
	if time.Since(at) > selfWriteWindow {
		delete(s.selfWrites, path)
		return false
	}
	return true
}

// ClearAllFileReads drops every read record.
func (s *State) ClearAllFileReads() {
	s.readsMu.Lock()
	defer s.readsMu.Unlock()
	s.reads = make(map[string]time.Time)
}

// ReadPaths returns every path with a read record.
func (s *State) ReadPaths() []string {
	s.readsMu.RLock()
	defer s.readsMu.RUnlock()

	paths := make([]string, 0, len(s.reads))
	for p := range s.reads {
		paths = append(paths, p)
	}
	return paths
}
