package state

import "os/exec"

// StoreBackgroundProcess registers a new background process entry.
// The caller must supply a unique id; the entry takes ownership of the
// command handle until completion.
func (s *State) StoreBackgroundProcess(id string, handle *exec.Cmd) {
	s.procsMu.Lock()
	defer s.procsMu.Unlock()
	s.procs[id] = &backgroundProcess{handle: handle}
}

// AppendOutput appends text to a process's output buffer. Unknown ids are
// ignored so late writes racing with removal are harmless.
func (s *State) AppendOutput(id string, text string) {
	s.procsMu.Lock()
	defer s.procsMu.Unlock()

	p, ok := s.procs[id]
	if !ok {
		return
	}
	p.output = append(p.output, text...)
}

// PollIncrementalOutput returns the output accumulated since the previous
// poll and advances the cursor atomically with the read, so no byte is
// delivered twice or skipped. The second return reports completion, the
// third the exit code once known. ok is false for unknown ids.
func (s *State) PollIncrementalOutput(id string) (delta string, completed bool, exitCode *int, ok bool) {
	s.procsMu.Lock()
	defer s.procsMu.Unlock()

	p, found := s.procs[id]
	if !found {
		return "", false, nil, false
	}

	delta = string(p.output[p.cursor:])
	p.cursor = len(p.output)
	return delta, p.completed, p.exitCode, true
}

// MarkCompleted records the exit code and releases the owned process
// handle so the OS can reclaim it.
func (s *State) MarkCompleted(id string, exitCode int) {
	s.procsMu.Lock()
	defer s.procsMu.Unlock()

	p, ok := s.procs[id]
	if !ok {
		return
	}
	code := exitCode
	p.completed = true
	p.exitCode = &code
	p.handle = nil
}

// ExitCode returns the cached exit code if known. While the process is
// still running it returns (nil, true) without blocking; a non-blocking
// liveness check caches the code when the process has already been
// reaped. ok is false for unknown ids.
func (s *State) ExitCode(id string) (exitCode *int, ok bool) {
	s.procsMu.Lock()
	defer s.procsMu.Unlock()

	p, found := s.procs[id]
	if !found {
		return nil, false
	}
	if p.exitCode != nil {
		return p.exitCode, true
	}

	// ProcessState is only populated once the process has been waited on;
	// checking it never blocks.
	if p.handle != nil && p.handle.ProcessState != nil {
		code := p.handle.ProcessState.ExitCode()
		p.completed = true
		p.exitCode = &code
		p.handle = nil
		return p.exitCode, true
	}

	return nil, true
}

// RemoveBackgroundProcess drops a process entry. No-op if absent.
func (s *State) RemoveBackgroundProcess(id string) {
	s.procsMu.Lock()
	defer s.procsMu.Unlock()
	delete(s.procs, id)
}

// HasBackgroundProcess reports whether an entry exists for id.
func (s *State) HasBackgroundProcess(id string) bool {
	s.procsMu.RLock()
	defer s.procsMu.RUnlock()
	_, ok := s.procs[id]
	return ok
}

// BackgroundProcessIDs returns the ids of all registered processes.
func (s *State) BackgroundProcessIDs() []string {
	s.procsMu.RLock()
	defer s.procsMu.RUnlock()

	ids := make([]string, 0, len(s.procs))
	for id := range s.procs {
		ids = append(ids, id)
	}
	return ids
}
