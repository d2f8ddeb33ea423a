package state

// StorePendingApproval registers a single-use reply channel for a request
// id. The channel must be buffered so ResolveApproval never blocks.
func (s *State) StorePendingApproval(id string, ch chan Decision) {
	s.approvalsMu.Lock()
	defer s.approvalsMu.Unlock()
	s.approvals[id] = ch
}

// ResolveApproval delivers a decision to the waiting task. It returns
// false if the id is unknown or already resolved; a given id resolves at
// most once.
func (s *State) ResolveApproval(id string, d Decision) bool {
	s.approvalsMu.Lock()
	defer s.approvalsMu.Unlock()

	ch, ok := s.approvals[id]
	if !ok {
		return false
	}
	delete(s.approvals, id)

	ch <- d
	close(ch)
	return true
}

// AbandonApproval drops a pending approval without a decision. The waiting
// task, if any, observes a closed channel and fails with Cancelled.
func (s *State) AbandonApproval(id string) {
	s.approvalsMu.Lock()
	defer s.approvalsMu.Unlock()

	ch, ok := s.approvals[id]
	if !ok {
		return
	}
	delete(s.approvals, id)
	close(ch)
}

// CancelPendingApprovals drops every pending approval, used at teardown.
// Every waiting task observes Cancelled.
func (s *State) CancelPendingApprovals() {
	s.approvalsMu.Lock()
	defer s.approvalsMu.Unlock()

	for id, ch := range s.approvals {
		delete(s.approvals, id)
		close(ch)
	}
}

// PendingApprovalIDs returns the ids of all unresolved approval requests.
func (s *State) PendingApprovalIDs() []string {
	s.approvalsMu.Lock()
	defer s.approvalsMu.Unlock()

	ids := make([]string, 0, len(s.approvals))
	for id := range s.approvals {
		ids = append(ids, id)
	}
	return ids
}
