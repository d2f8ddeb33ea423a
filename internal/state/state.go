package state

import (
	"os/exec"
	"sync"
	"time"
)

// Decision is the outcome of an approval request.
type Decision string

const (
	// DecisionAllow grants the single pending operation.
	DecisionAllow Decision = "allow"
	// DecisionAllowAndSave grants the operation and persists the parent
	// directory of the checked path into the allow-list.
	DecisionAllowAndSave Decision = "allow_and_save"
	// DecisionDeny rejects the operation.
	DecisionDeny Decision = "deny"
)

// ParseDecision maps the wire form of a decision to a Decision.
func ParseDecision(s string) (Decision, bool) {
	switch Decision(s) {
	case DecisionAllow, DecisionAllowAndSave, DecisionDeny:
		return Decision(s), true
	}
	return "", false
}

// backgroundProcess is one entry in the process table. The handle is owned
// by the table until completion and nil afterwards.
type backgroundProcess struct {
	handle    *exec.Cmd
	output    []byte
	cursor    int
	completed bool
	exitCode  *int
}

// State is the shared operation state injected into every component.
type State struct {
	readsMu    sync.RWMutex
	reads      map[string]time.Time
	selfWrites map[string]time.Time

	procsMu sync.RWMutex
	procs   map[string]*backgroundProcess

	approvalsMu sync.Mutex
	approvals   map[string]chan Decision
}

// New creates an empty State.
func New() *State {
	return &State{
		reads:      make(map[string]time.Time),
		selfWrites: make(map[string]time.Time),
		procs:      make(map[string]*backgroundProcess),
		approvals:  make(map[string]chan Decision),
	}
}
