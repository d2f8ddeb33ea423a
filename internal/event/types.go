package event

// ApprovalRequestedData is the data for approval.requested events.
// It is emitted exactly once per newly pending approval request.
type ApprovalRequestedData struct {
	RequestID string `json:"requestID"`
	Operation string `json:"operation"`
	Path      string `json:"path"`
	Context   *int   `json:"context,omitempty"`
}

// ApprovalResolvedData is the data for approval.resolved events.
type ApprovalResolvedData struct {
	RequestID string `json:"requestID"`
	Decision  string `json:"decision"` // "allow" | "allow_and_save" | "deny"
}

// FileReadData is the data for file.read events.
type FileReadData struct {
	Path string `json:"path"`
}

// FileEditedData is the data for file.edited events, published after
// a successful write or edit.
type FileEditedData struct {
	Path string `json:"path"`
}

// ProcessSpawnedData is the data for process.spawned events.
type ProcessSpawnedData struct {
	ProcessID string `json:"processID"`
	Command   string `json:"command"`
}

// ProcessExitedData is the data for process.exited events. Events are
// advisory only; callers must still poll for incremental output.
type ProcessExitedData struct {
	ProcessID string `json:"processID"`
	ExitCode  int    `json:"exitCode"`
}
