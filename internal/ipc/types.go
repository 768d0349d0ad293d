package ipc

// RunRecord mirrors a run-log entry across the RPC boundary.
type RunRecord struct {
	ID           int64
	RunID        string
	Trigger      string
	Outcome      string
	Message      string
	TeamsUpdated int
	StartedAt    string
	FinishedAt   string
}

// TeamOutcome mirrors one team's result from a recommendation run.
type TeamOutcome struct {
	Team    string
	Updated bool
	Reason  string
	Name    string
	Tagline string
}

// StatusRequest asks for the daemon status.
type StatusRequest struct{}

// StatusResponse carries daemon runtime information.
type StatusResponse struct {
	Running        bool
	Version        string
	WorkspaceDir   string
	LockPath       string
	RunLogPath     string
	Head           string
	Teams          []string
	ContentOK      bool
	ContentMessage string
	ContentLastRun string
	LastRun        *RunRecord
}

// SyncRequest asks the daemon to pull the content repository now.
type SyncRequest struct{}

// SyncResponse reports the pull result.
type SyncResponse struct {
	Changed bool
	OldHead string
	NewHead string
}

// RecommendRequest asks the daemon to run the recommendation cycle now.
type RecommendRequest struct {
	Force bool
}

// RecommendResponse reports the run summary.
type RecommendResponse struct {
	RunID        string
	Outcome      string
	Message      string
	TeamsUpdated int
	Results      []TeamOutcome
}

// RunsRequest asks for recent run-log records.
type RunsRequest struct {
	Limit int
}

// RunsResponse carries run-log records, most recent first.
type RunsResponse struct {
	Runs []RunRecord
}

// StopRequest asks the daemon process to shut down.
type StopRequest struct{}

// StopResponse acknowledges a stop request.
type StopResponse struct {
	Stopped bool
}

// TestNotificationRequest asks the daemon to send a test notification.
type TestNotificationRequest struct{}

// TestNotificationResponse reports whether a test notification was sent.
type TestNotificationResponse struct {
	Sent    bool
	Message string
}
