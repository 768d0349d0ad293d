package workspace

// Status is the shared restaurant_api_status.json document at the workspace
// root. The displays poll it to decide whether to show a stale-data banner.
type Status struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
	LastRun string `json:"lastRun,omitempty"`
}
