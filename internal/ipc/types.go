package ipc

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse represents combined daemon and queue status information.
type StatusResponse struct {
	Running      bool   `json:"running"`
	PendingTotal int    `json:"pending_total"`
	ActiveTotal  int    `json:"active_total"`
	Users        int    `json:"users"`
	Completed    uint64 `json:"completed"`
	Duplicates   uint64 `json:"duplicates"`
	Rejected     uint64 `json:"rejected"`
	DownloadsNow int    `json:"downloads_now"`
	UploadsNow   int    `json:"uploads_now"`
	SettingsDB   string `json:"settings_db"`
	LockPath     string `json:"lock_path"`
	PID          int    `json:"pid"`
}

// QueueClearRequest drops a user's pending tasks.
type QueueClearRequest struct {
	UserID int64 `json:"user_id"`
}

// QueueClearResponse reports the number of removed entries.
type QueueClearResponse struct {
	Removed int `json:"removed"`
}
