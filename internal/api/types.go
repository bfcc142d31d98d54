package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// JobView describes a pipeline job in a transport-friendly format.
type JobView struct {
	ID            string `json:"id"`
	UserID        int64  `json:"userId"`
	ChatID        int64  `json:"chatId"`
	URL           string `json:"url"`
	Requested     string `json:"requested"`
	Status        string `json:"status"`
	ErrorMessage  string `json:"errorMessage,omitempty"`
	CancelReason  string `json:"cancelReason,omitempty"`
	Title         string `json:"title,omitempty"`
	ItemIndex     int    `json:"itemIndex,omitempty"`
	BatchSize     int    `json:"batchSize,omitempty"`
	Delivered     int    `json:"delivered"`
	FailedItems   int    `json:"failedItems"`
	QueuePosition int    `json:"queuePosition,omitempty"`
	SubmittedAt   string `json:"submittedAt,omitempty"`
	StartedAt     string `json:"startedAt,omitempty"`
	FinishedAt    string `json:"finishedAt,omitempty"`
}

// JobsResponse groups jobs by where they sit in the queue.
type JobsResponse struct {
	Active   []JobView `json:"active"`
	Waiting  []JobView `json:"waiting"`
	Finished []JobView `json:"finished"`
}

// StageHealth mirrors readiness reporting for pipeline stages.
type StageHealth struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// DatabaseHealth summarizes the state of the SQLite store.
type DatabaseHealth struct {
	Path           string   `json:"path"`
	Exists         bool     `json:"exists"`
	Readable       bool     `json:"readable"`
	SchemaVersion  string   `json:"schemaVersion,omitempty"`
	MissingTables  []string `json:"missingTables,omitempty"`
	IntegrityCheck bool     `json:"integrityCheck"`
	PreferenceRows int      `json:"preferenceRows"`
	UsageRows      int      `json:"usageRows"`
	Error          string   `json:"error,omitempty"`
}

// DependencyStatus reports whether one external binary resolved on PATH.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description,omitempty"`
	Optional    bool   `json:"optional,omitempty"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// StatusResponse aggregates daemon runtime information.
type StatusResponse struct {
	Running      bool               `json:"running"`
	PID          int                `json:"pid"`
	WebhookSet   bool               `json:"webhookSet"`
	LockPath     string             `json:"lockPath"`
	Queue        map[string]int     `json:"queue"`
	Stages       []StageHealth      `json:"stages"`
	Database     DatabaseHealth     `json:"database"`
	Dependencies []DependencyStatus `json:"dependencies,omitempty"`
}

// UsageRow is one user's delivery totals for one UTC day.
type UsageRow struct {
	Day       string `json:"day"`
	UserID    int64  `json:"userId"`
	Downloads int64  `json:"downloads"`
	Bytes     int64  `json:"bytes"`
}

// UsageResponse reports delivery totals since a cutoff.
type UsageResponse struct {
	Since          string     `json:"since"`
	TotalDownloads int64      `json:"totalDownloads"`
	TotalBytes     int64      `json:"totalBytes"`
	Rows           []UsageRow `json:"rows"`
}

// ScratchDir describes one directory in the scratch area.
type ScratchDir struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	Size     int64  `json:"size"`
	Modified string `json:"modified,omitempty"`
}

// ScratchResponse lists the scratch area contents alongside filesystem
// capacity, so an operator can see leaks before the disk fills.
type ScratchResponse struct {
	Dirs       []ScratchDir `json:"dirs"`
	TotalBytes int64        `json:"totalBytes"`
	DiskTotal  uint64       `json:"diskTotal,omitempty"`
	DiskFree   uint64       `json:"diskFree,omitempty"`
}

// ErrorResponse carries an API error message.
type ErrorResponse struct {
	Error string `json:"error"`
}
