package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// JobView describes a remux job in a transport-friendly format.
type JobView struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Source      string `json:"source"`
	Subtitle    string `json:"subtitle"`
	Destination string `json:"destination"`
	State       string `json:"state"`
	Detail      string `json:"detail,omitempty"`
	Progress    int    `json:"progress"`
	Description string `json:"description"`
	CreatedAt   string `json:"createdAt,omitempty"`
	StartedAt   string `json:"startedAt,omitempty"`
	FinishedAt  string `json:"finishedAt,omitempty"`
}

// JobListResponse wraps every known job in submission order.
type JobListResponse struct {
	Jobs []JobView `json:"jobs"`
}

// JobResponse wraps a single job.
type JobResponse struct {
	Job JobView `json:"job"`
}

// UploadView describes a stored subtitle file.
type UploadView struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	Encoding string `json:"encoding"`
	Cues     int    `json:"cues,omitempty"`
	Bytes    int    `json:"bytes"`
}

// SubmitResponse is returned when a subtitle upload queued a remux job.
type SubmitResponse struct {
	Job      JobView    `json:"job"`
	Subtitle UploadView `json:"subtitle"`
}

// WorkerStatus mirrors the job worker's health.
type WorkerStatus struct {
	Running     bool   `json:"running"`
	Fatal       string `json:"fatal,omitempty"`
	QueueDepth  int    `json:"queueDepth"`
	ActiveJobID int64  `json:"activeJobId,omitempty"`
	Processed   int    `json:"processed"`
}

// DependencyStatus captures availability of an external dependency.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Path        string `json:"path,omitempty"`
	Version     string `json:"version,omitempty"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// CheckResult mirrors a preflight check.
type CheckResult struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// StatusResponse aggregates daemon runtime information for API consumers.
type StatusResponse struct {
	Running      bool               `json:"running"`
	PID          int                `json:"pid"`
	StartedAt    string             `json:"startedAt,omitempty"`
	LockFilePath string             `json:"lockFilePath"`
	MediaDir     string             `json:"mediaDir"`
	UploadDir    string             `json:"uploadDir"`
	Worker       WorkerStatus       `json:"worker"`
	JobCounts    map[string]int     `json:"jobCounts"`
	TotalJobs    int                `json:"totalJobs"`
	Dependencies []DependencyStatus `json:"dependencies"`
	Checks       []CheckResult      `json:"checks,omitempty"`
}

// DirEntry is one item of a library directory listing.
type DirEntry struct {
	Name       string `json:"name"`
	Path       string `json:"path"`
	IsDir      bool   `json:"isDir"`
	Size       int64  `json:"size,omitempty"`
	HumanSize  string `json:"humanSize,omitempty"`
	ModifiedAt string `json:"modifiedAt,omitempty"`
}

// DirListing is the content of a library directory.
type DirListing struct {
	Path    string     `json:"path"`
	Parent  string     `json:"parent"`
	IsRoot  bool       `json:"isRoot"`
	Entries []DirEntry `json:"entries"`
}

// FileInfo carries the stream and duration lines ffmpeg reports for a file.
type FileInfo struct {
	Path  string   `json:"path"`
	Lines []string `json:"lines"`
}

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// NotificationTestResponse reports the outcome of a test notification.
type NotificationTestResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message,omitempty"`
}
