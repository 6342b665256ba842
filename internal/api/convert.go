package api

import (
	"time"

	"subremux/internal/deps"
	"subremux/internal/jobs"
	"subremux/internal/library"
	"subremux/internal/preflight"
	"subremux/internal/subtitles"
)

// FromSnapshot converts a job snapshot to its API representation.
func FromSnapshot(snap jobs.Snapshot) JobView {
	return JobView{
		ID:          snap.ID,
		Name:        snap.Name,
		Source:      snap.Source,
		Subtitle:    snap.Subtitle,
		Destination: snap.Destination,
		State:       string(snap.State),
		Detail:      snap.Detail,
		Progress:    snap.Progress,
		Description: snap.Describe(),
		CreatedAt:   formatTime(snap.CreatedAt),
		StartedAt:   formatTime(snap.StartedAt),
		FinishedAt:  formatTime(snap.FinishedAt),
	}
}

// FromSnapshots converts snapshots, preserving order. The result is never nil
// so it encodes as an empty JSON array.
func FromSnapshots(snaps []jobs.Snapshot) []JobView {
	out := make([]JobView, 0, len(snaps))
	for _, snap := range snaps {
		out = append(out, FromSnapshot(snap))
	}
	return out
}

// FromSaved converts a stored subtitle.
func FromSaved(saved subtitles.Saved) UploadView {
	return UploadView{
		Name:     saved.Name,
		Path:     saved.Path,
		Encoding: saved.Encoding,
		Cues:     saved.Cues,
		Bytes:    saved.Bytes,
	}
}

// FromHealth converts the job manager's health report.
func FromHealth(h jobs.Health) (WorkerStatus, map[string]int) {
	worker := WorkerStatus{
		Running:     h.WorkerRunning,
		Fatal:       h.WorkerFatal,
		QueueDepth:  h.QueueDepth,
		ActiveJobID: h.ActiveJobID,
		Processed:   h.Processed,
	}
	counts := make(map[string]int, len(h.Counts))
	for _, state := range jobs.AllStates() {
		counts[string(state)] = h.Counts[state]
	}
	return worker, counts
}

// FromDependencies converts dependency checks.
func FromDependencies(statuses []deps.Status) []DependencyStatus {
	out := make([]DependencyStatus, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, DependencyStatus{
			Name:        s.Name,
			Command:     s.Command,
			Path:        s.Path,
			Version:     s.Version,
			Description: s.Description,
			Optional:    s.Optional,
			Available:   s.Available,
			Detail:      s.Detail,
		})
	}
	return out
}

// FromChecks converts preflight results.
func FromChecks(results []preflight.Result) []CheckResult {
	if len(results) == 0 {
		return nil
	}
	out := make([]CheckResult, 0, len(results))
	for _, r := range results {
		out = append(out, CheckResult{Name: r.Name, Passed: r.Passed, Detail: r.Detail})
	}
	return out
}

// FromListing converts a library directory listing.
func FromListing(listing library.Listing) DirListing {
	dto := DirListing{
		Path:    listing.Path,
		Parent:  listing.Parent,
		IsRoot:  listing.IsRoot,
		Entries: make([]DirEntry, 0, len(listing.Entries)),
	}
	for _, e := range listing.Entries {
		dto.Entries = append(dto.Entries, DirEntry{
			Name:       e.Name,
			Path:       e.Path,
			IsDir:      e.IsDir,
			Size:       e.Size,
			HumanSize:  e.HumanSize,
			ModifiedAt: formatTime(e.ModTime),
		})
	}
	return dto
}

// FromFileInfo converts an ffmpeg stream summary.
func FromFileInfo(info library.FileInfo) FileInfo {
	lines := info.Lines
	if lines == nil {
		lines = []string{}
	}
	return FileInfo{Path: info.Path, Lines: lines}
}

// ParseTime parses a timestamp produced by this package. Empty or malformed
// values yield the zero time.
func ParseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse(dateTimeFormat, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
