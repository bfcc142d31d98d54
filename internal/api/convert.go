package api

import (
	"time"

	"telefetch/internal/deps"
	"telefetch/internal/pipeline"
	"telefetch/internal/scratch"
	"telefetch/internal/stage"
	"telefetch/internal/store"
)

// FromJob converts a pipeline job to its API representation.
func FromJob(job pipeline.Job) JobView {
	view := JobView{
		ID:            job.ID,
		UserID:        job.UserID,
		ChatID:        job.ChatID,
		URL:           job.URL,
		Requested:     string(job.Requested),
		Status:        string(job.Status),
		ErrorMessage:  job.ErrorMessage,
		CancelReason:  job.CancelReason,
		Title:         job.Title,
		ItemIndex:     job.ItemIndex,
		BatchSize:     job.BatchSize,
		Delivered:     job.Delivered,
		FailedItems:   job.FailedItems,
		QueuePosition: job.QueuePosition,
	}
	view.SubmittedAt = formatTime(job.SubmittedAt)
	view.StartedAt = formatTime(job.StartedAt)
	view.FinishedAt = formatTime(job.FinishedAt)
	return view
}

// FromJobs converts a slice of jobs, preserving order.
func FromJobs(jobs []pipeline.Job) []JobView {
	if len(jobs) == 0 {
		return nil
	}
	views := make([]JobView, len(jobs))
	for i, job := range jobs {
		views[i] = FromJob(job)
	}
	return views
}

// FromSnapshot converts a queue snapshot to the jobs payload.
func FromSnapshot(snap pipeline.Snapshot) JobsResponse {
	return JobsResponse{
		Active:   FromJobs(snap.Active),
		Waiting:  FromJobs(snap.Waiting),
		Finished: FromJobs(snap.Finished),
	}
}

// FromStageHealth converts stage readiness reports.
func FromStageHealth(health []stage.Health) []StageHealth {
	if len(health) == 0 {
		return nil
	}
	out := make([]StageHealth, len(health))
	for i, h := range health {
		out[i] = StageHealth{Name: h.Name, Ready: h.Ready, Detail: h.Detail}
	}
	return out
}

// FromDependencies converts binary availability reports.
func FromDependencies(statuses []deps.Status) []DependencyStatus {
	if len(statuses) == 0 {
		return nil
	}
	out := make([]DependencyStatus, len(statuses))
	for i, s := range statuses {
		out[i] = DependencyStatus{
			Name:        s.Name,
			Command:     s.Command,
			Description: s.Description,
			Optional:    s.Optional,
			Available:   s.Available,
			Detail:      s.Detail,
		}
	}
	return out
}

// FromDatabaseHealth converts store diagnostics.
func FromDatabaseHealth(health store.DatabaseHealth) DatabaseHealth {
	return DatabaseHealth{
		Path:           health.DBPath,
		Exists:         health.DatabaseExists,
		Readable:       health.DatabaseReadable,
		SchemaVersion:  health.SchemaVersion,
		MissingTables:  health.MissingTables,
		IntegrityCheck: health.IntegrityCheck,
		PreferenceRows: health.PreferenceRows,
		UsageRows:      health.UsageRows,
		Error:          health.Error,
	}
}

// FromUsageRows converts store usage rows.
func FromUsageRows(rows []store.UsageRow) []UsageRow {
	if len(rows) == 0 {
		return nil
	}
	out := make([]UsageRow, len(rows))
	for i, row := range rows {
		out[i] = UsageRow{Day: row.Day, UserID: row.UserID, Downloads: row.Downloads, Bytes: row.Bytes}
	}
	return out
}

// FromScratchDirs converts scratch listings, summing the total size.
func FromScratchDirs(dirs []scratch.DirInfo) ScratchResponse {
	var resp ScratchResponse
	for _, dir := range dirs {
		resp.Dirs = append(resp.Dirs, ScratchDir{
			Name:     dir.Name,
			Path:     dir.Path,
			Size:     dir.Size,
			Modified: formatTime(dir.ModTime),
		})
		resp.TotalBytes += dir.Size
	}
	return resp
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
