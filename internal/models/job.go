// Package models defines data structures for the Axio Hub client.
package models

import "time"

// Provider identifies the source a job ingests from.
type Provider string

const (
	ProviderFile   Provider = "file"
	ProviderWeb    Provider = "web"
	ProviderDrive  Provider = "drive"
	ProviderNotion Provider = "notion"
)

// JobStatus represents the lifecycle state of an ingestion job.
type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// Terminal reports whether the status is a final state. Terminal jobs are
// never mutated again server-side.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// Active reports whether the job should appear in the active feed.
func (s JobStatus) Active() bool {
	return s == JobPending || s == JobProcessing
}

// Job represents one asynchronous ingestion task tracked by the backend.
// The client holds an eventually-consistent copy, reconciled by poll or push.
type Job struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	Provider       Provider  `json:"provider"`
	TotalFiles     int       `json:"total_files"`
	ProcessedFiles int       `json:"processed_files"`
	Status         JobStatus `json:"status"`
	ErrorMessage   *string   `json:"error_message,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	// Dismissed hides a terminal job locally. Never sent to the backend.
	Dismissed bool `json:"-"`
}

// Percent returns processing progress in [0, 100]. A job whose total is not
// yet known reports 0 rather than dividing by zero.
func (j Job) Percent() float64 {
	if j.TotalFiles <= 0 {
		return 0
	}
	return float64(j.ProcessedFiles) / float64(j.TotalFiles) * 100
}
