package domain

import "time"

// ProgressKind tags a progress event with its severity/category.
type ProgressKind string

const (
	ProgressStart      ProgressKind = "start"
	ProgressInfo       ProgressKind = "info"
	ProgressProcessing ProgressKind = "processing"
	ProgressWarning    ProgressKind = "warning"
	ProgressSuccess    ProgressKind = "success"
	ProgressError      ProgressKind = "error"
	ProgressComplete   ProgressKind = "complete"
	ProgressQueued     ProgressKind = "queued"
)

// ProgressEvent is the ephemeral payload broadcast to live observers.
// Events are UX feedback only, never control flow: there is no delivery
// guarantee, no buffering and no replay.
type ProgressEvent struct {
	JobID     uint         `json:"job_id"`
	Message   string       `json:"message"`
	Type      ProgressKind `json:"type"`
	Timestamp float64      `json:"timestamp"`
}

// NewProgressEvent stamps an event with the current unix time.
func NewProgressEvent(jobID uint, message string, kind ProgressKind) ProgressEvent {
	return ProgressEvent{
		JobID:     jobID,
		Message:   message,
		Type:      kind,
		Timestamp: float64(time.Now().UnixMilli()) / 1000.0,
	}
}
