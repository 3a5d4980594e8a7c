package entity

// JobStatus is the lifecycle state of one bulk-run job.
type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobInProgress JobStatus = "in_progress"
	JobComplete   JobStatus = "complete"
	JobError      JobStatus = "error"
	JobSkipped    JobStatus = "skipped"
)

// Terminal reports whether the status ends the job's lifecycle for this run.
// Error is terminal only once retries are exhausted; the orchestrator tracks
// that, the status itself does not.
func (s JobStatus) Terminal() bool {
	return s == JobComplete || s == JobError || s == JobSkipped
}

// Job is one queued attempt to process a single retailer. Jobs live only for
// the duration of a bulk run.
type Job struct {
	RetailerID    string
	Status        JobStatus
	Message       string
	AttemptCount  int
	ContextHandle string // opaque; non-empty only while a context is held
}

// JobStatusEntry is the subscriber-facing view of one job.
type JobStatusEntry struct {
	Status  JobStatus `json:"status"`
	Message string    `json:"message"`
}

// Broadcast action tags.
const (
	ActionBulkUpdate   = "bulkProcessUpdate"
	ActionBulkComplete = "bulkProcessComplete"
)

// StatusBroadcast is the payload pushed to subscribers on every transition
// and once more, with the terminal action, when the run settles.
type StatusBroadcast struct {
	Action   string                    `json:"action"`
	Statuses map[string]JobStatusEntry `json:"statuses"`
}
