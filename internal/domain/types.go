package domain

// JobStatus tracks each pipeline stage for a single transcription run.
type JobStatus string

const (
	JobStatusIdle         JobStatus = "idle"
	JobStatusDownloading  JobStatus = "downloading"
	JobStatusExtracting   JobStatus = "extracting"
	JobStatusTranscribing JobStatus = "transcribing"
	JobStatusDone         JobStatus = "done"
	JobStatusFailed       JobStatus = "failed"
)

// Settings contains persisted user defaults. CLI flags override them.
type Settings struct {
	OutputDir       string `json:"outputDir"`
	Model           string `json:"model"`
	Language        string `json:"language"`
	PreferQuantized bool   `json:"preferQuantized"`
}

// Job stores the current run identity and lifecycle status.
type Job struct {
	ID     string    `json:"id"`
	Status JobStatus `json:"status"`
}
