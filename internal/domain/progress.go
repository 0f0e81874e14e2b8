package domain

// EventKind tags one parsed unit of yt-dlp output. The tool's text output
// is not a stable contract, so anything unrecognized simply produces no
// event at all.
type EventKind string

const (
	EventDownloadProgress EventKind = "download_progress"
	EventStageChange      EventKind = "stage_change"
	EventWarning          EventKind = "warning"
	EventError            EventKind = "error"
	EventProcessExited    EventKind = "process_exited"
)

// Stage labels reported through StageChange events
const (
	StageDownloading       = "downloading"
	StageMerging           = "merging"
	StageExtractingAudio   = "extracting-audio"
	StageEmbeddingSubs     = "embedding-subtitles"
	StageAlreadyDownloaded = "already-downloaded"
)

// ProgressEvent is one structured unit parsed from a single output line.
// Transient: it updates the owning job's snapshot and the output log, then
// is discarded. Fields are populated per Kind; Percent stays nil when the
// line carried no percentage rather than defaulting to zero.
type ProgressEvent struct {
	Kind     EventKind `json:"kind"`
	Percent  *float64  `json:"percent,omitempty"`
	Rate     string    `json:"rate,omitempty"`
	ETA      string    `json:"eta,omitempty"`
	Size     string    `json:"size,omitempty"`
	Stage    string    `json:"stage,omitempty"`
	Text     string    `json:"text,omitempty"`
	ExitCode int       `json:"exit_code,omitempty"`
}
