// Package queue mirrors the submission queue and feeds the moderation and
// public views. One consumer interface, two transports: the realtime push
// channel on the panel, a REST poller on the public page.
package queue

// Submission lifecycle statuses.
const (
	StatusQueued     = "queued"
	StatusConverting = "converting"
	StatusPlaying    = "playing"
	StatusFailed     = "failed"
	StatusDone       = "done"
	StatusDeleted    = "deleted"
)

// Item is one queued track submission.
type Item struct {
	ID            int    `json:"id"`
	Artist        string `json:"artist,omitempty"`
	Title         string `json:"title,omitempty"`
	DisplayName   string `json:"display_name"`
	Priority      int    `json:"priority"`
	Status        string `json:"status"`
	QueuePosition *int   `json:"queue_position,omitempty"`
	CreatedAt     string `json:"created_at,omitempty"`
	DurationSec   *int   `json:"duration_sec,omitempty"`
	LinkedTrackID *int   `json:"linked_track_id,omitempty"`
	FileUUID      string `json:"file_uuid,omitempty"`
	AudioURL      string `json:"audio_url,omitempty"`
}

// StatePayload is the queue_state broadcast and the /api/queue snapshot.
type StatePayload struct {
	Items  []Item         `json:"items"`
	Counts map[string]int `json:"counts"`
	Active *Item          `json:"active,omitempty"`
}

// Events consumed by the queue view.
const (
	EventQueueState = "queue_state"
)

// FormatStatus renders a status for display.
func FormatStatus(status string) string {
	switch status {
	case StatusQueued:
		return "in queue"
	case StatusConverting:
		return "converting"
	case StatusFailed:
		return "failed"
	case "":
		return "—"
	default:
		return status
	}
}
