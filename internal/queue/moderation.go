package queue

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/Sqott47/track-rating/internal/realtime"
)

// Moderator emits queue moderation intents. Available to admin and judge
// roles; the server enforces authorization on its side as well.
type Moderator struct {
	source realtime.EventSource

	// confirm asks the user before destructive actions. nil skips the
	// prompt (headless/bot usage).
	confirm func(prompt string) bool
}

// NewModerator creates a moderator over an event source.
func NewModerator(source realtime.EventSource, confirm func(string) bool) *Moderator {
	return &Moderator{source: source, confirm: confirm}
}

// SetPriority changes a submission's donation priority. The value must be
// one of PriorityLevels.
func (m *Moderator) SetPriority(itemID, priority int) error {
	if !validPriority(priority) {
		return fmt.Errorf("invalid priority %d", priority)
	}
	return m.source.Emit(realtime.IntentSetPriority, map[string]interface{}{
		"submission_id": itemID,
		"priority":      priority,
	})
}

// Activate makes a submission the active track, optionally starting
// playback for everyone.
func (m *Moderator) Activate(itemID int, autoplay bool) error {
	return m.source.Emit(realtime.IntentActivateSubmission, map[string]interface{}{
		"submission_id": itemID,
		"autoplay":      autoplay,
	})
}

// Delete removes a submission from the queue after confirmation.
func (m *Moderator) Delete(item Item) error {
	if m.confirm != nil && !m.confirm(fmt.Sprintf("Remove %q from the queue?", displayName(item))) {
		log.Debug().Int("submission_id", item.ID).Msg("delete cancelled")
		return nil
	}
	return m.source.Emit(realtime.IntentDeleteSubmission, map[string]interface{}{
		"submission_id": item.ID,
	})
}

func validPriority(p int) bool {
	for _, lvl := range PriorityLevels {
		if p == lvl {
			return true
		}
	}
	return false
}
