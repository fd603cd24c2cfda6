// Package realtime is the bidirectional event channel between this client
// and the rating server. The websocket transport is the default; a NATS
// source covers co-located deployments such as overlay sidecars.
package realtime

import "encoding/json"

// Envelope is the wire format: one JSON object per message.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Intent names emitted by this client.
const (
	IntentRequestInitialState = "request_initial_state"
	IntentRequestQueueState   = "request_queue_state"
	IntentEnterPanel          = "enter_panel"
	IntentLeavePanel          = "leave_panel"
	IntentChangeTrackName     = "change_track_name"
	IntentAddRater            = "add_rater"
	IntentJoinRating          = "join_rating"
	IntentRemoveRater         = "remove_rater"
	IntentLeaveRating         = "leave_rating"
	IntentChangeRaterName     = "change_rater_name"
	IntentChangeSlider        = "change_slider"
	IntentEvaluate            = "evaluate"
	IntentResetState          = "reset_state"
	IntentKickRater           = "kick_rater"
	IntentSetPriority         = "admin_set_submission_priority"
	IntentActivateSubmission  = "admin_activate_submission"
	IntentDeleteSubmission    = "admin_delete_submission"
	IntentPlaybackCmd         = "admin_playback_cmd"
)

// EventSource is a transport delivering server events in arrival order and
// accepting client intents. Implementations: websocket Client, NATSSource.
type EventSource interface {
	// Receive returns the inbound event stream. The channel is closed when
	// the transport goes away; no events are reordered or buffered across
	// reconnects.
	Receive() <-chan Envelope

	// Emit sends one intent. When the transport is down the intent is
	// dropped and logged; mutating actions degrade to inert, there is no
	// local queue-and-replay.
	Emit(event string, payload interface{}) error

	Close() error
}
