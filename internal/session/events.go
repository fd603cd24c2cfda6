package session

import "encoding/json"

// Server-pushed event names consumed by the store. Handlers map 1:1 to these.
const (
	EventInitialState     = "initial_state"
	EventTrackNameChanged = "track_name_changed"
	EventRaterNameChanged = "rater_name_changed"
	EventSliderUpdated    = "slider_updated"
	EventRaterAdded       = "rater_added"
	EventRaterRemoved     = "rater_removed"
	EventEvaluationResult = "evaluation_result"
	EventStateReset       = "state_reset"
	EventRatingJoined     = "rating_joined"
	EventRatingLeft       = "rating_left"
	EventKicked           = "kicked"
	EventKickResult       = "kick_result"
	EventRatersPresence   = "raters_presence_updated"
)

// InitialStatePayload is the authoritative snapshot sent on connect and on
// state_reset.
type InitialStatePayload struct {
	TrackName string      `json:"track_name"`
	Criteria  []Criterion `json:"criteria"`
	Raters    []Rater     `json:"raters"`
}

type TrackNameChangedPayload struct {
	TrackName string `json:"track_name"`
}

type RaterNameChangedPayload struct {
	RaterID string `json:"rater_id"`
	Name    string `json:"name"`
}

type SliderUpdatedPayload struct {
	RaterID      string  `json:"rater_id"`
	CriterionKey string  `json:"criterion_key"`
	Value        float64 `json:"value"`
}

type RaterAddedPayload struct {
	Rater *Rater `json:"rater"`
}

type RaterRemovedPayload struct {
	RaterID string `json:"rater_id"`
}

type RatingJoinedPayload struct {
	RaterID  string `json:"rater_id"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

type KickResultPayload struct {
	OK      bool   `json:"ok"`
	Msg     string `json:"msg"`
	UserID  string `json:"user_id,omitempty"`
	RaterID string `json:"rater_id,omitempty"`
}

type PresencePayload struct {
	Raters []PresenceEntry `json:"raters"`
}

// RaterResult is one judge's line in the evaluation summary.
type RaterResult struct {
	ID      string             `json:"id"`
	Name    string             `json:"name"`
	Scores  map[string]float64 `json:"scores"`
	Average float64            `json:"average"`
}

// CriterionAverage is the cross-rater average for one criterion.
type CriterionAverage struct {
	Key     string  `json:"key"`
	Label   string  `json:"label"`
	Average float64 `json:"average"`
}

// EvaluationResultPayload is the final verdict broadcast after an admin
// triggers evaluate.
type EvaluationResultPayload struct {
	TrackID     int                `json:"track_id"`
	TrackName   string             `json:"track_name"`
	TrackURL    string             `json:"track_url"`
	QRURL       string             `json:"qr_url"`
	Raters      []RaterResult      `json:"raters"`
	Criteria    []CriterionAverage `json:"criteria"`
	Overall     float64            `json:"overall"`
	TopPosition int                `json:"top_position"`
}

func unmarshalPayload(data json.RawMessage, v interface{}) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}
