package session

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
)

// Store is the local mirror of the server-authoritative rating state. Every
// server event has exactly one handler; remote updates always overwrite the
// local value for the same key (last-writer-wins, no merge). Applying the
// same event twice leaves the state unchanged, which makes reconnect replays
// safe.
type Store struct {
	mu sync.RWMutex

	trackName  string
	criteria   []Criterion
	raters     map[string]*Rater
	membership Membership
	presence   []PresenceEntry
}

// NewStore creates an empty store seeded with the default criteria set.
func NewStore() *Store {
	return &Store{
		criteria: DefaultCriteria(),
		raters:   make(map[string]*Rater),
	}
}

// Apply routes a server event to its handler and returns the view patches it
// produced. Unknown events are logged and skipped; they are not an error.
func (s *Store) Apply(event string, data json.RawMessage) ([]Patch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch event {
	case EventInitialState:
		return s.applySnapshot(data, false)
	case EventStateReset:
		return s.applySnapshot(data, true)
	case EventTrackNameChanged:
		return s.applyTrackName(data)
	case EventRaterNameChanged:
		return s.applyRaterName(data)
	case EventSliderUpdated:
		return s.applySlider(data)
	case EventRaterAdded:
		return s.applyRaterAdded(data)
	case EventRaterRemoved:
		return s.applyRaterRemoved(data)
	case EventEvaluationResult:
		return s.applyEvaluation(data)
	case EventRatingJoined:
		return s.applyRatingJoined(data)
	case EventRatingLeft:
		return s.applyRatingLeft()
	case EventKicked:
		return s.applyKicked()
	case EventKickResult:
		return s.applyKickResult(data)
	case EventRatersPresence:
		return s.applyPresence(data)
	default:
		log.Debug().Str("event", event).Msg("unhandled session event")
		return nil, nil
	}
}

func (s *Store) applySnapshot(data json.RawMessage, reset bool) ([]Patch, error) {
	var payload InitialStatePayload
	if err := unmarshalPayload(data, &payload); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}

	s.trackName = payload.TrackName
	if len(payload.Criteria) > 0 {
		s.criteria = payload.Criteria
	}
	s.raters = make(map[string]*Rater, len(payload.Raters))
	for i := range payload.Raters {
		r := payload.Raters[i]
		if r.Scores == nil {
			r.Scores = make(map[string]float64)
		}
		for k, v := range r.Scores {
			r.Scores[k] = clampScore(v)
		}
		s.raters[r.ID] = &r
	}

	patches := []Patch{TrackNamePatch{TrackName: s.trackName}, FullRender{}}
	if reset {
		// A reset rebinds nothing; membership survives, scores go to zero.
		patches = append(patches, EditabilityPatch{})
	}
	return patches, nil
}

func (s *Store) applyTrackName(data json.RawMessage) ([]Patch, error) {
	var payload TrackNameChangedPayload
	if err := unmarshalPayload(data, &payload); err != nil {
		return nil, fmt.Errorf("unmarshal track name: %w", err)
	}
	s.trackName = payload.TrackName
	return []Patch{TrackNamePatch{TrackName: s.trackName}}, nil
}

func (s *Store) applyRaterName(data json.RawMessage) ([]Patch, error) {
	var payload RaterNameChangedPayload
	if err := unmarshalPayload(data, &payload); err != nil {
		return nil, fmt.Errorf("unmarshal rater name: %w", err)
	}
	rater, ok := s.raters[payload.RaterID]
	if !ok {
		return nil, nil
	}
	rater.Name = payload.Name
	return []Patch{RaterNamePatch{RaterID: payload.RaterID, Name: payload.Name}}, nil
}

func (s *Store) applySlider(data json.RawMessage) ([]Patch, error) {
	var payload SliderUpdatedPayload
	if err := unmarshalPayload(data, &payload); err != nil {
		return nil, fmt.Errorf("unmarshal slider update: %w", err)
	}
	rater, ok := s.raters[payload.RaterID]
	if !ok {
		return nil, nil
	}
	if rater.Scores == nil {
		rater.Scores = make(map[string]float64)
	}
	value := clampScore(payload.Value)
	rater.Scores[payload.CriterionKey] = value
	return []Patch{
		SliderPatch{RaterID: payload.RaterID, CriterionKey: payload.CriterionKey, Value: value},
		TotalsPatch{},
	}, nil
}

func (s *Store) applyRaterAdded(data json.RawMessage) ([]Patch, error) {
	var payload RaterAddedPayload
	if err := unmarshalPayload(data, &payload); err != nil {
		return nil, fmt.Errorf("unmarshal rater added: %w", err)
	}
	if payload.Rater == nil {
		return nil, nil
	}
	r := *payload.Rater
	if r.Scores == nil {
		r.Scores = make(map[string]float64)
	}
	s.raters[r.ID] = &r
	return []Patch{FullRender{}}, nil
}

func (s *Store) applyRaterRemoved(data json.RawMessage) ([]Patch, error) {
	var payload RaterRemovedPayload
	if err := unmarshalPayload(data, &payload); err != nil {
		return nil, fmt.Errorf("unmarshal rater removed: %w", err)
	}
	if _, ok := s.raters[payload.RaterID]; !ok {
		return nil, nil
	}
	delete(s.raters, payload.RaterID)
	s.reorderLocked()
	return []Patch{RaterRemovedPatch{RaterID: payload.RaterID}, TotalsPatch{}}, nil
}

func (s *Store) applyEvaluation(data json.RawMessage) ([]Patch, error) {
	var payload EvaluationResultPayload
	if err := unmarshalPayload(data, &payload); err != nil {
		return nil, fmt.Errorf("unmarshal evaluation result: %w", err)
	}
	return []Patch{TotalsPatch{}, EvaluationPatch{Result: payload}}, nil
}

func (s *Store) applyRatingJoined(data json.RawMessage) ([]Patch, error) {
	var payload RatingJoinedPayload
	if err := unmarshalPayload(data, &payload); err != nil {
		return nil, fmt.Errorf("unmarshal rating joined: %w", err)
	}
	s.membership = Membership{
		UserID:   payload.UserID,
		Username: payload.Username,
		RaterID:  payload.RaterID,
		Joined:   true,
	}
	return []Patch{EditabilityPatch{}}, nil
}

func (s *Store) applyRatingLeft() ([]Patch, error) {
	s.membership.Joined = false
	s.membership.RaterID = ""
	return []Patch{EditabilityPatch{}}, nil
}

func (s *Store) applyKicked() ([]Patch, error) {
	s.membership.Joined = false
	s.membership.RaterID = ""
	return []Patch{
		EditabilityPatch{},
		NoticePatch{Kind: "kicked", Text: "You were removed from the rating panel"},
	}, nil
}

func (s *Store) applyKickResult(data json.RawMessage) ([]Patch, error) {
	var payload KickResultPayload
	if err := unmarshalPayload(data, &payload); err != nil {
		return nil, fmt.Errorf("unmarshal kick result: %w", err)
	}
	kind := "kick_ok"
	text := "Rater kicked"
	if !payload.OK {
		kind = "kick_failed"
		text = "Kick failed: " + payload.Msg
	}
	return []Patch{NoticePatch{Kind: kind, Text: text}}, nil
}

func (s *Store) applyPresence(data json.RawMessage) ([]Patch, error) {
	var payload PresencePayload
	if err := unmarshalPayload(data, &payload); err != nil {
		return nil, fmt.Errorf("unmarshal presence: %w", err)
	}
	s.presence = payload.Raters
	return []Patch{PresenceUpdatedPatch{Raters: payload.Raters}}, nil
}

// SetLocalSlider applies an optimistic local slider mutation ahead of the
// server broadcast. The caller is expected to emit change_slider with the
// same values; the echoed slider_updated then reapplies them idempotently.
func (s *Store) SetLocalSlider(raterID, criterionKey string, value float64) []Patch {
	s.mu.Lock()
	defer s.mu.Unlock()

	rater, ok := s.raters[raterID]
	if !ok {
		return nil
	}
	if rater.Scores == nil {
		rater.Scores = make(map[string]float64)
	}
	v := clampScore(value)
	rater.Scores[criterionKey] = v
	return []Patch{
		SliderPatch{RaterID: raterID, CriterionKey: criterionKey, Value: v},
		TotalsPatch{},
	}
}

// reorderLocked re-densifies rater order after a removal.
func (s *Store) reorderLocked() {
	ordered := make([]*Rater, 0, len(s.raters))
	for _, r := range s.raters {
		ordered = append(ordered, r)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Order < ordered[j].Order })
	for idx, r := range ordered {
		r.Order = idx
	}
}

// Snapshot returns a deep copy of the current state, raters sorted by order.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	raters := make([]Rater, 0, len(s.raters))
	for _, r := range s.raters {
		cp := *r
		cp.Scores = make(map[string]float64, len(r.Scores))
		for k, v := range r.Scores {
			cp.Scores[k] = v
		}
		raters = append(raters, cp)
	}
	sort.Slice(raters, func(i, j int) bool { return raters[i].Order < raters[j].Order })

	criteria := make([]Criterion, len(s.criteria))
	copy(criteria, s.criteria)

	presence := make([]PresenceEntry, len(s.presence))
	copy(presence, s.presence)

	return Snapshot{
		TrackName:  s.trackName,
		Criteria:   criteria,
		Raters:     raters,
		Membership: s.membership,
		Presence:   presence,
	}
}

// TrackName returns the current session track name.
func (s *Store) TrackName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.trackName
}

// Membership returns this client's current rating-session binding.
func (s *Store) Membership() Membership {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.membership
}

// Rater returns a copy of one rater slot.
func (s *Store) Rater(id string) (Rater, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.raters[id]
	if !ok {
		return Rater{}, false
	}
	cp := *r
	cp.Scores = make(map[string]float64, len(r.Scores))
	for k, v := range r.Scores {
		cp.Scores[k] = v
	}
	return cp, true
}
