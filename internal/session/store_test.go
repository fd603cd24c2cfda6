package session

import (
	"encoding/json"
	"testing"
)

func mustApply(t *testing.T, s *Store, event string, payload interface{}) []Patch {
	t.Helper()
	var data json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		data = b
	}
	patches, err := s.Apply(event, data)
	if err != nil {
		t.Fatalf("Apply(%s): %v", event, err)
	}
	return patches
}

func seededStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore()
	mustApply(t, s, EventInitialState, InitialStatePayload{
		TrackName: "Demo Track",
		Raters: []Rater{
			{ID: "r1", Name: "Judge 1", Order: 0, Scores: map[string]float64{"rhyme": 5}},
			{ID: "r2", Name: "Judge 2", Order: 1},
			{ID: "r3", Name: "Judge 3", Order: 2},
		},
	})
	return s
}

func TestInitialStateSnapshot(t *testing.T) {
	s := seededStore(t)

	snap := s.Snapshot()
	if snap.TrackName != "Demo Track" {
		t.Errorf("track name = %q", snap.TrackName)
	}
	if len(snap.Raters) != 3 {
		t.Fatalf("got %d raters, want 3", len(snap.Raters))
	}
	if snap.Raters[0].ID != "r1" || snap.Raters[2].ID != "r3" {
		t.Errorf("raters not sorted by order: %v", snap.Raters)
	}
	if len(snap.Criteria) != 5 {
		t.Errorf("got %d criteria, want default 5", len(snap.Criteria))
	}
}

func TestSliderUpdateIdempotent(t *testing.T) {
	s := seededStore(t)
	payload := SliderUpdatedPayload{RaterID: "r1", CriterionKey: "vibe", Value: 8.5}

	mustApply(t, s, EventSliderUpdated, payload)
	first, _ := s.Rater("r1")

	mustApply(t, s, EventSliderUpdated, payload)
	second, _ := s.Rater("r1")

	if first.Scores["vibe"] != 8.5 || second.Scores["vibe"] != 8.5 {
		t.Errorf("scores after replay: %v then %v", first.Scores, second.Scores)
	}
}

func TestSliderClamped(t *testing.T) {
	s := seededStore(t)
	patches := mustApply(t, s, EventSliderUpdated, SliderUpdatedPayload{RaterID: "r1", CriterionKey: "vibe", Value: 14})

	r, _ := s.Rater("r1")
	if r.Scores["vibe"] != 10 {
		t.Errorf("score = %v, want clamped 10", r.Scores["vibe"])
	}
	slider, ok := patches[0].(SliderPatch)
	if !ok || slider.Value != 10 {
		t.Errorf("patch %v should carry the clamped value", patches[0])
	}
}

func TestSliderLastWriterWins(t *testing.T) {
	s := seededStore(t)
	s.SetLocalSlider("r1", "vibe", 3)
	mustApply(t, s, EventSliderUpdated, SliderUpdatedPayload{RaterID: "r1", CriterionKey: "vibe", Value: 7})

	r, _ := s.Rater("r1")
	if r.Scores["vibe"] != 7 {
		t.Errorf("score = %v, remote write should win", r.Scores["vibe"])
	}
}

func TestUnknownRaterIsNoOp(t *testing.T) {
	s := seededStore(t)
	patches := mustApply(t, s, EventSliderUpdated, SliderUpdatedPayload{RaterID: "ghost", CriterionKey: "vibe", Value: 7})
	if patches != nil {
		t.Errorf("got patches %v for unknown rater", patches)
	}
	patches = mustApply(t, s, EventRaterNameChanged, RaterNameChangedPayload{RaterID: "ghost", Name: "x"})
	if patches != nil {
		t.Errorf("got patches %v for unknown rater rename", patches)
	}
}

func TestRaterRemovedReordersDensely(t *testing.T) {
	s := seededStore(t)
	mustApply(t, s, EventRaterRemoved, RaterRemovedPayload{RaterID: "r2"})

	snap := s.Snapshot()
	if len(snap.Raters) != 2 {
		t.Fatalf("got %d raters, want 2", len(snap.Raters))
	}
	for i, r := range snap.Raters {
		if r.Order != i {
			t.Errorf("rater %s order = %d, want %d", r.ID, r.Order, i)
		}
	}

	// Removing again is a no-op.
	patches := mustApply(t, s, EventRaterRemoved, RaterRemovedPayload{RaterID: "r2"})
	if patches != nil {
		t.Errorf("second removal produced patches %v", patches)
	}
}

func TestStateResetKeepsMembership(t *testing.T) {
	s := seededStore(t)
	mustApply(t, s, EventRatingJoined, RatingJoinedPayload{RaterID: "r1", UserID: "u1", Username: "sqott"})

	mustApply(t, s, EventStateReset, InitialStatePayload{
		TrackName: "",
		Raters: []Rater{
			{ID: "r1", Name: "Judge 1", Order: 0},
		},
	})

	m := s.Membership()
	if !m.Joined || m.RaterID != "r1" || m.UserID != "u1" {
		t.Errorf("membership lost on reset: %+v", m)
	}
	r, _ := s.Rater("r1")
	if len(r.Scores) != 0 {
		t.Errorf("scores survived reset: %v", r.Scores)
	}
}

func TestMembershipTransitions(t *testing.T) {
	s := seededStore(t)

	mustApply(t, s, EventRatingJoined, RatingJoinedPayload{RaterID: "r2", UserID: "u1", Username: "sqott"})
	if m := s.Membership(); !m.Joined || m.RaterID != "r2" {
		t.Fatalf("after join: %+v", m)
	}

	mustApply(t, s, EventRatingLeft, nil)
	if m := s.Membership(); m.Joined || m.RaterID != "" {
		t.Errorf("after leave: %+v", m)
	}

	mustApply(t, s, EventRatingJoined, RatingJoinedPayload{RaterID: "r3", UserID: "u1", Username: "sqott"})
	patches := mustApply(t, s, EventKicked, nil)
	if m := s.Membership(); m.Joined {
		t.Errorf("after kick: %+v", m)
	}
	foundNotice := false
	for _, p := range patches {
		if n, ok := p.(NoticePatch); ok && n.Kind == "kicked" {
			foundNotice = true
		}
	}
	if !foundNotice {
		t.Error("kick produced no notice patch")
	}
}

func TestRaterAddedFullRender(t *testing.T) {
	s := seededStore(t)
	patches := mustApply(t, s, EventRaterAdded, RaterAddedPayload{
		Rater: &Rater{ID: "r4", Name: "Judge 4", Order: 3},
	})
	if len(patches) != 1 {
		t.Fatalf("got %d patches, want 1", len(patches))
	}
	if _, ok := patches[0].(FullRender); !ok {
		t.Errorf("patch %T, want FullRender", patches[0])
	}
	if _, ok := s.Rater("r4"); !ok {
		t.Error("rater r4 not stored")
	}
}

func TestUnknownEventSkipped(t *testing.T) {
	s := seededStore(t)
	patches, err := s.Apply("totally_new_event", json.RawMessage(`{"x":1}`))
	if err != nil || patches != nil {
		t.Errorf("unknown event: patches=%v err=%v", patches, err)
	}
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	s := seededStore(t)
	snap := s.Snapshot()
	snap.Raters[0].Scores["rhyme"] = 999

	r, _ := s.Rater("r1")
	if r.Scores["rhyme"] != 5 {
		t.Errorf("store mutated through snapshot: %v", r.Scores)
	}
}
