package queue

import (
	"testing"

	"github.com/Sqott47/track-rating/internal/realtime"
)

type captureSource struct {
	events   []string
	payloads []map[string]interface{}
}

func (s *captureSource) Receive() <-chan realtime.Envelope { return nil }

func (s *captureSource) Emit(event string, payload interface{}) error {
	s.events = append(s.events, event)
	s.payloads = append(s.payloads, payload.(map[string]interface{}))
	return nil
}

func (s *captureSource) Close() error { return nil }

func TestSetPriorityValidatesLevels(t *testing.T) {
	src := &captureSource{}
	m := NewModerator(src, nil)

	if err := m.SetPriority(7, 250); err == nil {
		t.Fatal("priority outside the fixed levels must be rejected")
	}
	if len(src.events) != 0 {
		t.Fatal("invalid priority still emitted")
	}

	if err := m.SetPriority(7, 300); err != nil {
		t.Fatalf("SetPriority: %v", err)
	}
	if src.events[0] != realtime.IntentSetPriority {
		t.Errorf("event = %q", src.events[0])
	}
	if src.payloads[0]["priority"] != 300 || src.payloads[0]["submission_id"] != 7 {
		t.Errorf("payload = %v", src.payloads[0])
	}
}

func TestActivate(t *testing.T) {
	src := &captureSource{}
	m := NewModerator(src, nil)

	if err := m.Activate(3, true); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if src.events[0] != realtime.IntentActivateSubmission {
		t.Errorf("event = %q", src.events[0])
	}
	if src.payloads[0]["autoplay"] != true {
		t.Errorf("payload = %v", src.payloads[0])
	}
}

func TestDeleteHonorsConfirmation(t *testing.T) {
	src := &captureSource{}
	declined := NewModerator(src, func(string) bool { return false })
	if err := declined.Delete(Item{ID: 4, DisplayName: "MC Test — Gas"}); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(src.events) != 0 {
		t.Fatal("declined confirmation still emitted delete")
	}

	accepted := NewModerator(src, func(prompt string) bool { return true })
	if err := accepted.Delete(Item{ID: 4, DisplayName: "MC Test — Gas"}); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(src.events) != 1 || src.events[0] != realtime.IntentDeleteSubmission {
		t.Errorf("events = %v", src.events)
	}
}
