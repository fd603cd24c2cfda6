package queue

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func intPtr(v int) *int { return &v }

func samplePayload() StatePayload {
	return StatePayload{
		Items: []Item{
			{
				ID:            1,
				DisplayName:   "MC Test — Gas",
				Priority:      100,
				Status:        StatusQueued,
				QueuePosition: intPtr(1),
				CreatedAt:     "2026-08-30T11:57:00Z",
			},
			{
				ID:       2,
				Artist:   "Froggy",
				Title:    "Swamp Anthem",
				Priority: 0,
				Status:   StatusConverting,
			},
		},
		Counts: map[string]int{StatusQueued: 1},
		Active: &Item{ID: 9, DisplayName: "Current Banger", Status: StatusPlaying},
	}
}

func TestViewRender(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC))
	v := NewView(clock, false)

	out := v.Render(samplePayload())
	if out.Empty {
		t.Error("view with items marked empty")
	}
	if out.ActiveName != "Current Banger" {
		t.Errorf("active = %q", out.ActiveName)
	}
	if out.QueuedMeta != "1 in queue" {
		t.Errorf("meta = %q", out.QueuedMeta)
	}
	if len(out.Rows) != 2 {
		t.Fatalf("got %d rows", len(out.Rows))
	}

	first := out.Rows[0]
	if first.Position != "#1" || first.Title != "MC Test — Gas" {
		t.Errorf("row = %+v", first)
	}
	if first.StatusLabel != "in queue" {
		t.Errorf("status label = %q", first.StatusLabel)
	}
	if first.Age != "3 minutes ago" {
		t.Errorf("age = %q", first.Age)
	}
	if first.ShowControls {
		t.Error("non-moderator rows must not show controls")
	}

	second := out.Rows[1]
	if second.Title != "Froggy — Swamp Anthem" {
		t.Errorf("artist/title fallback = %q", second.Title)
	}
	if second.Position != "—" || second.Age != "—" {
		t.Errorf("missing fields should dash out: %+v", second)
	}
}

func TestViewModeratorControls(t *testing.T) {
	clock := clockwork.NewFakeClock()
	v := NewView(clock, true)

	out := v.Render(samplePayload())
	queued, converting := out.Rows[0], out.Rows[1]
	if !queued.ShowControls || !converting.ShowControls {
		t.Fatal("moderator rows should show controls")
	}
	if !queued.CanActivate {
		t.Error("queued submission should be activatable")
	}
	if converting.CanActivate {
		t.Error("converting submission must not be activatable")
	}
	if len(queued.PriorityOptions) != len(PriorityLevels) {
		t.Errorf("priority options = %v", queued.PriorityOptions)
	}
}

func TestViewEmptyQueue(t *testing.T) {
	v := NewView(clockwork.NewFakeClock(), false)
	out := v.Render(StatePayload{})
	if !out.Empty {
		t.Error("empty payload should render empty")
	}
	if out.ActiveName != "—" {
		t.Errorf("active = %q", out.ActiveName)
	}
}

func TestParseServerTimeVariants(t *testing.T) {
	variants := []string{
		"2026-08-30T11:57:00Z",
		"2026-08-30T11:57:00",
		"2026-08-30 11:57:00",
		"2026-08-30",
	}
	for _, s := range variants {
		if _, err := parseServerTime(s); err != nil {
			t.Errorf("parseServerTime(%q): %v", s, err)
		}
	}
	if _, err := parseServerTime("yesterday"); err == nil {
		t.Error("garbage timestamp should fail")
	}
}
