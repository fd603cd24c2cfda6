package queue

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jonboulle/clockwork"
)

// PriorityLevels are the donation-priority steps offered by the moderation
// dropdown.
var PriorityLevels = []int{0, 100, 200, 300, 400}

// Row is one rendered queue line.
type Row struct {
	ItemID      int
	Position    string
	Title       string
	Priority    int
	StatusLabel string
	Age         string

	// Moderation affordances; zero-valued on the public surface.
	ShowControls    bool
	PriorityOptions []int
	CanActivate     bool
}

// RenderedView is the queue as a consumer sees it after one render pass.
type RenderedView struct {
	Rows       []Row
	QueuedMeta string
	ActiveName string
	Empty      bool
}

// View renders StatePayloads into RenderedViews. It is the single consumer
// behind both transports; moderation controls appear only for
// moderator-capable roles.
type View struct {
	clock     clockwork.Clock
	moderator bool

	last StatePayload
}

// NewView creates a queue view. moderator enables priority/activate/delete
// affordances in rendered rows.
func NewView(clock clockwork.Clock, moderator bool) *View {
	return &View{clock: clock, moderator: moderator}
}

// Render builds the full view from a payload and remembers it as the last
// known state.
func (v *View) Render(p StatePayload) RenderedView {
	v.last = p
	now := v.clock.Now()

	out := RenderedView{Empty: len(p.Items) == 0}
	if p.Active != nil {
		out.ActiveName = p.Active.DisplayName
	} else {
		out.ActiveName = "—"
	}
	out.QueuedMeta = fmt.Sprintf("%d in queue", p.Counts[StatusQueued])

	for _, item := range p.Items {
		row := Row{
			ItemID:      item.ID,
			Position:    positionLabel(item.QueuePosition),
			Title:       displayName(item),
			Priority:    item.Priority,
			StatusLabel: FormatStatus(item.Status),
			Age:         ageLabel(item.CreatedAt, now),
		}
		if v.moderator {
			row.ShowControls = true
			row.PriorityOptions = PriorityLevels
			row.CanActivate = item.Status == StatusQueued
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}

// Last returns the most recently rendered payload.
func (v *View) Last() StatePayload {
	return v.last
}

func positionLabel(pos *int) string {
	if pos == nil {
		return "—"
	}
	return fmt.Sprintf("#%d", *pos)
}

func displayName(item Item) string {
	if item.DisplayName != "" {
		return item.DisplayName
	}
	if item.Artist != "" && item.Title != "" {
		return item.Artist + " — " + item.Title
	}
	return "—"
}

// ageLabel renders a submission's age relative to now ("3 minutes ago").
// Unparseable timestamps render as a dash; the server sends ISO 8601.
func ageLabel(createdAt string, now time.Time) string {
	if createdAt == "" {
		return "—"
	}
	t, err := parseServerTime(createdAt)
	if err != nil {
		return "—"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

func parseServerTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
