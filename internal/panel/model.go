// Package panel renders the judge rating panels as a view-model tree and
// keeps it current by applying targeted patches, so a consumer (terminal UI,
// overlay, web bridge) never rebuilds a control the user is holding.
package panel

import "github.com/Sqott47/track-rating/internal/score"

// Chip is one score pill: text, heat color and flame state.
type Chip struct {
	Text  string
	Style score.ChipStyle
}

// SliderRow is one criterion slider with its value chip.
type SliderRow struct {
	CriterionKey string
	Label        string
	Value        float64
	Disabled     bool
	Heat         score.HSL
	Chip         Chip
}

// Panel is one rater's card.
type Panel struct {
	RaterID      string
	UserID       string
	Name         string
	NameEditable bool
	Editable     bool
	OnFire       bool
	ShowKick     bool
	Rows         []*SliderRow
	Total        Chip
}

// View is the whole rendered surface: all panels plus the global total.
type View struct {
	TrackName string
	Panels    []*Panel
	Global    Chip
}

// Notice is a one-shot user-facing notification surfaced by a patch.
type Notice struct {
	Kind string
	Text string
}

// Verdict is the evaluation-result modal content: the overall score with a
// catchphrase for it and, when the track charted, a leaderboard badge.
type Verdict struct {
	TrackName string
	TrackURL  string
	QRURL     string
	Overall   string
	Phrase    string
	TopBadge  string
}
