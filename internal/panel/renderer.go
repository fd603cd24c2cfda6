package panel

import (
	"math/rand"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/Sqott47/track-rating/internal/score"
	"github.com/Sqott47/track-rating/internal/session"
)

// Renderer owns the panel view-model. RenderAll rebuilds it from a store
// snapshot; Apply performs targeted in-place updates for everything else.
//
// In the access-controlled variant a panel is editable iff the viewing
// client's bound identity matches the rater's assigned identity and the
// client is currently joined. In the open variant every panel is editable.
type Renderer struct {
	store            *session.Store
	clock            clockwork.Clock
	admin            bool
	accessControlled bool

	view *View

	// raterID whose name input currently has focus; remote name updates
	// skip it so a caret is never yanked mid-edit.
	focusedName string

	notices []Notice
	result  *session.EvaluationResultPayload
	verdict *Verdict
	rng     *rand.Rand
}

// NewRenderer creates a renderer over a session store. accessControlled
// selects the single-owner-per-rater editability rules; admin enables the
// kick affordance.
func NewRenderer(store *session.Store, clock clockwork.Clock, admin, accessControlled bool) *Renderer {
	return &Renderer{
		store:            store,
		clock:            clock,
		admin:            admin,
		accessControlled: accessControlled,
		view:             &View{},
		rng:              rand.New(rand.NewSource(clock.Now().UnixNano())),
	}
}

// View returns the current view-model. The tree is mutated in place by
// Apply; consumers diffing by pointer identity can detect untouched panels.
func (r *Renderer) View() *View {
	return r.view
}

// TakeNotices drains accumulated one-shot notifications.
func (r *Renderer) TakeNotices() []Notice {
	n := r.notices
	r.notices = nil
	return n
}

// LastResult returns the most recent evaluation result payload, if any.
func (r *Renderer) LastResult() *session.EvaluationResultPayload {
	return r.result
}

// Verdict returns the rendered result modal for the most recent evaluation,
// or nil before the first one.
func (r *Renderer) Verdict() *Verdict {
	return r.verdict
}

// SetNameFocus marks a rater-name input as focused; ClearNameFocus releases
// it. Remote rater_name_changed patches leave a focused input alone.
func (r *Renderer) SetNameFocus(raterID string) { r.focusedName = raterID }

// ClearNameFocus releases the focused name input.
func (r *Renderer) ClearNameFocus() { r.focusedName = "" }

// RenderAll rebuilds the full view-model from the store.
func (r *Renderer) RenderAll() *View {
	snap := r.store.Snapshot()

	panels := make([]*Panel, 0, len(snap.Raters))
	for i := range snap.Raters {
		panels = append(panels, r.buildPanel(&snap.Raters[i], snap))
	}

	r.view.TrackName = snap.TrackName
	r.view.Panels = panels
	r.updateTotals()
	return r.view
}

// Apply performs targeted updates for a batch of store patches.
func (r *Renderer) Apply(patches []session.Patch) {
	for _, p := range patches {
		switch p := p.(type) {
		case session.FullRender:
			r.RenderAll()
		case session.TrackNamePatch:
			r.view.TrackName = p.TrackName
		case session.RaterNamePatch:
			if p.RaterID == r.focusedName {
				continue
			}
			if panel := r.findPanel(p.RaterID); panel != nil {
				panel.Name = p.Name
			}
		case session.SliderPatch:
			r.applySlider(p)
		case session.RaterRemovedPatch:
			r.removePanel(p.RaterID)
		case session.TotalsPatch:
			r.updateTotals()
		case session.EditabilityPatch:
			r.updateEditability()
		case session.EvaluationPatch:
			result := p.Result
			r.result = &result
			r.verdict = &Verdict{
				TrackName: result.TrackName,
				TrackURL:  result.TrackURL,
				QRURL:     result.QRURL,
				Overall:   score.Display(result.Overall),
				Phrase:    score.MemePhrase(result.Overall, r.rng),
				TopBadge:  score.TopRankLabel(result.TopPosition),
			}
		case session.NoticePatch:
			r.notices = append(r.notices, Notice{Kind: p.Kind, Text: p.Text})
		case session.PresenceUpdatedPatch:
			// Presence feeds the join/leave header, not the panels.
		default:
			log.Debug().Msgf("unhandled panel patch %T", p)
		}
	}
}

func (r *Renderer) buildPanel(rater *session.Rater, snap session.Snapshot) *Panel {
	now := r.clock.Now()
	p := &Panel{
		RaterID:      rater.ID,
		UserID:       rater.UserID,
		Name:         rater.Name,
		NameEditable: !r.accessControlled,
		ShowKick:     r.admin && r.accessControlled,
	}
	p.Editable = r.editableFor(rater, snap.Membership)

	for _, c := range snap.Criteria {
		v := rater.Scores[c.Key]
		row := &SliderRow{
			CriterionKey: c.Key,
			Label:        c.Label,
			Value:        v,
			Disabled:     !p.Editable,
			Heat:         score.HeatColorForScore(v),
			Chip: Chip{
				Text:  score.Display(v),
				Style: score.ChipStyleForScore(v, now),
			},
		}
		p.Rows = append(p.Rows, row)
	}
	return p
}

func (r *Renderer) editableFor(rater *session.Rater, m session.Membership) bool {
	if !r.accessControlled {
		return true
	}
	if !m.Joined {
		return false
	}
	if rater.UserID != "" {
		return rater.UserID == m.UserID
	}
	return rater.ID == m.RaterID
}

func (r *Renderer) findPanel(raterID string) *Panel {
	for _, p := range r.view.Panels {
		if p.RaterID == raterID {
			return p
		}
	}
	return nil
}

func (r *Renderer) applySlider(patch session.SliderPatch) {
	panel := r.findPanel(patch.RaterID)
	if panel == nil {
		return
	}
	now := r.clock.Now()
	for _, row := range panel.Rows {
		if row.CriterionKey != patch.CriterionKey {
			continue
		}
		row.Value = patch.Value
		row.Heat = score.HeatColorForScore(patch.Value)
		row.Chip = Chip{
			Text:  score.Display(patch.Value),
			Style: score.ChipStyleForScore(patch.Value, now),
		}
		return
	}
}

func (r *Renderer) removePanel(raterID string) {
	panels := r.view.Panels
	for i, p := range panels {
		if p.RaterID == raterID {
			r.view.Panels = append(panels[:i], panels[i+1:]...)
			return
		}
	}
}

// updateTotals recomputes per-panel and global chips in place. The global
// total is the mean of per-rater means.
func (r *Renderer) updateTotals() {
	snap := r.store.Snapshot()
	now := r.clock.Now()

	perRater := make([]map[string]float64, 0, len(snap.Raters))
	for i := range snap.Raters {
		rater := &snap.Raters[i]
		perRater = append(perRater, rater.Scores)

		panel := r.findPanel(rater.ID)
		if panel == nil {
			continue
		}
		avg := score.RaterTotal(rater.Scores)
		panel.Total = Chip{Text: score.Display(avg), Style: score.ChipStyleForScore(avg, now)}
		panel.OnFire = score.IsFlame(avg)
	}

	global := score.GlobalTotal(perRater)
	r.view.Global = Chip{Text: score.Display(global), Style: score.ChipStyleForScore(global, now)}
}

// updateEditability flips Editable/Disabled flags in place. Rebuilding the
// panels here would interrupt an in-progress drag and replay entrance
// animations, so only the flags move.
func (r *Renderer) updateEditability() {
	snap := r.store.Snapshot()
	for i := range snap.Raters {
		rater := &snap.Raters[i]
		panel := r.findPanel(rater.ID)
		if panel == nil {
			continue
		}
		editable := r.editableFor(rater, snap.Membership)
		panel.Editable = editable
		for _, row := range panel.Rows {
			row.Disabled = !editable
		}
	}
}
