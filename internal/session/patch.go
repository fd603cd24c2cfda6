package session

// Patch describes a targeted view update produced by applying one event.
// Renderers apply patches in place so a focused input or an open dropdown is
// never rebuilt underneath the user.
type Patch interface {
	isPatch()
}

// FullRender asks the renderer to rebuild every panel. Emitted only for
// events that change panel structure (initial_state, rater_added,
// state_reset).
type FullRender struct{}

// TrackNamePatch updates the session track name wherever it is displayed.
type TrackNamePatch struct {
	TrackName string
}

// RaterNamePatch updates a single rater's name field.
type RaterNamePatch struct {
	RaterID string
	Name    string
}

// SliderPatch updates one slider and its value chip.
type SliderPatch struct {
	RaterID      string
	CriterionKey string
	Value        float64
}

// RaterRemovedPatch removes a single panel.
type RaterRemovedPatch struct {
	RaterID string
}

// TotalsPatch recomputes per-rater and global totals in place.
type TotalsPatch struct{}

// EditabilityPatch re-evaluates which sliders are enabled, updating disabled
// flags in place without rebuilding panels.
type EditabilityPatch struct{}

// EvaluationPatch carries the final verdict for the result modal.
type EvaluationPatch struct {
	Result EvaluationResultPayload
}

// NoticePatch surfaces a one-shot, non-fatal notification (kick feedback and
// the like).
type NoticePatch struct {
	Kind string
	Text string
}

// PresenceUpdatedPatch refreshes the occupied-slot list.
type PresenceUpdatedPatch struct {
	Raters []PresenceEntry
}

func (FullRender) isPatch()           {}
func (TrackNamePatch) isPatch()       {}
func (RaterNamePatch) isPatch()       {}
func (SliderPatch) isPatch()          {}
func (RaterRemovedPatch) isPatch()    {}
func (TotalsPatch) isPatch()          {}
func (EditabilityPatch) isPatch()     {}
func (EvaluationPatch) isPatch()      {}
func (NoticePatch) isPatch()          {}
func (PresenceUpdatedPatch) isPatch() {}
