package panel

import (
	"github.com/rs/zerolog/log"

	"github.com/Sqott47/track-rating/internal/realtime"
	"github.com/Sqott47/track-rating/internal/session"
)

// Controller turns user interactions into intents. Slider moves are applied
// to the local store first so the dragged control and the totals respond
// immediately; the authoritative value still comes back as a broadcast. All
// other intents are fire-and-forget: the client never mutates state the
// matching event would not.
type Controller struct {
	store    *session.Store
	renderer *Renderer
	source   realtime.EventSource
}

func NewController(store *session.Store, renderer *Renderer, source realtime.EventSource) *Controller {
	return &Controller{store: store, renderer: renderer, source: source}
}

func (c *Controller) emit(intent string, payload interface{}) {
	if err := c.source.Emit(intent, payload); err != nil {
		log.Warn().Err(err).Str("intent", intent).Msg("intent dropped, transport unavailable")
	}
}

// RequestInitialState asks the server for the authoritative snapshot.
func (c *Controller) RequestInitialState() {
	c.emit(realtime.IntentRequestInitialState, nil)
}

// RequestQueueState asks for a fresh queue snapshot.
func (c *Controller) RequestQueueState() {
	c.emit(realtime.IntentRequestQueueState, nil)
}

// EnterPanel announces that this client opened the rating surface.
func (c *Controller) EnterPanel() {
	c.emit(realtime.IntentEnterPanel, nil)
}

// LeavePanel announces that this client left the rating surface.
func (c *Controller) LeavePanel() {
	c.emit(realtime.IntentLeavePanel, nil)
}

// ChangeTrackName submits a new track title.
func (c *Controller) ChangeTrackName(name string) {
	c.emit(realtime.IntentChangeTrackName, session.TrackNameChangedPayload{TrackName: name})
}

// ChangeRaterName submits a rater rename.
func (c *Controller) ChangeRaterName(raterID, name string) {
	c.emit(realtime.IntentChangeRaterName, session.RaterNameChangedPayload{RaterID: raterID, Name: name})
}

// MoveSlider applies the value locally and emits the intent. The local write
// keeps the dragged slider and the totals live; the broadcast that follows
// is idempotent over it.
func (c *Controller) MoveSlider(raterID, criterionKey string, value float64) {
	patches := c.store.SetLocalSlider(raterID, criterionKey, value)
	c.renderer.Apply(patches)
	c.emit(realtime.IntentChangeSlider, session.SliderUpdatedPayload{
		RaterID:      raterID,
		CriterionKey: criterionKey,
		Value:        value,
	})
}

// AddRater asks the server to append a new rater panel.
func (c *Controller) AddRater() {
	c.emit(realtime.IntentAddRater, nil)
}

// RemoveRater asks the server to drop a rater.
func (c *Controller) RemoveRater(raterID string) {
	c.emit(realtime.IntentRemoveRater, session.RaterRemovedPayload{RaterID: raterID})
}

// JoinRating claims a panel in the access-controlled variant.
func (c *Controller) JoinRating(raterID string) {
	c.emit(realtime.IntentJoinRating, map[string]interface{}{"rater_id": raterID})
}

// LeaveRating releases this client's claimed panel.
func (c *Controller) LeaveRating() {
	c.emit(realtime.IntentLeaveRating, nil)
}

// KickRater forcibly releases another user's panel (admin only).
func (c *Controller) KickRater(raterID string) {
	c.emit(realtime.IntentKickRater, map[string]interface{}{"rater_id": raterID})
}

// Evaluate asks the server to close the vote and publish the verdict.
func (c *Controller) Evaluate() {
	c.emit(realtime.IntentEvaluate, nil)
}

// ResetState asks the server to wipe scores for the next track.
func (c *Controller) ResetState() {
	c.emit(realtime.IntentResetState, nil)
}
