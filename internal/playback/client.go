package playback

import (
	"math"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/Sqott47/track-rating/internal/queue"
	"github.com/Sqott47/track-rating/internal/realtime"
)

// EventPlaybackState is the server broadcast carrying the shared playback clock.
const EventPlaybackState = "playback_state"

// driftToleranceSec is how far the local element may wander from the
// projected server position before a hard seek is issued. Within the
// tolerance the element keeps playing untouched to avoid audible stutter.
const driftToleranceSec = 0.75

// Clock is the server-side playback position snapshot. PositionMS is the
// position at ServerTSMS (server wall clock, unix millis); clients project
// it forward while playing.
type Clock struct {
	IsPlaying  bool  `json:"is_playing"`
	PositionMS int64 `json:"position_ms"`
	ServerTSMS int64 `json:"server_ts_ms"`
}

// StatePayload is the playback_state event body.
type StatePayload struct {
	Active   *queue.Item `json:"active"`
	Playback Clock       `json:"playback"`
}

// SyncState tracks where the client is relative to the remote clock.
type SyncState int

const (
	// SyncIdle means no active track is loaded.
	SyncIdle SyncState = iota
	// SyncLoading means a source is loading; the held snapshot is applied
	// once metadata arrives.
	SyncLoading
	// SyncSynced means the element tracks the remote clock.
	SyncSynced
)

// Preferences persists the listener's volume and mute choices across runs.
type Preferences interface {
	Volume() (float64, bool)
	SetVolume(v float64) error
	Muted() (bool, bool)
	SetMuted(muted bool) error
}

// Client keeps a local AudioElement in lockstep with the server playback
// clock. All methods must be called from the event dispatch goroutine.
//
// Element event origin contract: callbacks the element fires because this
// client called Play/Pause/Seek on it are OriginRemote; callbacks caused by
// direct user interaction are OriginLocal. Only local events from an admin
// session turn into admin_playback_cmd emissions, so applying a remote
// snapshot can never echo back as a new command.
type Client struct {
	element AudioElement
	source  realtime.EventSource
	clock   clockwork.Clock
	prefs   Preferences
	admin   bool

	state       SyncState
	active      *queue.Item
	remote      Clock
	needsUnlock bool
}

func NewClient(element AudioElement, source realtime.EventSource, clock clockwork.Clock, prefs Preferences, admin bool) *Client {
	c := &Client{
		element: element,
		source:  source,
		clock:   clock,
		prefs:   prefs,
		admin:   admin,
		state:   SyncIdle,
	}
	c.restorePrefs()
	return c
}

func (c *Client) restorePrefs() {
	if c.prefs == nil {
		return
	}
	if v, ok := c.prefs.Volume(); ok {
		c.element.SetVolume(v)
	}
	if muted, ok := c.prefs.Muted(); ok {
		c.element.SetMuted(muted)
	}
}

// State reports the current sync state.
func (c *Client) State() SyncState { return c.state }

// Active returns the track currently bound to the element, if any.
func (c *Client) Active() *queue.Item { return c.active }

// NeedsUnlock reports whether unattended playback was refused and a user
// gesture is required to start audio.
func (c *Client) NeedsUnlock() bool { return c.needsUnlock }

// ApplyRemote ingests a playback_state snapshot. Track changes reload the
// source and defer position sync until metadata is ready; otherwise the
// element is nudged only when drift exceeds the tolerance.
func (c *Client) ApplyRemote(payload StatePayload) {
	if payload.Active == nil || payload.Active.AudioURL == "" {
		if c.state != SyncIdle {
			c.element.Pause()
			c.element.ClearSource()
		}
		c.active = nil
		c.state = SyncIdle
		c.remote = payload.Playback
		return
	}

	c.remote = payload.Playback

	if c.active == nil || c.active.ID != payload.Active.ID || c.active.AudioURL != payload.Active.AudioURL {
		c.active = payload.Active
		// State flips before Load: elements that report metadata
		// synchronously re-enter OnElementEvent immediately.
		c.state = SyncLoading
		log.Debug().Int("submission_id", payload.Active.ID).Msg("Loading playback source")
		c.element.Load(payload.Active.AudioURL)
		return
	}

	c.active = payload.Active
	if c.state != SyncSynced {
		// Still waiting on metadata; the fresh snapshot is already held
		// in c.remote and will be applied on loadedmetadata.
		return
	}
	c.syncToRemote()
}

// projectedPosition extends the server position by the time elapsed since
// the snapshot was taken, but only while playing.
func (c *Client) projectedPosition() float64 {
	pos := float64(c.remote.PositionMS) / 1000.0
	if c.remote.IsPlaying {
		elapsed := float64(c.clock.Now().UnixMilli()-c.remote.ServerTSMS) / 1000.0
		if elapsed > 0 {
			pos += elapsed
		}
	}
	if pos < 0 {
		pos = 0
	}
	if d := c.element.Duration(); d > 0 && pos > d {
		pos = d
	}
	return pos
}

func (c *Client) syncToRemote() {
	target := c.projectedPosition()
	drift := math.Abs(c.element.Position() - target)
	if drift > driftToleranceSec {
		log.Debug().Float64("drift_sec", drift).Float64("target_sec", target).Msg("Playback drifted, seeking")
		c.element.Seek(target)
	}
	if c.remote.IsPlaying {
		c.play()
	} else {
		c.element.Pause()
	}
}

func (c *Client) play() {
	if err := c.element.Play(); err != nil {
		log.Warn().Err(err).Msg("Autoplay refused, waiting for user gesture")
		c.needsUnlock = true
		return
	}
	c.needsUnlock = false
}

// Unlock resumes playback after an explicit user gesture. If the shared
// clock is paused the element is immediately paused again so the unlock
// gesture never desynchronizes the room.
func (c *Client) Unlock() {
	if c.state == SyncIdle {
		c.needsUnlock = false
		return
	}
	if err := c.element.Play(); err != nil {
		log.Warn().Err(err).Msg("Playback still refused after user gesture")
		c.needsUnlock = true
		return
	}
	c.needsUnlock = false
	if !c.remote.IsPlaying {
		c.element.Pause()
		return
	}
	c.syncToRemote()
}

// OnElementEvent reacts to media element callbacks. See the origin contract
// on Client.
func (c *Client) OnElementEvent(ev ElementEvent, origin Origin) {
	if ev == EventLoadedMetadata {
		if c.state == SyncLoading {
			c.state = SyncSynced
			c.element.Seek(c.projectedPosition())
			if c.remote.IsPlaying {
				c.play()
			} else {
				c.element.Pause()
			}
		}
		return
	}

	if origin == OriginRemote || !c.admin {
		return
	}

	switch ev {
	case EventPlay:
		c.emitCommand("play", nil)
	case EventPause:
		c.emitCommand("pause", nil)
	case EventSeeked:
		positionMS := int64(c.element.Position() * 1000)
		c.emitCommand("seek", map[string]interface{}{"position_ms": positionMS})
	case EventEnded:
		c.emitCommand("stop", nil)
	}
}

func (c *Client) emitCommand(action string, extra map[string]interface{}) {
	payload := map[string]interface{}{"action": action}
	for k, v := range extra {
		payload[k] = v
	}
	if err := c.source.Emit(realtime.IntentPlaybackCmd, payload); err != nil {
		log.Error().Err(err).Str("action", action).Msg("Failed to emit playback command")
	}
}

// SetActiveFallback binds the element to the active queue entry when no
// playback_state transport is available. It loads the source but leaves the
// transport controls to the listener; there is no clock to follow.
func (c *Client) SetActiveFallback(payload queue.StatePayload) {
	active := payload.Active
	if active == nil || active.AudioURL == "" {
		if c.state != SyncIdle {
			c.element.Pause()
			c.element.ClearSource()
		}
		c.active = nil
		c.state = SyncIdle
		return
	}
	if c.active != nil && c.active.ID == active.ID && c.active.AudioURL == active.AudioURL {
		return
	}
	c.active = active
	c.state = SyncLoading
	c.element.Load(active.AudioURL)
}

// SetVolume adjusts the element and persists the choice.
func (c *Client) SetVolume(v float64) {
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	c.element.SetVolume(v)
	if c.prefs != nil {
		if err := c.prefs.SetVolume(v); err != nil {
			log.Warn().Err(err).Msg("Failed to persist volume")
		}
	}
}

// SetMuted flips mute on the element and persists the choice.
func (c *Client) SetMuted(muted bool) {
	c.element.SetMuted(muted)
	if c.prefs != nil {
		if err := c.prefs.SetMuted(muted); err != nil {
			log.Warn().Err(err).Msg("Failed to persist mute state")
		}
	}
}
