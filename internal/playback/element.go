package playback

import (
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// HeadlessElement is an AudioElement with no audio device behind it. It
// models position against a clock so sync logic, drift checks and the
// overlay all behave as if a real player were attached. Used by the CLI
// binary and by bots; every event it fires is OriginRemote because nothing
// but the sync client ever touches it.
type HeadlessElement struct {
	clock   clockwork.Clock
	handler func(ElementEvent, Origin)

	url      string
	duration float64

	playing  bool
	basePos  float64
	playedAt int64
	volume   float64
	muted    bool
	loaded   bool
}

// NewHeadlessElement creates an element over the given clock. Durations are
// unknown until SetDuration is called (there is no media to probe).
func NewHeadlessElement(clock clockwork.Clock) *HeadlessElement {
	return &HeadlessElement{clock: clock, volume: 1}
}

// SetHandler binds the element event callback. Must be set before Load.
func (e *HeadlessElement) SetHandler(fn func(ElementEvent, Origin)) {
	e.handler = fn
}

// SetDuration injects the media duration, normally taken from the queue
// item's metadata.
func (e *HeadlessElement) SetDuration(sec float64) {
	e.duration = sec
}

func (e *HeadlessElement) fire(ev ElementEvent) {
	if e.handler != nil {
		e.handler(ev, OriginRemote)
	}
}

func (e *HeadlessElement) Load(url string) {
	e.url = url
	e.basePos = 0
	e.playing = false
	e.loaded = true
	log.Debug().Str("url", url).Msg("headless element loaded source")
	// No media to probe, metadata is ready immediately.
	e.fire(EventLoadedMetadata)
}

func (e *HeadlessElement) ClearSource() {
	e.url = ""
	e.basePos = 0
	e.playing = false
	e.loaded = false
}

func (e *HeadlessElement) Play() error {
	if !e.loaded {
		return nil
	}
	if !e.playing {
		e.playing = true
		e.playedAt = e.clock.Now().UnixMilli()
		e.fire(EventPlay)
	}
	return nil
}

func (e *HeadlessElement) Pause() {
	if e.playing {
		e.basePos = e.Position()
		e.playing = false
		e.fire(EventPause)
	}
}

func (e *HeadlessElement) Seek(seconds float64) {
	if seconds < 0 {
		seconds = 0
	}
	if e.duration > 0 && seconds > e.duration {
		seconds = e.duration
	}
	e.basePos = seconds
	e.playedAt = e.clock.Now().UnixMilli()
	e.fire(EventSeeked)
}

func (e *HeadlessElement) Position() float64 {
	if !e.playing {
		return e.basePos
	}
	pos := e.basePos + float64(e.clock.Now().UnixMilli()-e.playedAt)/1000.0
	if e.duration > 0 && pos > e.duration {
		pos = e.duration
	}
	return pos
}

func (e *HeadlessElement) Duration() float64 { return e.duration }

func (e *HeadlessElement) SetVolume(v float64) { e.volume = v }

func (e *HeadlessElement) Volume() float64 { return e.volume }

func (e *HeadlessElement) SetMuted(muted bool) { e.muted = muted }

func (e *HeadlessElement) Muted() bool { return e.muted }
