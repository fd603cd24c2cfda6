package main

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/Sqott47/track-rating/clients"
	"github.com/Sqott47/track-rating/internal/overlay"
	"github.com/Sqott47/track-rating/internal/panel"
	"github.com/Sqott47/track-rating/internal/playback"
	"github.com/Sqott47/track-rating/internal/prefs"
	"github.com/Sqott47/track-rating/internal/queue"
	"github.com/Sqott47/track-rating/internal/realtime"
	"github.com/Sqott47/track-rating/internal/score"
	"github.com/Sqott47/track-rating/internal/session"
)

// App bundles the wired client services: one store, one renderer, one
// dispatch loop, plus the playback and queue machinery hanging off it.
type App struct {
	cfg   *Config
	clock clockwork.Clock

	store      *session.Store
	renderer   *panel.Renderer
	controller *panel.Controller
	dispatcher *realtime.Dispatcher

	connMgr *realtime.ConnManager
	source  realtime.EventSource

	api        *clients.BaseClient
	prefsStore *prefs.Store
	playback   *playback.Client
	queueView  *queue.View
	queueGuard *queue.Guard
	moderator  *queue.Moderator
	poller     *queue.Poller

	// Latest transport payloads, kept for the overlay endpoint which reads
	// from its own HTTP goroutines.
	mu             sync.Mutex
	latestQueue    queue.StatePayload
	latestPlayback playback.StatePayload
	hasClock       bool
}

func setupApp(cfg *Config, element playback.AudioElement) (*App, error) {
	app := &App{
		cfg:   cfg,
		clock: clockwork.NewRealClock(),
		store: session.NewStore(),
		api:   clients.NewBaseClient(cfg.Server.BaseURL),
	}

	app.renderer = panel.NewRenderer(app.store, app.clock, cfg.isAdmin(), cfg.Session.AccessControlled)
	app.renderer.RenderAll()

	prefsStore, err := prefs.Open(cfg.Prefs.Path)
	if err != nil {
		log.Warn().Err(err).Str("path", cfg.Prefs.Path).Msg("preferences unavailable, using defaults")
	} else {
		app.prefsStore = prefsStore
	}

	if err := app.setupSource(); err != nil {
		// Transport down is not fatal: the queue poller keeps the public
		// surface alive and intents stay inert until reconnect.
		log.Warn().Err(err).Msg("realtime transport unavailable, falling back to polling")
	}

	var headless *playback.HeadlessElement
	if element == nil {
		headless = playback.NewHeadlessElement(app.clock)
		element = headless
	}

	var p playback.Preferences
	if app.prefsStore != nil {
		p = app.prefsStore
	}
	app.playback = playback.NewClient(element, app.eventSource(), app.clock, p, cfg.isAdmin())
	if headless != nil {
		headless.SetHandler(app.playback.OnElementEvent)
	}

	app.dispatcher = realtime.NewDispatcher()

	app.queueView = queue.NewView(app.clock, cfg.isModerator())
	// Guard flushes fire on clockwork timer goroutines and poller deliveries
	// on the poll loop; both hop onto the dispatch goroutine before touching
	// the view or playback state.
	app.queueGuard = queue.NewGuard(app.clock, func(p queue.StatePayload) {
		app.dispatcher.Post(func() { app.applyQueueState(p) })
	})
	app.moderator = queue.NewModerator(app.eventSource(), nil)
	app.poller = queue.NewPoller(app.api, app.clock, app.queueGuard.Apply)

	app.controller = panel.NewController(app.store, app.renderer, app.eventSource())

	app.registerHandlers()

	return app, nil
}

func (a *App) setupSource() error {
	if a.cfg.NATS.Enabled {
		natsCfg := realtime.DefaultNATSConfig()
		natsCfg.URL = a.cfg.NATS.URL
		natsCfg.SubjectPrefix = a.cfg.NATS.SubjectPrefix
		src, err := realtime.NewNATSSource(natsCfg)
		if err != nil {
			return err
		}
		a.source = src
		return nil
	}

	a.connMgr = realtime.NewConnManager(realtime.DefaultClientConfig(a.cfg.Server.SocketURL))
	client, err := a.connMgr.Ensure(a.identitySignature())
	if err != nil {
		return err
	}
	a.source = client
	return nil
}

func (a *App) identitySignature() realtime.Signature {
	version, err := strconv.Atoi(a.cfg.Session.Version)
	if err != nil {
		version = 0
	}
	return realtime.IdentitySignature(a.cfg.Session.UserID, version)
}

// eventSource returns the live source, or an inert one when the transport is
// down so intent emitters never nil-check.
func (a *App) eventSource() realtime.EventSource {
	if a.source != nil {
		return a.source
	}
	return inertSource{}
}

// registerHandlers binds every server event to its consumer. All handlers
// run on the single dispatch goroutine, in arrival order.
func (a *App) registerHandlers() {
	sessionEvents := []string{
		session.EventInitialState,
		session.EventTrackNameChanged,
		session.EventRaterNameChanged,
		session.EventSliderUpdated,
		session.EventRaterAdded,
		session.EventRaterRemoved,
		session.EventEvaluationResult,
		session.EventStateReset,
		session.EventRatingJoined,
		session.EventRatingLeft,
		session.EventKicked,
		session.EventKickResult,
		session.EventRatersPresence,
	}
	for _, event := range sessionEvents {
		event := event
		a.dispatcher.On(event, func(data json.RawMessage) {
			patches, err := a.store.Apply(event, data)
			if err != nil {
				log.Error().Err(err).Str("event", event).Msg("failed to apply event")
				return
			}
			a.renderer.Apply(patches)
		})
	}

	a.dispatcher.On(queue.EventQueueState, func(data json.RawMessage) {
		var payload queue.StatePayload
		if err := json.Unmarshal(data, &payload); err != nil {
			log.Error().Err(err).Msg("failed to decode queue state")
			return
		}
		a.queueGuard.Apply(payload)
	})

	a.dispatcher.On(playback.EventPlaybackState, func(data json.RawMessage) {
		var payload playback.StatePayload
		if err := json.Unmarshal(data, &payload); err != nil {
			log.Error().Err(err).Msg("failed to decode playback state")
			return
		}
		a.mu.Lock()
		a.latestPlayback = payload
		a.hasClock = true
		a.mu.Unlock()
		a.playback.ApplyRemote(payload)
	})
}

// applyQueueState is the guard's sink: render the queue and, until a
// playback clock shows up, drive the audio element from the active entry.
func (a *App) applyQueueState(payload queue.StatePayload) {
	a.mu.Lock()
	a.latestQueue = payload
	hasClock := a.hasClock
	a.mu.Unlock()

	a.queueView.Render(payload)
	if !hasClock {
		a.playback.SetActiveFallback(payload)
	}
}

// inertSource drops every emit and never produces events. Stands in for the
// transport when it is down so user actions degrade to logged no-ops.
type inertSource struct{}

func (inertSource) Receive() <-chan realtime.Envelope { return nil }

func (inertSource) Emit(event string, payload interface{}) error {
	log.Debug().Str("event", event).Msg("transport down, intent dropped")
	return nil
}

func (inertSource) Close() error { return nil }

// OverlaySnapshot implements overlay.Provider. It reads through the locked
// store rather than the renderer's view tree, which belongs to the dispatch
// goroutine.
func (a *App) OverlaySnapshot(ctx context.Context) (*overlay.Snapshot, error) {
	snap := a.store.Snapshot()

	a.mu.Lock()
	playbackPayload := a.latestPlayback
	queuePayload := a.latestQueue
	hasClock := a.hasClock
	a.mu.Unlock()

	perRater := make([]map[string]float64, 0, len(snap.Raters))
	raters := make([]overlay.RaterSummary, 0, len(snap.Raters))
	for i := range snap.Raters {
		rater := &snap.Raters[i]
		perRater = append(perRater, rater.Scores)
		avg := score.RaterTotal(rater.Scores)
		raters = append(raters, overlay.RaterSummary{
			Name:   rater.Name,
			Total:  score.Display(avg),
			OnFire: score.IsFlame(avg),
			Scores: rater.Scores,
		})
	}

	out := &overlay.Snapshot{
		TrackName:   snap.TrackName,
		GlobalTotal: score.Display(score.GlobalTotal(perRater)),
		Raters:      raters,
		GeneratedAt: a.clock.Now(),
	}

	active := playbackPayload.Active
	if active == nil {
		active = queuePayload.Active
	}
	if active != nil {
		info := &overlay.PlaybackInfo{
			DisplayName: active.DisplayName,
		}
		if active.DurationSec != nil {
			info.DurationSec = float64(*active.DurationSec)
		}
		if hasClock {
			info.IsPlaying = playbackPayload.Playback.IsPlaying
			info.PositionSec = projectedPositionSec(playbackPayload.Playback, a.clock.Now().UnixMilli())
		}
		out.Playback = info
	}
	return out, nil
}

func projectedPositionSec(c playback.Clock, nowMS int64) float64 {
	pos := float64(c.PositionMS) / 1000.0
	if c.IsPlaying && nowMS > c.ServerTSMS {
		pos += float64(nowMS-c.ServerTSMS) / 1000.0
	}
	if pos < 0 {
		pos = 0
	}
	return pos
}
