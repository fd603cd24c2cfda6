// Package overlay serves a local read-only JSON snapshot of the session for
// OBS browser sources and other stream widgets. CORS is wide open on purpose:
// the server binds to localhost and the data is already on stream.
package overlay

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
)

// Snapshot is the widget-facing view of the session.
type Snapshot struct {
	TrackName   string         `json:"track_name"`
	GlobalTotal string         `json:"global_total"`
	Raters      []RaterSummary `json:"raters"`
	Playback    *PlaybackInfo  `json:"playback,omitempty"`
	GeneratedAt time.Time      `json:"generated_at"`
}

// RaterSummary is one jury panel condensed for the overlay.
type RaterSummary struct {
	Name   string             `json:"name"`
	Total  string             `json:"total"`
	OnFire bool               `json:"on_fire"`
	Scores map[string]float64 `json:"scores"`
}

// PlaybackInfo describes the active track, when one is playing.
type PlaybackInfo struct {
	DisplayName string  `json:"display_name"`
	IsPlaying   bool    `json:"is_playing"`
	PositionSec float64 `json:"position_sec"`
	DurationSec float64 `json:"duration_sec,omitempty"`
}

// Provider supplies the current snapshot on demand.
type Provider interface {
	OverlaySnapshot(ctx context.Context) (*Snapshot, error)
}

// Server exposes the snapshot over HTTP.
type Server struct {
	provider Provider
	srv      *http.Server
}

func NewServer(addr string, provider Provider) *Server {
	s := &Server{provider: provider}

	mux := http.NewServeMux()
	mux.HandleFunc("/overlay/state", s.handleState)
	mux.HandleFunc("/health", s.handleHealth)

	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
		},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
	})

	s.srv = &http.Server{
		Addr:         addr,
		Handler:      c.Handler(mux),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
	return s
}

// Start begins serving. It blocks until the listener fails or Shutdown is
// called.
func (s *Server) Start() error {
	log.Info().Str("addr", s.srv.Addr).Msg("Starting overlay server")
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	snapshot, err := s.provider.OverlaySnapshot(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to build overlay snapshot")
		http.Error(w, "Failed to build snapshot", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	if err := json.NewEncoder(w).Encode(snapshot); err != nil {
		log.Error().Err(err).Msg("Failed to encode overlay snapshot")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
}
