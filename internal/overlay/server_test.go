package overlay

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type stubProvider struct {
	snapshot *Snapshot
	err      error
}

func (p *stubProvider) OverlaySnapshot(ctx context.Context) (*Snapshot, error) {
	return p.snapshot, p.err
}

func TestStateEndpoint(t *testing.T) {
	provider := &stubProvider{
		snapshot: &Snapshot{
			TrackName:   "Demo Track",
			GlobalTotal: "7.5",
			Raters: []RaterSummary{
				{Name: "Judge 1", Total: "10.0", OnFire: true},
			},
			Playback: &PlaybackInfo{
				DisplayName: "MC Test — Gas",
				IsPlaying:   true,
				PositionSec: 12.5,
			},
			GeneratedAt: time.Now(),
		},
	}
	s := NewServer("127.0.0.1:0", provider)
	srv := httptest.NewServer(s.srv.Handler)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/overlay/state")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}

	var got Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.TrackName != "Demo Track" || got.GlobalTotal != "7.5" {
		t.Errorf("snapshot = %+v", got)
	}
	if len(got.Raters) != 1 || !got.Raters[0].OnFire {
		t.Errorf("raters = %+v", got.Raters)
	}
	if got.Playback == nil || !got.Playback.IsPlaying {
		t.Errorf("playback = %+v", got.Playback)
	}
}

func TestStateEndpointCORS(t *testing.T) {
	s := NewServer("127.0.0.1:0", &stubProvider{snapshot: &Snapshot{}})
	srv := httptest.NewServer(s.srv.Handler)
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/overlay/state", nil)
	req.Header.Set("Origin", "http://obs.local")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}

func TestStateEndpointProviderError(t *testing.T) {
	s := NewServer("127.0.0.1:0", &stubProvider{err: errors.New("not ready")})
	srv := httptest.NewServer(s.srv.Handler)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/overlay/state")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", resp.StatusCode)
	}
}

func TestStateEndpointMethodNotAllowed(t *testing.T) {
	s := NewServer("127.0.0.1:0", &stubProvider{snapshot: &Snapshot{}})
	srv := httptest.NewServer(s.srv.Handler)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/overlay/state", "application/json", nil)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", resp.StatusCode)
	}
}
