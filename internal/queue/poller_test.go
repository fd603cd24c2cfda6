package queue

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/Sqott47/track-rating/clients"
)

func TestPollerDeliversSnapshots(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/queue" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items":[{"id":1,"display_name":"MC Test — Gas","status":"queued"}],"counts":{"queued":1}}`))
	}))
	defer srv.Close()

	clock := clockwork.NewFakeClock()
	got := make(chan StatePayload, 4)
	p := NewPoller(clients.NewBaseClient(srv.URL), clock, func(s StatePayload) {
		got <- s
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	// Immediate poll on start.
	select {
	case payload := <-got:
		if len(payload.Items) != 1 || payload.Items[0].ID != 1 {
			t.Fatalf("payload = %+v", payload)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot from initial poll")
	}

	// Next poll fires on the 2s tick.
	clock.BlockUntil(1)
	clock.Advance(2 * time.Second)
	select {
	case <-got:
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot after tick")
	}

	if hits.Load() < 2 {
		t.Errorf("server saw %d requests, want at least 2", hits.Load())
	}
}

func TestPollerSwallowsServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	clock := clockwork.NewFakeClock()
	var delivered atomic.Int64
	p := NewPoller(clients.NewBaseClient(srv.URL), clock, func(StatePayload) {
		delivered.Add(1)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	clock.BlockUntil(1)
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop on cancel")
	}
	if delivered.Load() != 0 {
		t.Errorf("failed polls delivered %d payloads", delivered.Load())
	}
}
