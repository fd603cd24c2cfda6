package realtime

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsServer upgrades one connection at a time and hands it to fn.
func wsServer(t *testing.T, fn func(*websocket.Conn)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		fn(conn)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestClientReceivesEventsInOrder(t *testing.T) {
	srv := wsServer(t, func(conn *websocket.Conn) {
		defer conn.Close()
		for i := 0; i < 3; i++ {
			env := Envelope{Event: "track_name_changed", Data: json.RawMessage(`{"n":` + string(rune('0'+i)) + `}`)}
			raw, _ := json.Marshal(env)
			if err := conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				return
			}
		}
		// Keep the connection up until the client hangs up.
		conn.ReadMessage()
	})

	client, err := Dial(DefaultClientConfig(wsURL(srv)))
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	for i := 0; i < 3; i++ {
		select {
		case env := <-client.Receive():
			if env.Event != "track_name_changed" {
				t.Errorf("event = %q", env.Event)
			}
			want := `{"n":` + string(rune('0'+i)) + `}`
			if string(env.Data) != want {
				t.Errorf("event %d data = %s, want %s", i, env.Data, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for event %d", i)
		}
	}
}

func TestClientEmit(t *testing.T) {
	got := make(chan Envelope, 1)
	srv := wsServer(t, func(conn *websocket.Conn) {
		defer conn.Close()
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Errorf("unmarshal intent: %v", err)
			return
		}
		got <- env
	})

	client, err := Dial(DefaultClientConfig(wsURL(srv)))
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	if err := client.Emit(IntentChangeSlider, map[string]interface{}{"rater_id": "r1", "value": 7.5}); err != nil {
		t.Fatalf("Emit: %v", err)
	}

	select {
	case env := <-got:
		if env.Event != IntentChangeSlider {
			t.Errorf("event = %q", env.Event)
		}
		var payload map[string]interface{}
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			t.Fatalf("payload: %v", err)
		}
		if payload["rater_id"] != "r1" {
			t.Errorf("payload = %v", payload)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server never saw the intent")
	}
}

func TestEmitAfterCloseIsInert(t *testing.T) {
	srv := wsServer(t, func(conn *websocket.Conn) {
		defer conn.Close()
		conn.ReadMessage()
	})

	client, err := Dial(DefaultClientConfig(wsURL(srv)))
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	client.Close()

	if err := client.Emit(IntentEvaluate, nil); err != nil {
		t.Errorf("Emit after close: %v", err)
	}
	select {
	case <-client.Done():
	case <-time.After(2 * time.Second):
		t.Error("Done not closed after Close")
	}
}

func TestConnManagerReusesSameIdentity(t *testing.T) {
	srv := wsServer(t, func(conn *websocket.Conn) {
		defer conn.Close()
		conn.ReadMessage()
	})

	m := NewConnManager(DefaultClientConfig(wsURL(srv)))
	defer m.Close()

	sig := IdentitySignature("u1", 1)
	first, err := m.Ensure(sig)
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	second, err := m.Ensure(sig)
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if first != second {
		t.Error("same signature should reuse the connection")
	}
}

func TestConnManagerRedialsOnIdentityChange(t *testing.T) {
	srv := wsServer(t, func(conn *websocket.Conn) {
		defer conn.Close()
		conn.ReadMessage()
	})

	m := NewConnManager(DefaultClientConfig(wsURL(srv)))
	defer m.Close()

	first, err := m.Ensure(IdentitySignature("u1", 1))
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	second, err := m.Ensure(IdentitySignature("u1", 2))
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if first == second {
		t.Fatal("session version bump must produce a fresh connection")
	}
	select {
	case <-first.Done():
	case <-time.After(2 * time.Second):
		t.Error("stale connection was not closed")
	}
}

func TestIdentitySignature(t *testing.T) {
	a := IdentitySignature("u1", 1)
	if a != IdentitySignature("u1", 1) {
		t.Error("signature not deterministic")
	}
	if a == IdentitySignature("u2", 1) {
		t.Error("user change must change the signature")
	}
	if a == IdentitySignature("u1", 2) {
		t.Error("session version change must change the signature")
	}
}
