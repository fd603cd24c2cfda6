package clients

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Client") != "overlay" {
			t.Errorf("missing custom header")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"name":"demo"}`))
	}))
	defer srv.Close()

	c := NewBaseClient(srv.URL)
	c.SetHeader("X-Client", "overlay")

	var out struct {
		Name string `json:"name"`
	}
	if err := c.GetJSON(context.Background(), "/api/thing", &out); err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if out.Name != "demo" {
		t.Errorf("name = %q", out.Name)
	}
}

func TestPostJSONSendsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewBaseClient(srv.URL)
	var out struct {
		OK bool `json:"ok"`
	}
	if err := c.PostJSON(context.Background(), "/api/thing", map[string]int{"x": 1}, &out); err != nil {
		t.Fatalf("PostJSON: %v", err)
	}
	if !out.OK {
		t.Error("response not decoded")
	}
}

func TestStatusErrorCarriesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte(`{"error":"nope"}`))
	}))
	defer srv.Close()

	c := NewBaseClient(srv.URL)
	err := c.GetJSON(context.Background(), "/api/thing", &struct{}{})
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("err = %v, want StatusError", err)
	}
	if statusErr.Code != http.StatusTeapot {
		t.Errorf("code = %d", statusErr.Code)
	}
	if string(statusErr.Body) != `{"error":"nope"}` {
		t.Errorf("body = %s", statusErr.Body)
	}
}
