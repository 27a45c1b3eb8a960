package client

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"hello-web/internal/server"
)

func newFakeServer(t *testing.T, password string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, "hello")
	})
	mux.HandleFunc("/shutdown", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		data, _ := io.ReadAll(r.Body)
		form, _ := url.ParseQuery(string(data))
		if form.Get("password") == password {
			w.Header().Set(server.ShutdownHeader, server.ShutdownAccepted)
		}
		_, _ = io.WriteString(w, "ok")
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestGet(t *testing.T) {
	srv := newFakeServer(t, "pw")
	c := New(srv.URL, time.Second)

	code, body, err := c.Get("/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code != http.StatusOK {
		t.Errorf("expected 200, got %d", code)
	}
	if body != "hello" {
		t.Errorf("expected 'hello', got '%s'", body)
	}

	code, _, err = c.Get("/missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", code)
	}
}

func TestShutdown(t *testing.T) {
	srv := newFakeServer(t, "pw")
	c := New(srv.URL, time.Second)

	ok, err := c.Shutdown("wrong")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected wrong password to be rejected")
	}

	ok, err = c.Shutdown("pw")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("expected correct password to be accepted")
	}
}

func TestUnreachable(t *testing.T) {
	srv := newFakeServer(t, "pw")
	addr := srv.URL
	srv.Close()

	c := New(addr, 200*time.Millisecond)
	if _, _, err := c.Get("/"); err == nil {
		t.Error("expected error for closed server")
	}
	if _, err := c.Shutdown("pw"); err == nil {
		t.Error("expected error for closed server")
	}
}
