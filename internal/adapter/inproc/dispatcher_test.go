package inproc

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Kondo2021/redmine-messenger/internal/adapter/webhook"
	"github.com/Kondo2021/redmine-messenger/internal/wire"
)

func TestSubmitDeliversAsynchronously(t *testing.T) {
	delivered := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		delivered <- string(b)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tr := webhook.NewTransport(5*time.Second, true, logger, nil)
	d := New(tr, 4, logger)

	d.Submit(wire.Request{URL: srv.URL, ContentType: "application/json", Body: []byte("payload")})

	select {
	case body := <-delivered:
		if body != "payload" {
			t.Errorf("body = %q", body)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("delivery never arrived")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestSubmitDropsWhenSaturated(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tr := webhook.NewTransport(10*time.Second, true, logger, nil)
	d := New(tr, 1, logger)

	d.Submit(wire.Request{URL: srv.URL, Body: []byte("a")})

	// The second submit finds the single slot taken and must return
	// immediately instead of blocking the caller.
	done := make(chan struct{})
	go func() {
		d.Submit(wire.Request{URL: srv.URL, Body: []byte("b")})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("saturated Submit blocked")
	}

	close(release)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}
}
