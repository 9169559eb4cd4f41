package relay_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.senan.xyz/lyrictag/relay"
)

func TestScrape(t *testing.T) {
	t.Parallel()

	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/init", "/close":
			w.WriteHeader(http.StatusOK)
		case "/scrape":
			b, _ := io.ReadAll(r.Body)
			gotBody = string(b)
			_, _ = io.WriteString(w, `{"lyrics": "Is this the real life?"}`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	c := relay.Client{BaseURL: srv.URL, HTTPClient: srv.Client()}
	require.NoError(t, c.Init(context.Background()))

	text, err := c.Scrape(context.Background(), "Bohemian Rhapsody", "Queen")
	require.NoError(t, err)
	assert.Equal(t, "Is this the real life?", text)
	assert.JSONEq(t, `{"title": "Bohemian Rhapsody", "artist": "Queen"}`, gotBody)

	c.Close(context.Background())
}

func TestScrapeNoLyrics(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"lyrics": null}`)
	}))
	t.Cleanup(srv.Close)

	c := relay.Client{BaseURL: srv.URL}
	text, err := c.Scrape(context.Background(), "Innuendo", "Queen")
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestUnavailable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "broken", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	c := relay.Client{BaseURL: srv.URL}
	require.ErrorIs(t, c.Init(context.Background()), relay.ErrUnavailable)
	_, err := c.Scrape(context.Background(), "Innuendo", "Queen")
	require.ErrorIs(t, err, relay.ErrUnavailable)

	srv.Close()
	_, err = c.Scrape(context.Background(), "Innuendo", "Queen")
	require.ErrorIs(t, err, relay.ErrUnavailable)

	c.Close(context.Background()) // no panic, no error
}

func TestWaitReady(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	c := relay.Client{BaseURL: srv.URL}
	require.NoError(t, c.WaitReady(context.Background(), 5*time.Second, 10*time.Millisecond))
	assert.Equal(t, int32(3), calls.Load())
}

func TestWaitReadyGivesUp(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	c := relay.Client{BaseURL: srv.URL}
	err := c.WaitReady(context.Background(), 50*time.Millisecond, 10*time.Millisecond)
	require.ErrorIs(t, err, relay.ErrUnavailable)
}

func TestProcess(t *testing.T) {
	t.Parallel()

	_, err := relay.StartProcess(context.Background(), "")
	require.Error(t, err)
	_, err = relay.StartProcess(context.Background(), `"unterminated`)
	require.Error(t, err)

	p, err := relay.StartProcess(context.Background(), "sleep 30")
	if err != nil {
		t.Skipf("no sleep binary: %v", err)
	}
	start := time.Now()
	require.NoError(t, p.Stop(5*time.Second))
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestScrapeTimeout(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(300 * time.Millisecond):
		}
		_, _ = io.WriteString(w, `{"lyrics": "late"}`)
	}))
	t.Cleanup(srv.Close)

	c := relay.Client{BaseURL: srv.URL, HTTPClient: &http.Client{Timeout: 100 * time.Millisecond}}
	_, err := c.Scrape(context.Background(), "Innuendo", "Queen")
	require.ErrorIs(t, err, relay.ErrTimeout)
	assert.NotErrorIs(t, err, relay.ErrUnavailable)
}
