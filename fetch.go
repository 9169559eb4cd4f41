package lyrictag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"go.senan.xyz/lyrictag/lyrics"
	"go.senan.xyz/lyrictag/relay"
)

const (
	DefaultMinLength      = 100
	DefaultRelayMinLength = 50
	DefaultRelayStartup   = 10 * time.Second

	relayPollInterval = 500 * time.Millisecond
)

// SourceRelay names lyrics which came from the relay service.
const SourceRelay = "relay"

// Fetcher resolves lyrics through the relay service while it is alive, or the direct source chain otherwise.
type Fetcher struct {
	Relay          *relay.Client
	RelayMinLength int
	Chain          *lyrics.Chain
}

type Outcome struct {
	Lyrics     string
	Source     string
	RelayAlive bool
}

// Ready waits up to window for the relay to come up. A nil relay is never ready.
func (f *Fetcher) Ready(ctx context.Context, window time.Duration) bool {
	if f.Relay == nil {
		return false
	}
	if err := f.Relay.WaitReady(ctx, window, relayPollInterval); err != nil {
		slog.WarnContext(ctx, "relay not available, using direct sources", "err", err)
		return false
	}
	slog.InfoContext(ctx, "relay ready", "url", f.Relay.BaseURL)
	return true
}

// Fetch looks up lyrics for a song. relayAlive is the caller's view of the relay, the updated view is returned in
// the [Outcome]. A relay which answers but has no lyrics, or times out, is a miss. A relay which fails is marked dead
// and the song goes to the source chain instead.
func (f *Fetcher) Fetch(ctx context.Context, title, artist string, relayAlive bool) (Outcome, error) {
	out := Outcome{RelayAlive: relayAlive && f.Relay != nil}

	if out.RelayAlive {
		text, err := f.Relay.Scrape(ctx, title, artist)
		switch {
		case errors.Is(err, relay.ErrUnavailable):
			slog.WarnContext(ctx, "relay disconnected, using direct sources for the rest of the run", "err", err)
			out.RelayAlive = false
		case errors.Is(err, relay.ErrTimeout):
			slog.WarnContext(ctx, "relay timed out", "err", err)
			return out, lyrics.ErrLyricsNotFound
		case err != nil:
			return out, fmt.Errorf("relay: %w", err)
		case utf8.RuneCountInString(strings.TrimSpace(text)) <= f.RelayMinLength:
			return out, lyrics.ErrLyricsNotFound
		default:
			out.Lyrics, out.Source = text, SourceRelay
			return out, nil
		}
	}

	if f.Chain == nil {
		return out, lyrics.ErrLyricsNotFound
	}
	text, src, err := f.Chain.Find(ctx, artist, title)
	if err != nil {
		return out, err
	}
	out.Lyrics, out.Source = text, fmt.Sprint(src)
	return out, nil
}
