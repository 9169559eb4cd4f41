// Package lyrics looks up song lyrics from web pages and public APIs.
package lyrics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/rainycape/unidecode"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/unicode/norm"
)

var ErrLyricsNotFound = errors.New("lyrics not found")

type Source interface {
	Search(ctx context.Context, artist, song string) (string, error)
}

// Chain tries its sources in order and returns the first text long enough to be real lyrics.
type Chain struct {
	Sources   []Source
	MinLength int
	Delay     time.Duration
}

func (c *Chain) Search(ctx context.Context, artist, song string) (string, error) {
	text, _, err := c.Find(ctx, artist, song)
	return text, err
}

// Find is like Search but also returns the source which answered. The text is returned as the source gave it.
func (c *Chain) Find(ctx context.Context, artist, song string) (string, Source, error) {
	if strings.TrimSpace(artist) == "" || strings.TrimSpace(song) == "" {
		return "", nil, ErrLyricsNotFound
	}

	for i, src := range c.Sources {
		if i > 0 && c.Delay > 0 {
			select {
			case <-ctx.Done():
				return "", nil, ctx.Err()
			case <-time.After(c.Delay):
			}
		}

		text, err := src.Search(ctx, artist, song)
		switch {
		case errors.Is(err, ErrLyricsNotFound):
			slog.DebugContext(ctx, "source has no lyrics", "source", src, "artist", artist, "song", song)
			continue
		case err != nil:
			if ctx.Err() != nil {
				return "", nil, ctx.Err()
			}
			slog.WarnContext(ctx, "source failed", "source", src, "artist", artist, "song", song, "err", err)
			continue
		}

		if n := utf8.RuneCountInString(strings.TrimSpace(text)); n <= c.MinLength {
			slog.DebugContext(ctx, "source lyrics too short", "source", src, "length", n, "min", c.MinLength)
			continue
		}
		return text, src, nil
	}
	return "", nil, ErrLyricsNotFound
}

func (c *Chain) String() string {
	var parts []string
	for _, src := range c.Sources {
		parts = append(parts, fmt.Sprint(src))
	}
	return strings.Join(parts, ", ")
}

var (
	queryAsides = regexp.MustCompile(`\([^)]*\)|\[[^\]]*\]`)
	queryFeat   = regexp.MustCompile(`(?i)\b(?:feat\.|ft\.|featuring)`)
	queryPunct  = regexp.MustCompile(`[^\p{L}\p{N}_\s-]`)
	querySpace  = regexp.MustCompile(`\s+`)
)

// CleanQuery strips asides in brackets, featured artist markers, and punctuation from a search term.
func CleanQuery(s string) string {
	s = norm.NFC.String(s)
	s = queryAsides.ReplaceAllString(s, "")
	s = queryFeat.ReplaceAllString(s, "")
	s = queryPunct.ReplaceAllString(s, "")
	s = querySpace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// AlnumQuery reduces a search term to lowercase ASCII letters and digits, for sites which build paths that way.
func AlnumQuery(s string) string {
	s = unidecode.Unidecode(queryAsides.ReplaceAllString(s, ""))
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if ('a' <= r && r <= 'z') || ('0' <= r && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

type Options struct {
	HTTPClient  *http.Client
	GeniusToken string
}

var sourceNames = []string{"genius", "azlyrics", "google", "musixmatch", "songlyrics", "lyricscom", "geniusapi", "lyricsovh", "chartlyrics", "lrclib"}

// DefaultSources is the scraping order used when none are configured.
var DefaultSources = []string{"genius", "azlyrics", "google", "musixmatch", "songlyrics", "lyricscom"}

func SourceNames() []string {
	return slices.Clone(sourceNames)
}

func NewSource(name string, opts Options) (Source, error) {
	switch name {
	case "genius":
		return &Genius{HTTPClient: opts.HTTPClient}, nil
	case "azlyrics":
		return &AZLyrics{HTTPClient: opts.HTTPClient}, nil
	case "google":
		return &Google{HTTPClient: opts.HTTPClient}, nil
	case "musixmatch":
		return &Musixmatch{HTTPClient: opts.HTTPClient}, nil
	case "songlyrics":
		return &SongLyrics{HTTPClient: opts.HTTPClient}, nil
	case "lyricscom":
		return &LyricsCom{HTTPClient: opts.HTTPClient}, nil
	case "geniusapi":
		if opts.GeniusToken == "" {
			return nil, errors.New("geniusapi needs a token")
		}
		return &GeniusAPI{HTTPClient: opts.HTTPClient, Token: opts.GeniusToken}, nil
	case "lyricsovh":
		return &LyricsOVH{HTTPClient: opts.HTTPClient}, nil
	case "chartlyrics":
		return &ChartLyrics{HTTPClient: opts.HTTPClient}, nil
	case "lrclib":
		return &LRCLib{HTTPClient: opts.HTTPClient}, nil
	default:
		return nil, fmt.Errorf("unknown source %q", name)
	}
}

func get(ctx context.Context, c *http.Client, url string, header http.Header) (*http.Response, error) {
	if c == nil {
		c = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("make request: %w", err)
	}
	for k, vs := range header {
		req.Header[k] = vs
	}
	resp, err := c.Do(req)
	if err != nil {
		return nil, fmt.Errorf("req page: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil, ErrLyricsNotFound
	}
	return resp, nil
}

func getHTML(ctx context.Context, c *http.Client, url string) (*html.Node, error) {
	resp, err := get(ctx, c, url, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	node, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	return node, nil
}

// iterText walks text under n, turning line breaks into newlines
func iterText(n *html.Node, f func(string)) {
	if n == nil {
		return
	}
	switch {
	case n.Type == html.TextNode:
		f(n.Data)
	case n.Type == html.ElementNode && n.DataAtom == atom.Br:
		f("\n")
	case n.Type == html.ElementNode && (n.DataAtom == atom.Script || n.DataAtom == atom.Style):
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		iterText(c, f)
	}
}

// closest returns the index of the candidate nearest to want, ignoring case. -1 if there are none.
func closest(want string, candidates []string) int {
	want = strings.ToLower(CleanQuery(want))
	best, bestDist := -1, 0
	for i, c := range candidates {
		d := levenshtein.ComputeDistance(want, strings.ToLower(CleanQuery(c)))
		if best < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

func or(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
