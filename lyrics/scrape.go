package lyrics

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/gosimple/slug"
	"golang.org/x/net/html"
)

var geniusBaseURL = `https://genius.com`
var geniusSelectContent = cascadia.MustCompile(`div[data-lyrics-container="true"]`)
var geniusSelectLegacy = cascadia.MustCompile(`div[class^="Lyrics__Container-"], div.lyrics`)
var geniusEsc = strings.NewReplacer(
	" ", "-",
	"&", "and",
)

type Genius struct {
	BaseURL    string
	HTTPClient *http.Client
}

func (g *Genius) String() string { return "genius" }

func (g *Genius) Search(ctx context.Context, artist, song string) (string, error) {
	// use genius case rules to miminise redirects
	page := fmt.Sprintf("%s-%s-lyrics", CleanQuery(artist), CleanQuery(song))
	first, size := utf8.DecodeRuneInString(page)
	page = string(unicode.ToUpper(first)) + strings.ToLower(page[size:])

	u, err := url.Parse(or(g.BaseURL, geniusBaseURL))
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	u = u.JoinPath(geniusEsc.Replace(page))

	return geniusPage(ctx, g.HTTPClient, u.String())
}

func geniusPage(ctx context.Context, c *http.Client, url string) (string, error) {
	node, err := getHTML(ctx, c, url)
	if err != nil {
		return "", err
	}

	containers := cascadia.QueryAll(node, geniusSelectContent)
	if len(containers) == 0 {
		containers = cascadia.QueryAll(node, geniusSelectLegacy)
	}

	var out strings.Builder
	for _, n := range containers {
		iterText(n, func(s string) {
			out.WriteString(s)
		})
		out.WriteString("\n")
	}
	if strings.TrimSpace(out.String()) == "" {
		return "", ErrLyricsNotFound
	}
	return out.String(), nil
}

var azlyricsBaseURL = `https://www.azlyrics.com`

const azlyricsMarker = "Usage of azlyrics"

type AZLyrics struct {
	BaseURL    string
	HTTPClient *http.Client
}

func (az *AZLyrics) String() string { return "azlyrics" }

func (az *AZLyrics) Search(ctx context.Context, artist, song string) (string, error) {
	a, s := AlnumQuery(artist), AlnumQuery(song)
	if a == "" || s == "" {
		return "", ErrLyricsNotFound
	}

	u, err := url.Parse(or(az.BaseURL, azlyricsBaseURL))
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	u = u.JoinPath("lyrics", a, s+".html")

	doc, err := getDocument(ctx, az.HTTPClient, u.String())
	if err != nil {
		return "", err
	}

	// the lyrics div starts with a licensing comment
	var text string
	doc.Find("div").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		for c := s.Nodes[0].FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.CommentNode && strings.Contains(c.Data, azlyricsMarker) {
				text = s.Text()
				return false
			}
		}
		return true
	})
	if text != "" {
		return text, nil
	}

	// otherwise the first plain div which looks like verse
	doc.Find("div:not([class]):not([id])").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		t := strings.TrimSpace(s.Text())
		if len(t) > 200 && strings.Contains(t, "\n") {
			text = t
			return false
		}
		return true
	})
	if text == "" {
		return "", ErrLyricsNotFound
	}
	return text, nil
}

var googleBaseURL = `https://www.google.com`
var googleSelectLines = cascadia.MustCompile(`div[data-lyricid] span`)
var googleSelectPanel = cascadia.MustCompile(`.PZPZlf`)

type Google struct {
	BaseURL    string
	HTTPClient *http.Client
}

func (g *Google) String() string { return "google" }

func (g *Google) Search(ctx context.Context, artist, song string) (string, error) {
	u, err := url.Parse(or(g.BaseURL, googleBaseURL))
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	u = u.JoinPath("search")
	u.RawQuery = url.Values{"q": {fmt.Sprintf("%s %s lyrics", CleanQuery(artist), CleanQuery(song))}}.Encode()

	node, err := getHTML(ctx, g.HTTPClient, u.String())
	if err != nil {
		return "", err
	}

	lines := cascadia.QueryAll(node, googleSelectLines)
	if len(lines) == 0 {
		lines = cascadia.QueryAll(node, googleSelectPanel)
	}

	var parts []string
	for _, n := range lines {
		var line strings.Builder
		iterText(n, func(s string) {
			line.WriteString(s)
		})
		if l := strings.TrimSpace(line.String()); l != "" {
			parts = append(parts, l)
		}
	}
	if len(parts) == 0 {
		return "", ErrLyricsNotFound
	}
	return strings.Join(parts, "\n"), nil
}

var musixmatchBaseURL = `https://www.musixmatch.com`
var musixmatchIgnore = []string{"Still no lyrics here", "Unfortunately we're not authorized"}

type Musixmatch struct {
	BaseURL    string
	HTTPClient *http.Client
}

func (mm *Musixmatch) String() string { return "musixmatch" }

func (mm *Musixmatch) Search(ctx context.Context, artist, song string) (string, error) {
	base, err := url.Parse(or(mm.BaseURL, musixmatchBaseURL))
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	search := base.JoinPath("search", fmt.Sprintf("%s %s", CleanQuery(artist), CleanQuery(song)))

	doc, err := getDocument(ctx, mm.HTTPClient, search.String())
	if err != nil {
		return "", err
	}
	page, ok := pickLink(base, doc.Find("a.title"), song)
	if !ok {
		return "", ErrLyricsNotFound
	}

	doc, err = getDocument(ctx, mm.HTTPClient, page)
	if err != nil {
		return "", err
	}

	var parts []string
	doc.Find("span.lyrics__content__ok").Each(func(_ int, s *goquery.Selection) {
		parts = append(parts, s.Text())
	})
	text := strings.Join(parts, "\n")
	for _, ig := range musixmatchIgnore {
		if strings.Contains(text, ig) {
			return "", ErrLyricsNotFound
		}
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrLyricsNotFound
	}
	return text, nil
}

var songLyricsBaseURL = `http://www.songlyrics.com`

const songLyricsMissing = "We do not have"

type SongLyrics struct {
	BaseURL    string
	HTTPClient *http.Client
}

func (sl *SongLyrics) String() string { return "songlyrics" }

func (sl *SongLyrics) Search(ctx context.Context, artist, song string) (string, error) {
	a, s := slug.Make(CleanQuery(artist)), slug.Make(CleanQuery(song))
	if a == "" || s == "" {
		return "", ErrLyricsNotFound
	}

	u, err := url.Parse(or(sl.BaseURL, songLyricsBaseURL))
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	u = u.JoinPath(a, s+"-lyrics/")

	doc, err := getDocument(ctx, sl.HTTPClient, u.String())
	if err != nil {
		return "", err
	}

	text := strings.TrimSpace(doc.Find("p#songLyricsDiv").Text())
	if text == "" || strings.HasPrefix(text, songLyricsMissing) {
		return "", ErrLyricsNotFound
	}
	return text, nil
}

var lyricsComBaseURL = `https://www.lyrics.com`

type LyricsCom struct {
	BaseURL    string
	HTTPClient *http.Client
}

func (lc *LyricsCom) String() string { return "lyricscom" }

func (lc *LyricsCom) Search(ctx context.Context, artist, song string) (string, error) {
	base, err := url.Parse(or(lc.BaseURL, lyricsComBaseURL))
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	search := base.JoinPath("serp.php")
	search.RawQuery = url.Values{"st": {fmt.Sprintf("%s %s", CleanQuery(artist), CleanQuery(song))}}.Encode()

	doc, err := getDocument(ctx, lc.HTTPClient, search.String())
	if err != nil {
		return "", err
	}
	page, ok := pickLink(base, doc.Find("a.lyric-meta-title"), song)
	if !ok {
		return "", ErrLyricsNotFound
	}

	doc, err = getDocument(ctx, lc.HTTPClient, page)
	if err != nil {
		return "", err
	}

	text := strings.TrimSpace(doc.Find("pre#lyric-body-text").Text())
	if text == "" {
		return "", ErrLyricsNotFound
	}
	return text, nil
}

func getDocument(ctx context.Context, c *http.Client, url string) (*goquery.Document, error) {
	resp, err := get(ctx, c, url, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	return doc, nil
}

// pickLink resolves the href of the search result whose text is nearest to song
func pickLink(base *url.URL, links *goquery.Selection, song string) (string, bool) {
	var texts, hrefs []string
	links.Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok && href != "" {
			texts = append(texts, s.Text())
			hrefs = append(hrefs, href)
		}
	})
	i := closest(song, texts)
	if i < 0 {
		return "", false
	}
	ref, err := url.Parse(hrefs[i])
	if err != nil {
		return "", false
	}
	return base.ResolveReference(ref).String(), true
}
