package lyrics

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var geniusAPIBaseURL = `https://api.genius.com`

// GeniusAPI finds the song page through the authenticated search API, then scrapes it like [Genius].
type GeniusAPI struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

func (g *GeniusAPI) String() string { return "geniusapi" }

type geniusSearchResponse struct {
	Response struct {
		Hits []struct {
			Type   string `json:"type"`
			Result struct {
				Title         string `json:"title"`
				URL           string `json:"url"`
				PrimaryArtist struct {
					Name string `json:"name"`
				} `json:"primary_artist"`
			} `json:"result"`
		} `json:"hits"`
	} `json:"response"`
}

func (g *GeniusAPI) Search(ctx context.Context, artist, song string) (string, error) {
	u, err := url.Parse(or(g.BaseURL, geniusAPIBaseURL))
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	u = u.JoinPath("search")
	u.RawQuery = url.Values{"q": {fmt.Sprintf("%s %s", CleanQuery(song), CleanQuery(artist))}}.Encode()

	var sr geniusSearchResponse
	if err := getJSON(ctx, g.HTTPClient, u.String(), http.Header{"Authorization": {"Bearer " + g.Token}}, &sr); err != nil {
		return "", err
	}

	var names, urls []string
	for _, hit := range sr.Response.Hits {
		if hit.Type != "song" || hit.Result.URL == "" {
			continue
		}
		names = append(names, hit.Result.PrimaryArtist.Name+" "+hit.Result.Title)
		urls = append(urls, hit.Result.URL)
	}
	i := closest(artist+" "+song, names)
	if i < 0 {
		return "", ErrLyricsNotFound
	}
	return geniusPage(ctx, g.HTTPClient, urls[i])
}

var lyricsOVHBaseURL = `https://api.lyrics.ovh`

type LyricsOVH struct {
	BaseURL    string
	HTTPClient *http.Client
}

func (lo *LyricsOVH) String() string { return "lyricsovh" }

func (lo *LyricsOVH) Search(ctx context.Context, artist, song string) (string, error) {
	u, err := url.Parse(or(lo.BaseURL, lyricsOVHBaseURL))
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	u = u.JoinPath("v1", artist, song)

	var resp struct {
		Lyrics string `json:"lyrics"`
		Error  string `json:"error"`
	}
	if err := getJSON(ctx, lo.HTTPClient, u.String(), nil, &resp); err != nil {
		return "", err
	}
	if resp.Error != "" || strings.TrimSpace(resp.Lyrics) == "" {
		return "", ErrLyricsNotFound
	}
	return resp.Lyrics, nil
}

var chartLyricsBaseURL = `http://api.chartlyrics.com`

type ChartLyrics struct {
	BaseURL    string
	HTTPClient *http.Client
}

func (cl *ChartLyrics) String() string { return "chartlyrics" }

func (cl *ChartLyrics) Search(ctx context.Context, artist, song string) (string, error) {
	u, err := url.Parse(or(cl.BaseURL, chartLyricsBaseURL))
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	u = u.JoinPath("apiv1.asmx", "SearchLyricDirect")
	u.RawQuery = url.Values{"artist": {artist}, "song": {song}}.Encode()

	resp, err := get(ctx, cl.HTTPClient, u.String(), nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var result struct {
		Lyric string `xml:"Lyric"`
	}
	if err := xml.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if strings.TrimSpace(result.Lyric) == "" {
		return "", ErrLyricsNotFound
	}
	return result.Lyric, nil
}

var lrclibBaseURL = `https://lrclib.net`

type LRCLib struct {
	BaseURL    string
	HTTPClient *http.Client
}

func (l *LRCLib) String() string { return "lrclib" }

type lrclibSong struct {
	TrackName    string `json:"trackName"`
	ArtistName   string `json:"artistName"`
	Instrumental bool   `json:"instrumental"`
	PlainLyrics  string `json:"plainLyrics"`
	SyncedLyrics string `json:"syncedLyrics"`
}

func (l *LRCLib) Search(ctx context.Context, artist, song string) (string, error) {
	u, err := url.Parse(or(l.BaseURL, lrclibBaseURL))
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	u = u.JoinPath("api", "search")
	u.RawQuery = url.Values{"artist_name": {artist}, "track_name": {song}}.Encode()

	var results []lrclibSong
	if err := getJSON(ctx, l.HTTPClient, u.String(), nil, &results); err != nil {
		return "", err
	}

	var names []string
	var songs []lrclibSong
	for _, r := range results {
		if r.Instrumental || (r.PlainLyrics == "" && r.SyncedLyrics == "") {
			continue
		}
		names = append(names, r.ArtistName+" "+r.TrackName)
		songs = append(songs, r)
	}
	i := closest(artist+" "+song, names)
	if i < 0 {
		return "", ErrLyricsNotFound
	}
	if songs[i].PlainLyrics != "" {
		return songs[i].PlainLyrics, nil
	}
	return StripTimestamps(songs[i].SyncedLyrics), nil
}

var lrcTimestamp = regexp.MustCompile(`(?m)^(?:\[\d+:\d+(?:[.:]\d+)?\])+[ \t]*`)

// StripTimestamps turns LRC synced lyrics into plain text.
func StripTimestamps(lrc string) string {
	return lrcTimestamp.ReplaceAllString(lrc, "")
}

func getJSON(ctx context.Context, c *http.Client, url string, header http.Header, v any) error {
	resp, err := get(ctx, c, url, header)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
