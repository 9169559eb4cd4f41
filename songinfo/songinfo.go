// Package songinfo holds the descriptive fields of a track and the filename fallback used when its tags are empty.
package songinfo

import (
	"regexp"
	"strings"
)

type Info struct {
	Title       string
	Artist      string
	AlbumArtist string
	Composer    string
	Album       string
	Lyrics      string
}

// Merge fills an empty title and artist from fallback. Values already present win.
func (i Info) Merge(fallback Info) Info {
	i.Title = or(i.Title, fallback.Title)
	i.Artist = or(i.Artist, fallback.Artist)
	return i
}

// Query is the artist used for lookups. Track artist first, then album artist, then composer.
func (i Info) Query() string {
	return or(i.Artist, i.AlbumArtist, i.Composer)
}

var filenamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(?P<artist>[^-]+)\s*-\s*(?P<title>.+)$`),
	regexp.MustCompile(`^(?P<title>[^-]+)\s*-\s*(?P<artist>.+)$`),
	regexp.MustCompile(`^(?P<artist>[^\[\]]+)\s*\[(?P<album>[^\]]+)\]\s*-\s*(?P<title>.+)$`),
	regexp.MustCompile(`^(?P<title>.+)\s*\((?P<artist>[^\)]+)\)$`),
}

// ParseFilename guesses title, artist, and album from a base name without its extension.
// Patterns are tried in order and the first match wins. The "Title - Artist" pattern can never
// win over "Artist - Title" since both match the same inputs. When nothing matches the whole
// name becomes the title.
func ParseFilename(name string) Info {
	for _, re := range filenamePatterns {
		m := re.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		var info Info
		for i, group := range re.SubexpNames() {
			v := strings.TrimSpace(m[i])
			switch group {
			case "title":
				info.Title = v
			case "artist":
				info.Artist = v
			case "album":
				info.Album = v
			}
		}
		return info
	}
	return Info{Title: strings.TrimSpace(name)}
}

func or(vs ...string) string {
	for _, v := range vs {
		if v != "" {
			return v
		}
	}
	return ""
}
