// Package tags reads and writes native metadata in audio containers. Each file is resolved once to a
// container [Family] which drives a table of native field names for both reads and writes.
package tags

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dhowden/tag"
	"go.senan.xyz/lyrictag/songinfo"
)

var (
	ErrUnsupported = errors.New("unsupported container")
	ErrWrite       = errors.New("error writing lyrics")
)

type Family uint8

const (
	Unknown Family = iota
	ID3
	Atom
	Vorbis
	ASF
)

func (f Family) String() string {
	switch f {
	case ID3:
		return "id3"
	case Atom:
		return "atom"
	case Vorbis:
		return "vorbis"
	case ASF:
		return "asf"
	}
	return "unknown"
}

// FieldMap names the native keys of a container family.
type FieldMap struct {
	Title, Artist, AlbumArtist, Composer, Album string

	// Lyrics are written in order. With FirstOnly, writing stops at the first key that saves.
	Lyrics    []string
	FirstOnly bool
	// LyricsAlts are only read, for files tagged by other software.
	LyricsAlts []string
}

func (m FieldMap) lyricsKeys() []string {
	return slices.Concat(m.Lyrics, m.LyricsAlts)
}

var fieldMaps = map[Family]FieldMap{
	ID3: {
		Title: "TIT2", Artist: "TPE1", AlbumArtist: "TPE2", Composer: "TCOM", Album: "TALB",
		Lyrics: []string{"USLT"},
	},
	Atom: {
		Title: "©nam", Artist: "©ART", AlbumArtist: "aART", Composer: "©wrt", Album: "©alb",
		Lyrics: []string{"©lyr"},
	},
	Vorbis: {
		Title: "title", Artist: "artist", AlbumArtist: "albumartist", Composer: "composer", Album: "album",
		Lyrics:     []string{"LYRICS", "UNSYNCED LYRICS"},
		LyricsAlts: []string{"UNSYNCEDLYRICS"},
	},
	ASF: {
		Title: "Title", Artist: "Author",
		Lyrics:     []string{"WM/Lyrics"},
		LyricsAlts: []string{"Lyrics"},
	},
	// taglib maps all three lyrics keys to its one LYRICS property, so the later keys only matter for a
	// backend which keeps them apart.
	Unknown: {
		Title: "title", Artist: "artist", AlbumArtist: "albumartist", Composer: "composer", Album: "album",
		Lyrics:    []string{"lyrics", "LYRICS", "©lyr"},
		FirstOnly: true,
	},
}

func Fields(f Family) FieldMap {
	return fieldMaps[f]
}

var extFamilies = map[string]Family{
	".mp3": ID3, ".wav": ID3, ".aiff": ID3, ".aif": ID3,
	".m4a": Atom, ".m4b": Atom, ".mp4": Atom, ".aac": Atom, ".alac": Atom,
	".flac": Vorbis, ".ogg": Vorbis, ".oga": Vorbis, ".opus": Vorbis, ".spx": Vorbis,
	".wma": ASF, ".asf": ASF,
}

// Detect sniffs the container's tag block, falling back to the file extension.
func Detect(path string) Family {
	if fam, ok := sniff(path); ok {
		return fam
	}
	return extFamilies[strings.ToLower(filepath.Ext(path))]
}

func sniff(path string) (Family, bool) {
	f, err := os.Open(path)
	if err != nil {
		return Unknown, false
	}
	defer f.Close()

	format, _, err := tag.Identify(f)
	if err != nil {
		return Unknown, false
	}
	switch format {
	case tag.ID3v1, tag.ID3v2_2, tag.ID3v2_3, tag.ID3v2_4:
		return ID3, true
	case tag.MP4:
		return Atom, true
	case tag.VORBIS:
		return Vorbis, true
	}
	return Unknown, false
}

// container is a native tag store. Setting an empty value removes the key.
type container interface {
	Get(key string) string
	Set(key, value string)
	Save() error
	Close() error
}

// File is an open audio container resolved to its family.
type File struct {
	Family Family
	path   string
	c      container
}

func Open(path string) (*File, error) {
	fam := Detect(path)
	c, err := openContainer(path, fam)
	if err != nil {
		return nil, fmt.Errorf("open %s container: %w", fam, err)
	}
	return &File{Family: fam, path: path, c: c}, nil
}

func openContainer(path string, fam Family) (container, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); {
	case fam == ID3 && ext == ".mp3":
		return openID3(path)
	case fam == Vorbis && ext == ".flac":
		return openFLAC(path)
	case fam == Atom && (ext == ".m4a" || ext == ".mp4" || ext == ".m4b"):
		return openMP4(path)
	}
	return openTagLib(path, fam)
}

func (f *File) Close() error {
	return f.c.Close()
}

func (f *File) Info() songinfo.Info {
	m := fieldMaps[f.Family]
	return songinfo.Info{
		Title:       f.get(m.Title),
		Artist:      f.get(m.Artist),
		AlbumArtist: f.get(m.AlbumArtist),
		Composer:    f.get(m.Composer),
		Album:       f.get(m.Album),
		Lyrics:      f.Lyrics(),
	}
}

type Field struct {
	Key, Value string
}

// LyricsFields lists every known lyrics key for the family, populated or not.
func (f *File) LyricsFields() []Field {
	var fields []Field
	for _, k := range fieldMaps[f.Family].lyricsKeys() {
		fields = append(fields, Field{Key: k, Value: f.c.Get(k)})
	}
	return fields
}

// Lyrics returns the first populated lyrics field.
func (f *File) Lyrics() string {
	for _, field := range f.LyricsFields() {
		if strings.TrimSpace(field.Value) != "" {
			return field.Value
		}
	}
	return ""
}

func (f *File) HasLyrics() bool {
	return f.Lyrics() != ""
}

func (f *File) WriteLyrics(text string) error {
	if err := writeLyrics(f.c, fieldMaps[f.Family], text); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}

func writeLyrics(c container, m FieldMap, text string) error {
	if len(m.Lyrics) == 0 {
		return ErrUnsupported
	}
	if m.FirstOnly {
		var errs []error
		for _, k := range m.Lyrics {
			c.Set(k, text)
			err := c.Save()
			if err == nil {
				return nil
			}
			errs = append(errs, fmt.Errorf("key %q: %w", k, err))
			c.Set(k, "")
		}
		return errors.Join(errs...)
	}
	for _, k := range m.Lyrics {
		c.Set(k, text)
	}
	return c.Save()
}

func (f *File) get(key string) string {
	if key == "" {
		return ""
	}
	return strings.TrimSpace(f.c.Get(key))
}

// ReadInfo reads descriptive fields, filling a missing title and artist from the file name.
// Unreadable containers degrade to the file name alone.
func ReadInfo(path string) songinfo.Info {
	fromName := songinfo.ParseFilename(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))

	f, err := Open(path)
	if err != nil {
		slog.Debug("reading tags, using filename", "path", path, "err", err)
		return fromName
	}
	defer f.Close()

	info := f.Info()
	if info.Title == "" {
		info = info.Merge(fromName)
	}
	return info
}

func HasLyrics(path string) bool {
	f, err := Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	return f.HasLyrics()
}

func ReadLyrics(path string) ([]Field, error) {
	f, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.LyricsFields(), nil
}

func WriteLyrics(path string, text string) error {
	f, err := Open(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	defer f.Close()
	return f.WriteLyrics(text)
}

// Probe reports whether the container at path can be opened for tagging.
func Probe(path string) error {
	f, err := Open(path)
	if err != nil {
		return err
	}
	return f.Close()
}
