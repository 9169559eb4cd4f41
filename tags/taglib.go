package tags

import (
	"fmt"
	"strings"

	"go.senan.xyz/taglib"
)

// https://taglib.org/api/p_propertymapping.html
var propertyKeys = map[string]string{
	"TIT2": taglib.Title, "TPE1": taglib.Artist, "TPE2": taglib.AlbumArtist, "TCOM": taglib.Composer, "TALB": taglib.Album,
	"USLT": taglib.Lyrics,

	"©nam": taglib.Title, "©ART": taglib.Artist, "aART": taglib.AlbumArtist, "©wrt": taglib.Composer, "©alb": taglib.Album,
	"©lyr": taglib.Lyrics,

	"Title": taglib.Title, "Author": taglib.Artist,
	"WM/Lyrics": taglib.Lyrics,
}

// propertyKey maps a native key to taglib's unified property name.
func propertyKey(key string) string {
	if p, ok := propertyKeys[key]; ok {
		return p
	}
	return strings.ToUpper(key)
}

// tagLibFile covers every family without a dedicated backend, through taglib's property interface.
type tagLibFile struct {
	path    string
	raw     map[string][]string
	pending map[string][]string
}

func openTagLib(path string, fam Family) (*tagLibFile, error) {
	raw, err := taglib.ReadTags(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnsupported, fam, err)
	}
	return &tagLibFile{path: path, raw: raw, pending: map[string][]string{}}, nil
}

func (f *tagLibFile) Get(key string) string {
	if vs := f.raw[propertyKey(key)]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

func (f *tagLibFile) Set(key, value string) {
	p := propertyKey(key)
	if value == "" {
		delete(f.pending, p)
		return
	}
	f.pending[p] = []string{value}
}

func (f *tagLibFile) Save() error {
	if len(f.pending) == 0 {
		return nil
	}
	if err := taglib.WriteTags(f.path, f.pending, 0); err != nil {
		return fmt.Errorf("write tags: %w", err)
	}
	for k, vs := range f.pending {
		f.raw[k] = vs
	}
	clear(f.pending)
	return nil
}

func (f *tagLibFile) Close() error {
	return nil
}
