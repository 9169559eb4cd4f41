package tags

import (
	"fmt"
	"slices"

	mp4tag "github.com/Sorrow446/go-mp4tag"
)

// atom key -> go-mp4tag field, and the delete name go-mp4tag accepts for it
var mp4Fields = map[string]struct {
	get func(*mp4tag.MP4Tags) *string
	del string
}{
	"©nam": {func(t *mp4tag.MP4Tags) *string { return &t.Title }, "title"},
	"©ART": {func(t *mp4tag.MP4Tags) *string { return &t.Artist }, "artist"},
	"aART": {func(t *mp4tag.MP4Tags) *string { return &t.AlbumArtist }, "albumartist"},
	"©wrt": {func(t *mp4tag.MP4Tags) *string { return &t.Composer }, "composer"},
	"©alb": {func(t *mp4tag.MP4Tags) *string { return &t.Album }, "album"},
	"©lyr": {func(t *mp4tag.MP4Tags) *string { return &t.Lyrics }, "lyrics"},
}

type mp4File struct {
	mp4     *mp4tag.MP4
	tags    *mp4tag.MP4Tags
	pending mp4tag.MP4Tags
	del     []string
	dirty   bool
}

func openMP4(path string) (*mp4File, error) {
	mp4, err := mp4tag.Open(path)
	if err != nil {
		return nil, err
	}
	tags, err := mp4.Read()
	if err != nil {
		mp4.Close()
		return nil, fmt.Errorf("read atoms: %w", err)
	}
	return &mp4File{mp4: mp4, tags: tags}, nil
}

func (f *mp4File) Get(key string) string {
	field, ok := mp4Fields[key]
	if !ok {
		return f.tags.Custom[key]
	}
	return trimNull(*field.get(f.tags))
}

func (f *mp4File) Set(key, value string) {
	f.dirty = true
	field, ok := mp4Fields[key]
	if !ok {
		if f.pending.Custom == nil {
			f.pending.Custom = map[string]string{}
		}
		f.pending.Custom[key] = value
		return
	}
	*field.get(&f.pending) = value
	if value == "" {
		f.del = append(f.del, field.del)
	}
}

func (f *mp4File) Save() error {
	if !f.dirty {
		return nil
	}
	if err := f.mp4.Write(&f.pending, f.del); err != nil {
		return fmt.Errorf("write atoms: %w", err)
	}
	for _, field := range mp4Fields {
		switch v := *field.get(&f.pending); {
		case v != "":
			*field.get(f.tags) = v
		case slices.Contains(f.del, field.del):
			*field.get(f.tags) = ""
		}
	}
	f.pending, f.del, f.dirty = mp4tag.MP4Tags{}, nil, false
	return nil
}

func (f *mp4File) Close() error {
	return f.mp4.Close()
}
