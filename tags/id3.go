package tags

import (
	"strings"

	"github.com/bogem/id3v2/v2"
)

const id3Lyrics = "USLT"

type id3File struct {
	tag *id3v2.Tag
}

// openID3 parses the ID3v2 block. Files without one get an empty v2.4 tag prepended on save.
func openID3(path string) (*id3File, error) {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return nil, err
	}
	return &id3File{tag: tag}, nil
}

func (f *id3File) Get(key string) string {
	if key == id3Lyrics {
		for _, fr := range f.tag.GetFrames(key) {
			if uslt, ok := fr.(id3v2.UnsynchronisedLyricsFrame); ok && uslt.Lyrics != "" {
				return trimNull(uslt.Lyrics)
			}
		}
		return ""
	}
	return trimNull(f.tag.GetTextFrame(key).Text)
}

func (f *id3File) Set(key, value string) {
	f.tag.DeleteFrames(key)
	if value == "" {
		return
	}
	if key == id3Lyrics {
		f.tag.AddUnsynchronisedLyricsFrame(id3v2.UnsynchronisedLyricsFrame{
			Encoding:          f.encoding(),
			Language:          "eng",
			ContentDescriptor: "",
			Lyrics:            value,
		})
		return
	}
	f.tag.AddTextFrame(key, f.encoding(), value)
}

// encoding picks UTF-8 where the tag version allows it
func (f *id3File) encoding() id3v2.Encoding {
	if f.tag.Version() < 4 {
		return id3v2.EncodingUTF16
	}
	return id3v2.EncodingUTF8
}

func (f *id3File) Save() error {
	return f.tag.Save()
}

func (f *id3File) Close() error {
	return f.tag.Close()
}

func trimNull(s string) string {
	return strings.TrimRight(s, "\x00")
}
