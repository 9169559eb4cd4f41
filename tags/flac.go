package tags

import (
	"fmt"
	"slices"
	"strings"

	"github.com/go-flac/flacvorbis"
	goflac "github.com/go-flac/go-flac"
)

type flacFile struct {
	path     string
	file     *goflac.File
	comments *flacvorbis.MetaDataBlockVorbisComment
	index    int
}

func openFLAC(path string) (*flacFile, error) {
	f, err := parseFLAC(path)
	if err != nil {
		return nil, err
	}

	ff := &flacFile{path: path, file: f, index: -1}
	for i, meta := range f.Meta {
		if meta.Type != goflac.VorbisComment {
			continue
		}
		ff.comments, err = flacvorbis.ParseFromMetaDataBlock(*meta)
		if err != nil {
			return nil, fmt.Errorf("parse vorbis comment: %w", err)
		}
		ff.index = i
		break
	}
	if ff.comments == nil {
		ff.comments = flacvorbis.New()
	}
	return ff, nil
}

// parseFLAC turns go-flac's panics on truncated streams into errors.
func parseFLAC(path string) (f *goflac.File, err error) {
	defer func() {
		if r := recover(); r != nil {
			f, err = nil, fmt.Errorf("parse flac: %v", r)
		}
	}()
	f, err = goflac.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("parse flac: %w", err)
	}
	return f, nil
}

// Get matches field names case-insensitively as vorbis comments require.
func (f *flacFile) Get(key string) string {
	for _, c := range f.comments.Comments {
		k, v, ok := strings.Cut(c, "=")
		if ok && strings.EqualFold(k, key) && v != "" {
			return v
		}
	}
	return ""
}

func (f *flacFile) Set(key, value string) {
	f.comments.Comments = slices.DeleteFunc(f.comments.Comments, func(c string) bool {
		k, _, _ := strings.Cut(c, "=")
		return strings.EqualFold(k, key)
	})
	if value != "" {
		f.comments.Comments = append(f.comments.Comments, key+"="+value)
	}
}

func (f *flacFile) Save() error {
	block := f.comments.Marshal()
	if f.index >= 0 {
		f.file.Meta[f.index] = &block
	} else {
		f.file.Meta = append(f.file.Meta, &block)
		f.index = len(f.file.Meta) - 1
	}
	if err := f.file.Save(f.path); err != nil {
		return fmt.Errorf("save flac: %w", err)
	}
	return nil
}

func (f *flacFile) Close() error {
	return nil
}
