package tags

import (
	"bytes"
	_ "embed"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadBack(t *testing.T) {
	t.Parallel()

	for _, tf := range testFiles {
		t.Run(tf.name, func(t *testing.T) {
			t.Parallel()

			path := newFile(t, tf.data(), "song"+tf.ext)
			assert.False(t, HasLyrics(path))

			const lyrics = "Is this the real life?\nIs this just fantasy?"
			require.NoError(t, WriteLyrics(path, lyrics))
			assert.True(t, HasLyrics(path))

			f, err := Open(path)
			require.NoError(t, err)
			defer f.Close()

			assert.Equal(t, tf.family, f.Family)
			for _, k := range Fields(tf.family).Lyrics {
				assert.Equal(t, lyrics, f.c.Get(k), "key %q", k)
			}
		})
	}
}

func TestOverwriteLyrics(t *testing.T) {
	t.Parallel()

	for _, tf := range testFiles {
		t.Run(tf.name, func(t *testing.T) {
			t.Parallel()

			path := newFile(t, tf.data(), "song"+tf.ext)
			require.NoError(t, WriteLyrics(path, "first"))
			require.NoError(t, WriteLyrics(path, "second"))

			fields, err := ReadLyrics(path)
			require.NoError(t, err)
			for _, field := range fields {
				if field.Value != "" {
					assert.Equal(t, "second", field.Value)
				}
			}
		})
	}
}

func TestDetect(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	write := func(name string, data []byte) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, data, 0o644))
		return path
	}

	assert.Equal(t, ID3, Detect(write("a.mp3", emptyMP3())))
	assert.Equal(t, Vorbis, Detect(write("a.flac", emptyFLAC())))
	assert.Equal(t, Vorbis, Detect(write("flac-named.mp3", emptyFLAC())))
	assert.Equal(t, Vorbis, Detect(write("truncated.flac", truncatedFLAC())))
	assert.Equal(t, Atom, Detect(write("b.m4a", bytesOf(emptyM4AData)())))
	assert.Equal(t, Vorbis, Detect(write("a.ogg", bytesOf(emptyOGGData)())))
	assert.Equal(t, ID3, Detect(write("a.wav", bytesOf(emptyWAVData)())))
	assert.Equal(t, Atom, Detect(write("a.m4a", nil)))
	assert.Equal(t, ASF, Detect(write("a.WMA", nil)))
	assert.Equal(t, Unknown, Detect(write("a.txt", nil)))
}

func TestReadInfo(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	t.Run("from filename", func(t *testing.T) {
		path := filepath.Join(dir, "Queen - Bohemian Rhapsody.mp3")
		require.NoError(t, os.WriteFile(path, emptyMP3(), 0o644))

		info := ReadInfo(path)
		assert.Equal(t, "Queen", info.Artist)
		assert.Equal(t, "Bohemian Rhapsody", info.Title)
	})

	t.Run("native wins", func(t *testing.T) {
		path := filepath.Join(dir, "Someone - Something.flac")
		require.NoError(t, os.WriteFile(path, emptyFLAC(), 0o644))
		withf(t, path, func(f *File) {
			f.c.Set("ARTIST", "The Fall")
			f.c.Set("ALBUM", "Grotesque")
		})

		info := ReadInfo(path)
		assert.Equal(t, "The Fall", info.Artist)
		assert.Equal(t, "Something", info.Title)
		assert.Equal(t, "Grotesque", info.Album)
	})

	t.Run("unreadable", func(t *testing.T) {
		path := filepath.Join(dir, "Unknown Artist - Unknown Song.xyz")
		require.NoError(t, os.WriteFile(path, []byte("not audio"), 0o644))

		info := ReadInfo(path)
		assert.Equal(t, "Unknown Artist", info.Artist)
		assert.Equal(t, "Unknown Song", info.Title)
	})
}

func TestWriteUnsupported(t *testing.T) {
	t.Parallel()

	path := newFile(t, []byte("plain text"), "notes.txt")
	err := WriteLyrics(path, "lyrics")
	require.ErrorIs(t, err, ErrWrite)
	assert.False(t, HasLyrics(path))
}

func TestWriteFirstSuccess(t *testing.T) {
	t.Parallel()

	c := &memContainer{fail: map[string]bool{"lyrics": true}}
	require.NoError(t, writeLyrics(c, Fields(Unknown), "text"))

	assert.Empty(t, c.kv["lyrics"])
	assert.Equal(t, "text", c.kv["LYRICS"])
	assert.Empty(t, c.kv["©lyr"])
	assert.Equal(t, []string{"lyrics", "LYRICS"}, c.saves)
}

func TestWriteFirstSuccessAllFail(t *testing.T) {
	t.Parallel()

	c := &memContainer{fail: map[string]bool{"lyrics": true, "LYRICS": true, "©lyr": true}}
	err := writeLyrics(c, Fields(Unknown), "text")
	require.Error(t, err)
	assert.Empty(t, c.kv)
	assert.Len(t, c.saves, 3)
}

func TestWriteAllKeys(t *testing.T) {
	t.Parallel()

	c := &memContainer{}
	require.NoError(t, writeLyrics(c, Fields(Vorbis), "text"))
	assert.Equal(t, map[string]string{"LYRICS": "text", "UNSYNCED LYRICS": "text"}, c.kv)
	assert.Len(t, c.saves, 1)
}

func TestPresenceAlts(t *testing.T) {
	t.Parallel()

	f := &File{Family: ASF, c: &memContainer{kv: map[string]string{"Lyrics": "from another tagger"}}}
	assert.True(t, f.HasLyrics())

	f = &File{Family: ASF, c: &memContainer{kv: map[string]string{"WM/Lyrics": "  \n"}}}
	assert.False(t, f.HasLyrics())
}

func TestPropertyKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "LYRICS", propertyKey("USLT"))
	assert.Equal(t, "LYRICS", propertyKey("©lyr"))
	assert.Equal(t, "LYRICS", propertyKey("WM/Lyrics"))
	assert.Equal(t, "LYRICS", propertyKey("lyrics"))
	assert.Equal(t, "UNSYNCED LYRICS", propertyKey("UNSYNCED LYRICS"))
	assert.Equal(t, "ARTIST", propertyKey("Author"))
	assert.Equal(t, "TITLE", propertyKey("©nam"))
}

var testFiles = []struct {
	name   string
	data   func() []byte
	ext    string
	family Family
}{
	{"flac", emptyFLAC, ".flac", Vorbis},
	{"mp3", emptyMP3, ".mp3", ID3},
	{"m4a", bytesOf(emptyM4AData), ".m4a", Atom},
	{"ogg", bytesOf(emptyOGGData), ".ogg", Vorbis},
	{"wav", bytesOf(emptyWAVData), ".wav", ID3},
}

var (
	//go:embed testdata/empty.flac
	emptyFLACData []byte
	//go:embed testdata/empty.m4a
	emptyM4AData []byte
	//go:embed testdata/empty.ogg
	emptyOGGData []byte
	//go:embed testdata/empty.wav
	emptyWAVData []byte
)

func bytesOf(b []byte) func() []byte {
	return func() []byte { return bytes.Clone(b) }
}

// emptyMP3 is a few silent bytes with no tag block.
func emptyMP3() []byte {
	return make([]byte, 1024)
}

func emptyFLAC() []byte {
	return bytes.Clone(emptyFLACData)
}

// truncatedFLAC is a stream header and STREAMINFO block with no frames after it.
func truncatedFLAC() []byte {
	b := []byte("fLaC")
	b = append(b, 0x80, 0x00, 0x00, 34)
	b = append(b, make([]byte, 34)...)
	return b
}

func newFile(t *testing.T, data []byte, name string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func withf(t *testing.T, path string, fn func(*File)) {
	t.Helper()

	f, err := Open(path)
	require.NoError(t, err)
	defer f.Close()

	fn(f)

	require.NoError(t, f.c.Save())
}

type memContainer struct {
	kv    map[string]string
	fail  map[string]bool
	saves []string
	last  string
}

func (m *memContainer) Get(key string) string { return m.kv[key] }

func (m *memContainer) Set(key, value string) {
	if m.kv == nil {
		m.kv = map[string]string{}
	}
	if value == "" {
		delete(m.kv, key)
		return
	}
	m.kv[key] = value
	m.last = key
}

func (m *memContainer) Save() error {
	m.saves = append(m.saves, m.last)
	if m.fail[m.last] {
		return errors.New("rejected")
	}
	return nil
}

func (m *memContainer) Close() error { return nil }

func TestMP4Corrupt(t *testing.T) {
	t.Parallel()

	path := newFile(t, []byte("definitely not atoms"), "song.m4a")
	require.Error(t, Probe(path))
	require.ErrorIs(t, WriteLyrics(path, "lyrics"), ErrWrite)

	info := ReadInfo(path)
	assert.Equal(t, "song", info.Title)
}

func TestFLACTruncated(t *testing.T) {
	t.Parallel()

	path := newFile(t, truncatedFLAC(), "Queen - Innuendo.flac")
	require.Error(t, Probe(path))
	assert.False(t, HasLyrics(path))
	require.ErrorIs(t, WriteLyrics(path, "lyrics"), ErrWrite)

	info := ReadInfo(path)
	assert.Equal(t, "Queen", info.Artist)
	assert.Equal(t, "Innuendo", info.Title)
}

func TestMP4KeepsOtherAtoms(t *testing.T) {
	t.Parallel()

	path := newFile(t, bytesOf(emptyM4AData)(), "song.m4a")
	withf(t, path, func(f *File) {
		f.c.Set("©nam", "Innuendo")
		f.c.Set("©ART", "Queen")
	})
	require.NoError(t, WriteLyrics(path, "While the sun hangs in the sky"))

	info := ReadInfo(path)
	assert.Equal(t, "Innuendo", info.Title)
	assert.Equal(t, "Queen", info.Artist)
	assert.Equal(t, "While the sun hangs in the sky", info.Lyrics)

	withf(t, path, func(f *File) {
		f.c.Set("©ART", "")
	})
	info = ReadInfo(path)
	assert.Equal(t, "Innuendo", info.Title)
	assert.Empty(t, info.Artist)
	assert.True(t, HasLyrics(path))
}
