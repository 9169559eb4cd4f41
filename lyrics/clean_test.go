package lyrics_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.senan.xyz/lyrictag/lyrics"
)

func TestClean(t *testing.T) {
	t.Parallel()

	raw := "123 Contributors\n" +
		"Bohemian Rhapsody Lyrics\n" +
		"Is this the real life?\n" +
		"Is this just fantasy?\n" +
		"\n\n\n\n" +
		"Caught in a landslide\n" +
		"No escape from reality\n" +
		"42\n" +
		"...\n" +
		"Open your eyes  \t  look up to the skies and see\n" +
		"You might also like\n" +
		"https://example.com/more\n" +
		"Nothing really matters to me567Embed"

	got := lyrics.Clean("Bohemian Rhapsody", raw)

	assert.NotContains(t, got, "Contributors")
	assert.NotContains(t, got, "Embed")
	assert.NotContains(t, got, "Bohemian Rhapsody Lyrics")
	assert.NotContains(t, got, "You might also like")
	assert.NotContains(t, got, "https://")
	assert.NotContains(t, got, "\n\n\n")
	assert.NotContains(t, got, "  ")

	exp := "Is this the real life?\n" +
		"Is this just fantasy?\n" +
		"\n" +
		"Caught in a landslide\n" +
		"No escape from reality\n" +
		"Open your eyes look up to the skies and see\n" +
		"Nothing really matters to me"
	assert.Equal(t, exp, got)
}

func TestCleanShortLines(t *testing.T) {
	t.Parallel()

	got := lyrics.Clean("", "I\nOh\nla la la la la\n1.\n!!\n--")
	assert.Equal(t, "I\nOh\nla la la la la", got)
}

func TestCleanBoilerplate(t *testing.T) {
	t.Parallel()

	got := lyrics.Clean("", strings.Join([]string{
		"Translations English Español",
		"first line of the song",
		"Lyrics licensed & provided by LyricFind",
		"Copyright 1975 Queen Music Ltd",
		"second line of the song",
		"Submit Corrections",
	}, "\n"))
	assert.Equal(t, "first line of the song\nsecond line of the song", got)
}

func TestCleanStripTimestamps(t *testing.T) {
	t.Parallel()

	got := lyrics.StripTimestamps("[00:01.00] Is this the real life?\n[00:05.20]Is this just fantasy?\n[01:02:03][01:10.00] Caught")
	assert.Equal(t, "Is this the real life?\nIs this just fantasy?\nCaught", got)
}
