package diff_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.senan.xyz/lyrictag/diff"
)

func TestScore(t *testing.T) {
	t.Parallel()

	same := diff.Text("lyrics", "Is this the real life?", "Is this the real life?")
	assert.InDelta(t, 100.0, diff.Score(same), 0.001)

	added := diff.Text("lyrics", "", "Is this the real life?")
	assert.InDelta(t, 0.0, diff.Score(added), 0.001)

	changed := diff.Text("lyrics", "Is this the real life?", "Is this the reel life?")
	score := diff.Score(changed)
	assert.Greater(t, score, 80.0)
	assert.Less(t, score, 100.0)

	assert.InDelta(t, 100.0, diff.Score(diff.Text("lyrics", "", "")), 0.001)
	assert.InDelta(t, 0.0, diff.Score(diff.Text("lyrics", "gone", "")), 0.001)
}

func TestString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "[empty]", diff.Text("lyrics", "", "").String())
	assert.Contains(t, diff.Text("lyrics", "", "Mamma mia").String(), "Mamma mia")
}
