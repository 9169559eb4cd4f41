package diff

import (
	"github.com/sergi/go-diff/diffmatchpatch"
)

var dmp = diffmatchpatch.New()

type Diff struct {
	Field         string
	Before, After string
	Changes       []diffmatchpatch.Diff
}

func Text(field, before, after string) Diff {
	return Diff{
		Field:   field,
		Before:  before,
		After:   after,
		Changes: dmp.DiffCleanupSemantic(dmp.DiffMain(before, after, false)),
	}
}

// Score is the percentage of the after text left unchanged, over all diffs.
func Score(diffs ...Diff) float64 {
	var charsTotal, charsDiff int
	for _, d := range diffs {
		charsTotal += len([]rune(d.After))
		charsDiff += dmp.DiffLevenshtein(d.Changes)
	}
	if charsTotal == 0 {
		if charsDiff == 0 {
			return 100
		}
		return 0
	}
	score := 100 - (float64(charsDiff) * 100 / float64(charsTotal))
	return max(score, 0)
}

func (d Diff) String() string {
	if t := dmp.DiffPrettyText(d.Changes); t != "" {
		return t
	}
	return "[empty]"
}
