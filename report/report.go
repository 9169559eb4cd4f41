// Package report writes the per-run failure report.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.senan.xyz/table/table"

	"go.senan.xyz/lyrictag"
)

// Name is the report's file name for a run at now.
func Name(now time.Time) string {
	return fmt.Sprintf("lyrics_failures_%s.txt", now.Format("20060102_150405"))
}

// Write puts a report of the failures in stats in dir and returns its path. Nothing is written if there were none.
func Write(dir string, stats lyrictag.Stats, now time.Time) (string, error) {
	if len(stats.Failures) == 0 {
		return "", nil
	}
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return "", fmt.Errorf("make report dir: %w", err)
	}
	path := filepath.Join(dir, Name(now))
	if err := os.WriteFile(path, []byte(Format(stats, now)), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

// Format renders failures grouped by reason, reasons in order of first occurrence.
func Format(stats lyrictag.Stats, now time.Time) string {
	var reasons []string
	groups := map[string][]lyrictag.Failure{}
	for _, f := range stats.Failures {
		if _, ok := groups[f.Reason]; !ok {
			reasons = append(reasons, f.Reason)
		}
		groups[f.Reason] = append(groups[f.Reason], f)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Lyrics failure report %s\n", now.Format(time.DateTime))
	fmt.Fprintf(&b, "%s\n", Summary(stats))

	for _, reason := range reasons {
		failures := groups[reason]
		fmt.Fprintf(&b, "\n%s (%d)\n", reason, len(failures))

		t := table.NewStringWriter()
		for _, f := range failures {
			fmt.Fprintf(t, "  %s\t%s\t%s\t%s\n", f.File, or(f.Artist, "-"), or(f.Title, "-"), f.Path)
		}
		b.WriteString(t.String())
	}
	return b.String()
}

// Summary is a one line tally of stats.
func Summary(stats lyrictag.Stats) string {
	parts := []string{
		fmt.Sprintf("success %d/%d", stats.Success, stats.Total()),
		fmt.Sprintf("skipped %d/%d", stats.Skipped, stats.Total()),
		fmt.Sprintf("failed %d/%d", stats.Failed, stats.Total()),
	}
	return strings.Join(parts, ", ")
}

func or(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
