// Package lyrictag finds lyrics for audio files and embeds them in the files' tags.
package lyrictag

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"go.senan.xyz/natcmp"

	"go.senan.xyz/lyrictag/diff"
	"go.senan.xyz/lyrictag/lyrics"
	"go.senan.xyz/lyrictag/tags"
)

const (
	ReasonNoTitle     = "Could not determine song title"
	ReasonNotFound    = "No lyrics found online"
	ReasonWriteFailed = "Failed to write lyrics"
)

var DefaultExtensions = []string{".mp3", ".m4a", ".mp4", ".flac", ".ogg"}

type Failure struct {
	File   string
	Path   string
	Reason string
	Title  string
	Artist string
}

type Stats struct {
	Success  int
	Skipped  int
	Failed   int
	Failures []Failure
}

func (s Stats) Total() int {
	return s.Success + s.Skipped + s.Failed
}

// Enumerate expands selections into audio file paths in natural order. Directories are walked and filtered by
// extensions. Every path must be openable by [tags.Probe]; explicitly named files skip the extension filter.
func Enumerate(selections []string, extensions []string) ([]string, error) {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}

	seen := map[string]struct{}{}
	var paths []string
	add := func(path string) {
		if _, ok := seen[path]; ok {
			return
		}
		if err := tags.Probe(path); err != nil {
			slog.Debug("skipping unreadable file", "path", path, "err", err)
			return
		}
		seen[path] = struct{}{}
		paths = append(paths, path)
	}

	for _, sel := range selections {
		sel = filepath.Clean(sel)
		info, err := os.Stat(sel)
		if err != nil {
			return nil, fmt.Errorf("stat selection: %w", err)
		}
		if !info.IsDir() {
			add(sel)
			continue
		}
		err = filepath.WalkDir(sel, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !hasExtension(path, extensions) {
				return nil
			}
			add(path)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %q: %w", sel, err)
		}
	}

	slices.SortStableFunc(paths, natcmp.Compare)
	return paths, nil
}

func hasExtension(path string, extensions []string) bool {
	ext := filepath.Ext(path)
	return slices.ContainsFunc(extensions, func(e string) bool {
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		return strings.EqualFold(ext, e)
	})
}

// Config is a [Processor] plus the settings around a batch run.
type Config struct {
	Processor

	Extensions   []string
	ReportDir    string
	RelayCommand string
}

// Processor runs the read, fetch, clean, write sequence over a batch, one file at a time.
type Processor struct {
	Fetcher      Fetcher
	RelayStartup time.Duration

	Overwrite bool
	Clean     bool

	// DryRun skips writing and prints a diff of each change to DiffOutput.
	DryRun     bool
	DiffOutput io.Writer
}

// Run processes paths in order. Cancelling ctx stops the batch before the next file, the current file runs to
// completion.
func (p *Processor) Run(ctx context.Context, paths []string) Stats {
	var stats Stats

	relayAlive := p.Fetcher.Relay != nil && p.Fetcher.Ready(ctx, p.RelayStartup)

	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			slog.WarnContext(ctx, "batch stopped", "remaining", len(paths)-i, "err", err)
			break
		}
		relayAlive = p.processFile(context.WithoutCancel(ctx), &stats, path, relayAlive)
	}

	if relayAlive {
		p.Fetcher.Relay.Close(context.WithoutCancel(ctx))
	}
	return stats
}

func (p *Processor) processFile(ctx context.Context, stats *Stats, path string, relayAlive bool) bool {
	fail := func(reason, title, artist string) {
		stats.Failed++
		stats.Failures = append(stats.Failures, Failure{
			File: filepath.Base(path), Path: path, Reason: reason, Title: title, Artist: artist,
		})
		slog.InfoContext(ctx, "failed", "path", path, "reason", reason)
	}

	if !p.Overwrite && tags.HasLyrics(path) {
		stats.Skipped++
		slog.InfoContext(ctx, "skipping, already has lyrics", "path", path)
		return relayAlive
	}

	info := tags.ReadInfo(path)
	artist := info.Query()
	if info.Title == "" {
		fail(ReasonNoTitle, "", artist)
		return relayAlive
	}

	out, err := p.Fetcher.Fetch(ctx, info.Title, artist, relayAlive)
	relayAlive = out.RelayAlive
	if err != nil {
		if !errors.Is(err, lyrics.ErrLyricsNotFound) {
			slog.WarnContext(ctx, "fetching lyrics", "path", path, "err", err)
		}
		fail(ReasonNotFound, info.Title, artist)
		return relayAlive
	}

	text := out.Lyrics
	if p.Clean {
		text = lyrics.Clean(info.Title, text)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		fail(ReasonNotFound, info.Title, artist)
		return relayAlive
	}

	if p.DryRun {
		p.printDiff(path, text)
		stats.Success++
		return relayAlive
	}

	if err := tags.WriteLyrics(path, text); err != nil {
		slog.WarnContext(ctx, "writing lyrics", "path", path, "err", err)
		fail(ReasonWriteFailed, info.Title, artist)
		return relayAlive
	}

	stats.Success++
	slog.InfoContext(ctx, "wrote lyrics", "path", path, "source", out.Source, "artist", artist, "title", info.Title, "chars", len(text))
	return relayAlive
}

func (p *Processor) printDiff(path, text string) {
	if p.DiffOutput == nil {
		return
	}
	var before string
	if f, err := tags.Open(path); err == nil {
		before = f.Lyrics()
		f.Close()
	}
	d := diff.Text("lyrics", before, text)
	fmt.Fprintf(p.DiffOutput, "%s (%.2f%% same)\n%s\n", path, diff.Score(d), d)
}
