package main

import (
	"flag"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
	"go.senan.xyz/table/table"

	"go.senan.xyz/lyrictag"
	"go.senan.xyz/lyrictag/cmd/internal/lyrictagflag"
	"go.senan.xyz/lyrictag/tags"
)

func init() {
	flag := flag.CommandLine
	flag.Usage = func() {
		fmt.Fprintf(flag.Output(), "Usage:\n")
		fmt.Fprintf(flag.Output(), "  $ %s [<options>] <path>...\n", flag.Name())
		fmt.Fprintf(flag.Output(), "\n")
		fmt.Fprintf(flag.Output(), "Lists the lyrics fields of each audio file under the paths.\n")
		fmt.Fprintf(flag.Output(), "\n")
		fmt.Fprintf(flag.Output(), "Options:\n")
		flag.PrintDefaults()
	}
}

func main() {
	exit := lyrictagflag.Logging()
	defer exit()

	var extensions []string
	flag.Func("extension", "Audio file extension to look for in directories (stackable)", func(s string) error {
		extensions = append(extensions, s)
		return nil
	})
	strict := flag.Bool("strict", false, "Exit non-zero if any file is missing lyrics")
	lyrictagflag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		slog.Error("no paths provided")
		return
	}

	paths, err := lyrictag.Enumerate(flag.Args(), extensions)
	if err != nil {
		slog.Error("finding audio files", "err", err)
		return
	}

	var found, missing int
	t := table.NewStringWriter()
	for _, path := range paths {
		f, err := tags.Open(path)
		if err != nil {
			slog.Warn("opening file", "path", path, "err", err)
			missing++
			continue
		}
		fields := f.LyricsFields()
		has := f.HasLyrics()
		fam := f.Family
		f.Close()

		if !has {
			missing++
			fmt.Fprintf(t, "%s\t%s\t%s\t%s\n", color.RedString("missing"), path, fam, "-")
			continue
		}
		found++
		for _, fl := range fields {
			if fl.Value == "" {
				continue
			}
			fmt.Fprintf(t, "%s\t%s\t%s\t%s\n", color.GreenString("found"), path, fam, fmt.Sprintf("%s (%d chars) %s", fl.Key, utf8.RuneCountInString(fl.Value), preview(fl.Value)))
		}
	}
	fmt.Print(t.String())
	fmt.Printf("found %d/%d, missing %d/%d\n", found, len(paths), missing, len(paths))

	if *strict && missing > 0 {
		slog.Error("files missing lyrics", "count", missing)
	}
}

func preview(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	if utf8.RuneCountInString(line) > 40 {
		line = string([]rune(line)[:40]) + "…"
	}
	return fmt.Sprintf("%q", line)
}
