package testcmds

import (
	"embed"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.senan.xyz/lyrictag/clientutil"
	"go.senan.xyz/lyrictag/tags"
)

//go:embed testdata/responses
var responses embed.FS

// RegisterTransport serves every HTTP request from testdata/responses by path.
func RegisterTransport() {
	http.DefaultTransport = clientutil.FSClient(responses, "testdata/responses").Transport

	os.Setenv("LYRICTAG_SOURCE", "lyricsovh")
	os.Setenv("LYRICTAG_SOURCE_DELAY", "0")
	os.Setenv("LYRICTAG_CACHE_EXPIRY", "0")
}

// Tag reads or writes the lyrics of a file.
//
//	tag write <path> <lyrics>
//	tag check <path> <substring>
//	tag check <path>              (expects no lyrics)
func Tag() {
	flag.Parse()

	op, path := flag.Arg(0), flag.Arg(1)
	if path == "" {
		log.Fatalf("need a path")
	}

	switch op {
	case "write":
		if err := tags.WriteLyrics(path, flag.Arg(2)); err != nil {
			log.Fatalf("write lyrics: %v", err)
		}
	case "check":
		f, err := tags.Open(path)
		if err != nil {
			log.Fatalf("open: %v", err)
		}
		got := f.Lyrics()
		f.Close()
		want := flag.Arg(2)
		switch {
		case want == "" && got != "":
			log.Fatalf("%s exp no lyrics got %q", path, got)
		case want != "" && !strings.Contains(got, want):
			log.Fatalf("%s exp lyrics with %q got %q", path, want, got)
		}
	default:
		log.Fatalf("bad op %s", op)
	}
}

// GenMP3 creates tagless MP3 files.
func GenMP3() {
	flag.Parse()
	for _, p := range flag.Args() {
		create(p, make([]byte, 1024))
	}
}

//go:embed testdata/empty.flac
var emptyFLAC []byte

// GenFLAC creates untagged FLAC files.
func GenFLAC() {
	flag.Parse()
	for _, p := range flag.Args() {
		create(p, emptyFLAC)
	}
}

func Find() {
	flag.Parse()

	paths := flag.Args()
	sort.Strings(paths)

	for _, p := range paths {
		err := filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			fmt.Println(filepath.Clean(path))
			return nil
		})
		if err != nil {
			log.Fatal(err)
		}
	}
}

func create(path string, data []byte) {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		log.Fatalf("mkdirall: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Fatalf("write: %v", err)
	}
}
