package main

import (
	"os"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"
	"go.senan.xyz/lyrictag/cmd/internal/testing/testcmds"
)

func TestMain(m *testing.M) {
	testcmds.RegisterTransport()

	os.Exit(testscript.RunMain(m, map[string]func() int{
		"lyrictag": func() int { main(); return 0 },
		"tag":      func() int { testcmds.Tag(); return 0 },
		"gen-mp3":  func() int { testcmds.GenMP3(); return 0 },
		"gen-flac": func() int { testcmds.GenFLAC(); return 0 },
		"find":     func() int { testcmds.Find(); return 0 },
	}))
}

func TestScripts(t *testing.T) {
	t.Parallel()

	testscript.Run(t, testscript.Params{
		Dir:                 "testdata/scripts",
		RequireExplicitExec: true,
	})
}
