package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/fatih/color"
	"golang.org/x/sync/errgroup"

	"go.senan.xyz/lyrictag"
	"go.senan.xyz/lyrictag/cmd/internal/lyrictagflag"
	"go.senan.xyz/lyrictag/notifications"
	"go.senan.xyz/lyrictag/relay"
	"go.senan.xyz/lyrictag/report"
)

func init() {
	flag := flag.CommandLine
	flag.Usage = func() {
		fmt.Fprintf(flag.Output(), "Usage:\n")
		fmt.Fprintf(flag.Output(), "  $ %s [<options>] <path>...\n", flag.Name())
		fmt.Fprintf(flag.Output(), "\n")
		fmt.Fprintf(flag.Output(), "Finds lyrics for each audio file under the paths and writes them to the file's tags.\n")
		fmt.Fprintf(flag.Output(), "\n")
		fmt.Fprintf(flag.Output(), "Options:\n")
		flag.PrintDefaults()
	}
}

func main() {
	exit := lyrictagflag.Logging()
	defer exit()
	var (
		cfg    = lyrictagflag.Config()
		notifs = lyrictagflag.Notifications()
	)
	lyrictagflag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		slog.Error("no paths provided")
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	start := time.Now()
	paths, err := lyrictag.Enumerate(flag.Args(), cfg.Extensions)
	if err != nil {
		slog.Error("finding audio files", "err", err)
		return
	}
	slog.Info("found audio files", "count", len(paths))

	if cfg.DryRun {
		cfg.DiffOutput = os.Stdout
	}

	var stats lyrictag.Stats
	var g errgroup.Group

	var proc *relay.Process
	var stopping atomic.Bool
	if cfg.RelayCommand != "" {
		proc, err = relay.StartProcess(ctx, cfg.RelayCommand)
		if err != nil {
			slog.Warn("starting relay process", "err", err)
		} else {
			g.Go(func() error {
				if err := proc.Wait(); err != nil && !stopping.Load() {
					return fmt.Errorf("relay process: %w", err)
				}
				return nil
			})
		}
	}

	g.Go(func() error {
		defer func() {
			if proc != nil {
				stopping.Store(true)
				_ = proc.Stop(5 * time.Second)
			}
		}()
		stats = cfg.Run(ctx, paths)
		return nil
	})

	if err := g.Wait(); err != nil {
		slog.Warn("relay exited", "err", err)
	}

	printSummary(stats)

	if stats.Failed > 0 {
		path, err := report.Write(cfg.ReportDir, stats, time.Now())
		if err != nil {
			slog.Error("writing failure report", "err", err)
		} else {
			fmt.Printf("failure report written to %s\n", path)
		}
	}

	summary := report.Summary(stats)
	if stats.Failed > 0 {
		notifs.Sendf(ctx, notifications.Error, "lyrics finished with failures: %s", summary)
	} else {
		notifs.Sendf(ctx, notifications.Complete, "lyrics finished: %s", summary)
	}

	if errors.Is(ctx.Err(), context.Canceled) {
		slog.Warn("stopped early", "took", time.Since(start))
		return
	}
	slog.Info("finished", "took", time.Since(start))
}

func printSummary(stats lyrictag.Stats) {
	total := stats.Total()
	fmt.Printf("%s %d/%d, %s %d/%d, %s %d/%d\n",
		color.GreenString("success"), stats.Success, total,
		color.YellowString("skipped"), stats.Skipped, total,
		color.RedString("failed"), stats.Failed, total,
	)
	for _, f := range stats.Failures {
		fmt.Printf("  %s %s: %s\n", color.RedString("✗"), f.File, f.Reason)
	}
}
