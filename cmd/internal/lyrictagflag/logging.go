package lyrictagflag

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync/atomic"

	charmlog "github.com/charmbracelet/log"
)

// Logging installs the default logger, configured by -log-level and -log-format. The returned exit func exits
// with status 1 if anything was logged at ERROR.
func Logging() (exit func()) {
	h := &slogErrorHandler{}
	h.Handler = newHandler(os.Stderr, "text", &h.level)

	flag.TextVar(&h.level, "log-level", &h.level, "Set the logging level")
	flag.Var(&logFormatParser{h: h, format: "text"}, "log-format", `Log output format, "text" or "pretty"`)

	slog.SetDefault(slog.New(h))
	slog.SetLogLoggerLevel(slog.LevelError)

	return func() {
		if h.hadSlogError.Load() {
			os.Exit(1)
		}
		os.Exit(0)
	}
}

func newHandler(w io.Writer, format string, level slog.Leveler) slog.Handler {
	switch format {
	case "pretty":
		return charmlog.NewWithOptions(w, charmlog.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05",
			Level:           charmlog.DebugLevel,
		})
	default:
		return slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	}
}

type slogErrorHandler struct {
	slog.Handler
	level        slog.LevelVar
	hadSlogError atomic.Bool
}

func (n *slogErrorHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return l >= n.level.Level() && n.Handler.Enabled(ctx, l)
}

func (n *slogErrorHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level == slog.LevelError {
		n.hadSlogError.Store(true)
	}
	return n.Handler.Handle(ctx, r)
}

func (n *slogErrorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &childHandler{Handler: n.Handler.WithAttrs(attrs), parent: n}
}

func (n *slogErrorHandler) WithGroup(name string) slog.Handler {
	return &childHandler{Handler: n.Handler.WithGroup(name), parent: n}
}

// childHandler shares its parent's level and error flag
type childHandler struct {
	slog.Handler
	parent *slogErrorHandler
}

func (c *childHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return l >= c.parent.level.Level() && c.Handler.Enabled(ctx, l)
}

func (c *childHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level == slog.LevelError {
		c.parent.hadSlogError.Store(true)
	}
	return c.Handler.Handle(ctx, r)
}

func (c *childHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &childHandler{Handler: c.Handler.WithAttrs(attrs), parent: c.parent}
}

func (c *childHandler) WithGroup(name string) slog.Handler {
	return &childHandler{Handler: c.Handler.WithGroup(name), parent: c.parent}
}

var _ flag.Value = (*logFormatParser)(nil)

type logFormatParser struct {
	h      *slogErrorHandler
	format string
}

func (lf *logFormatParser) Set(value string) error {
	switch value {
	case "text", "pretty":
	default:
		return fmt.Errorf("unknown log format %q", value)
	}
	lf.format = value
	lf.h.Handler = newHandler(os.Stderr, value, &lf.h.level)
	return nil
}
func (lf *logFormatParser) String() string {
	if lf == nil {
		return ""
	}
	return lf.format
}
