package lyrictagflag

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"go.senan.xyz/flagconf"

	"go.senan.xyz/lyrictag"
	"go.senan.xyz/lyrictag/clientutil"
	"go.senan.xyz/lyrictag/lyrics"
	"go.senan.xyz/lyrictag/notifications"
	"go.senan.xyz/lyrictag/relay"
)

const BrowserUserAgent = `Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36`

// run after flags are parsed, to build values which depend on more than one flag
var finalizers []func() error

func Parse() {
	userConfig, err := os.UserConfigDir()
	if err != nil {
		panic(err)
	}

	defaultConfigPath := filepath.Join(userConfig, lyrictag.Name, "config")
	configPath := flag.String("config-path", defaultConfigPath, "Path to config file")

	printVersion := flag.Bool("version", false, "Print the version and exit")
	printConfig := flag.Bool("config", false, "Print the parsed config and exit")

	flag.Parse()
	flagconf.ReadEnvPrefix = func(_ *flag.FlagSet) string { return lyrictag.Name }
	flagconf.ParseEnv()
	flagconf.ParseConfig(*configPath)

	if *printVersion {
		fmt.Printf("%s %s\n", flag.CommandLine.Name(), lyrictag.Version)
		os.Exit(0)
	}
	if *printConfig {
		flag.VisitAll(func(f *flag.Flag) {
			fmt.Printf("%-16s %s\n", f.Name, f.Value)
		})
		os.Exit(0)
	}

	for _, f := range finalizers {
		if err := f(); err != nil {
			fmt.Fprintf(flag.CommandLine.Output(), "%v\n", err)
			flag.Usage()
			os.Exit(2)
		}
	}
}

func Config() *lyrictag.Config {
	var cfg lyrictag.Config

	flag.BoolVar(&cfg.Overwrite, "overwrite", false, "Fetch and write lyrics even if a file already has some")
	flag.BoolVar(&cfg.Clean, "clean", true, "Strip site text like contributor counts and links from fetched lyrics")
	flag.BoolVar(&cfg.DryRun, "dry-run", false, "Fetch lyrics and show a diff without writing")
	flag.Var(&extensionsParser{&cfg.Extensions}, "extension", "Audio file extension to look for in directories (stackable) (default .mp3 .m4a .mp4 .flac .ogg)")
	flag.StringVar(&cfg.ReportDir, "report-dir", ".", "Directory to write the failure report to")

	var sourceNames []string
	flag.Var(&sourcesParser{&sourceNames}, "source", fmt.Sprintf("Lyrics source to try, in order (stackable) (one of %s) (default %s)",
		strings.Join(lyrics.SourceNames(), ", "), strings.Join(lyrics.DefaultSources, ", ")))
	var chain lyrics.Chain
	flag.IntVar(&chain.MinLength, "min-length", lyrictag.DefaultMinLength, "Lyrics with this many characters or fewer are ignored")
	flag.DurationVar(&chain.Delay, "source-delay", 500*time.Millisecond, "Pause between trying sources")
	geniusToken := flag.String("genius-token", "", "Genius API token for the geniusapi source")

	httpTimeout := flag.Duration("http-timeout", 10*time.Second, "Timeout for each HTTP request")
	rateLimit := flag.Duration("rate-limit", 0, "Minimum time between HTTP requests")
	cacheExpiry := flag.Duration("cache-expiry", 10*time.Minute, "How long to keep HTTP responses in memory (0 to disable)")
	userAgent := flag.String("user-agent", BrowserUserAgent, "User agent for HTTP requests")

	var relayClient relay.Client
	flag.StringVar(&relayClient.BaseURL, "relay-url", "", fmt.Sprintf("Relay service URL, eg %s (empty to scrape directly)", relay.DefaultBaseURL))
	flag.StringVar(&cfg.RelayCommand, "relay-command", "", "Command to start the relay service with")
	flag.DurationVar(&cfg.RelayStartup, "relay-startup", lyrictag.DefaultRelayStartup, "How long to wait for the relay service to become ready")
	flag.IntVar(&cfg.Fetcher.RelayMinLength, "relay-min-length", lyrictag.DefaultRelayMinLength, "Relay lyrics with this many characters or fewer are ignored")

	finalizers = append(finalizers, func() error {
		client := DefaultClient(*httpTimeout, *rateLimit, *cacheExpiry, *userAgent)

		if len(sourceNames) == 0 {
			sourceNames = lyrics.DefaultSources
		}
		for _, name := range sourceNames {
			src, err := lyrics.NewSource(name, lyrics.Options{HTTPClient: client, GeniusToken: *geniusToken})
			if err != nil {
				return fmt.Errorf("source: %w", err)
			}
			chain.Sources = append(chain.Sources, src)
		}
		cfg.Fetcher.Chain = &chain

		if relayClient.BaseURL == "" && cfg.RelayCommand != "" {
			relayClient.BaseURL = relay.DefaultBaseURL
		}
		if relayClient.BaseURL != "" {
			relayClient.HTTPClient = &http.Client{Transport: clientutil.WithLogging(slog.Default())(http.DefaultTransport)}
			cfg.Fetcher.Relay = &relayClient
		}
		return nil
	})

	return &cfg
}

// DefaultClient is the HTTP client shared by every lyrics source.
func DefaultClient(timeout, rateLimit, cacheExpiry time.Duration, userAgent string) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: clientutil.Chain(
			clientutil.WithCache(cacheExpiry),
			clientutil.WithUserAgent(userAgent),
			clientutil.WithRateLimit(rateLimit),
			clientutil.WithLogging(slog.Default()),
		)(http.DefaultTransport),
	}
}

func Notifications() *notifications.Notifications {
	var n notifications.Notifications
	flag.Var(&notificationsParser{&n}, "notification-uri", `Add a shoutrrr notification URI for an event, eg "complete,error generic://host/path" (stackable)`)
	return &n
}

var _ flag.Value = (*extensionsParser)(nil)
var _ flag.Value = (*sourcesParser)(nil)
var _ flag.Value = (*notificationsParser)(nil)

type extensionsParser struct{ exts *[]string }

func (e *extensionsParser) Set(value string) error {
	for _, ext := range strings.Fields(strings.ReplaceAll(value, ",", " ")) {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if !slices.Contains(*e.exts, ext) {
			*e.exts = append(*e.exts, ext)
		}
	}
	return nil
}
func (e extensionsParser) String() string {
	if e.exts == nil {
		return ""
	}
	return strings.Join(*e.exts, " ")
}

type sourcesParser struct{ names *[]string }

func (s *sourcesParser) Set(value string) error {
	for _, name := range strings.Fields(strings.ReplaceAll(value, ",", " ")) {
		name = strings.ToLower(name)
		if !slices.Contains(lyrics.SourceNames(), name) {
			return fmt.Errorf("unknown source %q", name)
		}
		*s.names = append(*s.names, name)
	}
	return nil
}
func (s sourcesParser) String() string {
	if s.names == nil {
		return ""
	}
	return strings.Join(*s.names, ", ")
}

type notificationsParser struct{ *notifications.Notifications }

func (n *notificationsParser) Set(value string) error {
	eventsRaw, uri, ok := strings.Cut(value, " ")
	if !ok {
		return fmt.Errorf("invalid notification uri format. expected eg \"ev1,ev2 uri\"")
	}
	var lineErrs []error
	for _, ev := range strings.Split(eventsRaw, ",") {
		ev, uri = strings.TrimSpace(ev), strings.TrimSpace(uri)
		err := n.AddURI(notifications.Event(ev), uri)
		lineErrs = append(lineErrs, err)
	}
	return errors.Join(lineErrs...)
}
func (n notificationsParser) String() string {
	if n.Notifications == nil {
		return ""
	}
	var parts []string
	n.Notifications.IterMappings(func(e notifications.Event, uri string) {
		url, _ := url.Parse(uri)
		parts = append(parts, fmt.Sprintf("%s: %s://%s/...", e, url.Scheme, url.Host))
	})
	return strings.Join(parts, ", ")
}
