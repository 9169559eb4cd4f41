// Package relay talks to a local helper service which scrapes lyrics with a real browser.
package relay

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"time"

	"github.com/google/shlex"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrUnavailable means the relay could not be reached or failed on its side. Callers should stop using it.
var ErrUnavailable = errors.New("relay unavailable")

// ErrTimeout means a single call took too long. The relay is still considered up.
var ErrTimeout = errors.New("relay timed out")

const DefaultBaseURL = "http://localhost:3000"

const (
	initTimeout   = 5 * time.Second
	scrapeTimeout = 30 * time.Second
	closeTimeout  = 2 * time.Second
)

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// Init asks the relay to get ready.
func (c *Client) Init(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, initTimeout)
	defer cancel()

	resp, err := c.post(ctx, "init", nil)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// WaitReady polls [Client.Init] until it succeeds or window elapses.
func (c *Client) WaitReady(ctx context.Context, window, every time.Duration) error {
	deadline := time.Now().Add(window)
	for {
		err := c.Init(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if time.Now().Add(every).After(deadline) {
			return fmt.Errorf("not ready after %s: %w", window, err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(every):
		}
	}
}

type scrapeRequest struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
}

type scrapeResponse struct {
	Lyrics *string `json:"lyrics"`
}

// Scrape returns the relay's lyrics for a song, or an empty string when it found none.
func (c *Client) Scrape(ctx context.Context, title, artist string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, scrapeTimeout)
	defer cancel()

	body, err := json.Marshal(scrapeRequest{Title: title, Artist: artist})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}
	resp, err := c.post(ctx, "scrape", body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var sr scrapeResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil && !errors.Is(err, io.EOF) {
		if isTimeout(err) {
			return "", fmt.Errorf("%w: decode response: %w", ErrTimeout, err)
		}
		return "", fmt.Errorf("%w: decode response: %w", ErrUnavailable, err)
	}
	if sr.Lyrics == nil {
		return "", nil
	}
	return *sr.Lyrics, nil
}

// Close tells the relay to shut down. Errors are ignored.
func (c *Client) Close(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, closeTimeout)
	defer cancel()

	resp, err := c.post(ctx, "close", nil)
	if err != nil {
		slog.DebugContext(ctx, "closing relay", "err", err)
		return
	}
	resp.Body.Close()
}

func (c *Client) post(ctx context.Context, endpoint string, body []byte) (*http.Response, error) {
	base := c.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	u, err := url.JoinPath(base, endpoint)
	if err != nil {
		return nil, fmt.Errorf("join url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("make request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	hc := c.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		if parent := context.Cause(ctx); errors.Is(parent, context.Canceled) {
			return nil, parent
		}
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %s: %w", ErrTimeout, endpoint, err)
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrUnavailable, endpoint, err)
	}
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s: status %d", ErrUnavailable, endpoint, resp.StatusCode)
	}
	return resp, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}

// Process is a relay service started as a child process.
type Process struct {
	cmd  *exec.Cmd
	done chan struct{}
	err  error
}

// StartProcess runs command, split shell style. The process is killed when ctx is done.
func StartProcess(ctx context.Context, command string) (*Process, error) {
	args, err := shlex.Split(command)
	if err != nil {
		return nil, fmt.Errorf("split command: %w", err)
	}
	if len(args) == 0 {
		return nil, errors.New("empty command")
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}

	p := &Process{cmd: cmd, done: make(chan struct{})}
	go func() {
		p.err = cmd.Wait()
		close(p.done)
	}()
	return p, nil
}

// Wait blocks until the process exits.
func (p *Process) Wait() error {
	<-p.done
	return p.err
}

// Stop interrupts the process and waits up to grace for it to exit before killing it.
func (p *Process) Stop(grace time.Duration) error {
	select {
	case <-p.done:
		return nil
	default:
	}
	_ = p.cmd.Process.Signal(os.Interrupt)
	select {
	case <-p.done:
	case <-time.After(grace):
		_ = p.cmd.Process.Kill()
		<-p.done
	}
	return nil
}
