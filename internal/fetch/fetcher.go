// Package fetch retrieves markup fragments and external JSON data. Every transport or
// HTTP failure is normalized into a single *Error value.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"fragnav/internal/logging"

	"go.uber.org/zap"
)

const defaultMaxBody = 2 << 20 // 2MB

// Error is the one failure category of a fragment fetch. Status is zero for
// transport-level failures.
type Error struct {
	Location string
	URL      string
	Status   int
	Message  string
	Err      error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// Options configures a Fetcher.
type Options struct {
	BaseURL      string
	UserAgent    string
	MaxBodyBytes int64
	Client       *http.Client
	Logger       *zap.Logger
}

// Fetcher GETs fragments by location identifier, resolved against a base URL.
type Fetcher struct {
	client    *http.Client
	base      *url.URL
	userAgent string
	maxBody   int64
	logger    *zap.Logger
}

// New creates a Fetcher. The base URL must be absolute.
func New(opts Options) (*Fetcher, error) {
	base, err := parseBase(opts.BaseURL)
	if err != nil {
		return nil, err
	}
	client := opts.Client
	if client == nil {
		client = http.DefaultClient
	}
	maxBody := opts.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBody
	}
	return &Fetcher{
		client:    client,
		base:      base,
		userAgent: opts.UserAgent,
		maxBody:   maxBody,
		logger:    logging.OrNop(opts.Logger),
	}, nil
}

func parseBase(raw string) (*url.URL, error) {
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", raw, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", raw)
	}
	// Relative locations such as ./views/x.html resolve against the directory.
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	return base, nil
}

// Resolve returns the absolute URL a location identifier points at.
func (f *Fetcher) Resolve(location string) (string, error) {
	ref, err := url.Parse(location)
	if err != nil {
		return "", err
	}
	return f.base.ResolveReference(ref).String(), nil
}

// Fetch retrieves the fragment behind location. Any non-2xx status or transport
// failure returns an *Error.
func (f *Fetcher) Fetch(ctx context.Context, location string) (string, error) {
	target, err := f.Resolve(location)
	if err != nil {
		return "", &Error{Location: location, Message: fmt.Sprintf("invalid location %q: %v", location, err), Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", &Error{Location: location, URL: target, Message: fmt.Sprintf("failed to create request: %v", err), Err: err}
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	f.logger.Debug("fetching fragment", zap.String("location", location), zap.String("url", target))

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &Error{Location: location, URL: target, Message: fmt.Sprintf("fetch %s: %v", target, err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, f.maxBody))
		return "", &Error{
			Location: location,
			URL:      target,
			Status:   resp.StatusCode,
			Message:  fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody))
	if err != nil {
		return "", &Error{Location: location, URL: target, Status: resp.StatusCode, Message: fmt.Sprintf("failed to read response: %v", err), Err: err}
	}

	f.logger.Debug("fragment fetched", zap.String("location", location), zap.Int("bytes", len(body)))
	return string(body), nil
}
