// Package navigator implements fragment navigation: fetching a markup fragment for a
// location, swapping it into the content container of a shell document with a fade
// transition, reactivating its executable blocks and updating the navigation menu.
//
// Every call to Navigate takes a token. After each suspension point (the fetch and
// the transition delay) the call checks that its token is still the newest; a call
// overtaken by a later one drops its result without touching the container, so the
// content always belongs to the most recent request.
package navigator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"fragnav/internal/clock"
	"fragnav/internal/fetch"
	"fragnav/internal/logging"
	"fragnav/internal/markup"
	"fragnav/internal/notify"
	"fragnav/internal/shell"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// State is the navigation state of the content container.
type State int

const (
	Idle State = iota
	Loading
	Transitioning
	Settled
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Transitioning:
		return "transitioning"
	case Settled:
		return "settled"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ErrNoContainer is reported when the shell document lacks the content container.
var ErrNoContainer = errors.New("content container not found")

// Fetcher retrieves a fragment by location identifier.
type Fetcher interface {
	Fetch(ctx context.Context, location string) (string, error)
}

// Notifier raises a transient notification.
type Notifier interface {
	Notify(ctx context.Context, message string, severity notify.Severity) (string, error)
}

// Request is one navigation request. Event is optional.
type Request struct {
	Location string
	Event    shell.Event
}

// Outcome describes how one Navigate call ended.
type Outcome struct {
	Token      uint64
	State      State
	Superseded bool
	Err        error
}

// Options configures a Navigator. Zero values take the defaults.
type Options struct {
	ContainerID   string
	NavClass      string
	ActiveClass   string
	LoadingText   string
	Transition    time.Duration
	NotifyOnError bool
	Notifier      Notifier
	Clock         clock.Clock
	Logger        *zap.Logger
}

func (o *Options) setDefaults() {
	if o.ContainerID == "" {
		o.ContainerID = "main-content"
	}
	if o.NavClass == "" {
		o.NavClass = "nav-link"
	}
	if o.ActiveClass == "" {
		o.ActiveClass = "active"
	}
	if o.Transition <= 0 {
		o.Transition = 300 * time.Millisecond
	}
	if o.Clock == nil {
		o.Clock = clock.Real()
	}
}

// Navigator owns the navigation state of one document's content container.
type Navigator struct {
	doc         shell.Document
	fetcher     Fetcher
	opts        Options
	reactivator *Reactivator
	indicator   *Indicator
	logger      *zap.Logger

	// writeMu serializes the token check with the container writes that follow it.
	writeMu sync.Mutex

	mu       sync.Mutex
	token    uint64
	state    State
	location string
}

// New creates a Navigator for doc.
func New(doc shell.Document, fetcher Fetcher, opts Options) *Navigator {
	opts.setDefaults()
	logger := logging.OrNop(opts.Logger)
	return &Navigator{
		doc:         doc,
		fetcher:     fetcher,
		opts:        opts,
		reactivator: NewReactivator(logger),
		indicator:   NewIndicator(doc, opts.NavClass, opts.ActiveClass, logger),
		logger:      logger,
	}
}

// State returns the current navigation state.
func (n *Navigator) State() State {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// Location returns the location of the most recent request, empty before the first.
func (n *Navigator) Location() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.location
}

// Navigate loads the fragment for req.Location into the content container.
//
// Failures never escape as panics or returned errors: a fetch failure is shown in
// place of the content and reported in the Outcome. Cancelling ctx aborts a call
// waiting out the transition; it is meant for shutdown only.
func (n *Navigator) Navigate(ctx context.Context, req Request) Outcome {
	if req.Event != nil {
		req.Event.PreventDefault()
	}
	logger := n.logger.With(
		zap.String("location", req.Location),
		zap.String("request_id", uuid.NewString()),
	)

	container, err := n.doc.Region(ctx, n.opts.ContainerID)
	if err != nil {
		logger.Error("content container not found",
			zap.String("container", n.opts.ContainerID), zap.Error(err))
		return Outcome{State: n.State(), Err: fmt.Errorf("%w: #%s", ErrNoContainer, n.opts.ContainerID)}
	}

	token, err := n.begin(ctx, req.Location, container)
	if err != nil {
		logger.Error("failed to render loading placeholder", zap.Error(err))
		return n.commit(token, func() (State, error) { return Failed, err })
	}
	logger = logger.With(zap.Uint64("token", token))
	logger.Debug("navigation started")

	fragment, err := n.fetcher.Fetch(ctx, req.Location)
	if err != nil {
		return n.failed(ctx, logger, token, container, err)
	}

	out := n.commit(token, func() (State, error) {
		return Transitioning, container.SetStyle(ctx, "opacity", "0")
	})
	if out.Superseded || out.Err != nil {
		return n.report(logger, out)
	}

	select {
	case <-n.opts.Clock.After(n.opts.Transition):
	case <-ctx.Done():
		logger.Debug("navigation aborted during transition", zap.Error(ctx.Err()))
		return Outcome{Token: token, State: n.State(), Err: ctx.Err()}
	}

	out = n.commit(token, func() (State, error) {
		return n.swap(ctx, logger, container, req.Location, fragment)
	})
	return n.report(logger, out)
}

// begin allocates the call's token and shows the loading placeholder.
func (n *Navigator) begin(ctx context.Context, location string, container shell.Region) (uint64, error) {
	n.writeMu.Lock()
	defer n.writeMu.Unlock()

	n.mu.Lock()
	n.token++
	token := n.token
	n.state = Loading
	n.location = location
	n.mu.Unlock()

	if err := container.SetHTML(ctx, markup.LoadingPanel(n.opts.LoadingText)); err != nil {
		return token, err
	}
	// An overtaken call may have faded the container out without fading it back in.
	return token, container.SetStyle(ctx, "opacity", "1")
}

// commit runs fn and records its state only while token is the newest.
func (n *Navigator) commit(token uint64, fn func() (State, error)) Outcome {
	n.writeMu.Lock()
	defer n.writeMu.Unlock()

	if !n.isCurrent(token) {
		return Outcome{Token: token, State: n.State(), Superseded: true}
	}
	state, err := fn()
	if err != nil {
		state = Failed
	}
	n.mu.Lock()
	n.state = state
	n.mu.Unlock()
	return Outcome{Token: token, State: state, Err: err}
}

func (n *Navigator) isCurrent(token uint64) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.token == token
}

func (n *Navigator) swap(ctx context.Context, logger *zap.Logger, container shell.Region, location, fragment string) (State, error) {
	if err := container.SetHTML(ctx, fragment); err != nil {
		return Failed, fmt.Errorf("swap fragment: %w", err)
	}
	if err := container.SetStyle(ctx, "opacity", "1"); err != nil {
		return Failed, fmt.Errorf("reveal container: %w", err)
	}
	if err := n.doc.ScrollToTop(ctx); err != nil {
		logger.Warn("scroll to top failed", zap.Error(err))
	}
	if count, err := n.reactivator.Reactivate(ctx, container); err != nil {
		logger.Warn("reactivation failed", zap.Error(err))
	} else if count > 0 {
		logger.Debug("fragment blocks live", zap.Int("blocks", count))
	}
	if _, err := n.indicator.SetActive(ctx, location); err != nil {
		logger.Warn("navigation indicator update failed", zap.Error(err))
	}
	return Settled, nil
}

func (n *Navigator) failed(ctx context.Context, logger *zap.Logger, token uint64, container shell.Region, cause error) Outcome {
	message := cause.Error()
	var fe *fetch.Error
	if errors.As(cause, &fe) {
		message = fe.Message
	}

	out := n.commit(token, func() (State, error) {
		if err := container.SetHTML(ctx, markup.ErrorPanel(message)); err != nil {
			logger.Error("failed to render error panel", zap.Error(err))
		}
		if err := container.SetStyle(ctx, "opacity", "1"); err != nil {
			logger.Error("failed to reveal error panel", zap.Error(err))
		}
		return Failed, cause
	})
	if out.Superseded {
		return n.report(logger, out)
	}
	logger.Warn("navigation failed", zap.Error(cause))

	if n.opts.NotifyOnError && n.opts.Notifier != nil {
		if _, err := n.opts.Notifier.Notify(ctx, "Could not load page: "+message, notify.SeverityError); err != nil {
			logger.Warn("failed to raise error notification", zap.Error(err))
		}
	}
	return out
}

func (n *Navigator) report(logger *zap.Logger, out Outcome) Outcome {
	switch {
	case out.Superseded:
		logger.Debug("navigation superseded by a newer request")
	case out.Err != nil:
		logger.Warn("navigation ended in failure", zap.Stringer("state", out.State), zap.Error(out.Err))
	default:
		logger.Info("navigation settled", zap.Stringer("state", out.State))
	}
	return out
}
