// Package boot wires a shell document to its navigator and notification manager and
// runs the boot sequence: the initial navigation and the welcome notification.
package boot

import (
	"context"
	"fmt"
	"net/url"

	"fragnav/internal/clock"
	"fragnav/internal/config"
	"fragnav/internal/logging"
	"fragnav/internal/navigator"
	"fragnav/internal/notify"
	"fragnav/internal/shell"
	"fragnav/internal/site"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Deps are the collaborators of a Shell. Nil fields take defaults.
type Deps struct {
	Fetcher  navigator.Fetcher
	Registry *notify.Registry
	Clock    clock.Clock
	Logger   *zap.Logger
}

// Shell is one booted document.
type Shell struct {
	cfg      *config.Config
	doc      shell.Document
	nav      *navigator.Navigator
	notifier *notify.Manager
	registry *notify.Registry
	clock    clock.Clock
	logger   *zap.Logger
}

// NotificationOptions maps the notifications config section to manager options.
func NotificationOptions(cfg *config.Config, clk clock.Clock, logger *zap.Logger) notify.Options {
	return notify.Options{
		ContainerID:    cfg.Notifications.ContainerID,
		ContainerClass: cfg.Notifications.ContainerClass,
		Duration:       cfg.GetNotificationDuration(),
		HideTransition: cfg.GetHideTransition(),
		Clock:          clk,
		Logger:         logging.For(logger, logging.CategoryNotify, cfg.Logging),
	}
}

// New wires doc. deps.Fetcher is required.
func New(cfg *config.Config, doc shell.Document, deps Deps) *Shell {
	clk := deps.Clock
	if clk == nil {
		clk = clock.Real()
	}
	registry := deps.Registry
	if registry == nil {
		registry = notify.NewRegistry(NotificationOptions(cfg, clk, deps.Logger))
	}
	notifier := registry.For(doc)

	nav := navigator.New(doc, deps.Fetcher, navigator.Options{
		ContainerID:   cfg.Navigator.ContainerID,
		NavClass:      cfg.Navigator.NavClass,
		ActiveClass:   cfg.Navigator.ActiveClass,
		LoadingText:   cfg.Navigator.LoadingText,
		Transition:    cfg.GetTransition(),
		NotifyOnError: cfg.Navigator.NotifyOnError,
		Notifier:      notifier,
		Clock:         clk,
		Logger:        logging.For(deps.Logger, logging.CategoryNavigator, cfg.Logging),
	})

	return &Shell{
		cfg:      cfg,
		doc:      doc,
		nav:      nav,
		notifier: notifier,
		registry: registry,
		clock:    clk,
		logger:   logging.For(deps.Logger, logging.CategoryBoot, cfg.Logging),
	}
}

func (s *Shell) Document() shell.Document { return s.doc }

func (s *Shell) Navigator() *navigator.Navigator { return s.nav }

func (s *Shell) Notifications() *notify.Manager { return s.notifier }

// Run performs the boot sequence. The initial navigation and the delayed welcome
// notification run concurrently; Run returns once both are done.
func (s *Shell) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.Guard("initial navigation", func() error {
			out := s.nav.Navigate(gctx, navigator.Request{
				Location: s.cfg.Site.InitialLocation,
				Event:    shell.NewEvent("load"),
			})
			s.logger.Info("initial navigation done",
				zap.String("location", s.cfg.Site.InitialLocation),
				zap.Stringer("state", out.State))
			return nil
		})
	})

	if msg := s.cfg.Notifications.WelcomeMessage; msg != "" {
		g.Go(func() error {
			select {
			case <-s.clock.After(s.cfg.GetWelcomeDelay()):
			case <-gctx.Done():
				return nil
			}
			// A failed welcome is logged by Guard and must not cancel the navigation.
			_ = s.Guard("welcome notification", func() error {
				_, err := s.notifier.Notify(gctx, msg, notify.SeveritySuccess)
				return err
			})
			return nil
		})
	}

	return g.Wait()
}

// Click navigates to the affordance whose target is exactly target, as a click on
// it would. An unknown target is logged and ignored; the bool reports whether an
// affordance was found.
func (s *Shell) Click(ctx context.Context, target string) (navigator.Outcome, bool) {
	links, err := s.doc.Affordances(ctx, s.cfg.Navigator.NavClass, s.cfg.Navigator.ActiveClass)
	if err != nil {
		s.logger.Error("failed to list affordances", zap.Error(err))
		return navigator.Outcome{}, false
	}
	for _, l := range links {
		if l.Target() == target {
			out := s.nav.Navigate(ctx, navigator.Request{Location: target, Event: shell.NewEvent("click")})
			return out, true
		}
	}
	s.logger.Debug("click on unknown target ignored", zap.String("target", target))
	return navigator.Outcome{}, false
}

// Submit checks a form submission against the honeypot. A rejected submission
// raises an error notification and returns false.
func (s *Shell) Submit(ctx context.Context, form string, values url.Values) bool {
	if !site.IsSpam(values) {
		return true
	}
	s.logger.Warn("possible spam detected", zap.String("form", form))
	if _, err := s.notifier.Notify(ctx, "Could not send the form", notify.SeverityError); err != nil {
		s.logger.Warn("failed to raise notification", zap.Error(err))
	}
	return false
}

// Guard runs fn and turns a panic into an error. It is the last-resort sink for
// failures nothing else handled; every error it sees is logged.
func (s *Shell) Guard(name string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s panicked: %v", name, r)
			s.logger.Error("PANIC RECOVERED", zap.String("step", name), zap.Any("panic", r), zap.Stack("stack"))
		}
	}()
	if err = fn(); err != nil {
		s.logger.Error("step failed", zap.String("step", name), zap.Error(err))
	}
	return err
}

// Close stops the pending notification timers of the document.
func (s *Shell) Close() {
	s.registry.Release(s.doc)
}
