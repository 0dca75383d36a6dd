// Package browser drives a real Chrome page through rod and exposes it as a shell
// document, so the navigator and the notification manager can run against a live DOM.
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"fragnav/internal/config"
	"fragnav/internal/logging"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ErrNotConnected is returned when no browser is connected.
var ErrNotConnected = errors.New("browser not connected")

// Session describes the public metadata for an open page.
type Session struct {
	ID        string    `json:"id"`
	TargetID  string    `json:"target_id,omitempty"`
	URL       string    `json:"url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionManager owns the browser connection and the pages opened through it.
type SessionManager struct {
	cfg    config.BrowserConfig
	logger *zap.Logger

	mu         sync.RWMutex
	browser    *rod.Browser
	controlURL string
	sessions   map[string]*Page
	cancels    map[string]context.CancelFunc
}

// NewSessionManager creates a manager. Nothing is launched until Start.
func NewSessionManager(cfg config.BrowserConfig, logger *zap.Logger) *SessionManager {
	return &SessionManager{
		cfg:      cfg,
		logger:   logging.OrNop(logger),
		sessions: make(map[string]*Page),
		cancels:  make(map[string]context.CancelFunc),
	}
}

// Start connects to DebuggerURL, or launches a browser when none is configured.
func (m *SessionManager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.browser != nil {
		if _, err := m.browser.Version(); err == nil {
			return nil
		}
		m.logger.Warn("stale browser connection detected, reconnecting")
		_ = m.browser.Close()
		m.browser = nil
		m.controlURL = ""
		m.sessions = make(map[string]*Page)
	}

	controlURL := m.cfg.DebuggerURL
	if controlURL == "" && len(m.cfg.Launch) > 0 {
		bin := m.cfg.Launch[0]
		launch := launcher.New().Bin(bin).Headless(m.cfg.Headless)
		for _, rawFlag := range m.cfg.Launch[1:] {
			name, val, hasVal := strings.Cut(strings.TrimLeft(rawFlag, "-"), "=")
			if hasVal {
				launch = launch.Set(flags.Flag(name), val)
			} else {
				launch = launch.Set(flags.Flag(name))
			}
		}
		url, err := launch.Launch()
		if err != nil {
			fallback, altErr := launcher.New().Bin(bin).Headless(m.cfg.Headless).Launch()
			if altErr != nil {
				return fmt.Errorf("launch chrome: %w (fallback: %v)", err, altErr)
			}
			url = fallback
		}
		controlURL = url
	}

	if controlURL == "" {
		url, err := launcher.New().Headless(m.cfg.Headless).Launch()
		if err != nil {
			return fmt.Errorf("no debugger_url and failed to launch: %w", err)
		}
		controlURL = url
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("connect to chrome: %w", err)
	}

	m.browser = browser
	m.controlURL = controlURL
	m.logger.Info("browser connected", zap.String("control_url", controlURL))
	return nil
}

// ControlURL returns the WebSocket debugger URL.
func (m *SessionManager) ControlURL() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.controlURL
}

// IsConnected returns whether the browser is connected.
func (m *SessionManager) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.browser != nil
}

// Open loads url in a fresh incognito page and waits for it to load.
func (m *SessionManager) Open(ctx context.Context, url string) (*Page, error) {
	m.mu.RLock()
	b := m.browser
	m.mu.RUnlock()
	if b == nil {
		return nil, ErrNotConnected
	}

	incognito, err := b.Incognito()
	if err != nil {
		return nil, fmt.Errorf("incognito context: %w", err)
	}
	page, err := incognito.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}

	if err := (proto.EmulationSetDeviceMetricsOverride{
		Width:             m.viewportWidth(),
		Height:            m.viewportHeight(),
		DeviceScaleFactor: 1.0,
		Mobile:            false,
	}).Call(page); err != nil {
		m.logger.Warn("failed to set viewport", zap.Error(err))
	}

	id := uuid.NewString()
	logger := m.logger.With(zap.String("session", id))
	streamCtx, cancel := context.WithCancel(context.Background())
	m.consoleStream(streamCtx, page, logger)

	timeout := parseTimeout(m.cfg.NavigationTimeout)
	if err := page.Context(ctx).Timeout(timeout).Navigate(url); err != nil {
		cancel()
		_ = page.Close()
		return nil, fmt.Errorf("navigate to %s: %w", url, err)
	}
	if err := page.Context(ctx).Timeout(timeout).WaitLoad(); err != nil {
		cancel()
		_ = page.Close()
		return nil, fmt.Errorf("wait for %s: %w", url, err)
	}

	p := &Page{
		meta: Session{
			ID:        id,
			TargetID:  string(page.TargetID),
			URL:       url,
			CreatedAt: time.Now(),
		},
		page:   page,
		logger: logger,
	}

	m.mu.Lock()
	m.sessions[id] = p
	m.cancels[id] = cancel
	m.mu.Unlock()

	logger.Info("page opened", zap.String("url", url))
	return p, nil
}

// List returns metadata for all open pages.
func (m *SessionManager) List() []Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	results := make([]Session, 0, len(m.sessions))
	for _, p := range m.sessions {
		results = append(results, p.meta)
	}
	return results
}

// Shutdown closes every page and the browser.
func (m *SessionManager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var err error
	for id, p := range m.sessions {
		if cancel := m.cancels[id]; cancel != nil {
			cancel()
		}
		err = multierr.Append(err, p.page.Close())
		delete(m.sessions, id)
		delete(m.cancels, id)
	}

	if m.browser != nil {
		err = multierr.Append(err, m.browser.Close())
		m.browser = nil
	}
	m.controlURL = ""
	return err
}

// consoleStream forwards the page console to the logger until ctx ends.
func (m *SessionManager) consoleStream(ctx context.Context, page *rod.Page, logger *zap.Logger) {
	wait := page.Context(ctx).EachEvent(func(ev *proto.RuntimeConsoleAPICalled) {
		msg := stringifyConsoleArgs(ev.Args)
		switch ev.Type {
		case proto.RuntimeConsoleAPICalledTypeError:
			logger.Warn("console", zap.String("type", string(ev.Type)), zap.String("message", msg))
		default:
			logger.Debug("console", zap.String("type", string(ev.Type)), zap.String("message", msg))
		}
	})
	go wait()
}

func (m *SessionManager) viewportWidth() int {
	if m.cfg.ViewportWidth > 0 {
		return m.cfg.ViewportWidth
	}
	return 1280
}

func (m *SessionManager) viewportHeight() int {
	if m.cfg.ViewportHeight > 0 {
		return m.cfg.ViewportHeight
	}
	return 800
}

func parseTimeout(s string) time.Duration {
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return 30 * time.Second
}

func stringifyConsoleArgs(args []*proto.RuntimeRemoteObject) string {
	parts := make([]string, 0, len(args))
	for _, a := range args {
		if a == nil {
			continue
		}
		if !a.Value.Nil() {
			parts = append(parts, a.Value.String())
			continue
		}
		if a.Description != "" {
			parts = append(parts, a.Description)
		}
	}
	return strings.Join(parts, " ")
}
