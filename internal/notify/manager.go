// Package notify shows short-lived notifications in a shell document.
//
// Each document has one Manager (see Registry). Notifications are appended to a
// container region created on first use, dismissed automatically after a fixed
// duration or manually, and removed once their hide transition has elapsed.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"fragnav/internal/clock"
	"fragnav/internal/logging"
	"fragnav/internal/markup"
	"fragnav/internal/shell"

	"go.uber.org/zap"
)

// Severity classifies a notification.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// ParseSeverity maps a string to a Severity. Unknown values are info.
func ParseSeverity(s string) Severity {
	switch Severity(strings.ToLower(strings.TrimSpace(s))) {
	case SeveritySuccess:
		return SeveritySuccess
	case SeverityWarning:
		return SeverityWarning
	case SeverityError:
		return SeverityError
	default:
		return SeverityInfo
	}
}

// Icon returns the icon class of the severity.
func (s Severity) Icon() string {
	switch s {
	case SeveritySuccess:
		return "fa-check-circle"
	case SeverityWarning:
		return "fa-exclamation-triangle"
	case SeverityError:
		return "fa-exclamation-circle"
	default:
		return "fa-info-circle"
	}
}

// Background returns the background class of the severity.
func (s Severity) Background() string {
	switch s {
	case SeveritySuccess:
		return "bg-success"
	case SeverityWarning:
		return "bg-warning"
	case SeverityError:
		return "bg-danger"
	default:
		return "bg-info"
	}
}

// Notification is one message shown to the user.
type Notification struct {
	ID        string
	Message   string
	Severity  Severity
	CreatedAt time.Time
}

// Options configures a Manager. Zero values take the defaults.
type Options struct {
	ContainerID    string
	ContainerClass string
	Duration       time.Duration
	HideTransition time.Duration
	Clock          clock.Clock
	Logger         *zap.Logger
}

func (o *Options) setDefaults() {
	if o.ContainerID == "" {
		o.ContainerID = "toast-container"
	}
	if o.ContainerClass == "" {
		o.ContainerClass = "position-fixed top-0 end-0 p-3"
	}
	if o.Duration <= 0 {
		o.Duration = 5 * time.Second
	}
	if o.HideTransition <= 0 {
		o.HideTransition = 150 * time.Millisecond
	}
	if o.Clock == nil {
		o.Clock = clock.Real()
	}
}

type entry struct {
	note    Notification
	timer   clock.Timer
	removal clock.Timer
	hiding  bool
}

// Manager owns the notifications of one document.
type Manager struct {
	doc    shell.Document
	opts   Options
	logger *zap.Logger

	mu      sync.Mutex
	seq     uint64
	entries []*entry
	closed  bool
}

// NewManager creates a Manager for doc. Prefer Registry.For, which keeps one
// manager per document.
func NewManager(doc shell.Document, opts Options) *Manager {
	opts.setDefaults()
	return &Manager{
		doc:    doc,
		opts:   opts,
		logger: logging.OrNop(opts.Logger),
	}
}

// Notify shows message with the given severity and returns its id. The
// notification dismisses itself after the configured duration.
func (m *Manager) Notify(ctx context.Context, message string, severity Severity) (string, error) {
	severity = ParseSeverity(string(severity))

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return "", errors.New("notification manager closed")
	}

	container, err := m.container(ctx)
	if err != nil {
		return "", err
	}

	m.seq++
	note := Notification{
		ID:        fmt.Sprintf("toast-%d", m.seq),
		Message:   message,
		Severity:  severity,
		CreatedAt: m.opts.Clock.Now(),
	}
	view := markup.ToastView{
		ID:         note.ID,
		Message:    message,
		Icon:       severity.Icon(),
		Background: severity.Background(),
	}
	if err := container.AppendHTML(ctx, markup.Toast(view)); err != nil {
		return "", fmt.Errorf("append notification: %w", err)
	}

	e := &entry{note: note}
	id := note.ID
	e.timer = m.opts.Clock.AfterFunc(m.opts.Duration, func() {
		m.Dismiss(context.Background(), id)
	})
	m.entries = append(m.entries, e)

	m.logger.Debug("notification shown",
		zap.String("id", id), zap.String("severity", string(severity)))
	return id, nil
}

// container returns the notification container, creating it on first use.
func (m *Manager) container(ctx context.Context) (shell.Region, error) {
	r, err := m.doc.Region(ctx, m.opts.ContainerID)
	if err == nil {
		return r, nil
	}
	if !errors.Is(err, shell.ErrRegionNotFound) {
		return nil, fmt.Errorf("look up notification container: %w", err)
	}
	r, err = m.doc.CreateRegion(ctx, m.opts.ContainerID, m.opts.ContainerClass)
	if err != nil {
		return nil, fmt.Errorf("create notification container: %w", err)
	}
	if err := r.SetStyle(ctx, "z-index", "11"); err != nil {
		m.logger.Warn("failed to style notification container", zap.Error(err))
	}
	return r, nil
}

// Dismiss starts hiding the notification. It returns false when the notification
// is unknown or already being dismissed, so removal happens exactly once.
func (m *Manager) Dismiss(ctx context.Context, id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.find(id)
	if e == nil || e.hiding {
		return false
	}
	e.hiding = true
	if e.timer != nil {
		e.timer.Stop()
	}

	if r, err := m.doc.Region(ctx, id); err != nil {
		m.logger.Debug("notification element already gone", zap.String("id", id), zap.Error(err))
	} else if err := r.SetStyle(ctx, "opacity", "0"); err != nil {
		m.logger.Warn("failed to hide notification", zap.String("id", id), zap.Error(err))
	}

	e.removal = m.opts.Clock.AfterFunc(m.opts.HideTransition, func() {
		m.remove(context.Background(), id)
	})
	return true
}

func (m *Manager) remove(ctx context.Context, id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, e := range m.entries {
		if e.note.ID != id {
			continue
		}
		m.entries = append(m.entries[:i], m.entries[i+1:]...)
		break
	}
	r, err := m.doc.Region(ctx, id)
	if err != nil {
		return
	}
	if err := r.Remove(ctx); err != nil {
		m.logger.Warn("failed to remove notification", zap.String("id", id), zap.Error(err))
		return
	}
	m.logger.Debug("notification removed", zap.String("id", id))
}

func (m *Manager) find(id string) *entry {
	for _, e := range m.entries {
		if e.note.ID == id {
			return e
		}
	}
	return nil
}

// Active returns the notifications still present in the document, oldest first.
// Notifications being hidden are included until removed.
func (m *Manager) Active() []Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Notification, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e.note)
	}
	return out
}

// Close stops every pending timer. Notifications already shown stay in the document.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	for _, e := range m.entries {
		if e.timer != nil {
			e.timer.Stop()
		}
		if e.removal != nil {
			e.removal.Stop()
		}
	}
}
