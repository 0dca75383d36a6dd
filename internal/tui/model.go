// Package tui is an interactive terminal shell over a headless document: a menu of
// navigation affordances, the content container rendered as text, and the
// notification stack.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fragnav/internal/boot"
	"fragnav/internal/config"
	"fragnav/internal/dom"
	"fragnav/internal/navigator"
	"fragnav/internal/notify"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

const refreshInterval = 100 * time.Millisecond

type link struct {
	target string
	label  string
}

type tickMsg time.Time

type bootDoneMsg struct{ err error }

type navigatedMsg struct {
	target string
	out    navigator.Outcome
	found  bool
}

// Model is the bubbletea model of the terminal shell.
type Model struct {
	ctx    context.Context
	shell  *boot.Shell
	cfg    *config.Config
	logger *zap.Logger

	links   []link
	current string
	cursor  int
	state   navigator.State
	notes   []notify.Notification
	content string
	err     error

	viewport viewport.Model
	width    int
	height   int
	styles   Styles
	booted   bool
	quitting bool
}

// New creates the model. The shell is booted when the program starts.
func New(ctx context.Context, s *boot.Shell, cfg *config.Config, logger *zap.Logger) Model {
	if logger == nil {
		logger = zap.NewNop()
	}
	vp := viewport.New(60, 16)
	m := Model{
		ctx:      ctx,
		shell:    s,
		cfg:      cfg,
		logger:   logger,
		viewport: vp,
		width:    90,
		height:   24,
		styles:   DefaultStyles(),
	}
	m.refresh()
	return m
}

// Init boots the shell and starts the refresh tick.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.bootCmd(), tick())
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) bootCmd() tea.Cmd {
	s, ctx := m.shell, m.ctx
	return func() tea.Msg {
		return bootDoneMsg{err: s.Run(ctx)}
	}
}

func (m Model) navigateCmd(target string) tea.Cmd {
	s, ctx := m.shell, m.ctx
	return func() tea.Msg {
		out, found := s.Click(ctx, target)
		return navigatedMsg{target: target, out: out, found: found}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.links)-1 {
				m.cursor++
			}
		case "enter":
			if m.cursor < len(m.links) {
				return m, m.navigateCmd(m.links[m.cursor].target)
			}
		case "d":
			if n := len(m.notes); n > 0 {
				m.shell.Notifications().Dismiss(m.ctx, m.notes[n-1].ID)
			}
			m.refresh()
		default:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.viewport.Width = max(20, msg.Width-menuWidth-6)
		m.viewport.Height = max(5, msg.Height-8)
		m.refresh()
		return m, nil

	case tickMsg:
		m.refresh()
		return m, tick()

	case bootDoneMsg:
		m.booted = true
		m.err = msg.err
		m.refresh()
		return m, nil

	case navigatedMsg:
		if !msg.found {
			m.logger.Debug("menu entry vanished before navigation", zap.String("target", msg.target))
		}
		m.refresh()
		return m, nil
	}
	return m, nil
}

// refresh pulls the document state into the model.
func (m *Model) refresh() {
	ctx := m.ctx
	doc := m.shell.Document()

	links, err := doc.Affordances(ctx, m.cfg.Navigator.NavClass, m.cfg.Navigator.ActiveClass)
	if err == nil {
		m.links = make([]link, 0, len(links))
		for _, l := range links {
			m.links = append(m.links, link{target: l.Target(), label: l.Label()})
		}
		if m.cursor >= len(m.links) {
			m.cursor = max(0, len(m.links)-1)
		}
	}

	nav := m.shell.Navigator()
	m.state = nav.State()
	m.current = nav.Location()
	m.notes = m.shell.Notifications().Active()

	if region, err := doc.Region(ctx, m.cfg.Navigator.ContainerID); err == nil {
		if markup, err := region.HTML(ctx); err == nil {
			text := dom.Text(markup)
			if text != m.content {
				m.content = text
				m.viewport.SetContent(lipgloss.NewStyle().Width(m.viewport.Width).Render(text))
				m.viewport.GotoTop()
			}
		}
	}
}

const menuWidth = 24

// View renders the shell.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	status := fmt.Sprintf("[%s] %s", m.state, m.current)
	if !m.booted {
		status = "booting " + status
	}
	header := lipgloss.JoinHorizontal(lipgloss.Center,
		m.styles.Header.Render(m.cfg.Name),
		m.styles.Status.Render(status),
	)

	var menu strings.Builder
	for i, l := range m.links {
		style := m.styles.Item
		prefix := "  "
		if i == m.cursor {
			style = m.styles.Selected
			prefix = "> "
		}
		if l.target == m.current && m.state == navigator.Settled {
			style = style.Inherit(m.styles.Current)
		}
		menu.WriteString(style.Render(prefix + l.label))
		menu.WriteString("\n")
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		m.styles.Menu.Width(menuWidth).Render(strings.TrimRight(menu.String(), "\n")),
		m.styles.Content.Render(m.viewport.View()),
	)

	var toasts []string
	for _, n := range m.notes {
		style := m.styles.Toast.Foreground(SeverityColor(n.Severity))
		toasts = append(toasts, style.Render(severityGlyph(n.Severity)+" "+n.Message))
	}

	footer := m.styles.Footer.Render("↑/↓ select • enter open • d dismiss • q quit")
	if m.err != nil {
		footer = m.styles.Toast.Foreground(Destructive).Render("boot: " + m.err.Error())
	}

	parts := []string{header, body}
	if len(toasts) > 0 {
		parts = append(parts, lipgloss.JoinVertical(lipgloss.Left, toasts...))
	}
	parts = append(parts, footer)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}
