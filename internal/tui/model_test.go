package tui

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fragnav/internal/boot"
	"fragnav/internal/config"
	"fragnav/internal/dom"
	"fragnav/internal/fetch"
	"fragnav/internal/navigator"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shellPage = `<!DOCTYPE html><html><body>
<nav><a class="nav-link" href="./views/home.html">Home</a><a class="nav-link" href="./views/contact.html">Contact</a></nav>
<main id="main-content"></main>
</body></html>`

func newModel(t *testing.T) Model {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/views/home.html", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<h1>Home</h1><p>Latest works</p>"))
	})
	mux.HandleFunc("/views/contact.html", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<h1>Contact</h1><p>Write to us</p>"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	cfg := config.DefaultConfig()
	cfg.Site.BaseURL = srv.URL
	cfg.Navigator.Transition = "1ms"
	cfg.Notifications.WelcomeDelay = "1ms"

	fetcher, err := fetch.New(fetch.Options{BaseURL: srv.URL})
	require.NoError(t, err)
	doc, err := dom.Parse(shellPage, dom.Options{})
	require.NoError(t, err)
	s := boot.New(cfg, doc, boot.Deps{Fetcher: fetcher})
	t.Cleanup(s.Close)

	return New(context.Background(), s, cfg, nil)
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm, cmd
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func TestModel_BootShowsHome(t *testing.T) {
	m := newModel(t)
	require.Len(t, m.links, 2)

	m, _ = update(t, m, m.bootCmd()())

	assert.True(t, m.booted)
	assert.Equal(t, navigator.Settled, m.state)
	assert.Contains(t, m.content, "# Home")
	assert.Contains(t, m.View(), "Latest works")
	require.Len(t, m.notes, 1)
	assert.Contains(t, m.View(), "Welcome to the gallery!")
}

func TestModel_SelectAndNavigate(t *testing.T) {
	m := newModel(t)

	m, _ = update(t, m, key("down"))
	assert.Equal(t, 1, m.cursor)
	m, _ = update(t, m, key("down"))
	assert.Equal(t, 1, m.cursor, "cursor stops at the last entry")

	m, cmd := update(t, m, key("enter"))
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())

	assert.Equal(t, "./views/contact.html", m.current)
	assert.Contains(t, m.content, "Write to us")

	m, _ = update(t, m, key("up"))
	assert.Equal(t, 0, m.cursor)
}

func TestModel_DismissNewestNotification(t *testing.T) {
	m := newModel(t)
	m, _ = update(t, m, m.bootCmd()())
	require.Len(t, m.notes, 1)

	m, _ = update(t, m, key("d"))

	// The notification is hiding but present until its hide transition ends.
	assert.Eventually(t, func() bool {
		m, _ = update(t, m, tickMsg{})
		return len(m.notes) == 0
	}, time.Second, 10*time.Millisecond)
}

func TestModel_Quit(t *testing.T) {
	m := newModel(t)
	m, cmd := update(t, m, key("q"))
	require.NotNil(t, cmd)
	assert.True(t, m.quitting)
	assert.Empty(t, m.View())
}

func TestModel_WindowSize(t *testing.T) {
	m := newModel(t)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	assert.Equal(t, 120-menuWidth-6, m.viewport.Width)
	assert.Equal(t, 32, m.viewport.Height)
}
