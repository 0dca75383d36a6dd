package boot

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"fragnav/internal/config"
	"fragnav/internal/dom"
	"fragnav/internal/fetch"
	"fragnav/internal/navigator"
	"fragnav/internal/notify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const shellPage = `<!DOCTYPE html><html><body>
<nav><a class="nav-link" href="./views/home.html">Home</a><a class="nav-link" href="./views/about.html">About</a></nav>
<main id="main-content"></main>
</body></html>`

func bootShell(t *testing.T, mutate func(*config.Config)) (*Shell, *dom.Document) {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/views/home.html", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<h1>Home</h1>"))
	})
	mux.HandleFunc("/views/about.html", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<h1>About</h1>"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	cfg := config.DefaultConfig()
	cfg.Site.BaseURL = srv.URL
	cfg.Navigator.Transition = "1ms"
	cfg.Notifications.WelcomeDelay = "1ms"
	if mutate != nil {
		mutate(cfg)
	}

	fetcher, err := fetch.New(fetch.Options{BaseURL: cfg.Site.BaseURL})
	require.NoError(t, err)
	doc, err := dom.Parse(shellPage, dom.Options{})
	require.NoError(t, err)

	s := New(cfg, doc, Deps{Fetcher: fetcher})
	t.Cleanup(s.Close)
	return s, doc
}

func mainContent(t *testing.T, doc *dom.Document) string {
	t.Helper()
	r, err := doc.Region(context.Background(), "main-content")
	require.NoError(t, err)
	html, err := r.HTML(context.Background())
	require.NoError(t, err)
	return html
}

func TestRun_BootSequence(t *testing.T) {
	s, doc := bootShell(t, nil)

	require.NoError(t, s.Run(context.Background()))

	assert.Equal(t, "<h1>Home</h1>", mainContent(t, doc))
	assert.Equal(t, navigator.Settled, s.Navigator().State())
	assert.Contains(t, doc.HTML(), `class="nav-link active" href="./views/home.html"`)

	active := s.Notifications().Active()
	require.Len(t, active, 1)
	assert.Equal(t, "Welcome to the gallery!", active[0].Message)
	assert.Equal(t, notify.SeveritySuccess, active[0].Severity)
}

func TestRun_NoWelcomeMessage(t *testing.T) {
	s, _ := bootShell(t, func(c *config.Config) { c.Notifications.WelcomeMessage = "" })

	require.NoError(t, s.Run(context.Background()))
	assert.Empty(t, s.Notifications().Active())
}

func TestRun_CancelledBeforeWelcome(t *testing.T) {
	s, _ := bootShell(t, func(c *config.Config) { c.Notifications.WelcomeDelay = "1h" })
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, s.Run(ctx))
	assert.Empty(t, s.Notifications().Active())
}

func TestClick(t *testing.T) {
	s, doc := bootShell(t, nil)
	ctx := context.Background()

	out, ok := s.Click(ctx, "./views/about.html")
	require.True(t, ok)
	assert.Equal(t, navigator.Settled, out.State)
	assert.Equal(t, "<h1>About</h1>", mainContent(t, doc))

	_, ok = s.Click(ctx, "./views/unknown.html")
	assert.False(t, ok)
	assert.Equal(t, "<h1>About</h1>", mainContent(t, doc))
}

func TestSubmit_Honeypot(t *testing.T) {
	s, doc := bootShell(t, nil)
	ctx := context.Background()

	assert.True(t, s.Submit(ctx, "contact", url.Values{"email": {"ana@example.com"}}))
	assert.Empty(t, s.Notifications().Active())

	assert.False(t, s.Submit(ctx, "contact", url.Values{"website": {"spam"}}))
	active := s.Notifications().Active()
	require.Len(t, active, 1)
	assert.Equal(t, notify.SeverityError, active[0].Severity)
	assert.Contains(t, doc.HTML(), "Could not send the form")
}

func TestGuard(t *testing.T) {
	s, _ := bootShell(t, nil)

	err := s.Guard("exploding step", func() error { panic("boom") })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exploding step panicked: boom")

	assert.NoError(t, s.Guard("quiet step", func() error { return nil }))
}

func TestRun_WelcomeFailureKeepsInitialNavigation(t *testing.T) {
	s, doc := bootShell(t, func(c *config.Config) {
		c.Navigator.Transition = "50ms"
	})
	s.Notifications().Close()

	require.NoError(t, s.Run(context.Background()))

	assert.Equal(t, navigator.Settled, s.Navigator().State())
	assert.Equal(t, "<h1>Home</h1>", mainContent(t, doc))
	assert.Empty(t, s.Notifications().Active())
}
