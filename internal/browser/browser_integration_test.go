//go:build integration

package browser_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"fragnav/internal/browser"
	"fragnav/internal/config"
	"fragnav/internal/fetch"
	"fragnav/internal/navigator"
	"fragnav/internal/notify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shellPage = `<!DOCTYPE html>
<html><body>
<nav>
  <a class="nav-link" href="./views/home.html">Home</a>
  <a class="nav-link" href="./views/about.html">About</a>
</nav>
<form id="contact" action="/sent" method="get"><input name="email" value="a@b.c"><button type="submit">Send</button></form>
<main id="main-content"></main>
</body></html>`

func newSite(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(shellPage))
	})
	mux.HandleFunc("/views/home.html", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<h1>Home</h1><script>window.__ran = (window.__ran || 0) + 1;</script>`))
	})
	mux.HandleFunc("/views/about.html", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<h1>About</h1>`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func openPage(t *testing.T, ctx context.Context, url string) *browser.Page {
	t.Helper()
	cfg := config.DefaultConfig().Browser
	cfg.NavigationTimeout = "10s"

	m := browser.NewSessionManager(cfg, nil)
	require.NoError(t, m.Start(ctx), "failed to start browser")
	t.Cleanup(func() {
		if err := m.Shutdown(context.Background()); err != nil {
			t.Logf("shutdown error: %v", err)
		}
	})

	page, err := m.Open(ctx, url)
	require.NoError(t, err)
	require.Len(t, m.List(), 1)
	return page
}

func TestPage_NavigatorSwapsFragment_Integration(t *testing.T) {
	srv := newSite(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	page := openPage(t, ctx, srv.URL+"/")

	fetcher, err := fetch.New(fetch.Options{BaseURL: srv.URL + "/"})
	require.NoError(t, err)
	nav := navigator.New(page, fetcher, navigator.Options{Transition: 10 * time.Millisecond})

	out := nav.Navigate(ctx, navigator.Request{Location: "./views/home.html"})
	require.NoError(t, out.Err)
	assert.Equal(t, navigator.Settled, out.State)

	region, err := page.Region(ctx, "main-content")
	require.NoError(t, err)
	markup, err := region.HTML(ctx)
	require.NoError(t, err)
	assert.Contains(t, markup, "<h1>Home</h1>")

	affordances, err := page.Affordances(ctx, "nav-link", "active")
	require.NoError(t, err)
	require.Len(t, affordances, 2)
	assert.Equal(t, "Home", affordances[0].Label())

	n, err := page.InstallHoneypot(ctx, "website")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = page.InstallHoneypot(ctx, "website")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPage_NotificationsAndClicks_Integration(t *testing.T) {
	srv := newSite(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	page := openPage(t, ctx, srv.URL+"/")

	mgr := notify.NewManager(page, notify.Options{Duration: time.Minute})
	defer mgr.Close()
	id, err := mgr.Notify(ctx, "Saved", notify.SeveritySuccess)
	require.NoError(t, err)
	toast, err := page.Region(ctx, id)
	require.NoError(t, err)
	markup, err := toast.HTML(ctx)
	require.NoError(t, err)
	assert.Contains(t, markup, "Saved")

	var (
		mu      sync.Mutex
		targets []string
	)
	require.NoError(t, page.InterceptClicks(ctx, "nav-link", 20*time.Millisecond, func(_ context.Context, target string) {
		mu.Lock()
		targets = append(targets, target)
		mu.Unlock()
	}))

	require.NoError(t, page.Click(ctx, `a[href="./views/about.html"]`))
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(targets) == 1 && targets[0] == "./views/about.html"
	}, 5*time.Second, 20*time.Millisecond)

	// The default action was suppressed.
	still, err := page.Region(ctx, "main-content")
	require.NoError(t, err)
	assert.Equal(t, "main-content", still.ID())
}

func TestPage_InterceptSubmits_Integration(t *testing.T) {
	srv := newSite(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	page := openPage(t, ctx, srv.URL+"/")

	_, err := page.InstallHoneypot(ctx, "website")
	require.NoError(t, err)

	var (
		mu   sync.Mutex
		seen []url.Values
	)
	require.NoError(t, page.InterceptSubmits(ctx, 20*time.Millisecond, func(_ context.Context, form string, values url.Values) bool {
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, "contact", form)
		seen = append(seen, values)
		return false
	}))

	require.NoError(t, page.Click(ctx, `#contact button`))
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 1
	}, 5*time.Second, 20*time.Millisecond)

	mu.Lock()
	assert.Equal(t, "a@b.c", seen[0].Get("email"))
	assert.Empty(t, seen[0].Get("website"))
	mu.Unlock()

	// The rejected form stayed on the shell page.
	_, err = page.Region(ctx, "main-content")
	require.NoError(t, err)
}
