package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocation(t *testing.T) {
	root := filepath.Join("site", "public")

	loc, err := Location(root, filepath.Join(root, "views", "home.html"))
	require.NoError(t, err)
	assert.Equal(t, "./views/home.html", loc)

	_, err = Location(root, filepath.Join("elsewhere", "x.html"))
	assert.Error(t, err)
}

func TestWatcher_DebouncedChange(t *testing.T) {
	root := t.TempDir()
	views := filepath.Join(root, "views")
	require.NoError(t, os.MkdirAll(views, 0o755))
	page := filepath.Join(views, "home.html")
	require.NoError(t, os.WriteFile(page, []byte("<h1>Home</h1>"), 0o644))

	var (
		mu      sync.Mutex
		changes []string
	)
	w, err := New(root, func(_ context.Context, location string) {
		mu.Lock()
		changes = append(changes, location)
		mu.Unlock()
	}, Options{Debounce: 50 * time.Millisecond})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	// A burst of saves is reported once.
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(page, []byte("<h1>Home v2</h1>"), 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(views, "notes.txt"), []byte("ignored"), 0o644))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(changes) == 1
	}, 5*time.Second, 10*time.Millisecond)

	time.Sleep(150 * time.Millisecond)
	mu.Lock()
	assert.Equal(t, []string{"./views/home.html"}, changes)
	mu.Unlock()
	assert.GreaterOrEqual(t, w.Stats().FilesModified, 1)
}

func TestWatcher_StopWithoutStart(t *testing.T) {
	w, err := New(t.TempDir(), nil, Options{})
	require.NoError(t, err)
	w.Stop()
}
