package notify

import (
	"context"
	"strings"
	"testing"
	"time"

	"fragnav/internal/clock"
	"fragnav/internal/dom"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const page = `<!DOCTYPE html><html><body><main id="main-content"></main></body></html>`

func newTestManager(t *testing.T) (*Manager, *dom.Document, *clock.Fake) {
	t.Helper()
	doc, err := dom.Parse(page, dom.Options{})
	require.NoError(t, err)
	fake := clock.NewFake(time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC))
	m := NewManager(doc, Options{Clock: fake})
	t.Cleanup(m.Close)
	return m, doc, fake
}

func TestParseSeverity(t *testing.T) {
	assert.Equal(t, SeverityError, ParseSeverity("error"))
	assert.Equal(t, SeveritySuccess, ParseSeverity(" Success "))
	assert.Equal(t, SeverityWarning, ParseSeverity("warning"))
	assert.Equal(t, SeverityInfo, ParseSeverity("critical"))
	assert.Equal(t, SeverityInfo, ParseSeverity(""))
}

func TestNotify_RendersSeverity(t *testing.T) {
	m, doc, _ := newTestManager(t)
	ctx := context.Background()

	id, err := m.Notify(ctx, "Could not save", SeverityError)
	require.NoError(t, err)
	assert.Equal(t, "toast-1", id)

	html := doc.HTML()
	assert.Contains(t, html, `id="toast-container"`)
	assert.Contains(t, html, "fa-exclamation-circle")
	assert.Contains(t, html, "bg-danger")
	assert.Contains(t, html, "Could not save")
}

func TestNotify_EscapesMessage(t *testing.T) {
	m, doc, _ := newTestManager(t)

	_, err := m.Notify(context.Background(), "<b>bold</b>", SeverityInfo)
	require.NoError(t, err)
	assert.NotContains(t, doc.HTML(), "<b>bold</b>")
	assert.Contains(t, doc.HTML(), "&lt;b&gt;bold&lt;/b&gt;")
}

func TestNotify_UnknownSeverityIsInfo(t *testing.T) {
	m, doc, _ := newTestManager(t)

	_, err := m.Notify(context.Background(), "hello", Severity("critical"))
	require.NoError(t, err)
	assert.Contains(t, doc.HTML(), "fa-info-circle")
	assert.Equal(t, SeverityInfo, m.Active()[0].Severity)
}

func TestNotify_ReusesContainer(t *testing.T) {
	m, doc, _ := newTestManager(t)
	ctx := context.Background()

	_, err := m.Notify(ctx, "one", SeverityInfo)
	require.NoError(t, err)
	_, err = m.Notify(ctx, "two", SeverityInfo)
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(doc.HTML(), `id="toast-container"`))
}

func TestNotify_AutoDismissAfterDuration(t *testing.T) {
	m, doc, fake := newTestManager(t)

	id, err := m.Notify(context.Background(), "Saved", SeveritySuccess)
	require.NoError(t, err)

	fake.Advance(4 * time.Second)
	assert.Contains(t, doc.HTML(), id)

	fake.Advance(time.Second)
	assert.Contains(t, doc.HTML(), "opacity: 0", "hide style applied when the duration elapses")
	assert.Len(t, m.Active(), 1)

	fake.Advance(150 * time.Millisecond)
	assert.NotContains(t, doc.HTML(), `id="`+id+`"`)
	assert.Empty(t, m.Active())
	assert.Zero(t, fake.Pending())
}

func TestDismiss_ExactlyOnce(t *testing.T) {
	m, doc, fake := newTestManager(t)
	ctx := context.Background()

	id, err := m.Notify(ctx, "Saved", SeveritySuccess)
	require.NoError(t, err)

	assert.True(t, m.Dismiss(ctx, id))
	assert.False(t, m.Dismiss(ctx, id))

	// The auto-dismiss timer was stopped; only the removal is pending.
	assert.Equal(t, 1, fake.Pending())
	fake.Advance(10 * time.Second)
	assert.NotContains(t, doc.HTML(), `id="`+id+`"`)
	assert.False(t, m.Dismiss(ctx, id))
	assert.False(t, m.Dismiss(ctx, "toast-99"))
}

func TestNotify_OrderAndIndependentRemoval(t *testing.T) {
	m, doc, fake := newTestManager(t)
	ctx := context.Background()

	saved, err := m.Notify(ctx, "Saved", SeveritySuccess)
	require.NoError(t, err)
	failed, err := m.Notify(ctx, "Failed", SeverityError)
	require.NoError(t, err)

	active := m.Active()
	require.Len(t, active, 2)
	assert.Equal(t, "Saved", active[0].Message)
	assert.Equal(t, "Failed", active[1].Message)

	html := doc.HTML()
	assert.Less(t, strings.Index(html, saved), strings.Index(html, failed))

	require.True(t, m.Dismiss(ctx, saved))
	fake.Advance(150 * time.Millisecond)

	active = m.Active()
	require.Len(t, active, 1)
	assert.Equal(t, failed, active[0].ID)
	assert.Contains(t, doc.HTML(), "Failed")
	assert.NotContains(t, doc.HTML(), "Saved")
}

func TestNotify_RealClock(t *testing.T) {
	doc, err := dom.Parse(page, dom.Options{})
	require.NoError(t, err)
	m := NewManager(doc, Options{Duration: 10 * time.Millisecond, HideTransition: 5 * time.Millisecond})
	defer m.Close()

	_, err = m.Notify(context.Background(), "quick", SeverityInfo)
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return len(m.Active()) == 0 }, time.Second, 5*time.Millisecond)
}

func TestNotify_AfterClose(t *testing.T) {
	m, _, _ := newTestManager(t)
	m.Close()
	_, err := m.Notify(context.Background(), "late", SeverityInfo)
	assert.Error(t, err)
}

func TestRegistry_OneManagerPerDocument(t *testing.T) {
	reg := NewRegistry(Options{})
	defer reg.Close()

	a, err := dom.Parse(page, dom.Options{})
	require.NoError(t, err)
	b, err := dom.Parse(page, dom.Options{})
	require.NoError(t, err)

	assert.Same(t, reg.For(a), reg.For(a))
	assert.NotSame(t, reg.For(a), reg.For(b))

	first := reg.For(a)
	reg.Release(a)
	assert.NotSame(t, first, reg.For(a))
}
