package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"fragnav/internal/shell"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

// Page is an open browser page. It implements shell.Document over the live DOM.
type Page struct {
	meta   Session
	page   *rod.Page
	logger *zap.Logger
}

var _ shell.Document = (*Page)(nil)

// Session returns the page's metadata.
func (p *Page) Session() Session { return p.meta }

// Key identifies the page by its session id.
func (p *Page) Key() string { return p.meta.ID }

func (p *Page) eval(ctx context.Context, js string, args ...interface{}) (*proto.RuntimeRemoteObject, error) {
	return p.page.Context(ctx).Evaluate(&rod.EvalOptions{
		JS:           js,
		JSArgs:       args,
		ByValue:      true,
		AwaitPromise: true,
	})
}

// Region resolves an element by id.
func (p *Page) Region(ctx context.Context, id string) (shell.Region, error) {
	res, err := p.eval(ctx, `(id) => document.getElementById(id) !== null`, id)
	if err != nil {
		return nil, err
	}
	if !res.Value.Bool() {
		return nil, fmt.Errorf("%w: %s", shell.ErrRegionNotFound, id)
	}
	return &region{page: p, id: id}, nil
}

// CreateRegion appends a div with id and class to the body, or returns the existing one.
func (p *Page) CreateRegion(ctx context.Context, id, class string) (shell.Region, error) {
	_, err := p.eval(ctx, `(id, cls) => {
		let el = document.getElementById(id);
		if (!el) {
			el = document.createElement('div');
			el.id = id;
			if (cls) el.className = cls;
			document.body.appendChild(el);
		}
		return true;
	}`, id, class)
	if err != nil {
		return nil, err
	}
	return &region{page: p, id: id}, nil
}

// Affordances lists the elements carrying class in document order.
func (p *Page) Affordances(ctx context.Context, class, activeClass string) ([]shell.Affordance, error) {
	res, err := p.eval(ctx, `(cls) => Array.from(document.getElementsByClassName(cls)).map(el => ({
		target: el.getAttribute('href') || '',
		label: (el.textContent || '').trim(),
	}))`, class)
	if err != nil {
		return nil, err
	}
	raw, err := res.Value.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var items []struct {
		Target string `json:"target"`
		Label  string `json:"label"`
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode affordances: %w", err)
	}

	out := make([]shell.Affordance, 0, len(items))
	for i, it := range items {
		out = append(out, &affordance{
			page:        p,
			class:       class,
			activeClass: activeClass,
			index:       i,
			target:      it.Target,
			label:       it.Label,
		})
	}
	return out, nil
}

// ScrollToTop smoothly scrolls the viewport to the top.
func (p *Page) ScrollToTop(ctx context.Context) error {
	_, err := p.eval(ctx, `() => { window.scrollTo({ top: 0, behavior: 'smooth' }); return true; }`)
	return err
}

// InterceptClicks suppresses the default action of clicks on elements carrying class
// and reports their targets to onClick until ctx ends. Clicks are queued in the page
// and drained every interval. Each click is handled on its own goroutine, so a click
// made while an earlier one is still loading supersedes it.
func (p *Page) InterceptClicks(ctx context.Context, class string, interval time.Duration, onClick func(ctx context.Context, target string)) error {
	_, err := p.eval(ctx, `(cls) => {
		const w = window;
		w.__fragnavClicks = w.__fragnavClicks || [];
		if (w.__fragnavHooked) return true;
		w.__fragnavHooked = true;
		document.addEventListener('click', (ev) => {
			const el = ev.target && ev.target.closest ? ev.target.closest('.' + cls) : null;
			if (!el) return;
			ev.preventDefault();
			w.__fragnavClicks.push(el.getAttribute('href') || '');
		}, true);
		return true;
	}`, class)
	if err != nil {
		return fmt.Errorf("install click hook: %w", err)
	}

	p.poll(ctx, interval, func() {
		raw := p.drain(ctx, "__fragnavClicks")
		if raw == nil {
			return
		}
		var targets []string
		if err := json.Unmarshal(raw, &targets); err != nil {
			p.logger.Warn("undecodable click queue", zap.Error(err))
			return
		}
		for _, target := range targets {
			p.logger.Debug("intercepted click", zap.String("target", target))
			go onClick(ctx, target)
		}
	})
	return nil
}

// Submission is a form submission held back by InterceptSubmits.
type Submission struct {
	Seq    int        `json:"seq"`
	Form   string     `json:"form"`
	Values url.Values `json:"values"`
}

// InterceptSubmits holds back every form submission of the page and asks onSubmit
// whether to let it through. Accepted forms are submitted natively; rejected ones
// are dropped. Submissions are queued in the page and drained every interval.
func (p *Page) InterceptSubmits(ctx context.Context, interval time.Duration, onSubmit func(ctx context.Context, form string, values url.Values) bool) error {
	_, err := p.eval(ctx, `() => {
		const w = window;
		w.__fragnavSubmits = w.__fragnavSubmits || [];
		w.__fragnavPending = w.__fragnavPending || {};
		if (w.__fragnavSubmitHooked) return true;
		w.__fragnavSubmitHooked = true;
		let seq = 0;
		document.addEventListener('submit', (ev) => {
			const form = ev.target;
			if (!form || form.tagName !== 'FORM') return;
			ev.preventDefault();
			seq++;
			w.__fragnavPending[seq] = form;
			const values = {};
			new FormData(form).forEach((v, k) => {
				if (typeof v !== 'string') return;
				(values[k] = values[k] || []).push(v);
			});
			w.__fragnavSubmits.push({ seq: seq, form: form.id || form.getAttribute('name') || '', values: values });
		}, true);
		return true;
	}`)
	if err != nil {
		return fmt.Errorf("install submit hook: %w", err)
	}

	p.poll(ctx, interval, func() {
		raw := p.drain(ctx, "__fragnavSubmits")
		if raw == nil {
			return
		}
		subs, err := decodeSubmissions(raw)
		if err != nil {
			p.logger.Warn("undecodable submit queue", zap.Error(err))
			return
		}
		for _, sub := range subs {
			send := onSubmit(ctx, sub.Form, sub.Values)
			p.logger.Debug("intercepted submit", zap.String("form", sub.Form), zap.Bool("sent", send))
			if err := p.release(ctx, sub.Seq, send); err != nil {
				p.logger.Warn("failed to release form", zap.String("form", sub.Form), zap.Error(err))
			}
		}
	})
	return nil
}

// release forgets the held form seq, submitting it first when send is set. The
// native submit does not fire the submit event again.
func (p *Page) release(ctx context.Context, seq int, send bool) error {
	_, err := p.eval(ctx, `(seq, send) => {
		const pending = window.__fragnavPending || {};
		const form = pending[seq];
		delete pending[seq];
		if (form && send) HTMLFormElement.prototype.submit.call(form);
		return true;
	}`, seq, send)
	return err
}

func decodeSubmissions(raw []byte) ([]Submission, error) {
	var subs []Submission
	if err := json.Unmarshal(raw, &subs); err != nil {
		return nil, err
	}
	for i := range subs {
		if subs[i].Values == nil {
			subs[i].Values = url.Values{}
		}
	}
	return subs, nil
}

// poll runs fn every interval on its own goroutine until ctx ends.
func (p *Page) poll(ctx context.Context, interval time.Duration, fn func()) {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
}

// Click clicks the first element matching selector like a user would.
func (p *Page) Click(ctx context.Context, selector string) error {
	el, err := p.page.Context(ctx).Element(selector)
	if err != nil {
		return fmt.Errorf("find %s: %w", selector, err)
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

// drain empties the page queue held in window[name] and returns its JSON, or nil
// when the queue is empty or unreadable.
func (p *Page) drain(ctx context.Context, name string) []byte {
	res, err := p.eval(ctx, `(name) => {
		const buf = Array.isArray(window[name]) ? window[name] : [];
		window[name] = [];
		return buf;
	}`, name)
	if err != nil || res == nil || res.Value.Nil() {
		return nil
	}
	raw, err := res.Value.MarshalJSON()
	if err != nil {
		return nil
	}
	return raw
}

type region struct {
	page *Page
	id   string
}

func (r *region) ID() string { return r.id }

// call runs body with el bound to the region element and args to the rest. A null
// result from the page means the element is gone.
func (r *region) call(ctx context.Context, body string, args ...interface{}) (*proto.RuntimeRemoteObject, error) {
	js := `(id, ...args) => {
		const el = document.getElementById(id);
		if (!el) return null;
		return ((el, ...args) => {` + body + `})(el, ...args);
	}`
	res, err := r.page.eval(ctx, js, append([]interface{}{r.id}, args...)...)
	if err != nil {
		return nil, err
	}
	if res.Value.Nil() {
		return nil, fmt.Errorf("%w: %s", shell.ErrRegionNotFound, r.id)
	}
	return res, nil
}

func (r *region) HTML(ctx context.Context) (string, error) {
	res, err := r.call(ctx, `return el.innerHTML;`)
	if err != nil {
		return "", err
	}
	return res.Value.Str(), nil
}

func (r *region) SetHTML(ctx context.Context, markup string) error {
	_, err := r.call(ctx, `el.innerHTML = args[0]; return true;`, markup)
	return err
}

func (r *region) AppendHTML(ctx context.Context, markup string) error {
	_, err := r.call(ctx, `el.insertAdjacentHTML('beforeend', args[0]); return true;`, markup)
	return err
}

func (r *region) SetStyle(ctx context.Context, property, value string) error {
	_, err := r.call(ctx, `el.style.setProperty(args[0], args[1]); return true;`, property, value)
	return err
}

// ReplaceBlocks rebuilds each inert script from its record. The browser runs a
// script element as soon as it is connected. Scripts inside svg or math content are
// not executable blocks and are left alone.
func (r *region) ReplaceBlocks(ctx context.Context, blocks []shell.ExecutableBlock) error {
	if blocks == nil {
		blocks = []shell.ExecutableBlock{}
	}
	res, err := r.call(ctx, `
		const blocks = args[0];
		const old = Array.from(el.querySelectorAll('script')).filter(s => s.namespaceURI === 'http://www.w3.org/1999/xhtml');
		if (old.length !== blocks.length) return { replaced: false, found: old.length };
		old.forEach((s, i) => {
			const fresh = document.createElement('script');
			(blocks[i].attrs || []).forEach(a => fresh.setAttribute(a.name, a.value));
			fresh.textContent = blocks[i].body;
			s.parentNode.replaceChild(fresh, s);
		});
		return { replaced: true, found: old.length };
	`, blocks)
	if err != nil {
		return err
	}
	if !res.Value.Get("replaced").Bool() {
		return fmt.Errorf("region %s holds %d executable blocks, got %d records",
			r.id, res.Value.Get("found").Int(), len(blocks))
	}
	return nil
}

func (r *region) Remove(ctx context.Context) error {
	_, err := r.call(ctx, `el.remove(); return true;`)
	return err
}

type affordance struct {
	page        *Page
	class       string
	activeClass string
	index       int
	target      string
	label       string
}

func (a *affordance) Target() string { return a.target }

func (a *affordance) Label() string { return a.label }

func (a *affordance) SetCurrent(ctx context.Context, current bool) error {
	res, err := a.page.eval(ctx, `(cls, i, active, on) => {
		const el = document.getElementsByClassName(cls)[i];
		if (!el) return false;
		el.classList.toggle(active, on);
		return true;
	}`, a.class, a.index, a.activeClass, current)
	if err != nil {
		return err
	}
	if !res.Value.Bool() {
		return fmt.Errorf("affordance %d of .%s is gone", a.index, a.class)
	}
	return nil
}
