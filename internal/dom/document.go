// Package dom implements a headless shell document on golang.org/x/net/html node
// trees. It is the document used by the CLI, the terminal shell, the watcher and
// the tests; every mutation is serialized by the document mutex.
package dom

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	"fragnav/internal/logging"
	"fragnav/internal/shell"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Executor runs a live executable block.
type Executor interface {
	Execute(ctx context.Context, block shell.ExecutableBlock) error
}

// Options configures a Document.
type Options struct {
	// Executor runs blocks once they are live. Nil leaves them live but unexecuted.
	Executor Executor
	Logger   *zap.Logger
}

// Document is a headless shell.Document.
type Document struct {
	key      string
	executor Executor
	logger   *zap.Logger

	mu      sync.Mutex
	root    *html.Node
	body    *html.Node
	live    map[*html.Node]bool
	scrollY int
}

var _ shell.Document = (*Document)(nil)

// Parse builds a Document from the shell markup.
func Parse(markup string, opts Options) (*Document, error) {
	root, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse shell: %w", err)
	}
	body := findFirst(root, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.DataAtom == atom.Body
	})
	if body == nil {
		return nil, fmt.Errorf("parse shell: no body element")
	}
	return &Document{
		key:      uuid.NewString(),
		executor: opts.Executor,
		logger:   logging.OrNop(opts.Logger),
		root:     root,
		body:     body,
		live:     make(map[*html.Node]bool),
	}, nil
}

func (d *Document) Key() string { return d.key }

// Region returns the element with the given id.
func (d *Document) Region(_ context.Context, id string) (shell.Region, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.byID(id) == nil {
		return nil, fmt.Errorf("%w: #%s", shell.ErrRegionNotFound, id)
	}
	return &region{doc: d, id: id}, nil
}

// CreateRegion appends <div id class> to the body, or returns the existing element.
func (d *Document) CreateRegion(_ context.Context, id, class string) (shell.Region, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.byID(id) == nil {
		n := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
		n.Attr = append(n.Attr, html.Attribute{Key: "id", Val: id})
		if class != "" {
			n.Attr = append(n.Attr, html.Attribute{Key: "class", Val: class})
		}
		d.body.AppendChild(n)
	}
	return &region{doc: d, id: id}, nil
}

// Affordances lists elements carrying class in document order.
func (d *Document) Affordances(_ context.Context, class, activeClass string) ([]shell.Affordance, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []shell.Affordance
	walk(d.root, func(n *html.Node) {
		if n.Type == html.ElementNode && hasClass(n, class) {
			out = append(out, &affordance{doc: d, node: n, activeClass: activeClass})
		}
	})
	return out, nil
}

// ScrollToTop resets the viewport scroll offset.
func (d *Document) ScrollToTop(context.Context) error {
	d.mu.Lock()
	d.scrollY = 0
	d.mu.Unlock()
	return nil
}

// ScrollTo sets the viewport scroll offset, standing in for user scrolling.
func (d *Document) ScrollTo(y int) {
	d.mu.Lock()
	d.scrollY = y
	d.mu.Unlock()
}

// ScrollY returns the viewport scroll offset.
func (d *Document) ScrollY() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.scrollY
}

// Mutate runs fn on the node tree under the document lock.
func (d *Document) Mutate(fn func(root *html.Node) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return fn(d.root)
}

// HTML renders the whole document.
func (d *Document) HTML() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	var buf bytes.Buffer
	_ = html.Render(&buf, d.root)
	return buf.String()
}

// LiveBlocks returns the live executable blocks inside the region, in document order.
func (d *Document) LiveBlocks(id string) ([]shell.ExecutableBlock, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := d.byID(id)
	if n == nil {
		return nil, fmt.Errorf("%w: #%s", shell.ErrRegionNotFound, id)
	}
	var out []shell.ExecutableBlock
	for _, s := range scripts(n) {
		if d.live[s] {
			out = append(out, blockOf(s))
		}
	}
	return out, nil
}

func (d *Document) byID(id string) *html.Node {
	return findFirst(d.root, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return false
		}
		v, ok := attr(n, "id")
		return ok && v == id
	})
}
