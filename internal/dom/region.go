package dom

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"fragnav/internal/shell"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// region is a handle on an element looked up by id at each call, so it follows
// the element through content swaps and fails cleanly once it is removed.
type region struct {
	doc *Document
	id  string
}

func (r *region) ID() string { return r.id }

func (r *region) node() (*html.Node, error) {
	n := r.doc.byID(r.id)
	if n == nil {
		return nil, fmt.Errorf("%w: #%s", shell.ErrRegionNotFound, r.id)
	}
	return n, nil
}

func (r *region) HTML(context.Context) (string, error) {
	r.doc.mu.Lock()
	defer r.doc.mu.Unlock()
	n, err := r.node()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", fmt.Errorf("render #%s: %w", r.id, err)
		}
	}
	return buf.String(), nil
}

func (r *region) SetHTML(_ context.Context, markup string) error {
	r.doc.mu.Lock()
	defer r.doc.mu.Unlock()
	n, err := r.node()
	if err != nil {
		return err
	}
	nodes, err := html.ParseFragment(strings.NewReader(markup), n)
	if err != nil {
		return fmt.Errorf("parse fragment for #%s: %w", r.id, err)
	}
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		r.doc.forget(c)
		n.RemoveChild(c)
		c = next
	}
	for _, c := range nodes {
		n.AppendChild(c)
	}
	return nil
}

func (r *region) AppendHTML(_ context.Context, markup string) error {
	r.doc.mu.Lock()
	defer r.doc.mu.Unlock()
	n, err := r.node()
	if err != nil {
		return err
	}
	nodes, err := html.ParseFragment(strings.NewReader(markup), n)
	if err != nil {
		return fmt.Errorf("parse fragment for #%s: %w", r.id, err)
	}
	for _, c := range nodes {
		n.AppendChild(c)
	}
	return nil
}

func (r *region) SetStyle(_ context.Context, property, value string) error {
	r.doc.mu.Lock()
	defer r.doc.mu.Unlock()
	n, err := r.node()
	if err != nil {
		return err
	}
	style, _ := attr(n, "style")
	setAttr(n, "style", setDeclaration(style, property, value))
	return nil
}

// ReplaceBlocks swaps each inert script for a new live node built from its record,
// then hands the live blocks to the executor in document order.
func (r *region) ReplaceBlocks(ctx context.Context, blocks []shell.ExecutableBlock) error {
	r.doc.mu.Lock()
	n, err := r.node()
	if err != nil {
		r.doc.mu.Unlock()
		return err
	}
	inert := scripts(n)
	if len(inert) != len(blocks) {
		r.doc.mu.Unlock()
		return fmt.Errorf("#%s holds %d executable blocks, got %d records", r.id, len(inert), len(blocks))
	}
	for i, old := range inert {
		fresh := newScript(blocks[i])
		old.Parent.InsertBefore(fresh, old)
		old.Parent.RemoveChild(old)
		delete(r.doc.live, old)
		r.doc.live[fresh] = true
	}
	r.doc.mu.Unlock()

	if r.doc.executor == nil {
		return nil
	}
	// Execution errors stay inside the block, as a failing script does not stop
	// the ones after it.
	for i, b := range blocks {
		if err := r.doc.executor.Execute(ctx, b); err != nil {
			r.doc.logger.Warn("executable block failed",
				zap.String("region", r.id), zap.Int("index", i), zap.Error(err))
		}
	}
	return nil
}

func (r *region) Remove(context.Context) error {
	r.doc.mu.Lock()
	defer r.doc.mu.Unlock()
	n, err := r.node()
	if err != nil {
		return err
	}
	r.doc.forget(n)
	n.Parent.RemoveChild(n)
	return nil
}

// forget drops live markers of a subtree leaving the document.
func (d *Document) forget(n *html.Node) {
	walk(n, func(c *html.Node) { delete(d.live, c) })
}

func newScript(b shell.ExecutableBlock) *html.Node {
	n := &html.Node{Type: html.ElementNode, Data: "script", DataAtom: atom.Script}
	for _, a := range b.Attrs {
		n.Attr = append(n.Attr, html.Attribute{Key: a.Name, Val: a.Value})
	}
	if b.Body != "" {
		n.AppendChild(&html.Node{Type: html.TextNode, Data: b.Body})
	}
	return n
}

func blockOf(n *html.Node) shell.ExecutableBlock {
	b := shell.ExecutableBlock{Attrs: make([]shell.Attr, 0, len(n.Attr))}
	for _, a := range n.Attr {
		name := a.Key
		if a.Namespace != "" {
			name = a.Namespace + ":" + a.Key
		}
		b.Attrs = append(b.Attrs, shell.Attr{Name: name, Value: a.Val})
	}
	var body strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			body.WriteString(c.Data)
		}
	}
	b.Body = body.String()
	return b
}
