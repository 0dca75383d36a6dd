package dom

import (
	"context"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// affordance is a navigable element of the headless document.
type affordance struct {
	doc         *Document
	node        *html.Node
	activeClass string
}

func (a *affordance) Target() string {
	a.doc.mu.Lock()
	defer a.doc.mu.Unlock()
	v, _ := attr(a.node, "href")
	return v
}

func (a *affordance) Label() string {
	a.doc.mu.Lock()
	defer a.doc.mu.Unlock()
	return strings.TrimSpace(textContent(a.node))
}

func (a *affordance) SetCurrent(_ context.Context, current bool) error {
	a.doc.mu.Lock()
	defer a.doc.mu.Unlock()
	if current {
		addClass(a.node, a.activeClass)
	} else {
		removeClass(a.node, a.activeClass)
	}
	return nil
}

func walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func findFirst(n *html.Node, match func(*html.Node) bool) *html.Node {
	if match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, match); found != nil {
			return found
		}
	}
	return nil
}

// scripts returns the HTML script elements below n in document order. Scripts in
// svg or math content never run and are skipped.
func scripts(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, func(x *html.Node) {
			if x.Type == html.ElementNode && x.DataAtom == atom.Script && x.Namespace == "" {
				out = append(out, x)
			}
		})
	}
	return out
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func classes(n *html.Node) []string {
	v, _ := attr(n, "class")
	return strings.Fields(v)
}

func hasClass(n *html.Node, class string) bool {
	if class == "" {
		return false
	}
	for _, c := range classes(n) {
		if c == class {
			return true
		}
	}
	return false
}

func addClass(n *html.Node, class string) {
	if class == "" || hasClass(n, class) {
		return
	}
	setAttr(n, "class", strings.TrimSpace(strings.Join(append(classes(n), class), " ")))
}

func removeClass(n *html.Node, class string) {
	if !hasClass(n, class) {
		return
	}
	kept := classes(n)[:0]
	for _, c := range classes(n) {
		if c != class {
			kept = append(kept, c)
		}
	}
	setAttr(n, "class", strings.Join(kept, " "))
}

// setDeclaration sets one property of an inline style string, keeping the
// order of the others.
func setDeclaration(style, property, value string) string {
	var decls []string
	replaced := false
	for _, d := range strings.Split(style, ";") {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		name, _, _ := strings.Cut(d, ":")
		if strings.EqualFold(strings.TrimSpace(name), property) {
			d = property + ": " + value
			replaced = true
		}
		decls = append(decls, d)
	}
	if !replaced {
		decls = append(decls, property+": "+value)
	}
	return strings.Join(decls, "; ")
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	walk(n, func(c *html.Node) {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	})
	return sb.String()
}
