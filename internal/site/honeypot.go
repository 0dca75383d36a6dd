package site

import (
	"net/url"
	"strings"

	"fragnav/internal/dom"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// HoneypotField is the hidden form field humans never fill in.
const HoneypotField = "website"

// IsSpam reports whether a submitted form filled in the honeypot field.
func IsSpam(values url.Values) bool {
	return strings.TrimSpace(values.Get(HoneypotField)) != ""
}

// InstallHoneypot adds the hidden honeypot input to every form of doc that lacks
// one and returns how many forms were changed.
func InstallHoneypot(doc *dom.Document) (int, error) {
	installed := 0
	err := doc.Mutate(func(root *html.Node) error {
		var forms []*html.Node
		var visit func(*html.Node)
		visit = func(n *html.Node) {
			if n.Type == html.ElementNode && n.DataAtom == atom.Form {
				forms = append(forms, n)
			}
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				visit(c)
			}
		}
		visit(root)

		for _, form := range forms {
			if hasHoneypot(form) {
				continue
			}
			form.AppendChild(&html.Node{
				Type:     html.ElementNode,
				Data:     "input",
				DataAtom: atom.Input,
				Attr: []html.Attribute{
					{Key: "type", Val: "text"},
					{Key: "name", Val: HoneypotField},
					{Key: "style", Val: "display: none"},
					{Key: "tabindex", Val: "-1"},
					{Key: "autocomplete", Val: "off"},
				},
			})
			installed++
		}
		return nil
	})
	return installed, err
}

func hasHoneypot(form *html.Node) bool {
	found := false
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if found {
			return
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.Input {
			for _, a := range n.Attr {
				if a.Key == "name" && a.Val == HoneypotField {
					found = true
					return
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(form)
	return found
}
