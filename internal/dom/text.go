package dom

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var blankLines = regexp.MustCompile(`\n{3,}`)

// Text renders a markup fragment as readable plain text for a terminal.
// Headings become "# " lines, list items "- " lines and links keep their target.
func Text(markup string) string {
	nodes, err := html.ParseFragment(strings.NewReader(markup), &html.Node{
		Type: html.ElementNode, Data: "div", DataAtom: atom.Div,
	})
	if err != nil {
		return strings.TrimSpace(markup)
	}
	var sb strings.Builder
	for _, n := range nodes {
		writeText(n, &sb, 0)
	}
	out := blankLines.ReplaceAllString(sb.String(), "\n\n")
	return strings.TrimSpace(out)
}

func writeText(n *html.Node, sb *strings.Builder, depth int) {
	if depth > 50 {
		return
	}

	switch n.Type {
	case html.TextNode:
		text := strings.Join(strings.Fields(n.Data), " ")
		if text != "" {
			sb.WriteString(text)
			sb.WriteString(" ")
		}
	case html.ElementNode:
		switch n.DataAtom {
		case atom.Script, atom.Style, atom.Noscript, atom.Svg, atom.Button:
			return
		case atom.H1, atom.H2, atom.H3:
			sb.WriteString("\n\n" + strings.Repeat("#", int(n.Data[1]-'0')) + " ")
		case atom.P, atom.Div, atom.Section, atom.Article:
			sb.WriteString("\n\n")
		case atom.Br:
			sb.WriteString("\n")
		case atom.Li:
			sb.WriteString("\n- ")
		case atom.Img:
			if alt, ok := attr(n, "alt"); ok && alt != "" {
				sb.WriteString(fmt.Sprintf("[Image: %s] ", alt))
			}
			return
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(c, sb, depth+1)
	}

	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.H1, atom.H2, atom.H3:
			sb.WriteString("\n\n")
		case atom.A:
			if href, ok := attr(n, "href"); ok && href != "" && !strings.HasPrefix(href, "#") {
				sb.WriteString(fmt.Sprintf("(%s) ", href))
			}
		}
	}
}
