// Package markup extracts executable blocks from fragments and renders the markup the
// shell itself writes into the document: loading placeholder, error panel, notifications.
package markup

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"fragnav/internal/shell"

	"golang.org/x/net/html"
)

// ScriptTag is the element name of executable blocks.
const ScriptTag = "script"

// ExtractBlocks returns every executable block of the markup in document order.
// Attribute order and body text are preserved as the tokenizer reports them.
// Scripts inside svg or math content are not executable blocks, unless they sit
// under an element that switches back to HTML, such as foreignObject.
func ExtractBlocks(markup string) ([]shell.ExecutableBlock, error) {
	z := html.NewTokenizer(strings.NewReader(markup))

	var (
		blocks  []shell.ExecutableBlock
		current *shell.ExecutableBlock
		body    strings.Builder
		scopes  scopeStack
	)
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("tokenize fragment: %w", err)
			}
			// Unterminated script at end of input still counts as a block.
			if current != nil {
				current.Body = body.String()
				blocks = append(blocks, *current)
			}
			return blocks, nil

		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if tt == html.StartTagToken {
				scopes.enter(tok.Data)
			}
			if tok.Data != ScriptTag || scopes.foreign() {
				continue
			}
			block := shell.ExecutableBlock{Attrs: make([]shell.Attr, 0, len(tok.Attr))}
			for _, a := range tok.Attr {
				block.Attrs = append(block.Attrs, shell.Attr{Name: attrName(a), Value: a.Val})
			}
			if tt == html.SelfClosingTagToken {
				blocks = append(blocks, block)
				continue
			}
			current = &block
			body.Reset()

		case html.TextToken:
			if current != nil {
				body.Write(z.Text())
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			scopes.leave(string(name))
			if current != nil && string(name) == ScriptTag {
				current.Body = body.String()
				blocks = append(blocks, *current)
				current = nil
			}
		}
	}
}

func attrName(a html.Attribute) string {
	if a.Namespace != "" {
		return a.Namespace + ":" + a.Key
	}
	return a.Key
}

// integrationPoints lists, per foreign root, the elements whose children are HTML again.
var integrationPoints = map[string]map[string]bool{
	"svg":  {"foreignobject": true, "desc": true, "title": true},
	"math": {"mi": true, "mo": true, "mn": true, "ms": true, "mtext": true},
}

type scope struct {
	tag     string
	root    string
	foreign bool
}

// scopeStack follows the switches between HTML and foreign content. Only elements
// that change the content kind are pushed.
type scopeStack []scope

func (s scopeStack) foreign() bool {
	return len(s) > 0 && s[len(s)-1].foreign
}

func (s *scopeStack) enter(tag string) {
	if _, ok := integrationPoints[tag]; ok {
		*s = append(*s, scope{tag: tag, root: tag, foreign: true})
		return
	}
	if top := len(*s) - 1; top >= 0 && (*s)[top].foreign && integrationPoints[(*s)[top].root][tag] {
		*s = append(*s, scope{tag: tag, foreign: false})
	}
}

func (s *scopeStack) leave(tag string) {
	if top := len(*s) - 1; top >= 0 && (*s)[top].tag == tag {
		*s = (*s)[:top]
	}
}
