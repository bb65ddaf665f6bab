// Package tokenize flattens a fetched page into the ordered sequence of
// visible text fragments the rest of the pipeline operates on. It makes no
// assumption about the page's tag structure beyond "text nodes, document
// order" — the source markup drifts over time.
package tokenize

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"

	"github.com/hyperifyio/playlog/internal/textrepair"
)

// Tokens parses raw page content and returns its visible text as ordered,
// cleaned, non-empty tokens. Script/style subtrees are skipped and tokens
// carrying only pager punctuation are dropped.
func Tokens(content []byte) []string {
	node, err := html.Parse(bytes.NewReader(content))
	if err != nil || node == nil {
		return nil
	}
	var out []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch strings.ToLower(n.Data) {
			case "script", "style", "noscript", "iframe":
				return
			}
		}
		if n.Type == html.TextNode {
			if t := textrepair.Clean(n.Data); t != "" && !isNavigationPunct(t) {
				out = append(out, t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(node)
	return out
}

// isNavigationPunct reports whether a token is pure pager punctuation with
// no informational content.
func isNavigationPunct(s string) bool {
	for _, r := range s {
		switch r {
		case '<', '>', '«', '»', ';', '|', ' ':
		default:
			return false
		}
	}
	return true
}
