package crawler

import (
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// skippedElements never contribute to extracted text — boilerplate chrome
// rather than article content.
var skippedElements = map[atom.Atom]bool{
	atom.Script: true,
	atom.Style:  true,
	atom.Nav:    true,
	atom.Footer: true,
	atom.Header: true,
	atom.Aside:  true,
	atom.Noscript: true,
}

// extractHTML walks the document tree, concatenating text nodes outside of
// skippedElements, and returns the <title> text alongside the body text.
func extractHTML(r io.Reader) (text, title string, err error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", "", err
	}

	var sb strings.Builder
	var titleText string
	var walk func(*html.Node, bool)
	walk = func(n *html.Node, skip bool) {
		if n.Type == html.ElementNode && skippedElements[n.DataAtom] {
			skip = true
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.Title {
			if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
				titleText = strings.TrimSpace(n.FirstChild.Data)
			}
		}
		if n.Type == html.TextNode && !skip {
			trimmed := strings.TrimSpace(n.Data)
			if trimmed != "" {
				sb.WriteString(trimmed)
				sb.WriteString(" ")
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child, skip)
		}
	}
	walk(doc, false)

	return strings.TrimSpace(sb.String()), titleText, nil
}
