// Package materialize turns rendered markup and captured styles into a
// standalone document.
package materialize

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/go-scripts/sitemirror/internal/links"
	"github.com/go-scripts/sitemirror/internal/site"
)

// Page builds the final document for pageURL. Stylesheet links are dropped,
// styles are appended to <head> in a single <style> block, a <base> pointing
// at baseHref is placed first in <head>, and in-site anchors are rewritten to
// local file names. Without a <head> the style and base steps are skipped.
func Page(markup, styles, pageURL, baseHref string, root site.Root) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", pageURL, err)
	}

	doc.Find(`link[rel~="stylesheet"]`).Remove()

	if head := doc.Find("head").First(); head.Length() > 0 {
		head.AppendNodes(styleNode(styles))
		head.PrependNodes(baseNode(baseHref))
	}

	out, err := doc.Html()
	if err != nil {
		return "", fmt.Errorf("render %s: %w", pageURL, err)
	}
	return links.Rewrite(out, pageURL, root)
}

func styleNode(css string) *html.Node {
	n := &html.Node{Type: html.ElementNode, Data: "style", DataAtom: atom.Style}
	n.AppendChild(&html.Node{Type: html.TextNode, Data: css})
	return n
}

func baseNode(href string) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     "base",
		DataAtom: atom.Base,
		Attr:     []html.Attribute{{Key: "href", Val: href}},
	}
}
