// Package links discovers and rewrites same-site anchors in rendered markup.
package links

import (
	"fmt"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/go-scripts/sitemirror/internal/site"
)

// Seen reports whether a canonical URL has already been processed.
type Seen interface {
	Contains(url string) bool
}

// Extract returns the canonical in-site URLs referenced by anchors in markup
// that are not yet in seen. Duplicates collapse; the result is sorted.
func Extract(markup, pageURL string, root site.Root, seen Seen) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", pageURL, err)
	}

	found := make(map[string]struct{})
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		full, ok := site.Canonicalize(pageURL, href)
		if !ok || !root.IsInternal(full) {
			return
		}
		if seen != nil && seen.Contains(full) {
			return
		}
		found[full] = struct{}{}
	})

	urls := make([]string, 0, len(found))
	for u := range found {
		urls = append(urls, u)
	}
	sort.Strings(urls)
	return urls, nil
}

// Rewrite replaces every in-site anchor href in markup with the local file
// name of its canonical target. Other anchors are left as they are.
func Rewrite(markup, pageURL string, root site.Root) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", pageURL, err)
	}

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		full, ok := site.Canonicalize(pageURL, href)
		if ok && root.IsInternal(full) {
			a.SetAttr("href", root.LocalFilename(full))
		}
	})

	out, err := doc.Html()
	if err != nil {
		return "", fmt.Errorf("render %s: %w", pageURL, err)
	}
	return out, nil
}
