package htmlutil

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// FirstText returns the first direct text child of the first node in the
// selection that has one, the equivalent of the css `::text` pseudo element
// followed by taking the first match. Whitespace-only text nodes are skipped.
func FirstText(sel *goquery.Selection) (string, bool) {
	for _, node := range sel.Nodes {
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			if child.Type != html.TextNode {
				continue
			}
			if strings.TrimSpace(child.Data) == "" {
				continue
			}
			return child.Data, true
		}
	}
	return "", false
}
