// Package extract parses fetched pages into raw field values using ordered
// fallback chains of selector and text heuristics.
package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"sjsage522/propertyscraper/internal/normalize"
)

// Strategy extracts one field from a document, returning "" on a miss
type Strategy func(doc *goquery.Document) string

// Chain is an ordered list of strategies; the first non-empty result wins
type Chain []Strategy

// Apply runs the strategies in order
func (c Chain) Apply(doc *goquery.Document) string {
	for _, strategy := range c {
		if strategy == nil {
			continue
		}
		if result := strategy(doc); result != "" {
			return result
		}
	}
	return ""
}

// FirstText returns the collapsed text of the first element matching selector
func FirstText(selector string) Strategy {
	return func(doc *goquery.Document) string {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			return ""
		}
		return normalize.CollapseSpace(sel.Text())
	}
}

// ClassMatch returns the text of the first element that has a class token
// matching re
func ClassMatch(re *regexp.Regexp) Strategy {
	return func(doc *goquery.Document) string {
		var result string
		doc.Find("[class]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			class, _ := s.Attr("class")
			for _, token := range strings.Fields(class) {
				if re.MatchString(token) {
					result = normalize.CollapseSpace(s.Text())
					return false
				}
			}
			return true
		})
		return result
	}
}

// TextNodeParent returns the text of the element containing the first text
// node, in document order, that matches re. Script and style bodies are
// skipped.
func TextNodeParent(re *regexp.Regexp) Strategy {
	return func(doc *goquery.Document) string {
		for _, root := range doc.Nodes {
			if parent := findTextParent(root, re); parent != nil {
				return normalize.CollapseSpace(goquery.NewDocumentFromNode(parent).Text())
			}
		}
		return ""
	}
}

// Const always yields value; used as the last link of a chain
func Const(value string) Strategy {
	return func(*goquery.Document) string {
		return value
	}
}

func findTextParent(n *html.Node, re *regexp.Regexp) *html.Node {
	if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
		return nil
	}
	if n.Type == html.TextNode && n.Parent != nil && re.MatchString(n.Data) {
		return n.Parent
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findTextParent(c, re); found != nil {
			return found
		}
	}
	return nil
}
