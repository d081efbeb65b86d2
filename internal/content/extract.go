package content

import (
	"strings"

	"golang.org/x/net/html"
)

// Extract is the content derived from one campaign template's HTML.
// Empty strings stand in for absent values.
type Extract struct {
	BodyHTML string
	BodyText string
	CTAText  string
	CTALink  string
}

// Extractor derives plain text and call-to-action fields from one HTML
// document. The interface exists so the heuristics can be swapped without
// touching the pipeline contract.
type Extractor interface {
	Extract(src string) Extract
}

// DOMExtractor implements Extractor by walking the parsed node tree.
//
// Body text is every text node outside style/script subtrees and
// comments, whitespace-collapsed. The call-to-action is located by an
// ordered fallback chain over the class conventions marketing templates
// use for button blocks:
//
//  1. a <td> whose class marks it as a button block: CTA text is the
//     first paragraph's text inside it;
//  2. an <a> whose class marks it as a button: CTA text is its text.
//
// The CTA link is the first anchor href inside the matched block, falling
// back to the first anchor href in the whole document.
type DOMExtractor struct{}

func (DOMExtractor) Extract(src string) Extract {
	ex := Extract{BodyHTML: src}

	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return ex
	}

	ex.BodyText = textContent(doc)

	block, ctaText := findCTA(doc)
	ex.CTAText = ctaText
	if block != nil {
		ex.CTALink = firstAnchorHref(block)
	}
	if ex.CTALink == "" {
		ex.CTALink = firstAnchorHref(doc)
	}

	return ex
}

// textContent collects the text nodes under n, skipping style and script
// subtrees and comments, and collapses runs of whitespace.
func textContent(n *html.Node) string {
	var parts []string

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.CommentNode:
			return
		case html.ElementNode:
			if n.Data == "style" || n.Data == "script" {
				return
			}
		case html.TextNode:
			parts = append(parts, n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)

	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}

func findCTA(doc *html.Node) (*html.Node, string) {
	for _, td := range findAll(doc, func(n *html.Node) bool {
		return n.Data == "td" && hasButtonClass(n)
	}) {
		for _, p := range findAll(td, func(n *html.Node) bool {
			return n.Data == "p"
		}) {
			if text := textContent(p); text != "" {
				return td, text
			}
		}
	}

	for _, a := range findAll(doc, func(n *html.Node) bool {
		return n.Data == "a" && hasButtonClass(n)
	}) {
		if text := textContent(a); text != "" {
			return a, text
		}
	}

	return nil, ""
}

func hasButtonClass(n *html.Node) bool {
	for _, attr := range n.Attr {
		if attr.Key == "class" && strings.Contains(strings.ToLower(attr.Val), "button") {
			return true
		}
	}
	return false
}

// findAll returns the element nodes under root matching the predicate,
// in document order.
func findAll(root *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && match(n) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	return out
}

func firstAnchorHref(root *html.Node) string {
	for _, a := range findAll(root, func(n *html.Node) bool {
		return n.Data == "a"
	}) {
		for _, attr := range a.Attr {
			if attr.Key == "href" && strings.TrimSpace(attr.Val) != "" {
				return strings.TrimSpace(attr.Val)
			}
		}
	}
	return ""
}
