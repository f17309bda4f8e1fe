// Package content implements HTML cleaning, candidate link discovery, and
// the LLM-free heuristic article extraction path.
package content

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// boilerplateSelectors lists elements stripped before text extraction.
const boilerplateSelectors = "script, style, noscript, header, footer, nav, aside, form"

// clipHeadRatio is the share of the budget given to the head of clipped text.
// The remainder keeps the tail, with a literal "\n...\n" marking the cut.
const clipHeadNumerator, clipHeadDenominator = 7, 10

// Clean strips boilerplate elements from the HTML, extracts visible text with
// newline separators, trims each line, drops empties, and clips the result to
// maxChars.
func Clean(rawHTML string, maxChars int) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return ""
	}

	doc.Find(boilerplateSelectors).Remove()

	var parts []string
	for _, node := range doc.Nodes {
		collectText(node, &parts)
	}

	lines := make([]string, 0, len(parts))
	for _, part := range parts {
		for _, line := range strings.Split(part, "\n") {
			trimmed := strings.TrimSpace(line)
			if trimmed != "" {
				lines = append(lines, trimmed)
			}
		}
	}

	return Clip(strings.Join(lines, "\n"), maxChars)
}

// collectText appends the contents of every text node under n, in document order.
func collectText(n *html.Node, out *[]string) {
	if n.Type == html.TextNode {
		*out = append(*out, n.Data)
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, out)
	}
}

// Clip bounds text to maxChars. Text within the budget (or a non-positive
// budget) is returned verbatim; otherwise the head and tail are kept around a
// "\n...\n" separator, 70/30.
func Clip(text string, maxChars int) string {
	runes := []rune(text)
	if maxChars <= 0 || len(runes) <= maxChars {
		return text
	}

	head := maxChars * clipHeadNumerator / clipHeadDenominator
	tail := maxChars - head
	return string(runes[:head]) + "\n...\n" + string(runes[len(runes)-tail:])
}

// Truncate hard-truncates text to maxChars runes with no marker.
func Truncate(text string, maxChars int) string {
	runes := []rune(text)
	if maxChars <= 0 || len(runes) <= maxChars {
		return text
	}
	return string(runes[:maxChars])
}
