package content

import (
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
)

// minParagraphChars filters short paragraphs (captions, bylines, share
// prompts) out of the heuristic body when longer ones exist.
const minParagraphChars = 40

// ExtractArticle is the heuristic extraction path used when the LLM is
// disabled or fails. It reads the title and publish time from meta tags and
// the body from the page's paragraph text. Returns the article in the same
// loose shape the LLM emits, or nil when the page yields nothing.
func ExtractArticle(rawHTML, cleanedText, sourceURL string, maxBodyChars int) map[string]any {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		doc = nil
	}

	title := ""
	var publishedAt *time.Time
	body := ""
	if doc != nil {
		title = extractTitle(doc)
		publishedAt = extractPublishedAt(doc)
		body = extractBodyText(doc)
	}
	if body == "" {
		body = cleanedText
	}
	body = Clip(body, maxBodyChars)

	if title == "" && body == "" {
		return nil
	}

	var publishedStr any
	if publishedAt != nil {
		publishedStr = publishedAt.Format(time.RFC3339)
	}

	source := ""
	if parsed, parseErr := url.Parse(sourceURL); parseErr == nil {
		source = parsed.Host
	}

	return map[string]any{
		"url":          sourceURL,
		"title":        title,
		"published_at": publishedStr,
		"source":       source,
		"body":         body,
	}
}

// extractTitle prefers og:title, then twitter:title, then the <title> text.
func extractTitle(doc *goquery.Document) string {
	if content, exists := doc.Find("meta[property='og:title']").First().Attr("content"); exists {
		if trimmed := strings.TrimSpace(content); trimmed != "" {
			return trimmed
		}
	}

	if content, exists := doc.Find("meta[name='twitter:title']").First().Attr("content"); exists {
		if trimmed := strings.TrimSpace(content); trimmed != "" {
			return trimmed
		}
	}

	return strings.TrimSpace(doc.Find("title").First().Text())
}

// extractPublishedAt reads article:published_time, falling back to the first
// <time datetime> attribute.
func extractPublishedAt(doc *goquery.Document) *time.Time {
	if content, exists := doc.Find("meta[property='article:published_time']").First().Attr("content"); exists {
		return ParseTime(content)
	}

	if datetime, exists := doc.Find("time[datetime]").First().Attr("datetime"); exists {
		return ParseTime(datetime)
	}

	return nil
}

// extractBodyText concatenates paragraph text from the first of <article>,
// <main>, or <body>. Paragraphs of minParagraphChars or more are preferred;
// when none qualify, all non-empty paragraphs are used.
func extractBodyText(doc *goquery.Document) string {
	container := doc.Find("article").First()
	if container.Length() == 0 {
		container = doc.Find("main").First()
	}
	if container.Length() == 0 {
		container = doc.Find("body").First()
	}
	if container.Length() == 0 {
		container = doc.Selection
	}

	var paragraphs []string
	container.Find("p").Each(func(_ int, sel *goquery.Selection) {
		paragraphs = append(paragraphs, strings.Join(strings.Fields(sel.Text()), " "))
	})

	var filtered []string
	for _, p := range paragraphs {
		if len(p) >= minParagraphChars {
			filtered = append(filtered, p)
		}
	}
	if len(filtered) == 0 {
		for _, p := range paragraphs {
			if p != "" {
				filtered = append(filtered, p)
			}
		}
	}

	return strings.Join(filtered, "\n\n")
}

// ParseTime parses a flexible ISO-ish datetime string. Values without a zone
// are assumed UTC. Returns nil when the value is empty or unparseable.
func ParseTime(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}

	parsed, err := dateparse.ParseIn(value, time.UTC)
	if err != nil {
		return nil
	}

	utc := parsed.UTC()
	return &utc
}
