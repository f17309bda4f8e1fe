package content

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// CandidateURLs returns the page's anchor targets resolved against baseURL:
// http(s) only, same host as the seed unless allowExternal, deduplicated
// preserving document order.
func CandidateURLs(rawHTML, baseURL, seedURL string, allowExternal bool) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil
	}

	base, baseErr := url.Parse(baseURL)
	if baseErr != nil {
		return nil
	}

	seedHost := ""
	if seed, seedErr := url.Parse(seedURL); seedErr == nil {
		seedHost = seed.Host
	}

	seen := make(map[string]struct{})
	var out []string

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" {
			return
		}

		ref, refErr := url.Parse(href)
		if refErr != nil {
			return
		}

		absolute := base.ResolveReference(ref)
		if !strings.HasPrefix(absolute.Scheme, "http") {
			return
		}
		if !allowExternal && absolute.Host != seedHost {
			return
		}

		urlStr := absolute.String()
		if _, dup := seen[urlStr]; dup {
			return
		}
		seen[urlStr] = struct{}{}
		out = append(out, urlStr)
	})

	return out
}
