// Package llm provides provider-agnostic LLM extraction: one prompt in, one
// structured result out, nil on any failure.
package llm

import "encoding/json"

// SeedNextURL pairs a seed with the URL the model selected for it.
type SeedNextURL struct {
	SeedURL string `json:"seed_url"`
	NextURL string `json:"next_url"`
}

// Result is the uniform extraction result every provider funnels into.
type Result struct {
	NextURLs       []string         `json:"next_urls"`
	NextURLsBySeed []SeedNextURL    `json:"next_urls_by_seed"`
	Articles       []map[string]any `json:"articles"`
}

// ParseResult decodes model output into a Result. The decoder is permissive
// about shape: a map-form next_urls_by_seed is coerced into pairs, missing
// fields are fine, and non-matching element types are filtered. Structural
// mismatches (non-object payloads, non-list field values) reject the whole
// result.
func ParseResult(content string) *Result {
	var data map[string]any
	if err := json.Unmarshal([]byte(content), &data); err != nil {
		return nil
	}

	nextURLs, ok := asList(data, "next_urls")
	if !ok {
		return nil
	}
	articles, ok := asList(data, "articles")
	if !ok {
		return nil
	}

	bySeedRaw, present := data["next_urls_by_seed"]
	var bySeedList []any
	if present {
		// An explicit null is as malformed as a scalar here.
		switch typed := bySeedRaw.(type) {
		case map[string]any:
			for seedURL, nextURL := range typed {
				bySeedList = append(bySeedList, map[string]any{
					"seed_url": seedURL,
					"next_url": nextURL,
				})
			}
		case []any:
			bySeedList = typed
		default:
			return nil
		}
	}

	result := &Result{}
	for _, entry := range nextURLs {
		if url, isStr := entry.(string); isStr {
			result.NextURLs = append(result.NextURLs, url)
		}
	}
	for _, entry := range bySeedList {
		pair, isMap := entry.(map[string]any)
		if !isMap {
			continue
		}
		result.NextURLsBySeed = append(result.NextURLsBySeed, SeedNextURL{
			SeedURL: stringField(pair, "seed_url"),
			NextURL: stringField(pair, "next_url"),
		})
	}
	for _, entry := range articles {
		if article, isMap := entry.(map[string]any); isMap {
			result.Articles = append(result.Articles, article)
		}
	}

	return result
}

// asList reads a field that must be absent or a list. An explicit null
// counts as a non-list.
func asList(data map[string]any, key string) ([]any, bool) {
	raw, present := data[key]
	if !present {
		return nil, true
	}
	list, isList := raw.([]any)
	return list, isList
}

// stringField returns the string value under key, or "".
func stringField(data map[string]any, key string) string {
	if value, isStr := data[key].(string); isStr {
		return value
	}
	return ""
}
