package crawler

import (
	"strings"

	"github.com/MrHbogart/NousNews-Backend/internal/llm"
)

// skipTokens mark navigation and account chrome that never leads to news.
// Matched as case-insensitive substrings of the whole URL.
var skipTokens = []string{
	"/login", "/signup", "/register", "/account", "/privacy",
	"/terms", "/cookie", "/contact", "/about", "/help",
	"/support", "/advertise", "/subscribe", "/newsletter", "/rss",
}

// assignNextURLs chooses the next URL per seed for the coming steps. LLM
// per-seed picks come first, then flat LLM suggestions round-robined over
// seeds, then a shuffled heuristic selection from the candidate pool tops up
// to targetSize. Every emitted next URL is unique within the result.
func (e *Engine) assignNextURLs(result *llm.Result, seedURLs []string, targetSize int, pool []string) []llm.SeedNextURL {
	if len(seedURLs) == 0 {
		return nil
	}

	used := make(map[string]struct{})
	var selections []llm.SeedNextURL

	take := func(seedURL, nextURL string) {
		nextURL = strings.TrimSpace(nextURL)
		if nextURL == "" {
			return
		}
		if _, dup := used[nextURL]; dup {
			return
		}
		used[nextURL] = struct{}{}
		selections = append(selections, llm.SeedNextURL{SeedURL: seedURL, NextURL: nextURL})
	}

	if result != nil {
		bySeed := make(map[string]string)
		inStep := make(map[string]struct{}, len(seedURLs))
		for _, seedURL := range seedURLs {
			inStep[seedURL] = struct{}{}
		}
		for _, pair := range result.NextURLsBySeed {
			if _, present := inStep[pair.SeedURL]; !present {
				continue
			}
			if _, assigned := bySeed[pair.SeedURL]; assigned {
				continue
			}
			bySeed[pair.SeedURL] = pair.NextURL
		}

		for _, seedURL := range seedURLs {
			if nextURL, mapped := bySeed[seedURL]; mapped {
				take(seedURL, nextURL)
			}
		}

		// Flat suggestions only matter when no per-seed pick landed.
		if len(selections) == 0 && len(result.NextURLs) > 0 {
			for i, nextURL := range result.NextURLs {
				take(seedURLs[i%len(seedURLs)], nextURL)
			}
		}
	}

	if len(selections) < targetSize {
		fallback := e.selectNextURLs(pool, targetSize)
		i := 0
		for _, nextURL := range fallback {
			if len(selections) >= targetSize {
				break
			}
			if _, dup := used[nextURL]; dup {
				continue
			}
			take(seedURLs[i%len(seedURLs)], nextURL)
			i++
		}
	}

	return selections
}

// selectNextURLs is the heuristic picker: dedupe preserving order, drop URLs
// carrying a skip token, shuffle, take the first max(1, limit).
func (e *Engine) selectNextURLs(pool []string, limit int) []string {
	seen := make(map[string]struct{})
	var filtered []string
	for _, candidate := range pool {
		if _, dup := seen[candidate]; dup {
			continue
		}
		seen[candidate] = struct{}{}
		if hasSkipToken(candidate) {
			continue
		}
		filtered = append(filtered, candidate)
	}

	e.rng.Shuffle(len(filtered), func(i, j int) {
		filtered[i], filtered[j] = filtered[j], filtered[i]
	})

	if limit < 1 {
		limit = 1
	}
	if len(filtered) > limit {
		filtered = filtered[:limit]
	}
	return filtered
}

// hasSkipToken reports whether the URL contains any skip token.
func hasSkipToken(rawURL string) bool {
	lowered := strings.ToLower(rawURL)
	for _, token := range skipTokens {
		if strings.Contains(lowered, token) {
			return true
		}
	}
	return false
}
