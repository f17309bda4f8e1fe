package crawler

import (
	"context"
	"net/url"
	"strings"
	"unicode"

	"github.com/MrHbogart/NousNews-Backend/internal/content"
	"github.com/MrHbogart/NousNews-Backend/internal/database"
	"github.com/MrHbogart/NousNews-Backend/internal/domain"
	"github.com/MrHbogart/NousNews-Backend/internal/llm"
	"github.com/MrHbogart/NousNews-Backend/internal/metrics"
)

// maxCandidatesPerPayload caps the candidate URLs written into the prompt's
// candidate block. Selection still draws from the full pool.
const maxCandidatesPerPayload = 200

// minBodyChars and minTitleChars gate article quality: short bodies pass
// only with a substantial title.
const (
	minBodyChars  = 200
	minTitleChars = 15
)

// minAlphaRatio rejects bodies dominated by markup junk or numeric noise.
const minAlphaRatio = 0.5

// junkMarkers flag error pages and bot walls masquerading as content.
var junkMarkers = []string{
	"301 moved permanently",
	"302 found",
	"403 forbidden",
	"404 not found",
	"500 internal server error",
	"nginx",
	"cloudflare",
	"access denied",
	"captcha",
	"enable javascript",
	"service unavailable",
}

// payload is one successfully fetched batch item with its processed content.
type payload struct {
	item       *domain.CrawlQueueItem
	rawHTML    string
	cleaned    string
	candidates []string
}

// processBatch runs one step over a claimed batch: fetch, prompt, extract,
// store, enqueue, finalize. Item-level failures are recorded on items and
// seeds; only infrastructure errors (store round-trips) are returned.
func (e *Engine) processBatch(ctx context.Context, run *domain.CrawlRun, batch []*domain.CrawlQueueItem) error {
	seedDepth, seedRef := seedDepthRefs(batch)

	successes, err := e.fetchBatch(ctx, batch)
	if err != nil {
		return err
	}
	if len(successes) == 0 {
		return nil
	}

	seedURLs := uniqueSeedURLs(successes)
	prompt := llm.BuildPrompt(e.cfg, llm.PromptInput{
		SeedURLs:      seedURLs,
		Context:       buildContext(successes),
		CandidateURLs: buildCandidateBlock(successes),
		Objective:     run.Objective,
	})

	var result *llm.Result
	if run.UseLLMFiltering && e.extractor != nil && e.extractor.Enabled() {
		result = e.extractor.Extract(ctx, prompt)
		if result == nil {
			e.log.Warn("LLM extraction failed, falling back to heuristics", "run_id", run.ID)
		}
	}

	if result != nil {
		if storeErr := e.storeArticles(ctx, run, result.Articles, successes[0].item.URL); storeErr != nil {
			return storeErr
		}
	} else {
		for _, p := range successes {
			article := content.ExtractArticle(p.rawHTML, p.cleaned, p.item.URL, e.cfg.MaxArticleChars)
			if article == nil {
				continue
			}
			if storeErr := e.storeArticles(ctx, run, []map[string]any{article}, p.item.URL); storeErr != nil {
				return storeErr
			}
		}
	}

	targetBatchSize := len(batch)
	selections := e.assignNextURLs(result, seedURLs, targetBatchSize, candidatePool(successes))
	if enqueueErr := e.enqueueSelections(ctx, run, selections, seedDepth, seedRef); enqueueErr != nil {
		return enqueueErr
	}

	return e.finalizeSuccesses(ctx, successes)
}

// fetchBatch fetches every item sequentially. Failed items are marked failed
// and their seeds deactivated; successful items come back as payloads.
func (e *Engine) fetchBatch(ctx context.Context, batch []*domain.CrawlQueueItem) ([]*payload, error) {
	var successes []*payload
	for _, item := range batch {
		_, body, fetchErr := e.fetch.Get(ctx, item.URL)
		if fetchErr != nil {
			metrics.FetchFailures.Inc()
			e.log.Warn("fetch failed", "url", item.URL, "error", fetchErr.Error())
			if failErr := e.failItem(ctx, item, fetchErr.Error()); failErr != nil {
				return nil, failErr
			}
			continue
		}

		rawHTML := string(body)
		cleaned := content.Clean(rawHTML, e.cfg.MaxContextChars)
		if cleaned == "" {
			metrics.FetchFailures.Inc()
			if failErr := e.failItem(ctx, item, "empty_context"); failErr != nil {
				return nil, failErr
			}
			continue
		}

		metrics.PagesFetched.Inc()
		successes = append(successes, &payload{
			item:       item,
			rawHTML:    rawHTML,
			cleaned:    cleaned,
			candidates: content.CandidateURLs(rawHTML, item.URL, item.SeedURL, e.cfg.AllowExternalDomains),
		})
	}

	return successes, nil
}

// failItem marks the item failed and deactivates its seed. A seed whose
// queue item fails is out of the run from the next step on.
func (e *Engine) failItem(ctx context.Context, item *domain.CrawlQueueItem, reason string) error {
	reason = content.Truncate(reason, errClipChars)
	if err := e.queue.MarkFailed(ctx, item.ID, reason); err != nil {
		return err
	}
	if item.SeedID != nil {
		if err := e.seeds.Deactivate(ctx, *item.SeedID, reason, e.now().UTC()); err != nil {
			return err
		}
	}
	return nil
}

// finalizeSuccesses marks items done and records the fetch on their seeds.
func (e *Engine) finalizeSuccesses(ctx context.Context, successes []*payload) error {
	now := e.now().UTC()
	for _, p := range successes {
		if err := e.queue.MarkDone(ctx, p.item.ID); err != nil {
			return err
		}
		if p.item.SeedID != nil {
			if err := e.seeds.MarkFetched(ctx, *p.item.SeedID, now); err != nil {
				return err
			}
		}
	}
	return nil
}

// uniqueSeedURLs returns the step's seed URLs in first-seen order.
func uniqueSeedURLs(successes []*payload) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, p := range successes {
		if _, dup := seen[p.item.SeedURL]; dup {
			continue
		}
		seen[p.item.SeedURL] = struct{}{}
		out = append(out, p.item.SeedURL)
	}
	return out
}

// buildContext concatenates per-payload blocks of cleaned text.
func buildContext(successes []*payload) string {
	blocks := make([]string, 0, len(successes))
	for _, p := range successes {
		blocks = append(blocks, "Seed: "+p.item.SeedURL+"\nURL: "+p.item.URL+"\n"+p.cleaned)
	}
	return strings.Join(blocks, "\n\n---\n\n")
}

// buildCandidateBlock renders each payload's candidate URLs as a bulleted
// section headed by its seed, capped per payload.
func buildCandidateBlock(successes []*payload) string {
	blocks := make([]string, 0, len(successes))
	for _, p := range successes {
		candidates := p.candidates
		if len(candidates) > maxCandidatesPerPayload {
			candidates = candidates[:maxCandidatesPerPayload]
		}

		var b strings.Builder
		b.WriteString("Seed: ")
		b.WriteString(p.item.SeedURL)
		b.WriteString("\n")
		if len(candidates) == 0 {
			b.WriteString("(none)")
		} else {
			for i, candidate := range candidates {
				if i > 0 {
					b.WriteString("\n")
				}
				b.WriteString("- ")
				b.WriteString(candidate)
			}
		}
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n\n")
}

// candidatePool concatenates every payload's candidates in payload order.
func candidatePool(successes []*payload) []string {
	var pool []string
	for _, p := range successes {
		pool = append(pool, p.candidates...)
	}
	return pool
}

// storeArticles funnels extracted article dicts through normalization and the
// quality gate into the article store. Both the LLM and heuristic paths go
// through here. Counts newly created rows on the run.
func (e *Engine) storeArticles(ctx context.Context, run *domain.CrawlRun, articles []map[string]any, sourceURL string) error {
	for _, raw := range articles {
		articleURL := strings.TrimSpace(stringValue(raw, "url"))
		if articleURL == "" {
			articleURL = sourceURL
		}
		articleURL = resolveAgainst(articleURL, sourceURL)

		title := strings.TrimSpace(stringValue(raw, "title"))
		body := strings.TrimSpace(stringValue(raw, "body"))
		if title == "" && body == "" {
			continue
		}
		if rejectArticle(title, body) {
			continue
		}

		body = content.Truncate(body, e.cfg.MaxArticleChars)

		now := e.now().UTC()
		publishedAt := now
		if parsed := content.ParseTime(stringValue(raw, "published_at")); parsed != nil {
			publishedAt = *parsed
		}

		source := strings.TrimSpace(stringValue(raw, "source"))
		if source == "" {
			if parsed, parseErr := url.Parse(articleURL); parseErr == nil {
				source = parsed.Host
			}
		}

		created, upsertErr := e.articles.Upsert(ctx, database.UpsertParams{
			URL:         articleURL,
			Source:      source,
			PublishedAt: publishedAt,
			FetchedAt:   now,
			Title:       title,
			Body:        body,
			Language:    "",
		})
		if upsertErr != nil {
			return upsertErr
		}
		if created {
			run.ArticlesCreated++
			metrics.ArticlesCreated.Inc()
		}
	}

	return nil
}

// rejectArticle applies the quality gate: empty or trivially short content,
// error-page markers, or a body that is mostly non-alphabetic.
func rejectArticle(title, body string) bool {
	if body == "" {
		return true
	}
	if len([]rune(body)) < minBodyChars && len([]rune(title)) < minTitleChars {
		return true
	}

	haystack := strings.ToLower(title + "\n" + body)
	for _, marker := range junkMarkers {
		if strings.Contains(haystack, marker) {
			return true
		}
	}

	return alphaRatio(body) < minAlphaRatio
}

// alphaRatio is the share of letters among the body's runes.
func alphaRatio(body string) float64 {
	runes := []rune(body)
	if len(runes) == 0 {
		return 0
	}
	letters := 0
	for _, r := range runes {
		if unicode.IsLetter(r) {
			letters++
		}
	}
	return float64(letters) / float64(len(runes))
}

// seedDepthRefs records, per seed URL, the shallowest depth and the first
// seed reference across the whole batch. Items whose fetch later fails still
// anchor their seed's depth.
func seedDepthRefs(batch []*domain.CrawlQueueItem) (map[string]int, map[string]*string) {
	seedDepth := make(map[string]int)
	seedRef := make(map[string]*string)
	for _, item := range batch {
		if depth, seen := seedDepth[item.SeedURL]; !seen || item.Depth < depth {
			seedDepth[item.SeedURL] = item.Depth
		}
		if _, seen := seedRef[item.SeedURL]; !seen && item.SeedID != nil {
			seedRef[item.SeedURL] = item.SeedID
		}
	}
	return seedDepth, seedRef
}

// enqueueSelections inserts the chosen next URLs into the frontier, one
// depth below the shallowest item of their seed, honoring the depth bound.
func (e *Engine) enqueueSelections(ctx context.Context, run *domain.CrawlRun, selections []llm.SeedNextURL, seedDepth map[string]int, seedRef map[string]*string) error {
	for _, selection := range selections {
		depth := seedDepth[selection.SeedURL]
		if e.cfg.MaxDepth > 0 && depth >= e.cfg.MaxDepth {
			continue
		}

		nextURL := strings.TrimSpace(selection.NextURL)
		if nextURL == "" {
			continue
		}
		nextURL = resolveAgainst(nextURL, selection.SeedURL)

		created, enqueueErr := e.queue.EnqueueIfAbsent(ctx, database.EnqueueParams{
			URL:     nextURL,
			SeedID:  seedRef[selection.SeedURL],
			SeedURL: selection.SeedURL,
			Depth:   depth + 1,
		})
		if enqueueErr != nil {
			return enqueueErr
		}
		if created {
			run.QueuedURLs++
			metrics.URLsQueued.Inc()
		}
	}

	return nil
}

// resolveAgainst makes rawURL absolute relative to base when it lacks an
// http(s) scheme. Unparseable inputs come back unchanged.
func resolveAgainst(rawURL, base string) string {
	if strings.HasPrefix(rawURL, "http://") || strings.HasPrefix(rawURL, "https://") {
		return rawURL
	}

	baseURL, baseErr := url.Parse(base)
	if baseErr != nil {
		return rawURL
	}
	ref, refErr := url.Parse(rawURL)
	if refErr != nil {
		return rawURL
	}

	return baseURL.ResolveReference(ref).String()
}

// stringValue returns the string under key, or "" for missing or non-string
// values.
func stringValue(m map[string]any, key string) string {
	if value, isStr := m[key].(string); isStr {
		return value
	}
	return ""
}
