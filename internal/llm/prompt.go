package llm

import (
	"strconv"
	"strings"

	"github.com/MrHbogart/NousNews-Backend/internal/domain"
)

// PromptInput carries the per-step values substituted into the template.
type PromptInput struct {
	// SeedURLs are this step's unique seed URLs in first-seen order.
	SeedURLs []string
	// Context is the combined cleaned text of all fetched pages.
	Context string
	// CandidateURLs is the pre-rendered candidate block, one section per seed.
	CandidateURLs string
	// Objective is the run's free-form objective; prepended to the context
	// when non-empty.
	Objective string
}

// BuildPrompt fills the configured template. Recognized placeholders:
// {seed_urls}, {seed_url}, {context}, {candidate_urls}, {max_next_urls},
// {max_articles}, {max_article_chars}. Unknown braces are left untouched, so
// JSON schema examples survive in the template verbatim.
func BuildPrompt(cfg *domain.CrawlerConfig, input PromptInput) string {
	seedBlock := bulletList(input.SeedURLs)
	if seedBlock == "" {
		seedBlock = "(none)"
	}

	firstSeed := ""
	if len(input.SeedURLs) > 0 {
		firstSeed = input.SeedURLs[0]
	}

	context := input.Context
	if objective := strings.TrimSpace(input.Objective); objective != "" {
		context = "Objective:\n" + objective + "\n\n" + context
	}

	candidates := input.CandidateURLs
	if candidates == "" {
		candidates = "(none)"
	}

	replacer := strings.NewReplacer(
		"{seed_urls}", seedBlock,
		"{seed_url}", firstSeed,
		"{context}", context,
		"{candidate_urls}", candidates,
		"{max_next_urls}", strconv.Itoa(cfg.MaxNextURLs),
		"{max_articles}", strconv.Itoa(cfg.MaxArticles),
		"{max_article_chars}", strconv.Itoa(cfg.MaxArticleChars),
	)

	return replacer.Replace(cfg.PromptTemplate)
}

// bulletList renders urls as a dash-prefixed list, one per line.
func bulletList(urls []string) string {
	var b strings.Builder
	for i, u := range urls {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("- ")
		b.WriteString(u)
	}
	return b.String()
}
