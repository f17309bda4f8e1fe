// Package domain defines the core data types shared across the crawler.
package domain

import "time"

// LLM provider tags. Google has several historical aliases that all route
// to the Generative Language API.
const (
	ProviderOpenAI      = "openai"
	ProviderHuggingFace = "huggingface"
	ProviderAPIFreeLLM  = "apifreellm"
	ProviderGoogle      = "google"
	ProviderGemini      = "gemini"
	ProviderGoogleAI    = "google_ai"
	ProviderAIStudio    = "ai_studio"
)

// Crawler configuration defaults.
const (
	DefaultLLMModel           = "gpt-4o-mini"
	DefaultLLMTemperature     = 0.1
	DefaultLLMMaxOutputTokens = 1400

	DefaultMaxContextChars = 12000
	DefaultMaxNextURLs     = 10
	DefaultMaxArticles     = 20
	DefaultMaxArticleChars = 2000
	DefaultMaxPagesPerRun  = 50
	DefaultMaxDepth        = 3

	DefaultRequestDelaySeconds = 1.0
	DefaultUserAgent           = "nousnews-crawler/1.0 (+https://crawler.miyangroup.com)"
)

// DefaultPromptTemplate is the extraction prompt used when no custom template
// is configured. Placeholders are filled by the prompt builder.
const DefaultPromptTemplate = `You are a high-precision news extraction and URL selection system.
Task: From the combined context of multiple seed pages, extract news items and select the best next URLs.
Seed/Current URLs:
{seed_urls}

Context (cleaned text from all pages):
{context}

Candidate URLs by seed:
{candidate_urls}

Return ONLY valid JSON with this schema:
{
  "next_urls_by_seed": [
    {
      "seed_url": "https://seed.example",
      "next_url": "https://next.example"
    }
  ],
  "articles": [
    {
      "url": "https://...",
      "title": "...",
      "published_at": "ISO-8601 timestamp if present",
      "source": "example.com",
      "body": "full article text from the context"
    }
  ]
}

Rules:
- Choose one next_url per seed_url when possible.
- Extract up to {max_articles} articles.
- Keep each body under ~{max_article_chars} characters.
- Do not invent facts, URLs, or timestamps.
`

// CrawlerConfig is the singleton crawler configuration row. It is created
// with defaults on first access and mutated only through the admin API; the
// engine treats it as read-only.
type CrawlerConfig struct {
	ID string `db:"id" json:"id"`

	// LLM extraction
	LLMEnabled         bool    `db:"llm_enabled"           json:"llm_enabled"`
	LLMProvider        string  `db:"llm_provider"          json:"llm_provider"`
	LLMModel           string  `db:"llm_model"             json:"llm_model"`
	LLMBaseURL         string  `db:"llm_base_url"          json:"llm_base_url"`
	LLMAPIKey          string  `db:"llm_api_key"           json:"llm_api_key"`
	LLMTemperature     float64 `db:"llm_temperature"       json:"llm_temperature"`
	LLMMaxOutputTokens int     `db:"llm_max_output_tokens" json:"llm_max_output_tokens"`

	// Scheduler bounds
	MaxContextChars int `db:"max_context_chars" json:"max_context_chars"`
	MaxNextURLs     int `db:"max_next_urls"     json:"max_next_urls"`
	MaxArticles     int `db:"max_articles"      json:"max_articles"`
	MaxArticleChars int `db:"max_article_chars" json:"max_article_chars"`
	MaxPagesPerRun  int `db:"max_pages_per_run" json:"max_pages_per_run"`
	MaxDepth        int `db:"max_depth"         json:"max_depth"`

	// Crawl behavior
	RequestDelaySeconds  float64 `db:"request_delay_seconds"  json:"request_delay_seconds"`
	UserAgent            string  `db:"user_agent"             json:"user_agent"`
	AllowExternalDomains bool    `db:"allow_external_domains" json:"allow_external_domains"`

	PromptTemplate string `db:"prompt_template" json:"prompt_template"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// NewCrawlerConfig returns a config populated with defaults.
func NewCrawlerConfig() *CrawlerConfig {
	return &CrawlerConfig{
		LLMEnabled:           true,
		LLMProvider:          ProviderOpenAI,
		LLMModel:             DefaultLLMModel,
		LLMTemperature:       DefaultLLMTemperature,
		LLMMaxOutputTokens:   DefaultLLMMaxOutputTokens,
		MaxContextChars:      DefaultMaxContextChars,
		MaxNextURLs:          DefaultMaxNextURLs,
		MaxArticles:          DefaultMaxArticles,
		MaxArticleChars:      DefaultMaxArticleChars,
		MaxPagesPerRun:       DefaultMaxPagesPerRun,
		MaxDepth:             DefaultMaxDepth,
		RequestDelaySeconds:  DefaultRequestDelaySeconds,
		UserAgent:            DefaultUserAgent,
		AllowExternalDomains: false,
		PromptTemplate:       DefaultPromptTemplate,
	}
}
