package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/MrHbogart/NousNews-Backend/internal/domain"
	"github.com/MrHbogart/NousNews-Backend/internal/logger"
)

// Default provider base URLs, used when the config leaves llm_base_url empty.
const (
	defaultOpenAIBaseURL      = "https://api.openai.com/v1"
	defaultHuggingFaceBaseURL = "https://api-inference.huggingface.co"
	defaultAPIFreeLLMBaseURL  = "https://apifreellm.com"
	defaultGoogleBaseURL      = "https://generativelanguage.googleapis.com/v1beta"
)

// openAISystemPrompt primes chat-completion providers for strict JSON output.
const openAISystemPrompt = "You are a high-precision news extraction and URL selection system. " +
	"Only return valid JSON."

// Extractor is the capability the crawl engine depends on. Extract returns
// nil on any transport or decoding failure and when the client is disabled;
// LLM failures are never errors, the engine falls back to heuristics.
type Extractor interface {
	Enabled() bool
	Extract(ctx context.Context, prompt string) *Result
}

// Client calls the configured LLM provider. The zero-value is not usable;
// construct with NewClient.
type Client struct {
	cfg        *domain.CrawlerConfig
	provider   string
	apiKey     string
	baseURL    string
	httpClient *http.Client
	log        logger.Interface
}

// NewClient creates an extraction client for the provider named in cfg.
func NewClient(cfg *domain.CrawlerConfig, timeout time.Duration, log logger.Interface) *Client {
	provider := strings.ToLower(cfg.LLMProvider)
	if provider == "" {
		provider = domain.ProviderOpenAI
	}

	baseURL := cfg.LLMBaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL(provider)
	}

	return &Client{
		cfg:        cfg,
		provider:   provider,
		apiKey:     cfg.LLMAPIKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

// defaultBaseURL returns the provider's default endpoint.
func defaultBaseURL(provider string) string {
	switch provider {
	case domain.ProviderHuggingFace:
		return defaultHuggingFaceBaseURL
	case domain.ProviderAPIFreeLLM:
		return defaultAPIFreeLLMBaseURL
	case domain.ProviderGoogle, domain.ProviderGemini, domain.ProviderGoogleAI, domain.ProviderAIStudio:
		return defaultGoogleBaseURL
	default:
		return defaultOpenAIBaseURL
	}
}

// isGoogleProvider reports whether the provider tag is one of the Google aliases.
func isGoogleProvider(provider string) bool {
	switch provider {
	case domain.ProviderGoogle, domain.ProviderGemini, domain.ProviderGoogleAI, domain.ProviderAIStudio:
		return true
	default:
		return false
	}
}

// Enabled reports whether extraction calls will be attempted. The apifreellm
// provider works without a key; every other provider needs one.
func (c *Client) Enabled() bool {
	if !c.cfg.LLMEnabled {
		return false
	}
	if c.provider == domain.ProviderAPIFreeLLM {
		return true
	}
	return c.apiKey != ""
}

// Extract sends the prompt to the configured provider and parses the
// response into a Result. Nil on any failure.
func (c *Client) Extract(ctx context.Context, prompt string) *Result {
	if !c.Enabled() {
		return nil
	}

	var content string
	switch {
	case c.provider == domain.ProviderHuggingFace:
		content = c.extractHuggingFace(ctx, prompt)
	case c.provider == domain.ProviderAPIFreeLLM:
		content = c.extractAPIFreeLLM(ctx, prompt)
	case isGoogleProvider(c.provider):
		content = c.extractGoogle(ctx, prompt)
	default:
		content = c.extractOpenAI(ctx, prompt)
	}

	if content == "" {
		return nil
	}

	result := ParseResult(content)
	if result == nil {
		c.log.Warn("LLM returned unparseable content", "provider", c.provider)
	}
	return result
}

// extractOpenAI calls the OpenAI-compatible chat completions endpoint.
func (c *Client) extractOpenAI(ctx context.Context, prompt string) string {
	payload := map[string]any{
		"model":           c.cfg.LLMModel,
		"temperature":     c.cfg.LLMTemperature,
		"max_tokens":      c.cfg.LLMMaxOutputTokens,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": openAISystemPrompt},
			{"role": "user", "content": prompt},
		},
	}

	headers := map[string]string{
		"Authorization": "Bearer " + c.apiKey,
		"Content-Type":  "application/json",
	}

	data := c.post(ctx, c.baseURL+"/chat/completions", headers, payload)
	if data == nil {
		return ""
	}

	var resp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(data, &resp); err != nil || len(resp.Choices) == 0 {
		return ""
	}

	return resp.Choices[0].Message.Content
}

// extractHuggingFace calls the inference API for the configured model.
func (c *Client) extractHuggingFace(ctx context.Context, prompt string) string {
	payload := map[string]any{
		"inputs": "Return ONLY valid JSON.\n" + prompt,
		"parameters": map[string]any{
			"temperature":      c.cfg.LLMTemperature,
			"max_new_tokens":   c.cfg.LLMMaxOutputTokens,
			"return_full_text": false,
		},
	}

	headers := map[string]string{
		"Authorization": "Bearer " + c.apiKey,
		"Content-Type":  "application/json",
	}

	data := c.post(ctx, c.baseURL+"/models/"+c.cfg.LLMModel, headers, payload)
	if data == nil {
		return ""
	}

	return huggingFaceText(data)
}

// huggingFaceText pulls generated_text from either response shape the
// inference API emits: a list of generations or a bare object.
func huggingFaceText(data []byte) string {
	var asList []struct {
		GeneratedText string `json:"generated_text"`
	}
	if err := json.Unmarshal(data, &asList); err == nil && len(asList) > 0 {
		return asList[0].GeneratedText
	}

	var asObject map[string]any
	if err := json.Unmarshal(data, &asObject); err != nil {
		return ""
	}
	if _, failed := asObject["error"]; failed {
		return ""
	}
	return stringField(asObject, "generated_text")
}

// extractAPIFreeLLM calls the keyless chat endpoint.
func (c *Client) extractAPIFreeLLM(ctx context.Context, prompt string) string {
	payload := map[string]any{"message": prompt}

	headers := map[string]string{"Content-Type": "application/json"}
	if c.apiKey != "" {
		headers["Authorization"] = "Bearer " + c.apiKey
	}

	data := c.post(ctx, c.baseURL+"/api/chat", headers, payload)
	if data == nil {
		return ""
	}

	var resp map[string]any
	if err := json.Unmarshal(data, &resp); err != nil {
		return ""
	}
	for _, key := range []string{"response", "message", "content", "text"} {
		if value := strings.TrimSpace(stringField(resp, key)); value != "" {
			return stringField(resp, key)
		}
	}
	return ""
}

// extractGoogle calls the Generative Language generateContent endpoint.
func (c *Client) extractGoogle(ctx context.Context, prompt string) string {
	payload := map[string]any{
		"contents": []map[string]any{
			{
				"role":  "user",
				"parts": []map[string]any{{"text": prompt}},
			},
		},
		"generationConfig": map[string]any{
			"temperature":     c.cfg.LLMTemperature,
			"maxOutputTokens": c.cfg.LLMMaxOutputTokens,
		},
	}

	headers := map[string]string{
		"x-goog-api-key": c.apiKey,
		"Content-Type":   "application/json",
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.cfg.LLMModel)
	data := c.post(ctx, url, headers, payload)
	if data == nil {
		return ""
	}

	var resp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(data, &resp); err != nil || len(resp.Candidates) == 0 {
		return ""
	}

	var texts []string
	for _, part := range resp.Candidates[0].Content.Parts {
		if strings.TrimSpace(part.Text) != "" {
			texts = append(texts, part.Text)
		}
	}
	return strings.Join(texts, "\n")
}

// post sends a JSON POST and returns the response body, or nil on any
// transport error or non-2xx status.
func (c *Client) post(ctx context.Context, url string, headers map[string]string, payload any) []byte {
	body, marshalErr := json.Marshal(payload)
	if marshalErr != nil {
		return nil
	}

	req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if reqErr != nil {
		return nil
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, doErr := c.httpClient.Do(req)
	if doErr != nil {
		c.log.Warn("LLM request failed", "provider", c.provider, "error", doErr.Error())
		return nil
	}
	defer resp.Body.Close()

	data, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return nil
	}

	if resp.StatusCode >= http.StatusBadRequest {
		c.log.Warn("LLM request rejected", "provider", c.provider, "status", resp.StatusCode)
		return nil
	}

	return data
}
