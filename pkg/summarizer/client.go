package summarizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/EliranNovik/Leadify-sub026/errors"
	"github.com/EliranNovik/Leadify-sub026/pkg/config"
)

// Client is a minimal client for an OpenAI-compatible chat-completions API
// used for meeting summarization
type Client struct {
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	maxTokens   int
	client      *http.Client
}

// NewClient creates a summarizer client using values from the provided config.
// Pass a nil config to fall back to environment variables.
func NewClient(cfg *config.SummarizerConfig) *Client {
	var apiKey string
	if cfg != nil {
		apiKey = cfg.APIKey
	}
	if apiKey == "" {
		apiKey = os.Getenv("SUMMARIZER_API_KEY")
	}

	var base string
	if cfg != nil && cfg.BaseURL != "" {
		base = cfg.BaseURL
	} else {
		base = os.Getenv("SUMMARIZER_BASE_URL")
		if base == "" {
			base = "https://api.openai.com"
		}
	}

	model := "gpt-4o-mini"
	temperature := 0.3
	maxTokens := 4000
	if cfg != nil {
		if cfg.Model != "" {
			model = cfg.Model
		}
		if cfg.Temperature > 0 {
			temperature = cfg.Temperature
		}
		if cfg.MaxTokens > 0 {
			maxTokens = cfg.MaxTokens
		}
	}

	return &Client{
		apiKey:      apiKey,
		baseURL:     base,
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
		client:      &http.Client{Timeout: 60 * time.Second},
	}
}

// ChatRequest is the shape for chat completion requests
type ChatRequest struct {
	Model       string      `json:"model,omitempty"`
	Messages    interface{} `json:"messages,omitempty"`
	Temperature float64     `json:"temperature,omitempty"`
	MaxTokens   int         `json:"max_tokens,omitempty"`
}

// ChatResponse is a minimal response shape
type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Model returns the configured model name
func (c *Client) Model() string {
	return c.model
}

// AnalyzeTranscript sends the transcript plus the questionnaire to the
// summarization service and returns the raw assistant content. The caller is
// responsible for parsing the JSON out of it.
func (c *Client) AnalyzeTranscript(ctx context.Context, transcript string, questions map[string]string) (string, error) {
	var qb strings.Builder
	for key, question := range questions {
		qb.WriteString(fmt.Sprintf("- %q: %s\n", key, question))
	}

	prompt := fmt.Sprintf(`You are analyzing a meeting transcript for a CRM.
Return ONLY a JSON object with this exact shape:
{"summary": "<concise meeting summary>", "questionnaire": {"<question-key>": "<answer extracted from the transcript, or empty string>"}}

Questionnaire keys and questions:
%s
Transcript:
%s`, qb.String(), transcript)

	reqBody := ChatRequest{
		Model:       c.model,
		Messages:    []map[string]string{{"role": "user", "content": prompt}},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}

	b, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	endpoint := c.baseURL + "/v1/chat/completions"
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", errors.ErrUpstreamTransient("summarizer", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return "", errors.ErrUpstreamTransient("summarizer", fmt.Errorf("summarizer returned status %d", resp.StatusCode))
	}
	if resp.StatusCode >= 400 {
		return "", errors.ErrUpstreamTerminal("summarizer", resp.StatusCode, fmt.Errorf("summarizer returned status %d", resp.StatusCode))
	}

	var cr ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", errors.ErrUpstreamTransient("summarizer", err)
	}
	if len(cr.Choices) == 0 {
		return "", errors.ErrUpstreamTransient("summarizer", fmt.Errorf("empty response from summarizer"))
	}
	return cr.Choices[0].Message.Content, nil
}
