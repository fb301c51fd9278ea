// Package llm talks to an OpenAI-compatible chat model for the narrative
// part of an incident analysis.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/fidde/rootcause/internal/bundle"
	"github.com/fidde/rootcause/internal/config"
)

// ErrNotConfigured is returned by New when no credentials are set.
var ErrNotConfigured = errors.New("llm: no credentials configured")

const (
	summarySystemPrompt = "You are an expert at writing concise incident summaries."
	relatedSystemPrompt = "You are an expert at identifying related production issues."

	// SummaryUnavailable is returned by IncidentSummary when the model fails.
	SummaryUnavailable = "Unable to generate summary"

	maxRelatedIssues = 4
)

// Analyst produces the narrative analysis for an incident.
type Analyst interface {
	AnalyzeError(ctx context.Context, in bundle.Input) Result
	IncidentSummary(ctx context.Context, log, analysis string) string
	RelatedIssues(ctx context.Context, errorType string) []string
}

// Result is the outcome of one AnalyzeError call. On failure Success is
// false and Error carries the reason.
type Result struct {
	Success  bool             `json:"success"`
	Analysis string           `json:"analysis,omitempty"`
	Parsed   *bundle.Sections `json:"parsed,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// Client is an Analyst backed by go-openai.
type Client struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	timeout     time.Duration
	logger      *slog.Logger
}

// Option configures a Client.
type Option func(*options)

type options struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// WithBaseURL overrides the API base URL of the plain OpenAI backend.
func WithBaseURL(u string) Option {
	return func(o *options) { o.baseURL = u }
}

// WithHTTPClient sets the HTTP client used for API calls.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New builds a Client. Azure OpenAI is used when an endpoint is configured,
// the public OpenAI API otherwise.
func New(cfg config.LLM, opts ...Option) (*Client, error) {
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}

	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	var (
		clientCfg openai.ClientConfig
		model     string
	)
	if cfg.AzureEndpoint != "" {
		clientCfg = openai.DefaultAzureConfig(cfg.AzureAPIKey, cfg.AzureEndpoint)
		clientCfg.APIVersion = cfg.AzureAPIVersion
		// Deployment names are used verbatim.
		clientCfg.AzureModelMapperFunc = func(model string) string { return model }
		model = cfg.AzureDeployment
		o.logger.Info("Initializing Azure OpenAI client", "endpoint", cfg.AzureEndpoint, "deployment", model)
	} else {
		clientCfg = openai.DefaultConfig(cfg.OpenAIAPIKey)
		if o.baseURL != "" {
			clientCfg.BaseURL = o.baseURL
		}
		model = cfg.OpenAIModel
		o.logger.Info("Initializing OpenAI client", "model", model)
	}
	if o.httpClient != nil {
		clientCfg.HTTPClient = o.httpClient
	}

	return &Client{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		timeout:     cfg.Timeout,
		logger:      o.logger,
	}, nil
}

// AnalyzeError sends the context bundle and parses the reply into sections.
func (c *Client) AnalyzeError(ctx context.Context, in bundle.Input) Result {
	text, err := c.complete(ctx, bundle.SystemPrompt, bundle.Build(in))
	if err != nil {
		return Result{Error: err.Error()}
	}
	sections := bundle.ParseSections(text)
	return Result{Success: true, Analysis: text, Parsed: &sections}
}

// IncidentSummary returns a two or three sentence summary, or
// SummaryUnavailable when the model call fails.
func (c *Client) IncidentSummary(ctx context.Context, log, analysis string) string {
	text, err := c.complete(ctx, summarySystemPrompt, bundle.IncidentSummaryPrompt(log, analysis))
	if err != nil {
		return SummaryUnavailable
	}
	return strings.TrimSpace(text)
}

// RelatedIssues returns up to four issues that tend to accompany errorType.
// A failed call yields no issues.
func (c *Client) RelatedIssues(ctx context.Context, errorType string) []string {
	text, err := c.complete(ctx, relatedSystemPrompt, bundle.RelatedIssuesPrompt(errorType))
	if err != nil {
		return nil
	}
	return bulletLines(text, maxRelatedIssues)
}

func (c *Client) complete(ctx context.Context, system, prompt string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}

	c.logger.Debug("Requesting chat completion", "model", c.model, "prompt_bytes", len(prompt))
	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		c.logger.Error("Chat completion failed", "model", c.model, "error", err)
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		c.logger.Warn("Chat completion returned no choices", "model", c.model)
		return "", errors.New("chat completion returned no choices")
	}
	c.logger.Debug("Received chat completion", "finish_reason", resp.Choices[0].FinishReason)
	return resp.Choices[0].Message.Content, nil
}

// bulletLines returns the non-empty lines of text with list markers removed.
func bulletLines(text string, limit int) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.Trim(line, "- "))
		if line == "" {
			continue
		}
		out = append(out, line)
		if len(out) == limit {
			break
		}
	}
	return out
}
