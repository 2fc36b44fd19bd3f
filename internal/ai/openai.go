package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/flowcrm/pain-radar/internal/models"
)

// OpenAIClient implements both Extractor and InsightService on top of the
// OpenAI chat completions API. Constructed once and reused; the client is
// safe for concurrent use.
type OpenAIClient struct {
	client openai.Client
	model  string
}

// Ensure OpenAIClient implements both collaborator interfaces
var (
	_ Extractor      = (*OpenAIClient)(nil)
	_ InsightService = (*OpenAIClient)(nil)
)

type extractionResponse struct {
	Pains []painRecordJSON `json:"pains"`
}

type painRecordJSON struct {
	PainText   string   `json:"painText"`
	Category   string   `json:"category"`
	Severity   string   `json:"severity"`
	Sentiment  float64  `json:"sentiment"`
	Confidence float64  `json:"confidence"`
	Keywords   []string `json:"keywords"`
	Context    string   `json:"context"`
}

type insightsResponse struct {
	Suggestions   []string `json:"suggestions"`
	Opportunities []string `json:"opportunities"`
	Risks         []string `json:"risks"`
}

// NewOpenAIClient creates an OpenAI-backed AI collaborator.
func NewOpenAIClient(apiKey, model string) *OpenAIClient {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIClient{client: client, model: model}
}

func (c *OpenAIClient) Extract(ctx context.Context, post *models.SocialPost, searchContext string) ([]models.PainRecord, error) {
	prompt := buildExtractionPrompt(post, searchContext)

	content, err := c.complete(ctx,
		"You are an expert at analyzing business pains and customer needs in social media posts.",
		prompt, 1500)
	if err != nil {
		return nil, err
	}

	var resp extractionResponse
	if err := parseJSONResponse(content, &resp); err != nil {
		return nil, models.NewCollaboratorError("ai-extractor", 0, err)
	}

	records := make([]models.PainRecord, 0, len(resp.Pains))
	for _, p := range resp.Pains {
		records = append(records, normalizePainRecord(p))
	}
	return records, nil
}

func (c *OpenAIClient) Insights(ctx context.Context, painText string, category models.PainCategory, sentiment float64) (*models.InsightPayload, error) {
	prompt := buildInsightsPrompt(painText, category, sentiment)

	content, err := c.complete(ctx,
		"You are a business analyst turning customer pain signals into actionable insights.",
		prompt, 1000)
	if err != nil {
		return nil, err
	}

	var resp insightsResponse
	if err := parseJSONResponse(content, &resp); err != nil {
		return nil, models.NewCollaboratorError("ai-insights", 0, err)
	}

	return &models.InsightPayload{
		Suggestions:   resp.Suggestions,
		Opportunities: resp.Opportunities,
		Risks:         resp.Risks,
		GeneratedAt:   time.Now().UTC(),
	}, nil
}

func (c *OpenAIClient) complete(ctx context.Context, system, prompt string, maxTokens int64) (string, error) {
	response, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(0.1),
		MaxTokens:   openai.Int(maxTokens),
	})
	if err != nil {
		return "", completionError(err)
	}
	if len(response.Choices) == 0 {
		return "", models.NewCollaboratorError("openai", 0, fmt.Errorf("no response choices"))
	}
	return response.Choices[0].Message.Content, nil
}

// completionError preserves the upstream HTTP status when the SDK
// surfaced one, so callers can propagate it instead of a generic 502.
func completionError(err error) error {
	status := 0
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		status = apiErr.StatusCode
	}
	return models.NewCollaboratorError("openai", status, fmt.Errorf("chat completion failed: %w", err))
}

func buildExtractionPrompt(post *models.SocialPost, searchContext string) string {
	var sb strings.Builder
	sb.WriteString("Analyze the following social media post and extract the pains, problems and needs the author mentions.\n\n")
	sb.WriteString(fmt.Sprintf("Author: %s\nPost: %q\n\n", post.Author, post.Content))
	if searchContext != "" {
		sb.WriteString(fmt.Sprintf("Search context: %s\n\n", searchContext))
	}
	sb.WriteString("For each pain determine:\n")
	sb.WriteString("- painText: short description of the pain\n")
	sb.WriteString("- category: one of TIME_MANAGEMENT, COST, TECHNICAL, PROCESS, COMMUNICATION, QUALITY, SCALABILITY, SECURITY, OTHER\n")
	sb.WriteString("- severity: one of LOW, MEDIUM, HIGH, CRITICAL\n")
	sb.WriteString("- sentiment: number from -1.0 (very negative) to 1.0 (positive)\n")
	sb.WriteString("- confidence: 0.0 to 1.0\n")
	sb.WriteString("- keywords: 2-5 words from the pain\n")
	sb.WriteString("- context: one sentence of context\n\n")
	sb.WriteString("Respond with JSON only, no additional text:\n")
	sb.WriteString(`{"pains": [{"painText": "...", "category": "TECHNICAL", "severity": "HIGH", "sentiment": -0.7, "confidence": 0.9, "keywords": ["bug", "crash"], "context": "..."}]}`)
	sb.WriteString("\n\nIf the post contains no pains, return an empty pains array. Be precise and specific.")
	return sb.String()
}

func buildInsightsPrompt(painText string, category models.PainCategory, sentiment float64) string {
	var sb strings.Builder
	sb.WriteString("Analyze the following business pain:\n")
	sb.WriteString(fmt.Sprintf("%q\n\nCategory: %s\nSentiment: %.2f\n\n", painText, category, sentiment))
	sb.WriteString("Provide:\n")
	sb.WriteString("1. suggestions - concrete recommendations to address it (3-5 items)\n")
	sb.WriteString("2. opportunities - business opportunities (2-3 items)\n")
	sb.WriteString("3. risks - potential risks of leaving it unaddressed (2-3 items)\n\n")
	sb.WriteString("Respond with JSON only, no additional text:\n")
	sb.WriteString(`{"suggestions": ["..."], "opportunities": ["..."], "risks": ["..."]}`)
	return sb.String()
}

// parseJSONResponse extracts the first JSON object from a completion,
// tolerating models that wrap the payload in prose or code fences.
func parseJSONResponse(content string, v interface{}) error {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return fmt.Errorf("no JSON object in response")
	}
	if err := json.Unmarshal([]byte(content[start:end+1]), v); err != nil {
		return fmt.Errorf("malformed JSON in response: %w", err)
	}
	return nil
}

// normalizePainRecord fills defaults for fields the model omitted or got
// outside the closed enumerations.
func normalizePainRecord(p painRecordJSON) models.PainRecord {
	record := models.PainRecord{
		PainText:   p.PainText,
		Category:   models.PainCategory(p.Category),
		Severity:   models.PainSeverity(p.Severity),
		Sentiment:  p.Sentiment,
		Confidence: p.Confidence,
		Keywords:   p.Keywords,
		Context:    p.Context,
	}
	if !models.ValidCategory(record.Category) {
		record.Category = models.CategoryOther
	}
	if !models.ValidSeverity(record.Severity) {
		record.Severity = models.SeverityMedium
	}
	if record.Confidence == 0 {
		record.Confidence = 0.8
	}
	if record.Keywords == nil {
		record.Keywords = []string{}
	}
	return record
}
