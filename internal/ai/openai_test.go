package ai

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openai/openai-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowcrm/pain-radar/internal/models"
)

func TestParseJSONResponse(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
		pains   int
	}{
		{
			name:    "plain JSON",
			content: `{"pains": [{"painText": "slow builds", "category": "TECHNICAL", "severity": "HIGH"}]}`,
			pains:   1,
		},
		{
			name:    "code fence",
			content: "```json\n{\"pains\": []}\n```",
			pains:   0,
		},
		{
			name:    "surrounded by prose",
			content: `Here is the analysis: {"pains": []} Hope this helps!`,
			pains:   0,
		},
		{
			name:    "no JSON at all",
			content: "I could not analyze this post.",
			wantErr: true,
		},
		{
			name:    "malformed JSON",
			content: `{"pains": [}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp extractionResponse
			err := parseJSONResponse(tt.content, &resp)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, resp.Pains, tt.pains)
		})
	}
}

func TestNormalizePainRecord(t *testing.T) {
	t.Run("valid record passes through", func(t *testing.T) {
		got := normalizePainRecord(painRecordJSON{
			PainText: "deploys break weekly", Category: "TECHNICAL", Severity: "CRITICAL",
			Sentiment: -0.8, Confidence: 0.95, Keywords: []string{"deploy"},
		})
		assert.Equal(t, models.CategoryTechnical, got.Category)
		assert.Equal(t, models.SeverityCritical, got.Severity)
		assert.Equal(t, 0.95, got.Confidence)
	})

	t.Run("unknown enums fall back", func(t *testing.T) {
		got := normalizePainRecord(painRecordJSON{
			PainText: "something", Category: "FINANCE", Severity: "SEVERE",
		})
		assert.Equal(t, models.CategoryOther, got.Category)
		assert.Equal(t, models.SeverityMedium, got.Severity)
	})

	t.Run("missing confidence defaults", func(t *testing.T) {
		got := normalizePainRecord(painRecordJSON{PainText: "x", Category: "COST", Severity: "LOW"})
		assert.Equal(t, 0.8, got.Confidence)
	})

	t.Run("nil keywords become empty slice", func(t *testing.T) {
		got := normalizePainRecord(painRecordJSON{PainText: "x"})
		assert.NotNil(t, got.Keywords)
		assert.Empty(t, got.Keywords)
	})
}

func TestCompletionError_CarriesUpstreamStatus(t *testing.T) {
	apiErr := &openai.Error{
		StatusCode: http.StatusTooManyRequests,
		Request:    httptest.NewRequest(http.MethodPost, "https://api.openai.com/v1/chat/completions", nil),
		Response:   &http.Response{StatusCode: http.StatusTooManyRequests},
	}

	var collaboratorErr *models.CollaboratorError
	require.ErrorAs(t, completionError(apiErr), &collaboratorErr)
	assert.Equal(t, http.StatusTooManyRequests, collaboratorErr.StatusCode)
	assert.Equal(t, "openai", collaboratorErr.Collaborator)

	// Transport-level failures have no status to carry.
	require.ErrorAs(t, completionError(errors.New("connection refused")), &collaboratorErr)
	assert.Equal(t, 0, collaboratorErr.StatusCode)
}

func TestBuildExtractionPrompt(t *testing.T) {
	post := &models.SocialPost{Author: "dev42", Content: "CI takes 40 minutes per run"}

	prompt := buildExtractionPrompt(post, "build tooling")
	assert.Contains(t, prompt, "dev42")
	assert.Contains(t, prompt, "CI takes 40 minutes per run")
	assert.Contains(t, prompt, "build tooling")
	assert.Contains(t, prompt, "TIME_MANAGEMENT")

	noContext := buildExtractionPrompt(post, "")
	assert.NotContains(t, noContext, "Search context")
}
