// Package llm adapts the Gemini generateContent API to the Classifier port.
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

	"commentintel/internal/config"
	"commentintel/internal/domain"
	"commentintel/internal/ports"
)

// Taxonomy carries the enumerations embedded in the analyst prompt.
type Taxonomy struct {
	Keywords   []string
	Sentiments []string
	PainPoints []string
}

// GeminiClient implements ports.Classifier against Gemini's REST API with a
// JSON-constrained response.
type GeminiClient struct {
	baseURL    string
	model      string
	apiKey     string
	taxonomy   Taxonomy
	httpClient *http.Client
}

var _ ports.Classifier = (*GeminiClient)(nil)

// NewGeminiClient builds a client from configuration.
func NewGeminiClient(cfg config.GeminiConfig, taxonomy Taxonomy) *GeminiClient {
	return &GeminiClient{
		baseURL:  strings.TrimSuffix(cfg.BaseURL, "/"),
		model:    cfg.Model,
		apiKey:   cfg.APIKey,
		taxonomy: taxonomy,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

type batchItem struct {
	CommentID string `json:"Comment_ID"`
	RawText   string `json:"Raw_Text"`
}

// ClassifyBatch sends one batch inside the analyst prompt and returns the
// parsed records. The caller validates them against the data contract.
func (c *GeminiClient) ClassifyBatch(ctx context.Context, batch []domain.Comment) ([]domain.Classification, error) {
	if c.apiKey == "" || c.baseURL == "" || c.model == "" {
		return nil, fmt.Errorf("gemini client misconfigured")
	}

	items := make([]batchItem, 0, len(batch))
	for _, cm := range batch {
		items = append(items, batchItem{CommentID: cm.CommentID, RawText: cm.RawText})
	}
	batchJSON, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("marshal batch: %w", err)
	}

	body, err := json.Marshal(map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]string{{"text": c.buildPrompt(batchJSON)}}},
		},
		"generationConfig": map[string]string{
			"response_mime_type": "application/json",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal gemini payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("x-goog-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("classify batch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("gemini error %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}

	var parsed generateContentResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode gemini response: %w", err)
	}

	text := parsed.text()
	if text == "" {
		return nil, fmt.Errorf("gemini response carried no content")
	}

	var records []domain.Classification
	if err := json.Unmarshal([]byte(text), &records); err != nil {
		return nil, fmt.Errorf("parse model output: %w", err)
	}
	return records, nil
}

type generateContentResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (r generateContentResponse) text() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, part := range r.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}
	return strings.TrimSpace(b.String())
}

func (c *GeminiClient) buildPrompt(batchJSON []byte) string {
	return fmt.Sprintf(analystPrompt,
		quotedList(c.taxonomy.Keywords),
		quotedList(c.taxonomy.Sentiments),
		quotedList(c.taxonomy.PainPoints),
		batchJSON,
	)
}

func quotedList(values []string) string {
	quoted := make([]string, 0, len(values))
	for _, v := range values {
		quoted = append(quoted, fmt.Sprintf("%q", v))
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

const analystPrompt = `You are a senior go-to-market analyst reviewing public social-media comments for competitive intelligence.

You will be given a JSON list of comments, each with a "Comment_ID" and a "Raw_Text". Analyze every comment individually and return a single valid JSON list containing exactly one object per input comment. Each object must carry the original "Comment_ID" verbatim plus three fields:

1. "product_mentioned" must be one of %s or "N/A".
2. "sentiment" must be one of %s.
3. "pain_point" must be one of %s.

Rules:
- If a user reports a bug, use "Technical Issue". If a user wants a missing feature, use "Product Gap". If a pain point is real but fits no category, use "Other".
- If the comment expresses no pain point, return "N/A". Never invent one.
- Comments may be in any language; your entire output must be in English.

Here is the JSON list of comments to analyze:
%s`
