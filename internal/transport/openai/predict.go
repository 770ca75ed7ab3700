package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/databill86/dp-conceptual-search/internal/domain"
	"github.com/databill86/dp-conceptual-search/internal/metrics"
)

const predictPrompt = `You label search queries for the Office for National Statistics website.
Return the %d most relevant keyword labels for the user's query as JSON:
{"labels":[{"label":"<keyword>","confidence":<0..1>}]}
Use lowercase labels and join multi-word labels with underscores (e.g. "raspberry_pi").`

type prediction struct {
	Labels []struct {
		Label      string  `json:"label"`
		Confidence float64 `json:"confidence"`
	} `json:"labels"`
}

// Predict implements domain.KeywordPredictor. Labels below threshold are
// dropped; the rest are returned in descending confidence, at most topK.
func (c *Client) Predict(ctx context.Context, text string, topK int, threshold float64) ([]domain.Label, error) {
	if topK <= 0 {
		return nil, nil
	}

	req := openai.ChatCompletionRequest{
		Model: c.keywordModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: fmt.Sprintf(predictPrompt, topK)},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		Temperature:    0,
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
		User:           domain.RequestIDFromContext(ctx),
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		observe(opPredict, c.keywordModel, "error", start)
		metrics.MLErrorsTotal.WithLabelValues(opPredict, "api_error").Inc()
		return nil, parseAPIError(err)
	}
	observe(opPredict, c.keywordModel, "success", start)
	recordTokens(opPredict, c.keywordModel, resp.Usage)

	if len(resp.Choices) == 0 {
		c.logger.Debug("no choices returned from keyword model")
		return nil, nil
	}

	var p prediction
	if err := json.Unmarshal([]byte(stripFences(resp.Choices[0].Message.Content)), &p); err != nil {
		metrics.MLErrorsTotal.WithLabelValues(opPredict, "decode").Inc()
		c.logger.Warn("unparseable keyword prediction", zap.Error(err))
		return nil, fmt.Errorf("decode keyword prediction: %v: %w", err, domain.ErrUpstreamUnavailable)
	}

	labels := make([]domain.Label, 0, len(p.Labels))
	for _, l := range p.Labels {
		name := strings.ReplaceAll(strings.TrimSpace(l.Label), " ", "_")
		if name == "" || l.Confidence < threshold {
			continue
		}
		labels = append(labels, domain.Label{Name: name, Confidence: l.Confidence})
	}
	sort.SliceStable(labels, func(i, j int) bool { return labels[i].Confidence > labels[j].Confidence })
	if len(labels) > topK {
		labels = labels[:topK]
	}
	return labels, nil
}

// stripFences removes a markdown code fence some models wrap JSON in.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
