package analytics

import (
	"context"
	"fmt"
	"time"

	"HKPulse/internal/domain/models"
	domsvc "HKPulse/internal/domain/service"
	"HKPulse/pkg/config"
)

// HTTPSentimentClassifier calls the external sentiment model over HTTP.
// The model is a black box: one label/score per headline, input order
// preserved.
type HTTPSentimentClassifier struct{ base *HTTPServiceBase }

func NewHTTPSentimentClassifier(cfg *config.Config) *HTTPSentimentClassifier {
	return &HTTPSentimentClassifier{base: NewHTTPServiceBase(cfg)}
}

type classifyReq struct {
	Headlines []classifyItem `json:"headlines"`
}

type classifyItem struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

type classifyResp struct {
	Results []struct {
		Label string  `json:"label"`
		Score float64 `json:"score"`
	} `json:"results"`
}

func (s *HTTPSentimentClassifier) Classify(ctx context.Context, headlines []domsvc.Headline) ([]models.SentimentObservation, error) {
	if len(headlines) == 0 {
		return nil, nil
	}
	req := classifyReq{Headlines: make([]classifyItem, len(headlines))}
	for i, h := range headlines {
		req.Headlines[i] = classifyItem{Title: h.Title, Description: h.Description}
	}
	var cr classifyResp
	if err := s.base.PostJSONWithRetry(ctx, "/sentiment/classify", req, &cr, 3); err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}
	if len(cr.Results) != len(headlines) {
		return nil, fmt.Errorf("classify: got %d results for %d headlines", len(cr.Results), len(headlines))
	}
	obs := make([]models.SentimentObservation, len(headlines))
	for i, r := range cr.Results {
		label := models.SentimentLabel(r.Label)
		if !label.Valid() {
			return nil, fmt.Errorf("classify: unexpected label %q", r.Label)
		}
		publishedAt, err := time.Parse(time.RFC3339, headlines[i].PublishedAt)
		if err != nil {
			return nil, fmt.Errorf("classify: bad published_at %q: %w", headlines[i].PublishedAt, err)
		}
		obs[i] = models.SentimentObservation{
			Symbol:      headlines[i].Symbol,
			PublishedAt: publishedAt,
			Label:       label,
			Score:       r.Score,
			Headline:    headlines[i].Title,
			Source:      headlines[i].Source,
		}
	}
	return obs, nil
}

var _ domsvc.SentimentClassifier = (*HTTPSentimentClassifier)(nil)
