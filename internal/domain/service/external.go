package service

import (
	"context"

	"HKPulse/internal/domain/models"
)

// Headline is an unclassified news item handed to the sentiment model.
type Headline struct {
	Symbol      string
	Title       string
	Description string
	Source      string
	PublishedAt string // RFC3339 from the news provider
}

// SentimentClassifier is the external model that labels headlines.
// It is a black box: one label/score pair per headline, in input order.
type SentimentClassifier interface {
	Classify(ctx context.Context, headlines []Headline) ([]models.SentimentObservation, error)
}

// Narrator is the external text service that turns a finished report
// into a human-readable explanation.
type Narrator interface {
	Narrate(ctx context.Context, report *models.StockReport) (string, error)
}
