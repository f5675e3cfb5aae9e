package models

import "time"

// SentimentLabel is the classification an external model assigns to one
// headline.
type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNeutral  SentimentLabel = "neutral"
	SentimentNegative SentimentLabel = "negative"
)

// Valid reports whether the label is one the classifier may emit.
func (l SentimentLabel) Valid() bool {
	switch l {
	case SentimentPositive, SentimentNeutral, SentimentNegative:
		return true
	}
	return false
}

// SentimentObservation is the raw classifier output for one headline.
// Score is the model's confidence in [0,1]; the label carries the sign.
type SentimentObservation struct {
	Symbol      string         `json:"symbol"`
	PublishedAt time.Time      `json:"published_at"`
	Label       SentimentLabel `json:"label"`
	Score       float64        `json:"score"`
	Headline    string         `json:"headline,omitempty"`
	Source      string         `json:"source,omitempty"`
}

// SentimentSignal is the time-decayed aggregate of observations within
// a trailing lookback window, one per symbol per evaluation date.
// Value is in [-1,1]; an empty observation set yields exactly 0.
type SentimentSignal struct {
	Symbol        string    `json:"symbol"`
	AsOf          time.Time `json:"as_of"`
	Value         float64   `json:"value"`
	Trend         string    `json:"trend"` // "improving", "deteriorating", "stable"
	Confidence    float64   `json:"confidence"`
	NewsCount     int       `json:"news_count"`
	PositiveCount int       `json:"positive_count"`
	NegativeCount int       `json:"negative_count"`
	NeutralCount  int       `json:"neutral_count"`
}
