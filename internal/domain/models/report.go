package models

import "time"

// StockReport is the consolidated per-symbol analysis output.
// Note: no transport (json/http) concerns beyond field tags here.
type StockReport struct {
	Symbol     string            `json:"symbol"`
	Name       string            `json:"name,omitempty"`
	AsOf       time.Time         `json:"as_of"`
	LastClose  float64           `json:"last_close"`
	ChangePct  float64           `json:"change_pct"`
	Indicators *IndicatorPoint   `json:"indicators,omitempty"`
	Sentiment  *SentimentSignal  `json:"sentiment,omitempty"`
	Risk       *RiskScore        `json:"risk,omitempty"`
	Narrative  string            `json:"narrative,omitempty"`
	Errors     map[string]string `json:"errors,omitempty"`
}

// MarketSummary aggregates the latest reports for the configured
// universe of symbols.
type MarketSummary struct {
	GeneratedAt time.Time     `json:"generated_at"`
	Reports     []StockReport `json:"reports"`
}
