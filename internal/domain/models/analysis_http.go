package models

// Requests for analysis HTTP endpoints. Defined in domain for consistency and reuse.

type SeriesRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	From   string `query:"from" json:"from"`
	To     string `query:"to" json:"to"`
	Limit  int    `query:"limit" json:"limit" default:"500" validate:"gte=1,lte=5000"`
}

type IndicatorsRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	N      int    `query:"n" json:"n" default:"120" validate:"gte=1,lte=2000"`
}

type SentimentRequest struct {
	Symbol       string `query:"symbol" json:"symbol" validate:"required"`
	LookbackDays int    `query:"lookback_days" json:"lookback_days" default:"7" validate:"gte=1,lte=90"`
}

type RiskRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	N      int    `query:"n" json:"n" default:"120" validate:"gte=1,lte=2000"`
}

type AnalysisRequest struct {
	Symbol    string `query:"symbol" json:"symbol" validate:"required"`
	N         int    `query:"n" json:"n" default:"120" validate:"gte=1,lte=2000"`
	Narrative bool   `query:"narrative" json:"narrative"`
}
