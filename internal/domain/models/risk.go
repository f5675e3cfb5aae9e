package models

import "time"

// Risk level labels, bucketed from the composite score.
const (
	RiskLow      = "LOW"
	RiskModerate = "MODERATE"
	RiskHigh     = "HIGH"
	RiskVeryHigh = "VERY_HIGH"
)

// SubScore is one weighted component of the composite risk score.
// Missing components are excluded from the composite and the remaining
// weights renormalized, so Present must be checked before reading Value.
type SubScore struct {
	Value   float64 `json:"value"`
	Weight  float64 `json:"weight"`
	Present bool    `json:"present"`
}

// SupportResistance describes the trailing price channel around the
// latest close.
type SupportResistance struct {
	Support          float64 `json:"support"`
	Resistance       float64 `json:"resistance"`
	DistToSupportPct float64 `json:"dist_to_support_pct"`
	DistToResistPct  float64 `json:"dist_to_resistance_pct"`
	Position         string  `json:"position"` // "near_support", "near_resistance", "mid_range"
}

// RiskScore is the bounded composite risk for one symbol at one
// evaluation date. Composite is always in [0,1].
type RiskScore struct {
	Symbol         string             `json:"symbol"`
	AsOf           time.Time          `json:"as_of"`
	Composite      float64            `json:"composite"`
	Level          string             `json:"level"`
	Recommendation string             `json:"recommendation"`
	Volatility     SubScore           `json:"volatility"`
	Sentiment      SubScore           `json:"sentiment"`
	Volume         SubScore           `json:"volume"`
	Technical      SubScore           `json:"technical"`
	Channel        *SupportResistance `json:"channel,omitempty"`
}
