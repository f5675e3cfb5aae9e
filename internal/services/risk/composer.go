package risk

import (
	"errors"
	"fmt"
	"time"

	"HKPulse/internal/domain/models"
	"HKPulse/internal/services/indicators"
)

// ErrScoreOutOfRange marks a composite outside [0,1]. It signals a
// defect in the composition, never a market condition, and is not
// clamped away.
var ErrScoreOutOfRange = errors.New("risk score out of range")

// boundsEpsilon tolerates float rounding at the interval edges.
const boundsEpsilon = 1e-9

// Weights are the fixed composite weights. They must sum to 1; when a
// sub-score is missing the remaining weights are renormalized over the
// available ones so the composite stays in [0,1].
type Weights struct {
	Volatility float64 `yaml:"volatility" default:"0.3" validate:"gte=0,lte=1"`
	Sentiment  float64 `yaml:"sentiment" default:"0.2" validate:"gte=0,lte=1"`
	Volume     float64 `yaml:"volume" default:"0.2" validate:"gte=0,lte=1"`
	Technical  float64 `yaml:"technical" default:"0.3" validate:"gte=0,lte=1"`
}

// DefaultWeights returns the 0.3/0.2/0.2/0.3 split.
func DefaultWeights() Weights {
	return Weights{Volatility: 0.3, Sentiment: 0.2, Volume: 0.2, Technical: 0.3}
}

// Validate checks non-negative weights summing to 1.
func (w Weights) Validate() error {
	sum := w.Volatility + w.Sentiment + w.Volume + w.Technical
	if w.Volatility < 0 || w.Sentiment < 0 || w.Volume < 0 || w.Technical < 0 {
		return fmt.Errorf("risk weights must be non-negative")
	}
	if sum < 1-boundsEpsilon || sum > 1+boundsEpsilon {
		return fmt.Errorf("risk weights must sum to 1, got %v", sum)
	}
	return nil
}

// Config holds the composer parameters.
type Config struct {
	Weights           Weights `yaml:"weights"`
	VolatilityWindow  int     `yaml:"volatility_window" default:"20" validate:"gte=2"`
	SupportResistance int     `yaml:"support_resistance_window" default:"20" validate:"gte=2"`
}

// DefaultConfig returns default weights with 20-bar volatility and
// support/resistance windows.
func DefaultConfig() Config {
	return Config{Weights: DefaultWeights(), VolatilityWindow: 20, SupportResistance: 20}
}

// Compose combines the latest indicator point and the current
// sentiment signal into one bounded risk score.
//
// Missing-input policy:
//   - sentiment signal nil → sentiment sub-score 0.5 (neutral risk
//     contribution), still present;
//   - undefined VolumeRatio or RSI → that sub-score is excluded and the
//     remaining weights renormalized;
//   - too few bars for the volatility window → volatility excluded the
//     same way.
func Compose(symbol string, asOf time.Time, bars []models.Bar, latest *models.IndicatorPoint, sig *models.SentimentSignal, cfg Config) (*models.RiskScore, error) {
	if err := cfg.Weights.Validate(); err != nil {
		return nil, err
	}
	if cfg.VolatilityWindow < 2 || cfg.SupportResistance < 2 {
		return nil, fmt.Errorf("%w: windows must be >= 2", indicators.ErrInvalidConfig)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: empty series", indicators.ErrMalformedSeries)
	}
	if latest == nil {
		return nil, fmt.Errorf("%w: no indicator point", indicators.ErrInsufficientData)
	}

	score := &models.RiskScore{Symbol: symbol, AsOf: asOf}
	score.Volatility = volatilitySubScore(models.Closes(bars), cfg.VolatilityWindow, cfg.Weights.Volatility)
	score.Sentiment = sentimentSubScore(sig, cfg.Weights.Sentiment)
	score.Volume = volumeSubScore(latest, cfg.Weights.Volume)
	score.Technical = technicalSubScore(latest, cfg.Weights.Technical)

	var weighted, weightSum float64
	for _, s := range []models.SubScore{score.Volatility, score.Sentiment, score.Volume, score.Technical} {
		if !s.Present {
			continue
		}
		weighted += s.Value * s.Weight
		weightSum += s.Weight
	}
	if weightSum == 0 {
		return nil, fmt.Errorf("%w: no sub-scores available", indicators.ErrInsufficientData)
	}
	composite := weighted / weightSum
	if composite < -boundsEpsilon || composite > 1+boundsEpsilon {
		return nil, fmt.Errorf("%w: %v", ErrScoreOutOfRange, composite)
	}
	// float noise only; genuine excursions error out above
	composite = clamp01(composite)

	score.Composite = composite
	score.Level, score.Recommendation = levelFor(composite)
	score.Channel = channel(bars, cfg.SupportResistance)
	return score, nil
}

// volatilitySubScore min-max normalizes the latest rolling return
// deviation against the rolling deviations observed in the same slice.
// A zero-variance slice (min == max) scores 0.
func volatilitySubScore(closes []float64, window int, weight float64) models.SubScore {
	rets := indicators.Returns(closes)
	vols := indicators.RollingStdSeries(rets, window)
	if len(vols) == 0 {
		return models.SubScore{Weight: weight}
	}
	lo, hi := indicators.Min(vols), indicators.Max(vols)
	if lo == hi {
		return models.SubScore{Weight: weight, Present: true}
	}
	v := (vols[len(vols)-1] - lo) / (hi - lo)
	return models.SubScore{Value: v, Weight: weight, Present: true}
}

// sentimentSubScore maps signal [-1,1] to risk [1,0]; more negative
// sentiment means higher risk. No signal defaults to the neutral 0.5
// and stays present in the composite.
func sentimentSubScore(sig *models.SentimentSignal, weight float64) models.SubScore {
	if sig == nil {
		return models.SubScore{Value: 0.5, Weight: weight, Present: true}
	}
	return models.SubScore{Value: (1 - sig.Value) / 2, Weight: weight, Present: true}
}

// volumeSubScore scales the volume ratio so 1x trades as no extra risk
// and 4x or more saturates.
func volumeSubScore(latest *models.IndicatorPoint, weight float64) models.SubScore {
	if latest.VolumeRatio == nil {
		return models.SubScore{Weight: weight}
	}
	return models.SubScore{Value: clamp01((*latest.VolumeRatio - 1) / 3), Weight: weight, Present: true}
}

// technicalSubScore measures RSI overextension from the neutral 50,
// nudged up when the bar is a breakout or sits at a Bollinger extreme.
func technicalSubScore(latest *models.IndicatorPoint, weight float64) models.SubScore {
	if latest.RSI == nil {
		return models.SubScore{Weight: weight}
	}
	v := (*latest.RSI - 50) / 50
	if v < 0 {
		v = -v
	}
	if latest.IsBreakout != nil && *latest.IsBreakout {
		v += 0.15
	}
	if latest.BollingerPos != nil && (*latest.BollingerPos > 0.9 || *latest.BollingerPos < 0.1) {
		v += 0.1
	}
	return models.SubScore{Value: clamp01(v), Weight: weight, Present: true}
}

func levelFor(composite float64) (string, string) {
	switch {
	case composite < 0.25:
		return models.RiskLow, "Low risk - suitable for conservative positions"
	case composite < 0.5:
		return models.RiskModerate, "Moderate risk - balanced risk-reward profile"
	case composite < 0.75:
		return models.RiskHigh, "Elevated risk - monitor closely"
	default:
		return models.RiskVeryHigh, "High risk - exercise caution"
	}
}

// channel reports the trailing support/resistance band. A short series
// uses what it has, matching how the levels are read on a fresh
// listing.
func channel(bars []models.Bar, window int) *models.SupportResistance {
	closes := models.Closes(bars)
	start := len(closes) - window
	if start < 0 {
		start = 0
	}
	win := closes[start:]
	current := closes[len(closes)-1]
	if current <= 0 {
		return nil
	}
	support, resistance := indicators.Min(win), indicators.Max(win)
	c := &models.SupportResistance{
		Support:          support,
		Resistance:       resistance,
		DistToSupportPct: (current - support) / current * 100,
		DistToResistPct:  (resistance - current) / current * 100,
	}
	switch {
	case c.DistToSupportPct < 5:
		c.Position = "near_support"
	case c.DistToResistPct < 5:
		c.Position = "near_resistance"
	default:
		c.Position = "mid_range"
	}
	return c
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
