package sentiment

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"HKPulse/internal/domain/models"
	"HKPulse/internal/services/indicators"
)

var (
	// ErrInvalidLookback marks a non-positive lookback window.
	ErrInvalidLookback = errors.New("invalid sentiment lookback")

	// ErrMalformedObservation marks a classifier output outside its
	// contract (unknown label or score outside [0,1]).
	ErrMalformedObservation = errors.New("malformed sentiment observation")
)

// trendEpsilon separates "stable" from a genuine drift between the
// recent and older halves of the window.
const trendEpsilon = 1e-9

// Aggregate reduces the observations for one symbol within the
// trailing lookback window ending at asOf into one signal in [-1,1].
// Observations are weighted linearly by recency: weight is
// proportional to lookbackDays+1-ageDays, strictly decreasing with
// age, normalized to sum 1 across the window. An empty observation set
// yields exactly 0 (neutral), not an error.
func Aggregate(symbol string, asOf time.Time, lookbackDays int, obs []models.SentimentObservation) (*models.SentimentSignal, error) {
	if lookbackDays <= 0 {
		return nil, fmt.Errorf("%w: %d days", ErrInvalidLookback, lookbackDays)
	}

	sig := &models.SentimentSignal{Symbol: symbol, AsOf: asOf, Trend: "stable"}

	windowStart := asOf.AddDate(0, 0, -lookbackDays)
	inWindow := make([]models.SentimentObservation, 0, len(obs))
	for _, o := range obs {
		if o.PublishedAt.After(asOf) || !o.PublishedAt.After(windowStart) {
			continue
		}
		if !o.Label.Valid() {
			return nil, fmt.Errorf("%w: label %q", ErrMalformedObservation, o.Label)
		}
		if o.Score < 0 || o.Score > 1 {
			return nil, fmt.Errorf("%w: score %v outside [0,1]", ErrMalformedObservation, o.Score)
		}
		inWindow = append(inWindow, o)
	}
	if len(inWindow) == 0 {
		return sig, nil
	}

	// newest first, for trend and for stable weighting on date ties
	sort.Slice(inWindow, func(i, j int) bool {
		return inWindow[i].PublishedAt.After(inWindow[j].PublishedAt)
	})

	signed := make([]float64, len(inWindow))
	var weightSum, weighted float64
	for i, o := range inWindow {
		signed[i] = signedScore(o)
		ageDays := int(asOf.Sub(o.PublishedAt).Hours() / 24)
		if ageDays < 0 {
			ageDays = 0
		}
		w := float64(lookbackDays + 1 - ageDays)
		weightSum += w
		weighted += w * signed[i]

		switch o.Label {
		case models.SentimentPositive:
			sig.PositiveCount++
		case models.SentimentNegative:
			sig.NegativeCount++
		default:
			sig.NeutralCount++
		}
	}

	sig.NewsCount = len(inWindow)
	sig.Value = weighted / weightSum
	sig.Trend = trend(signed)
	sig.Confidence = confidence(signed)
	return sig, nil
}

func signedScore(o models.SentimentObservation) float64 {
	switch o.Label {
	case models.SentimentPositive:
		return o.Score
	case models.SentimentNegative:
		return -o.Score
	default:
		return 0
	}
}

// trend compares the most recent observations against the next-older
// batch, mirroring the recent-vs-older headline comparison in the
// upstream analysis.
func trend(signed []float64) string {
	recentN := len(signed)
	if recentN > 3 {
		recentN = 3
	}
	recent := indicators.Mean(signed[:recentN])
	older := recent
	if len(signed) > 3 {
		end := len(signed)
		if end > 6 {
			end = 6
		}
		older = indicators.Mean(signed[3:end])
	}
	switch {
	case recent > older+trendEpsilon:
		return "improving"
	case recent < older-trendEpsilon:
		return "deteriorating"
	default:
		return "stable"
	}
}

// confidence grows with coverage volume and shrinks with score
// dispersion.
func confidence(signed []float64) float64 {
	std := indicators.SampleStd(signed)
	c := math.Max(0, 1-std) * math.Min(1, float64(len(signed))/10)
	return c
}
