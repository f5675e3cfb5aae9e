package sentiment

import (
	"errors"
	"math"
	"testing"
	"time"

	"HKPulse/internal/domain/models"
)

var asOf = time.Date(2026, 2, 10, 16, 0, 0, 0, time.UTC)

func obsAt(ageDays int, label models.SentimentLabel, score float64) models.SentimentObservation {
	return models.SentimentObservation{
		Symbol:      "0700.HK",
		PublishedAt: asOf.AddDate(0, 0, -ageDays).Add(-time.Hour),
		Label:       label,
		Score:       score,
		Headline:    "headline",
		Source:      "wire",
	}
}

func TestAggregateEmptyIsNeutral(t *testing.T) {
	sig, err := Aggregate("0700.HK", asOf, 7, nil)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if sig.Value != 0 {
		t.Fatalf("empty window value: got %v, want exactly 0", sig.Value)
	}
	if sig.Trend != "stable" || sig.NewsCount != 0 || sig.Confidence != 0 {
		t.Fatalf("empty window signal: %+v", sig)
	}
}

func TestAggregateInvalidLookback(t *testing.T) {
	if _, err := Aggregate("0700.HK", asOf, 0, nil); !errors.Is(err, ErrInvalidLookback) {
		t.Fatalf("expected ErrInvalidLookback, got %v", err)
	}
	if _, err := Aggregate("0700.HK", asOf, -3, nil); !errors.Is(err, ErrInvalidLookback) {
		t.Fatalf("expected ErrInvalidLookback, got %v", err)
	}
}

func TestAggregateSignedValue(t *testing.T) {
	// One positive and one negative observation at the same age cancel
	// only when scores match.
	obs := []models.SentimentObservation{
		obsAt(1, models.SentimentPositive, 0.8),
		obsAt(1, models.SentimentNegative, 0.8),
	}
	sig, err := Aggregate("0700.HK", asOf, 7, obs)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if math.Abs(sig.Value) > 1e-9 {
		t.Fatalf("balanced observations: got %v, want 0", sig.Value)
	}
	if sig.PositiveCount != 1 || sig.NegativeCount != 1 || sig.NeutralCount != 0 {
		t.Fatalf("counts: %+v", sig)
	}

	obs = []models.SentimentObservation{obsAt(2, models.SentimentNegative, 0.6)}
	sig, err = Aggregate("0700.HK", asOf, 7, obs)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if !floatEq(sig.Value, -0.6) {
		t.Fatalf("single negative: got %v, want -0.6", sig.Value)
	}
}

func TestAggregateRecencyWeighting(t *testing.T) {
	// ages 0 and 6 with lookback 7: weights 8 and 2.
	obs := []models.SentimentObservation{
		obsAt(0, models.SentimentPositive, 1.0),
		obsAt(6, models.SentimentNegative, 1.0),
	}
	sig, err := Aggregate("0700.HK", asOf, 7, obs)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	want := (8.0*1.0 + 2.0*-1.0) / 10.0
	if !floatEq(sig.Value, want) {
		t.Fatalf("recency weighting: got %v, want %v", sig.Value, want)
	}

	// Swapping the ages must flip the sign: newer observations dominate.
	obs = []models.SentimentObservation{
		obsAt(6, models.SentimentPositive, 1.0),
		obsAt(0, models.SentimentNegative, 1.0),
	}
	sig, err = Aggregate("0700.HK", asOf, 7, obs)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if !floatEq(sig.Value, -want) {
		t.Fatalf("recency weighting flipped: got %v, want %v", sig.Value, -want)
	}
}

func TestAggregateWindowBoundary(t *testing.T) {
	obs := []models.SentimentObservation{
		obsAt(10, models.SentimentNegative, 1.0), // outside lookback 7
		{Symbol: "0700.HK", PublishedAt: asOf.Add(time.Hour), Label: models.SentimentNegative, Score: 1.0}, // future
		obsAt(3, models.SentimentPositive, 0.5),
	}
	sig, err := Aggregate("0700.HK", asOf, 7, obs)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if sig.NewsCount != 1 {
		t.Fatalf("window filter kept %d observations, want 1", sig.NewsCount)
	}
	if !floatEq(sig.Value, 0.5) {
		t.Fatalf("value: got %v, want 0.5", sig.Value)
	}
}

func TestAggregateMalformedObservation(t *testing.T) {
	obs := []models.SentimentObservation{obsAt(1, "bullish", 0.5)}
	if _, err := Aggregate("0700.HK", asOf, 7, obs); !errors.Is(err, ErrMalformedObservation) {
		t.Fatalf("expected ErrMalformedObservation for unknown label, got %v", err)
	}

	obs = []models.SentimentObservation{obsAt(1, models.SentimentPositive, 1.2)}
	if _, err := Aggregate("0700.HK", asOf, 7, obs); !errors.Is(err, ErrMalformedObservation) {
		t.Fatalf("expected ErrMalformedObservation for score > 1, got %v", err)
	}

	// Malformed inputs outside the window are never inspected.
	obs = []models.SentimentObservation{obsAt(30, "bullish", 9)}
	sig, err := Aggregate("0700.HK", asOf, 7, obs)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if sig.Value != 0 {
		t.Fatalf("filtered-out junk changed the value: %v", sig.Value)
	}
}

func TestAggregateTrend(t *testing.T) {
	improving := []models.SentimentObservation{
		obsAt(0, models.SentimentPositive, 0.9),
		obsAt(1, models.SentimentPositive, 0.9),
		obsAt(2, models.SentimentPositive, 0.9),
		obsAt(4, models.SentimentNegative, 0.9),
		obsAt(5, models.SentimentNegative, 0.9),
	}
	sig, err := Aggregate("0700.HK", asOf, 7, improving)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if sig.Trend != "improving" {
		t.Fatalf("trend: got %q, want improving", sig.Trend)
	}

	deteriorating := []models.SentimentObservation{
		obsAt(0, models.SentimentNegative, 0.9),
		obsAt(1, models.SentimentNegative, 0.9),
		obsAt(2, models.SentimentNegative, 0.9),
		obsAt(4, models.SentimentPositive, 0.9),
		obsAt(5, models.SentimentPositive, 0.9),
	}
	sig, err = Aggregate("0700.HK", asOf, 7, deteriorating)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if sig.Trend != "deteriorating" {
		t.Fatalf("trend: got %q, want deteriorating", sig.Trend)
	}

	flat := []models.SentimentObservation{
		obsAt(0, models.SentimentNeutral, 0.9),
		obsAt(3, models.SentimentNeutral, 0.9),
	}
	sig, err = Aggregate("0700.HK", asOf, 7, flat)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if sig.Trend != "stable" {
		t.Fatalf("trend: got %q, want stable", sig.Trend)
	}
}

func TestAggregateConfidence(t *testing.T) {
	// Ten agreeing observations within the window: full coverage, zero
	// dispersion.
	obs := make([]models.SentimentObservation, 0, 10)
	for i := 0; i < 10; i++ {
		obs = append(obs, obsAt(i%5, models.SentimentPositive, 0.7))
	}
	sig, err := Aggregate("0700.HK", asOf, 7, obs)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if !floatEq(sig.Confidence, 1.0) {
		t.Fatalf("agreeing coverage confidence: got %v, want 1", sig.Confidence)
	}

	few := []models.SentimentObservation{obsAt(1, models.SentimentPositive, 0.7)}
	sig, err = Aggregate("0700.HK", asOf, 7, few)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if sig.Confidence >= 0.2 {
		t.Fatalf("thin coverage should cap confidence, got %v", sig.Confidence)
	}
}

func TestAggregateBounded(t *testing.T) {
	obs := make([]models.SentimentObservation, 0, 30)
	for i := 0; i < 30; i++ {
		label := models.SentimentPositive
		if i%3 == 0 {
			label = models.SentimentNegative
		}
		obs = append(obs, obsAt(i%7, label, float64(i%10)/10.0))
	}
	sig, err := Aggregate("0700.HK", asOf, 7, obs)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if sig.Value < -1 || sig.Value > 1 {
		t.Fatalf("value out of [-1,1]: %v", sig.Value)
	}
	if sig.Confidence < 0 || sig.Confidence > 1 {
		t.Fatalf("confidence out of [0,1]: %v", sig.Confidence)
	}
	if sig.PositiveCount+sig.NegativeCount+sig.NeutralCount != sig.NewsCount {
		t.Fatalf("label counts do not add up: %+v", sig)
	}
}

func floatEq(a, b float64) bool { return math.Abs(a-b) < 1e-9 }
