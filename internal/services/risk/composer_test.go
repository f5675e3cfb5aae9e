package risk

import (
	"math"
	"testing"
	"time"

	"HKPulse/internal/domain/models"
)

func mkBars(closes []float64, volumes []float64) []models.Bar {
	bars := make([]models.Bar, len(closes))
	day := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		v := 1_000_000.0
		if volumes != nil {
			v = volumes[i]
		}
		bars[i] = models.Bar{
			Date:   day.AddDate(0, 0, i),
			Symbol: "0700.HK",
			Open:   c, High: c * 1.01, Low: c * 0.99, Close: c,
			Volume: v,
		}
	}
	return bars
}

func fptr(v float64) *float64 { return &v }
func bptr(v bool) *bool       { return &v }

func trendingCloses(n int) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 100 + float64(i) + 3*math.Sin(float64(i)/3)
	}
	return closes
}

func TestComposeBounded(t *testing.T) {
	bars := mkBars(trendingCloses(60), nil)
	latest := &models.IndicatorPoint{
		RSI:          fptr(82),
		VolumeRatio:  fptr(3.5),
		IsBreakout:   bptr(true),
		BollingerPos: fptr(0.97),
	}
	sig := &models.SentimentSignal{Symbol: "0700.HK", Value: -0.9}

	score, err := Compose("0700.HK", bars[len(bars)-1].Date, bars, latest, sig, DefaultConfig())
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	if score.Composite < 0 || score.Composite > 1 {
		t.Fatalf("composite out of [0,1]: %v", score.Composite)
	}
	if score.Level != models.RiskHigh && score.Level != models.RiskVeryHigh {
		t.Fatalf("expected elevated level for hot inputs, got %s", score.Level)
	}
	if score.Channel == nil {
		t.Fatal("expected support/resistance channel")
	}
	if score.Channel.Support > score.Channel.Resistance {
		t.Fatalf("support %v above resistance %v", score.Channel.Support, score.Channel.Resistance)
	}
}

func TestComposeMissingSubScoresRenormalize(t *testing.T) {
	bars := mkBars(trendingCloses(60), nil)
	// RSI and volume ratio undefined: only volatility and sentiment remain.
	latest := &models.IndicatorPoint{}
	sig := &models.SentimentSignal{Value: 1} // best case, sentiment sub = 0

	score, err := Compose("0700.HK", bars[len(bars)-1].Date, bars, latest, sig, DefaultConfig())
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	if score.Volume.Present || score.Technical.Present {
		t.Fatal("volume/technical should be excluded when inputs are undefined")
	}
	if !score.Volatility.Present || !score.Sentiment.Present {
		t.Fatal("volatility and sentiment should be present")
	}
	want := (score.Volatility.Value*0.3 + 0.0*0.2) / 0.5
	if math.Abs(score.Composite-want) > 1e-12 {
		t.Fatalf("renormalized composite = %v, want %v", score.Composite, want)
	}
	if score.Composite < 0 || score.Composite > 1 {
		t.Fatalf("composite out of [0,1]: %v", score.Composite)
	}
}

func TestComposeZeroVarianceVolatility(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 // perfectly flat
	}
	bars := mkBars(closes, nil)
	latest := &models.IndicatorPoint{RSI: fptr(50), VolumeRatio: fptr(1)}

	score, err := Compose("0700.HK", bars[len(bars)-1].Date, bars, latest, nil, DefaultConfig())
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	if !score.Volatility.Present || score.Volatility.Value != 0 {
		t.Fatalf("flat series should score volatility 0, got %+v", score.Volatility)
	}
}

func TestComposeMissingSentimentNeutral(t *testing.T) {
	bars := mkBars(trendingCloses(60), nil)
	latest := &models.IndicatorPoint{RSI: fptr(50), VolumeRatio: fptr(1)}

	score, err := Compose("0700.HK", bars[len(bars)-1].Date, bars, latest, nil, DefaultConfig())
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	if !score.Sentiment.Present || score.Sentiment.Value != 0.5 {
		t.Fatalf("missing sentiment should contribute 0.5, got %+v", score.Sentiment)
	}
}

func TestComposeIdempotent(t *testing.T) {
	bars := mkBars(trendingCloses(60), nil)
	latest := &models.IndicatorPoint{RSI: fptr(64), VolumeRatio: fptr(2.2), BollingerPos: fptr(0.8)}
	sig := &models.SentimentSignal{Value: -0.2}
	asOf := bars[len(bars)-1].Date

	a, err := Compose("0700.HK", asOf, bars, latest, sig, DefaultConfig())
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	b, err := Compose("0700.HK", asOf, bars, latest, sig, DefaultConfig())
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	if a.Composite != b.Composite || a.Level != b.Level {
		t.Fatalf("same inputs diverged: %v/%s vs %v/%s", a.Composite, a.Level, b.Composite, b.Level)
	}
}

func TestComposeRejectsBadWeights(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Weights.Volatility = 0.9 // sum now 1.6
	bars := mkBars(trendingCloses(60), nil)
	if _, err := Compose("0700.HK", bars[len(bars)-1].Date, bars, &models.IndicatorPoint{}, nil, cfg); err == nil {
		t.Fatal("expected weight validation error")
	}
}

func TestLevelBoundaries(t *testing.T) {
	cases := []struct {
		composite float64
		level     string
	}{
		{0.0, models.RiskLow},
		{0.24, models.RiskLow},
		{0.25, models.RiskModerate},
		{0.49, models.RiskModerate},
		{0.5, models.RiskHigh},
		{0.74, models.RiskHigh},
		{0.75, models.RiskVeryHigh},
		{1.0, models.RiskVeryHigh},
	}
	for _, tc := range cases {
		if lvl, _ := levelFor(tc.composite); lvl != tc.level {
			t.Fatalf("levelFor(%v) = %s, want %s", tc.composite, lvl, tc.level)
		}
	}
}

func TestChannelPosition(t *testing.T) {
	// Close sits on the window high.
	closes := trendingCloses(40)
	bars := mkBars(closes, nil)
	c := channel(bars, 20)
	if c == nil {
		t.Fatal("expected channel")
	}
	if c.Position != "near_resistance" {
		t.Fatalf("rising series should end near resistance, got %s", c.Position)
	}
}
