package indicators

import (
	"errors"
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

func approxEq(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

// smallConfig keeps windows tiny so value assertions stay hand-checkable.
func smallConfig() Config {
	return Config{
		SMAWindow:                3,
		RSIPeriod:                14,
		VolumeWindow:             3,
		BreakoutVolumeMultiplier: 1.5,
		UnusualVolumeThreshold:   2.0,
		MACDFast:                 2,
		MACDSlow:                 3,
		MACDSignal:               2,
		BollingerWindow:          3,
		BollingerWidth:           2.0,
	}
}

func TestComputeSMAValue(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = float64(i + 1)
	}
	frame, err := Compute(mkBars(closes, nil), DefaultConfig())
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	for i := 0; i < 19; i++ {
		if frame.Points[i].SMA != nil {
			t.Fatalf("expected nil SMA before the window fills, got %v at %d", *frame.Points[i].SMA, i)
		}
	}
	// mean of 1..20
	if got := frame.Points[19].SMA; got == nil || !approxEq(*got, 10.5) {
		t.Fatalf("SMA at first full window: got %v, want 10.5", got)
	}
	if got := frame.Points[29].SMA; got == nil || !approxEq(*got, 20.5) {
		t.Fatalf("SMA at last bar: got %v, want 20.5", got)
	}
}

func TestComputeRSIValue(t *testing.T) {
	// 7 gains of +2 and 7 losses of -1 over the trailing period:
	// avgGain=1, avgLoss=0.5, RS=2, RSI=66.67.
	closes := []float64{100}
	for k := 0; k < 7; k++ {
		closes = append(closes, closes[len(closes)-1]+2)
		closes = append(closes, closes[len(closes)-1]-1)
	}
	frame, err := Compute(mkBars(closes, nil), smallConfig())
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	got := frame.Points[14].RSI
	if got == nil || !approxEq(*got, 100.0-100.0/3.0) {
		t.Fatalf("RSI: got %v, want %v", got, 100.0-100.0/3.0)
	}
	for i := 0; i < 14; i++ {
		if frame.Points[i].RSI != nil {
			t.Fatalf("expected nil RSI before period deltas exist, got value at %d", i)
		}
	}
}

func TestComputeRSIExtremes(t *testing.T) {
	up := make([]float64, 30)
	flat := make([]float64, 30)
	down := make([]float64, 30)
	for i := range up {
		up[i] = 100 + float64(i)
		flat[i] = 100
		down[i] = 200 - float64(i)
	}

	cases := []struct {
		name   string
		closes []float64
		want   float64
		signal string
	}{
		{"all gains", up, 100, "overbought"},
		{"all flat", flat, 100, "overbought"},
		{"all losses", down, 0, "oversold"},
	}
	for _, tc := range cases {
		frame, err := Compute(mkBars(tc.closes, nil), DefaultConfig())
		if err != nil {
			t.Fatalf("%s: compute: %v", tc.name, err)
		}
		p := frame.Points[len(frame.Points)-1]
		if p.RSI == nil || !approxEq(*p.RSI, tc.want) {
			t.Fatalf("%s: RSI got %v, want %v", tc.name, p.RSI, tc.want)
		}
		if p.MomentumSignal != tc.signal {
			t.Fatalf("%s: momentum got %q, want %q", tc.name, p.MomentumSignal, tc.signal)
		}
	}
}

func TestComputeNoLookAhead(t *testing.T) {
	closes := make([]float64, 80)
	volumes := make([]float64, 80)
	for i := range closes {
		closes[i] = 100 + 5*math.Sin(float64(i)/4) + 0.3*float64(i)
		volumes[i] = 1_000_000 + 200_000*math.Sin(float64(i)/2)
	}
	full, err := Compute(mkBars(closes, volumes), DefaultConfig())
	if err != nil {
		t.Fatalf("compute full: %v", err)
	}
	prefix, err := Compute(mkBars(closes[:60], volumes[:60]), DefaultConfig())
	if err != nil {
		t.Fatalf("compute prefix: %v", err)
	}
	for i := range prefix.Points {
		if !samePoint(full.Points[i], prefix.Points[i]) {
			t.Fatalf("truncating the tail changed the value at index %d", i)
		}
	}
}

func samePoint(a, b models.IndicatorPoint) bool {
	eqF := func(x, y *float64) bool {
		if (x == nil) != (y == nil) {
			return false
		}
		return x == nil || approxEq(*x, *y)
	}
	eqB := func(x, y *bool) bool {
		if (x == nil) != (y == nil) {
			return false
		}
		return x == nil || *x == *y
	}
	return eqF(a.SMA, b.SMA) && eqF(a.RSI, b.RSI) &&
		eqF(a.VolumeRatio, b.VolumeRatio) && eqF(a.VolumeZScore, b.VolumeZScore) &&
		eqF(a.MACDHistogram, b.MACDHistogram) && eqF(a.BollingerPos, b.BollingerPos) &&
		eqB(a.IsBreakout, b.IsBreakout) && eqB(a.IsUnusualVolume, b.IsUnusualVolume) &&
		a.MomentumSignal == b.MomentumSignal
}

func TestComputeBreakout(t *testing.T) {
	n := 25
	closes := make([]float64, n)
	volumes := make([]float64, n)
	for i := range closes {
		closes[i] = 100
		volumes[i] = 1_000_000
	}
	closes[n-1] = 105
	volumes[n-1] = 2_000_000

	frame, err := Compute(mkBars(closes, volumes), DefaultConfig())
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	last := frame.Points[n-1]
	if last.IsBreakout == nil || !*last.IsBreakout {
		t.Fatalf("expected breakout on new high with volume spike, got %v", last.IsBreakout)
	}
	if last.IsUnusualVolume == nil || !*last.IsUnusualVolume {
		t.Fatalf("expected unusual volume on the spike, got %v", last.IsUnusualVolume)
	}

	// Same price action without the volume confirmation.
	volumes[n-1] = 1_000_000
	frame, err = Compute(mkBars(closes, volumes), DefaultConfig())
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	last = frame.Points[n-1]
	if last.IsBreakout == nil || *last.IsBreakout {
		t.Fatalf("expected no breakout without a volume spike, got %v", last.IsBreakout)
	}
}

func TestComputeBreakoutExcludesCurrentBar(t *testing.T) {
	// The current close is the running high of the whole series, but it
	// only counts as a breakout against the max of the prior window.
	n := 25
	closes := make([]float64, n)
	volumes := make([]float64, n)
	for i := range closes {
		closes[i] = 100 + float64(i)
		volumes[i] = 1_000_000
	}
	volumes[n-1] = 5_000_000

	frame, err := Compute(mkBars(closes, volumes), DefaultConfig())
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	last := frame.Points[n-1]
	if last.IsBreakout == nil || !*last.IsBreakout {
		t.Fatalf("rising close above every prior bar should break out, got %v", last.IsBreakout)
	}

	// Now pin the last close to exactly the prior max: not a breakout.
	closes[n-1] = closes[n-2]
	frame, err = Compute(mkBars(closes, volumes), DefaultConfig())
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	last = frame.Points[n-1]
	if last.IsBreakout == nil || *last.IsBreakout {
		t.Fatalf("close equal to prior max must not break out, got %v", last.IsBreakout)
	}
}

func TestComputeVolumeRatioIlliquid(t *testing.T) {
	closes := make([]float64, 25)
	volumes := make([]float64, 25)
	for i := range closes {
		closes[i] = 100 + float64(i%5)
	}
	frame, err := Compute(mkBars(closes, volumes), DefaultConfig())
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	last := frame.Points[len(frame.Points)-1]
	if last.VolumeRatio != nil {
		t.Fatalf("zero-volume window must leave the ratio undefined, got %v", *last.VolumeRatio)
	}
	if last.VolumeZScore != nil {
		t.Fatalf("zero-variance window must leave the z-score undefined, got %v", *last.VolumeZScore)
	}
	if last.IsUnusualVolume != nil {
		t.Fatalf("unusual volume must be undefined without a z-score")
	}
}

func TestComputeInsufficientData(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	_, err := Compute(mkBars(closes, nil), DefaultConfig())
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData for 20 bars, got %v", err)
	}
}

func TestComputeMalformedSeries(t *testing.T) {
	bars := mkBars(trending(30), nil)
	bars[10].Date = bars[9].Date
	if _, err := Compute(bars, DefaultConfig()); !errors.Is(err, ErrMalformedSeries) {
		t.Fatalf("expected ErrMalformedSeries for duplicate dates, got %v", err)
	}

	bars = mkBars(trending(30), nil)
	bars[5], bars[6] = bars[6], bars[5]
	if _, err := Compute(bars, DefaultConfig()); !errors.Is(err, ErrMalformedSeries) {
		t.Fatalf("expected ErrMalformedSeries for out-of-order dates, got %v", err)
	}

	if _, err := Compute(nil, DefaultConfig()); !errors.Is(err, ErrMalformedSeries) {
		t.Fatalf("expected ErrMalformedSeries for an empty series, got %v", err)
	}
}

func TestComputeInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SMAWindow = 1
	if _, err := Compute(mkBars(trending(30), nil), cfg); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}

	cfg = DefaultConfig()
	cfg.MACDFast = cfg.MACDSlow
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for fast >= slow, got %v", err)
	}
}

func TestMinBars(t *testing.T) {
	if got := DefaultConfig().MinBars(); got != 21 {
		t.Fatalf("default MinBars: got %d, want 21", got)
	}
	cfg := DefaultConfig()
	cfg.RSIPeriod = 30
	if got := cfg.MinBars(); got != 31 {
		t.Fatalf("MinBars with RSI(30): got %d, want 31", got)
	}
}

func trending(n int) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 100 + float64(i) + 3*math.Sin(float64(i)/3)
	}
	return closes
}
