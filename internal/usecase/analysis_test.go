package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"testing"
	"time"

	"HKPulse/internal/domain/models"
	domrepo "HKPulse/internal/domain/repository"
	"HKPulse/internal/services/indicators"
	"HKPulse/internal/services/risk"
)

type fakeBarStore struct {
	bars map[string][]models.Bar
	err  error
}

func (f *fakeBarStore) GetSeries(ctx context.Context, symbol string, from, to time.Time) ([]models.Bar, error) {
	if f.err != nil {
		return nil, f.err
	}
	bars, ok := f.bars[symbol]
	if !ok || len(bars) == 0 {
		return nil, domrepo.ErrDataUnavailable
	}
	out := make([]models.Bar, 0, len(bars))
	for _, b := range bars {
		if !b.Date.Before(from) && !b.Date.After(to) {
			out = append(out, b)
		}
	}
	if len(out) == 0 {
		return nil, domrepo.ErrDataUnavailable
	}
	return out, nil
}

func (f *fakeBarStore) GetLatestNBars(ctx context.Context, symbol string, n int) ([]models.Bar, error) {
	if f.err != nil {
		return nil, f.err
	}
	bars, ok := f.bars[symbol]
	if !ok || len(bars) == 0 {
		return nil, domrepo.ErrDataUnavailable
	}
	if len(bars) > n {
		bars = bars[len(bars)-n:]
	}
	return bars, nil
}

func (f *fakeBarStore) StoreBars(ctx context.Context, bars []models.Bar) error {
	if f.bars == nil {
		f.bars = map[string][]models.Bar{}
	}
	for _, b := range bars {
		f.bars[b.Symbol] = append(f.bars[b.Symbol], b)
	}
	return nil
}

type fakeNewsStore struct {
	obs map[string][]models.SentimentObservation
	err error
}

func (f *fakeNewsStore) GetObservations(ctx context.Context, symbol string, from, to time.Time) ([]models.SentimentObservation, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.obs[symbol], nil
}

func (f *fakeNewsStore) StoreObservations(ctx context.Context, obs []models.SentimentObservation) error {
	if f.obs == nil {
		f.obs = map[string][]models.SentimentObservation{}
	}
	for _, o := range obs {
		f.obs[o.Symbol] = append(f.obs[o.Symbol], o)
	}
	return nil
}

type fakeNarrator struct {
	text string
	err  error
}

func (f *fakeNarrator) Narrate(ctx context.Context, report *models.StockReport) (string, error) {
	return f.text, f.err
}

var testAsOf = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func seedBars(symbol string, n int) []models.Bar {
	bars := make([]models.Bar, n)
	start := testAsOf.AddDate(0, 0, -n)
	for i := range bars {
		c := 100 + float64(i) + 4*math.Sin(float64(i)/3)
		bars[i] = models.Bar{
			Date:   start.AddDate(0, 0, i+1),
			Symbol: symbol,
			Open:   c, High: c * 1.02, Low: c * 0.98, Close: c,
			Volume: 1_000_000 + 100_000*float64(i%7),
		}
	}
	return bars
}

func newTestUseCase(bars *fakeBarStore, news *fakeNewsStore, narrator *fakeNarrator) *AnalysisUseCase {
	var n domsvcNarrator
	if narrator != nil {
		n = narrator
	}
	uc := NewAnalysisUseCase(bars, news, n, indicators.DefaultConfig(), risk.DefaultConfig(), 7)
	uc.now = func() time.Time { return testAsOf }
	return uc
}

// domsvcNarrator matches domain/service.Narrator so a nil fake stays a
// nil interface.
type domsvcNarrator interface {
	Narrate(ctx context.Context, report *models.StockReport) (string, error)
}

func TestIndicatorsHappyPath(t *testing.T) {
	bars := &fakeBarStore{bars: map[string][]models.Bar{"0700.HK": seedBars("0700.HK", 60)}}
	uc := newTestUseCase(bars, &fakeNewsStore{}, nil)

	frame, err := uc.Indicators(context.Background(), "0700.HK", 0)
	if err != nil {
		t.Fatalf("indicators: %v", err)
	}
	if len(frame.Points) != 60 {
		t.Fatalf("expected 60 points, got %d", len(frame.Points))
	}
	if frame.Latest() == nil || frame.Latest().SMA == nil {
		t.Fatalf("latest point should have a full SMA window")
	}
}

func TestIndicatorsShortHistory(t *testing.T) {
	bars := &fakeBarStore{bars: map[string][]models.Bar{"0700.HK": seedBars("0700.HK", 10)}}
	uc := newTestUseCase(bars, &fakeNewsStore{}, nil)

	_, err := uc.Indicators(context.Background(), "0700.HK", 0)
	if !errors.Is(err, indicators.ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestSentimentNoNewsIsNeutral(t *testing.T) {
	uc := newTestUseCase(&fakeBarStore{}, &fakeNewsStore{}, nil)

	sig, err := uc.Sentiment(context.Background(), "0005.HK", 0)
	if err != nil {
		t.Fatalf("sentiment: %v", err)
	}
	if sig.Value != 0 || sig.Trend != "stable" || sig.NewsCount != 0 {
		t.Fatalf("no-news signal: %+v", sig)
	}
}

func TestRiskDegradesOnSentimentFailure(t *testing.T) {
	bars := &fakeBarStore{bars: map[string][]models.Bar{"0700.HK": seedBars("0700.HK", 60)}}
	news := &fakeNewsStore{err: fmt.Errorf("store down")}
	uc := newTestUseCase(bars, news, nil)

	score, err := uc.Risk(context.Background(), "0700.HK", 0)
	if err != nil {
		t.Fatalf("risk: %v", err)
	}
	if score.Composite < 0 || score.Composite > 1 {
		t.Fatalf("composite out of bounds: %v", score.Composite)
	}
	// Sentiment degraded to neutral, still present in the breakdown.
	if !score.Sentiment.Present {
		t.Fatalf("sentiment sub-score should stay present: %+v", score.Sentiment)
	}
	if !floatsClose(score.Sentiment.Value, 0.5) {
		t.Fatalf("degraded sentiment sub-score: got %v, want 0.5", score.Sentiment.Value)
	}
}

func TestAnalyzeFullReport(t *testing.T) {
	symbol := "0700.HK"
	bars := &fakeBarStore{bars: map[string][]models.Bar{symbol: seedBars(symbol, 60)}}
	news := &fakeNewsStore{obs: map[string][]models.SentimentObservation{
		symbol: {
			{Symbol: symbol, PublishedAt: testAsOf.Add(-2 * time.Hour), Label: models.SentimentPositive, Score: 0.9},
			{Symbol: symbol, PublishedAt: testAsOf.AddDate(0, 0, -2), Label: models.SentimentNegative, Score: 0.4},
		},
	}}
	uc := newTestUseCase(bars, news, &fakeNarrator{text: "steady uptrend on rising volume"})

	rep, err := uc.Analyze(context.Background(), symbol, 0, true)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if rep.Symbol != symbol {
		t.Fatalf("symbol: got %q", rep.Symbol)
	}
	if rep.Indicators == nil || rep.Sentiment == nil || rep.Risk == nil {
		t.Fatalf("incomplete report: %+v", rep)
	}
	if rep.Sentiment.NewsCount != 2 {
		t.Fatalf("news count: got %d, want 2", rep.Sentiment.NewsCount)
	}
	if rep.Narrative != "steady uptrend on rising volume" {
		t.Fatalf("narrative: got %q", rep.Narrative)
	}
	if rep.Errors != nil {
		t.Fatalf("unexpected errors: %v", rep.Errors)
	}
	last := bars.bars[symbol][len(bars.bars[symbol])-1]
	if rep.AsOf != last.Date || rep.LastClose != last.Close {
		t.Fatalf("as-of header mismatch: %+v", rep)
	}
	if rep.ChangePct == 0 {
		t.Fatalf("expected a non-zero day change")
	}
}

func TestAnalyzePartialFailure(t *testing.T) {
	symbol := "0700.HK"
	bars := &fakeBarStore{bars: map[string][]models.Bar{symbol: seedBars(symbol, 60)}}
	news := &fakeNewsStore{err: fmt.Errorf("observations offline")}
	uc := newTestUseCase(bars, news, nil)

	rep, err := uc.Analyze(context.Background(), symbol, 0, false)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if rep.Indicators == nil {
		t.Fatalf("indicators should survive a sentiment outage")
	}
	if rep.Sentiment != nil {
		t.Fatalf("sentiment should be absent, got %+v", rep.Sentiment)
	}
	if rep.Errors["sentiment"] == "" {
		t.Fatalf("expected a sentiment error entry, got %v", rep.Errors)
	}
	// Risk still composes with the neutral sentiment contribution.
	if rep.Risk == nil {
		t.Fatalf("risk should still compose: %v", rep.Errors)
	}
}

func TestAnalyzeNarrationOutageIsNonFatal(t *testing.T) {
	symbol := "0700.HK"
	bars := &fakeBarStore{bars: map[string][]models.Bar{symbol: seedBars(symbol, 60)}}
	uc := newTestUseCase(bars, &fakeNewsStore{}, &fakeNarrator{err: fmt.Errorf("model timeout")})

	rep, err := uc.Analyze(context.Background(), symbol, 0, true)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if rep.Narrative != "" {
		t.Fatalf("narrative should be empty on outage, got %q", rep.Narrative)
	}
	if rep.Errors["narrative"] == "" {
		t.Fatalf("expected a narrative error entry, got %v", rep.Errors)
	}
	if rep.Risk == nil {
		t.Fatalf("numbers must survive a narration outage")
	}
}

func TestAnalyzeUnknownSymbol(t *testing.T) {
	uc := newTestUseCase(&fakeBarStore{}, &fakeNewsStore{}, nil)

	_, err := uc.Analyze(context.Background(), "9999.HK", 0, false)
	if !errors.Is(err, domrepo.ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable, got %v", err)
	}
}

func TestAnalyzeIdempotent(t *testing.T) {
	symbol := "0700.HK"
	bars := &fakeBarStore{bars: map[string][]models.Bar{symbol: seedBars(symbol, 60)}}
	uc := newTestUseCase(bars, &fakeNewsStore{}, nil)

	a, err := uc.Analyze(context.Background(), symbol, 0, false)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	b, err := uc.Analyze(context.Background(), symbol, 0, false)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if a.Risk.Composite != b.Risk.Composite || *a.Indicators.SMA != *b.Indicators.SMA {
		t.Fatalf("same inputs produced different outputs")
	}
}

func TestSummaryOrderingAndInlineFailures(t *testing.T) {
	good := seedBars("0700.HK", 60)
	also := seedBars("0005.HK", 60)
	bars := &fakeBarStore{bars: map[string][]models.Bar{
		"0700.HK": good,
		"0005.HK": also,
	}}
	uc := newTestUseCase(bars, &fakeNewsStore{}, nil)

	sum, err := uc.Summary(context.Background(), []string{"0700.HK", "9999.HK", "0005.HK"}, 0)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if len(sum.Reports) != 3 {
		t.Fatalf("expected 3 reports, got %d", len(sum.Reports))
	}
	if !sort.SliceIsSorted(sum.Reports, func(a, b int) bool {
		return sum.Reports[a].Symbol < sum.Reports[b].Symbol
	}) {
		t.Fatalf("reports not sorted by symbol: %v", symbolsOf(sum.Reports))
	}
	for _, r := range sum.Reports {
		if r.Symbol == "9999.HK" {
			if r.Errors["analysis"] == "" {
				t.Fatalf("expected inline failure for unknown symbol")
			}
			continue
		}
		if r.Risk == nil {
			t.Fatalf("%s: expected a composed risk score", r.Symbol)
		}
	}
}

func TestSummaryEmptyUniverse(t *testing.T) {
	uc := newTestUseCase(&fakeBarStore{}, &fakeNewsStore{}, nil)
	if _, err := uc.Summary(context.Background(), nil, 0); err == nil {
		t.Fatalf("expected an error for an empty universe")
	}
}

func symbolsOf(reports []models.StockReport) []string {
	out := make([]string, len(reports))
	for i, r := range reports {
		out[i] = r.Symbol
	}
	return out
}

func floatsClose(a, b float64) bool { return math.Abs(a-b) < 1e-9 }
