package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"HKPulse/internal/domain/models"
	domrepo "HKPulse/internal/domain/repository"
	domsvc "HKPulse/internal/domain/service"
	"HKPulse/internal/services/indicators"
	"HKPulse/internal/services/risk"
	"HKPulse/internal/services/sentiment"
)

// AnalysisUseCase composes the per-symbol analysis: indicators over the
// bar history, the sentiment signal over stored observations, and the
// risk score on top of both.
type AnalysisUseCase struct {
	bars     domrepo.BarStore
	news     domrepo.NewsStore
	narrator domsvc.Narrator
	indCfg   indicators.Config
	riskCfg  risk.Config
	lookback int
	timeout  time.Duration
	now      func() time.Time
}

func NewAnalysisUseCase(bars domrepo.BarStore, news domrepo.NewsStore, narrator domsvc.Narrator, indCfg indicators.Config, riskCfg risk.Config, lookbackDays int) *AnalysisUseCase {
	return &AnalysisUseCase{
		bars:     bars,
		news:     news,
		narrator: narrator,
		indCfg:   indCfg,
		riskCfg:  riskCfg,
		lookback: domrepo.NormalizeLookbackDays(lookbackDays),
		timeout:  10 * time.Second,
		now:      time.Now,
	}
}

// Indicators computes the indicator frame over the latest n bars.
func (uc *AnalysisUseCase) Indicators(ctx context.Context, symbol string, n int) (*models.IndicatorFrame, error) {
	if symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	if n <= 0 {
		n = 120
	}
	bars, err := uc.bars.GetLatestNBars(ctx, symbol, n)
	if err != nil {
		return nil, fmt.Errorf("get bars: %w", err)
	}
	return indicators.Compute(bars, uc.indCfg)
}

// Sentiment aggregates stored observations into the current signal.
// A symbol with no recent news still gets a signal, at exactly zero.
func (uc *AnalysisUseCase) Sentiment(ctx context.Context, symbol string, lookbackDays int) (*models.SentimentSignal, error) {
	if symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	lookbackDays = domrepo.NormalizeLookbackDays(lookbackDays)
	asOf := uc.now().UTC()
	obs, err := uc.news.GetObservations(ctx, symbol, asOf.AddDate(0, 0, -lookbackDays), asOf)
	if err != nil {
		return nil, fmt.Errorf("get observations: %w", err)
	}
	return sentiment.Aggregate(symbol, asOf, lookbackDays, obs)
}

// Risk scores the symbol from the latest indicators and sentiment.
// A failed sentiment lookup degrades to the neutral contribution
// instead of failing the whole score.
func (uc *AnalysisUseCase) Risk(ctx context.Context, symbol string, n int) (*models.RiskScore, error) {
	if symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	if n <= 0 {
		n = 120
	}
	bars, err := uc.bars.GetLatestNBars(ctx, symbol, n)
	if err != nil {
		return nil, fmt.Errorf("get bars: %w", err)
	}
	frame, err := indicators.Compute(bars, uc.indCfg)
	if err != nil {
		return nil, err
	}
	sig, err := uc.Sentiment(ctx, symbol, uc.lookback)
	if err != nil {
		sig = nil
	}
	asOf := bars[len(bars)-1].Date
	return risk.Compose(symbol, asOf, bars, frame.Latest(), sig, uc.riskCfg)
}

// Analyze builds the full per-symbol report. Indicator and sentiment
// work runs concurrently; partial failures land in Errors rather than
// failing the report, but no bars at all is fatal.
func (uc *AnalysisUseCase) Analyze(ctx context.Context, symbol string, n int, withNarrative bool) (*models.StockReport, error) {
	if symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	if n <= 0 {
		n = 120
	}

	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	bars, err := uc.bars.GetLatestNBars(ctx, symbol, n)
	if err != nil {
		return nil, fmt.Errorf("get bars: %w", err)
	}
	if len(bars) == 0 {
		return nil, domrepo.ErrDataUnavailable
	}

	report := &models.StockReport{
		Symbol:    symbol,
		AsOf:      bars[len(bars)-1].Date,
		LastClose: bars[len(bars)-1].Close,
		Errors:    map[string]string{},
	}
	if len(bars) >= 2 && bars[len(bars)-2].Close != 0 {
		prev := bars[len(bars)-2].Close
		report.ChangePct = (report.LastClose - prev) / prev * 100
	}

	type item struct {
		name string
		val  interface{}
		err  error
	}
	ch := make(chan item, 2)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		frame, err := indicators.Compute(bars, uc.indCfg)
		ch <- item{"indicators", frame, err}
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		sig, err := uc.Sentiment(ctx, symbol, uc.lookback)
		ch <- item{"sentiment", sig, err}
	}()

	go func() { wg.Wait(); close(ch) }()

	for it := range ch {
		if it.err != nil {
			report.Errors[it.name] = it.err.Error()
			continue
		}
		switch it.name {
		case "indicators":
			report.Indicators = it.val.(*models.IndicatorFrame).Latest()
		case "sentiment":
			report.Sentiment = it.val.(*models.SentimentSignal)
		}
	}

	if report.Indicators != nil {
		score, err := risk.Compose(symbol, report.AsOf, bars, report.Indicators, report.Sentiment, uc.riskCfg)
		if err != nil {
			report.Errors["risk"] = err.Error()
		} else {
			report.Risk = score
		}
	} else if _, ok := report.Errors["indicators"]; !ok {
		report.Errors["risk"] = "no indicator point"
	}

	if withNarrative && uc.narrator != nil {
		// best effort: a narration outage never blocks the numbers
		if text, err := uc.narrator.Narrate(ctx, report); err != nil {
			report.Errors["narrative"] = err.Error()
		} else {
			report.Narrative = text
		}
	}

	if len(report.Errors) == 0 {
		report.Errors = nil
	}
	return report, nil
}

// Summary analyzes a universe of symbols concurrently and returns the
// reports sorted by symbol. Per-symbol failures are reported inline.
func (uc *AnalysisUseCase) Summary(ctx context.Context, symbols []string, n int) (*models.MarketSummary, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("no symbols configured")
	}

	reports := make([]models.StockReport, len(symbols))
	var wg sync.WaitGroup
	sem := make(chan struct{}, 8)

	for i, sym := range symbols {
		wg.Add(1)
		go func(i int, sym string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			rep, err := uc.Analyze(ctx, sym, n, false)
			if err != nil {
				reports[i] = models.StockReport{
					Symbol: sym,
					AsOf:   uc.now().UTC(),
					Errors: map[string]string{"analysis": err.Error()},
				}
				return
			}
			reports[i] = *rep
		}(i, sym)
	}
	wg.Wait()

	sort.Slice(reports, func(a, b int) bool { return reports[a].Symbol < reports[b].Symbol })
	return &models.MarketSummary{GeneratedAt: uc.now().UTC(), Reports: reports}, nil
}
