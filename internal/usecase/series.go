package usecase

import (
	"context"
	"fmt"
	"time"

	"HKPulse/internal/domain/models"
	domrepo "HKPulse/internal/domain/repository"
)

// SeriesUseCase provides business logic for retrieving daily bars.
type SeriesUseCase struct {
	store domrepo.BarStore
}

func NewSeriesUseCase(store domrepo.BarStore) *SeriesUseCase {
	return &SeriesUseCase{store: store}
}

type GetSeriesParams struct {
	Symbol string
	From   time.Time
	To     time.Time
	Limit  int
}

type GetSeriesResult struct {
	Symbol string       `json:"symbol"`
	From   time.Time    `json:"from"`
	To     time.Time    `json:"to"`
	Count  int          `json:"count"`
	Bars   []models.Bar `json:"bars"`
}

func (uc *SeriesUseCase) GetSeries(ctx context.Context, p GetSeriesParams) (*GetSeriesResult, error) {
	if p.Symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	if p.To.IsZero() {
		p.To = time.Now().UTC()
	}
	if p.From.IsZero() {
		p.From = p.To.AddDate(-1, 0, 0)
	}
	if p.From.After(p.To) {
		return nil, fmt.Errorf("from must be <= to")
	}
	if p.Limit <= 0 {
		p.Limit = 500
	}
	if p.Limit > 5000 {
		p.Limit = 5000
	}

	bars, err := uc.store.GetSeries(ctx, p.Symbol, p.From, p.To)
	if err != nil {
		return nil, fmt.Errorf("get series: %w", err)
	}
	// Keep the most recent bars when over the limit.
	if len(bars) > p.Limit {
		bars = bars[len(bars)-p.Limit:]
	}

	return &GetSeriesResult{
		Symbol: p.Symbol,
		From:   p.From,
		To:     p.To,
		Count:  len(bars),
		Bars:   bars,
	}, nil
}
