package service

import (
	"context"
	"time"

	"HKPulse/internal/domain/models"
)

// BarProvider fetches daily OHLCV history from the upstream market
// data vendor. Bars come back in ascending date order.
type BarProvider interface {
	FetchDailyBars(ctx context.Context, symbol string, from, to time.Time) ([]models.Bar, error)
}

// HeadlineProvider fetches recent company news for a symbol.
type HeadlineProvider interface {
	FetchHeadlines(ctx context.Context, symbol string, from, to time.Time) ([]Headline, error)
}
