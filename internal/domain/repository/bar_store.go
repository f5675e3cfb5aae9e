package repository

import (
	"context"
	"errors"
	"time"

	"HKPulse/internal/domain/models"
)

// ErrDataUnavailable is returned by stores when a symbol is unknown or
// a requested range holds no data. It is never silently converted into
// an empty series.
var ErrDataUnavailable = errors.New("market data unavailable")

// BarStore provides access to daily OHLCV bars for analysis.
// GetSeries returns bars in ascending date order and fails with
// ErrDataUnavailable when the symbol/range has nothing.
type BarStore interface {
	GetSeries(ctx context.Context, symbol string, from, to time.Time) ([]models.Bar, error)
	GetLatestNBars(ctx context.Context, symbol string, n int) ([]models.Bar, error)
	StoreBars(ctx context.Context, bars []models.Bar) error
}

// NewsStore provides access to classified sentiment observations.
// GetObservations may return an empty slice; "no news found" is not an
// error.
type NewsStore interface {
	GetObservations(ctx context.Context, symbol string, from, to time.Time) ([]models.SentimentObservation, error)
	StoreObservations(ctx context.Context, obs []models.SentimentObservation) error
}
