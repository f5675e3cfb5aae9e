package repository

import (
	"context"
	"time"

	"HKPulse/internal/domain/models"
)

// QuoteStream is a live intraday feed of trade events for the
// configured symbols.
type QuoteStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Quote, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// QuotePublisher publishes quote events to the transport backend.
type QuotePublisher interface {
	Publish(ctx context.Context, q *models.Quote) error
	PublishBatch(ctx context.Context, quotes []*models.Quote) error
	Close() error
}

// QuoteStorage persists raw intraday quotes.
type QuoteStorage interface {
	Store(ctx context.Context, q *models.Quote) error
	StoreBatch(ctx context.Context, quotes []*models.Quote) error
	Query(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.Quote, error)
	Health(ctx context.Context) error
	Close() error
}

// Metrics records operational counters for ingestion and analysis.
type Metrics interface {
	RecordMessageSent(backend, symbol string)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
}
