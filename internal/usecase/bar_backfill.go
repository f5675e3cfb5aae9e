package usecase

import (
	"context"
	"time"

	domrepo "HKPulse/internal/domain/repository"
	domsvc "HKPulse/internal/domain/service"
	"HKPulse/pkg/logger"
)

// BarBackfiller keeps the daily bar store current by pulling history
// from the vendor for each configured symbol. It is idempotent: the
// store deduplicates on (symbol, date), so re-fetching an overlapping
// range is safe.
type BarBackfiller struct {
	provider domsvc.BarProvider
	store    domrepo.BarStore
	log      *logger.Logger
	symbols  []string
	history  int // days to fetch when the store is empty
	interval time.Duration
}

func NewBarBackfiller(provider domsvc.BarProvider, store domrepo.BarStore, log *logger.Logger, symbols []string, historyDays int, interval time.Duration) *BarBackfiller {
	if historyDays <= 0 {
		historyDays = 365
	}
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	return &BarBackfiller{
		provider: provider,
		store:    store,
		log:      log,
		symbols:  symbols,
		history:  historyDays,
		interval: interval,
	}
}

// Run backfills once immediately, then on every tick until ctx ends.
func (b *BarBackfiller) Run(ctx context.Context) {
	b.BackfillAll(ctx)
	t := time.NewTicker(b.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			b.BackfillAll(ctx)
		}
	}
}

// BackfillAll refreshes every configured symbol. Per-symbol failures
// are logged and skipped so one bad symbol cannot starve the rest.
func (b *BarBackfiller) BackfillAll(ctx context.Context) {
	for _, sym := range b.symbols {
		if err := b.BackfillSymbol(ctx, sym); err != nil {
			b.log.Warn("bar backfill failed",
				logger.String("symbol", sym),
				logger.Error(err))
		}
		if ctx.Err() != nil {
			return
		}
	}
}

// BackfillSymbol fetches bars since the last stored date, or the full
// history window for a symbol the store has never seen.
func (b *BarBackfiller) BackfillSymbol(ctx context.Context, symbol string) error {
	to := time.Now().UTC()
	from := to.AddDate(0, 0, -b.history)

	// A few days of overlap catches late vendor restatements.
	if latest, err := b.store.GetLatestNBars(ctx, symbol, 1); err == nil && len(latest) > 0 {
		from = latest[0].Date.AddDate(0, 0, -3)
	}

	bars, err := b.provider.FetchDailyBars(ctx, symbol, from, to)
	if err != nil {
		return err
	}
	if len(bars) == 0 {
		return nil
	}
	if err := b.store.StoreBars(ctx, bars); err != nil {
		return err
	}
	b.log.Info("bars backfilled",
		logger.String("symbol", symbol),
		logger.Int("count", len(bars)))
	return nil
}
