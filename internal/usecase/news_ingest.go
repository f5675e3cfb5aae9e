package usecase

import (
	"context"
	"time"

	domrepo "HKPulse/internal/domain/repository"
	domsvc "HKPulse/internal/domain/service"
	"HKPulse/pkg/logger"
	"HKPulse/pkg/queue"
)

// NewsIngestor pulls recent headlines, runs them through the external
// classifier, and persists the resulting observations. Classification
// is all-or-nothing per symbol: a classifier failure stores nothing
// rather than fabricating neutral labels.
type NewsIngestor struct {
	provider   domsvc.HeadlineProvider
	classifier domsvc.SentimentClassifier
	store      domrepo.NewsStore
	log        *logger.Logger
	symbols    []string
	lookback   int
	interval   time.Duration
}

func NewNewsIngestor(provider domsvc.HeadlineProvider, classifier domsvc.SentimentClassifier, store domrepo.NewsStore, log *logger.Logger, symbols []string, lookbackDays int, interval time.Duration) *NewsIngestor {
	if interval <= 0 {
		interval = time.Hour
	}
	return &NewsIngestor{
		provider:   provider,
		classifier: classifier,
		store:      store,
		log:        log,
		symbols:    symbols,
		lookback:   domrepo.NormalizeLookbackDays(lookbackDays),
		interval:   interval,
	}
}

// Run ingests once immediately, then on every tick until ctx ends.
func (n *NewsIngestor) Run(ctx context.Context) {
	n.IngestAll(ctx)
	t := time.NewTicker(n.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n.IngestAll(ctx)
		}
	}
}

// IngestAll refreshes observations for every configured symbol.
func (n *NewsIngestor) IngestAll(ctx context.Context) {
	for _, sym := range n.symbols {
		if err := n.IngestSymbol(ctx, sym); err != nil {
			n.log.Warn("news ingest failed",
				logger.String("symbol", sym),
				logger.Error(err))
		}
		if ctx.Err() != nil {
			return
		}
	}
}

// RunQueued publishes one refresh job per symbol on every tick instead
// of ingesting inline. Workers consuming the queue call IngestSymbol,
// spreading the classifier load across processes.
func (n *NewsIngestor) RunQueued(ctx context.Context, pub queue.QueueService) {
	n.enqueueAll(ctx, pub)
	t := time.NewTicker(n.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n.enqueueAll(ctx, pub)
		}
	}
}

func (n *NewsIngestor) enqueueAll(ctx context.Context, pub queue.QueueService) {
	for _, sym := range n.symbols {
		if err := pub.PublishMessage(ctx, NewsIngestType, NewsIngestPayload{Symbol: sym}); err != nil {
			n.log.Warn("news ingest enqueue failed",
				logger.String("symbol", sym),
				logger.Error(err))
		}
	}
}

// NewsIngestType is the queue message type for per-symbol refreshes.
const NewsIngestType = "news.ingest.symbol"

// NewsIngestPayload is the queue message for one symbol refresh.
type NewsIngestPayload struct {
	Symbol string `json:"symbol"`
}

// NewsIngestJob adapts the ingestor to the queue job interface.
type NewsIngestJob struct {
	ingestor *NewsIngestor
}

func NewNewsIngestJob(ingestor *NewsIngestor) *NewsIngestJob {
	return &NewsIngestJob{ingestor: ingestor}
}

func (j *NewsIngestJob) Name() string { return "news_ingest" }
func (j *NewsIngestJob) Type() string { return NewsIngestType }

func (j *NewsIngestJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[NewsIngestPayload](payload)
	if err != nil {
		return err
	}
	return j.ingestor.IngestSymbol(ctx, p.Symbol)
}

var _ queue.Job = (*NewsIngestJob)(nil)

// IngestSymbol fetches, classifies and stores headlines for one
// symbol. No headlines is not an error; silence is a valid state.
func (n *NewsIngestor) IngestSymbol(ctx context.Context, symbol string) error {
	to := time.Now().UTC()
	from := to.AddDate(0, 0, -n.lookback)

	headlines, err := n.provider.FetchHeadlines(ctx, symbol, from, to)
	if err != nil {
		return err
	}
	if len(headlines) == 0 {
		return nil
	}

	obs, err := n.classifier.Classify(ctx, headlines)
	if err != nil {
		return err
	}
	if err := n.store.StoreObservations(ctx, obs); err != nil {
		return err
	}
	n.log.Info("headlines classified",
		logger.String("symbol", symbol),
		logger.Int("count", len(obs)))
	return nil
}
