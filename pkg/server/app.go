package server

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"HKPulse/internal/handler/api"
	"HKPulse/internal/repository"
	icache "HKPulse/internal/service/cache"
	"HKPulse/internal/service/marketdata"
	"HKPulse/internal/service/ratelimit"
	analytics "HKPulse/internal/services/analytics"
	"HKPulse/internal/services/indicators"
	"HKPulse/internal/services/risk"
	"HKPulse/internal/usecase"
	pkgch "HKPulse/pkg/clickhouse"
	"HKPulse/pkg/config"
	xhttp "HKPulse/pkg/http"
	pkgkafka "HKPulse/pkg/kafka"
	applogger "HKPulse/pkg/logger"
	"HKPulse/pkg/queue"

	"github.com/redis/go-redis/v9"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	collector   *usecase.QuoteCollector
	consumer    *pkgkafka.Consumer
	kh          pkgkafka.MessageHandler
	chClient    *pkgch.Client
	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
	newsQueue   *queue.RedisQueue
	QuoteProc   *usecase.QuoteProcessor
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	collector *usecase.QuoteCollector,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	chClient *pkgch.Client,
) *App {
	return &App{
		cfg:       cfg,
		collector: collector,
		consumer:  consumer,
		kh:        kh,
		chClient:  chClient,
	}
}

// SetHTTPHandler allows DI to inject an HTTP handler.
func (a *App) SetHTTPHandler(h xhttp.Handler) { a.httpHandler = h }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// init app logger (console info by default)
	l, _ := applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})

	limiter := ratelimit.New()

	// Setup Echo HTTP server and register routes via handler
	var httpHandler xhttp.Handler
	if a.httpHandler != nil {
		httpHandler = a.httpHandler
	} else if a.chClient != nil {
		barStore := repository.NewCHBarStore(a.chClient)
		barStore.SetLogger(l)
		newsStore := repository.NewCHNewsStore(a.chClient)
		narrator := analytics.NewHTTPNarrator(a.cfg)

		indCfg := a.indicatorConfig()
		riskCfg := a.riskConfig()

		seriesUC := usecase.NewSeriesUseCase(barStore)
		analysisUC := usecase.NewAnalysisUseCase(barStore, newsStore, narrator, indCfg, riskCfg, a.cfg.Analysis.SentimentLookbackDays)

		h := api.NewAnalysisEchoHandler(l, seriesUC, analysisUC, a.cfg.MarketData.Symbols)
		if a.cfg.Analysis.Redis.Enabled {
			rc, err := icache.NewRedisCache(icache.RedisConfig{
				Addr:     a.cfg.Analysis.Redis.Addr,
				Password: a.cfg.Analysis.Redis.Password,
				DB:       a.cfg.Analysis.Redis.DB,
			})
			if err != nil {
				l.Warn("redis cache unavailable, using in-memory", applogger.Error(err))
				h.SetCache(icache.NewTTLCache())
			} else {
				h.SetCache(rc)
			}
		} else {
			h.SetCache(icache.NewTTLCache())
		}
		httpHandler = h

		// Background pollers: daily bar backfill and news ingestion.
		bars := marketdata.NewBarClient(a.cfg.MarketData.APIKey, a.cfg.MarketData.RestURL, a.cfg.MarketData.RequestTimeout, limiter)
		backfiller := usecase.NewBarBackfiller(bars, barStore, l, a.cfg.MarketData.Symbols, a.cfg.MarketData.BackfillDays, a.cfg.MarketData.BackfillEvery)
		go backfiller.Run(ctx)
		l.Info("bar backfiller started", applogger.Int("symbols", len(a.cfg.MarketData.Symbols)))

		if a.cfg.ModelService.URL != "" {
			news := marketdata.NewNewsClient(a.cfg.MarketData.APIKey, a.cfg.MarketData.RestURL, a.cfg.MarketData.RequestTimeout, limiter)
			classifier := analytics.NewHTTPSentimentClassifier(a.cfg)
			ingestor := usecase.NewNewsIngestor(news, classifier, newsStore, l, a.cfg.MarketData.Symbols, a.cfg.Analysis.SentimentLookbackDays, a.cfg.MarketData.NewsIngestEvery)

			if a.cfg.Analysis.Redis.Enabled {
				// Queue-backed ingest: the scheduler enqueues per-symbol
				// jobs and redis workers fan them out.
				rdb := redis.NewClient(&redis.Options{
					Addr:     a.cfg.Analysis.Redis.Addr,
					Password: a.cfg.Analysis.Redis.Password,
					DB:       a.cfg.Analysis.Redis.DB,
				})
				worker := queue.NewRedisConsumer(l, &queue.QueueConfig{Workers: 2, RetryLimit: 3}, rdb,
					[]queue.Job{usecase.NewNewsIngestJob(ingestor)})
				if err := worker.Start(); err != nil {
					l.Error("news queue start error", applogger.Error(err))
					go ingestor.Run(ctx)
				} else {
					a.newsQueue = worker
					publisher := queue.NewRedisPublisher(l, rdb)
					go ingestor.RunQueued(ctx, publisher)
				}
			} else {
				go ingestor.Run(ctx)
			}
			l.Info("news ingestor started")
		}
	}

	a.httpServer = xhttp.NewServer(httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	// Start collector
	if a.collector != nil {
		go func() {
			if err := a.collector.Start(ctx); err != nil {
				l.Error("collector error", applogger.Error(err))
			}
		}()
		l.Info("collector started", applogger.Strings("symbols", a.cfg.MarketData.Symbols))
	}

	// Start consumer if configured
	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		l.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	// Start HTTP server
	if err := a.httpServer.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		return err
	}

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

func (a *App) indicatorConfig() indicators.Config {
	cfg := indicators.DefaultConfig()
	if a.cfg.Analysis.SMAWindow > 0 {
		cfg.SMAWindow = a.cfg.Analysis.SMAWindow
	}
	if a.cfg.Analysis.RSIPeriod > 0 {
		cfg.RSIPeriod = a.cfg.Analysis.RSIPeriod
	}
	if a.cfg.Analysis.VolumeWindow > 0 {
		cfg.VolumeWindow = a.cfg.Analysis.VolumeWindow
	}
	if a.cfg.Analysis.BreakoutVolumeMultiplier > 0 {
		cfg.BreakoutVolumeMultiplier = a.cfg.Analysis.BreakoutVolumeMultiplier
	}
	if a.cfg.Analysis.UnusualVolumeThreshold > 0 {
		cfg.UnusualVolumeThreshold = a.cfg.Analysis.UnusualVolumeThreshold
	}
	return cfg
}

func (a *App) riskConfig() risk.Config {
	cfg := risk.DefaultConfig()
	w := a.cfg.Analysis.RiskWeights
	if w.Volatility+w.Sentiment+w.Volume+w.Technical > 0 {
		cfg.Weights = risk.Weights{
			Volatility: w.Volatility,
			Sentiment:  w.Sentiment,
			Volume:     w.Volume,
			Technical:  w.Technical,
		}
	}
	return cfg
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	l, err := applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})
	if err != nil {
		log.Printf("failed to create logger: %v", err)
		return err
	}
	l.Info("shutting down...")

	// Stop collector (pipeline + stream)
	if a.collector != nil {
		if err := a.collector.Shutdown(ctx); err != nil {
			l.Warn("collector stop error", applogger.Error(err))
		}
	}

	// Shutdown HTTP server
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		l.Error("http shutdown error", applogger.Error(err))
	}

	// Close infrastructure clients
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	// Stop consumer
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	// Stop news queue workers
	if a.newsQueue != nil {
		if err := a.newsQueue.Stop(shutdownCtx); err != nil {
			l.Warn("news queue stop error", applogger.Error(err))
		}
	}

	// Close quote processor resources (publisher/storage)
	if a.QuoteProc != nil {
		a.QuoteProc.Close()
	}

	l.Info("shutdown complete")
	return nil
}
