package di

import (
	"context"
	"fmt"
	"time"

	"HKPulse/internal/domain/repository"
	mid "HKPulse/internal/middleware"
	internalrepo "HKPulse/internal/repository"
	"HKPulse/internal/service/marketdata"
	"HKPulse/internal/usecase"
	pkgch "HKPulse/pkg/clickhouse"
	"HKPulse/pkg/config"
	pkgkafka "HKPulse/pkg/kafka"
	"HKPulse/pkg/metrics"
	"HKPulse/pkg/server"
)

// ProvideClickHouseClient creates a ClickHouse client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	// Initialize schema
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS hkpulse",
		"CREATE TABLE IF NOT EXISTS hkpulse.rt_quotes_raw (ts DateTime, symbol String, price Float64, volume Float64, source String, event_id String, seq UInt64) ENGINE=ReplacingMergeTree ORDER BY (symbol, ts, event_id)",
		"CREATE TABLE IF NOT EXISTS hkpulse.daily_bars (date Date, symbol String, open Float64, high Float64, low Float64, close Float64, volume Float64) ENGINE=ReplacingMergeTree ORDER BY (symbol, date)",
		"CREATE TABLE IF NOT EXISTS hkpulse.news_sentiment (symbol String, published_at DateTime, label String, score Float64, headline String, source String) ENGINE=ReplacingMergeTree ORDER BY (symbol, published_at, headline)",
	}); err != nil {
		_ = client.Close() // cannot log here (DI layer no logger); propagate error
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	return producer, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideQuoteStorage creates ClickHouse storage repository.
func ProvideQuoteStorage(chClient *pkgch.Client, cfg *config.Config) repository.QuoteStorage {
	return internalrepo.NewClickHouseQuoteStorage(chClient.DB(), cfg.ClickHouse.Database+".rt_quotes_raw")
}

// ProvideQuotePublisher creates Kafka publisher repository.
func ProvideQuotePublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.QuotePublisher {
	return internalrepo.NewKafkaQuotePublisher(producer, cfg.Kafka.Topic)
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideKafkaQuotesHandler registers the handler for the quotes topic.
func ProvideKafkaQuotesHandler(store repository.QuoteStorage, metrics repository.Metrics, cfg *config.Config) *usecase.KafkaQuotesHandler {
	return usecase.NewKafkaQuotesHandler(cfg.Kafka.Topic, store, metrics)
}

// ProvideQuoteStream creates the vendor WebSocket stream.
func ProvideQuoteStream(cfg *config.Config) repository.QuoteStream {
	return marketdata.NewStream(
		cfg.MarketData.APIKey,
		cfg.MarketData.WebSocketURL,
		cfg.MarketData.Symbols,
		cfg.MarketData.ReconnectDelay,
		cfg.MarketData.PingInterval,
	)
}

// ProvideQuoteProcessor creates the quote processor use case.
func ProvideQuoteProcessor(
	pub repository.QuotePublisher,
	store repository.QuoteStorage,
	metrics repository.Metrics,
	cfg *config.Config,
) *usecase.QuoteProcessor {
	return usecase.NewQuoteProcessor(
		pub,
		store,
		metrics,
		cfg.Backend.Type,
		cfg.Backend.BatchSize,
		cfg.Backend.BatchTimeout,
	)
}

// ProvideQuoteCollector creates the quote collector use case.
func ProvideQuoteCollector(
	stream repository.QuoteStream,
	processor *usecase.QuoteProcessor,
	metrics repository.Metrics,
) *usecase.QuoteCollector {
	// Pipeline between WebSocket and the backend
	pipe := mid.NewIngestPipeline(processor, metrics,
		mid.WithMaxRPS(50),
		mid.WithBufferSize(2000),
	)
	return usecase.NewQuoteCollector(stream, processor, metrics, pipe)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	collector *usecase.QuoteCollector,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaQuotesHandler,
	chClient *pkgch.Client,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	app := server.New(cfg, collector, consumer, kh, chClient)
	// attach quote processor to app for closing resources via collector
	if collector != nil {
		app.QuoteProc = collector.Processor()
	}
	return app
}
