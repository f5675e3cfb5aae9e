package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"HKPulse/internal/domain/models"
	domrepo "HKPulse/internal/domain/repository"
	pkgch "HKPulse/pkg/clickhouse"
)

const newsTable = "hkpulse.news_sentiment"

// CHNewsStore implements NewsStore backed by ClickHouse. An empty
// result is returned as-is; a symbol without news is a valid state,
// not an error.
type CHNewsStore struct {
	db *sql.DB
}

func NewCHNewsStore(ch *pkgch.Client) *CHNewsStore {
	return &CHNewsStore{db: ch.DB()}
}

func (s *CHNewsStore) GetObservations(ctx context.Context, symbol string, from, to time.Time) ([]models.SentimentObservation, error) {
	const q = `
        SELECT symbol, published_at, label, score, headline, source
        FROM ` + newsTable + ` FINAL
        WHERE symbol = ? AND published_at > ? AND published_at <= ?
        ORDER BY published_at DESC
    `
	rows, err := s.db.QueryContext(ctx, q, symbol, from, to)
	if err != nil {
		return nil, fmt.Errorf("get observations: %w", err)
	}
	defer rows.Close()

	out := make([]models.SentimentObservation, 0, 64)
	for rows.Next() {
		var o models.SentimentObservation
		var label string
		if err := rows.Scan(&o.Symbol, &o.PublishedAt, &label, &o.Score, &o.Headline, &o.Source); err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		o.Label = models.SentimentLabel(label)
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (s *CHNewsStore) StoreObservations(ctx context.Context, obs []models.SentimentObservation) error {
	if len(obs) == 0 {
		return nil
	}
	values := make([]string, 0, len(obs))
	args := make([]interface{}, 0, len(obs)*6)
	for _, o := range obs {
		if o.Symbol == "" || o.PublishedAt.IsZero() {
			continue
		}
		values = append(values, "(?, ?, ?, ?, ?, ?)")
		args = append(args, o.Symbol, o.PublishedAt, string(o.Label), o.Score, o.Headline, o.Source)
	}
	if len(values) == 0 {
		return nil
	}
	q := fmt.Sprintf("INSERT INTO %s (symbol, published_at, label, score, headline, source) VALUES %s",
		newsTable, strings.Join(values, ","))
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("store observations: %w", err)
	}
	return nil
}

var _ domrepo.NewsStore = (*CHNewsStore)(nil)
