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
	applogger "HKPulse/pkg/logger"
)

const barTable = "hkpulse.daily_bars"

// CHBarStore implements BarStore backed by ClickHouse. The table is a
// ReplacingMergeTree keyed on (symbol, date), so re-inserting the same
// bar is a harmless overwrite.
type CHBarStore struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHBarStore(ch *pkgch.Client) *CHBarStore {
	return &CHBarStore{db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHBarStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHBarStore) GetSeries(ctx context.Context, symbol string, from, to time.Time) ([]models.Bar, error) {
	start := time.Now()
	const q = `
        SELECT date, symbol, open, high, low, close, volume
        FROM ` + barTable + ` FINAL
        WHERE symbol = ? AND date >= ? AND date <= ?
        ORDER BY date ASC
    `
	rows, err := s.db.QueryContext(ctx, q, symbol, from, to)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse get_series query error",
				applogger.String("symbol", symbol),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("get series: %w", err)
	}
	defer rows.Close()

	out := make([]models.Bar, 0, 512)
	for rows.Next() {
		var b models.Bar
		if err := rows.Scan(&b.Date, &b.Symbol, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if len(out) == 0 {
		return nil, domrepo.ErrDataUnavailable
	}
	if s.l != nil {
		s.l.Info("clickhouse get_series ok",
			applogger.String("symbol", symbol),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

func (s *CHBarStore) GetLatestNBars(ctx context.Context, symbol string, n int) ([]models.Bar, error) {
	start := time.Now()
	const q = `
        SELECT date, symbol, open, high, low, close, volume
        FROM ` + barTable + ` FINAL
        WHERE symbol = ?
        ORDER BY date DESC
        LIMIT ?
    `
	rows, err := s.db.QueryContext(ctx, q, symbol, n)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse latest_bars query error",
				applogger.String("symbol", symbol),
				applogger.Int("limit", n),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("get latest bars: %w", err)
	}
	defer rows.Close()

	tmp := make([]models.Bar, 0, n)
	for rows.Next() {
		var b models.Bar
		if err := rows.Scan(&b.Date, &b.Symbol, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		tmp = append(tmp, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if len(tmp) == 0 {
		return nil, domrepo.ErrDataUnavailable
	}
	// reverse to ASC
	for i, j := 0, len(tmp)-1; i < j; i, j = i+1, j-1 {
		tmp[i], tmp[j] = tmp[j], tmp[i]
	}
	if s.l != nil {
		s.l.Info("clickhouse latest_bars ok",
			applogger.String("symbol", symbol),
			applogger.Int("limit", n),
			applogger.Int("rows", len(tmp)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return tmp, nil
}

func (s *CHBarStore) StoreBars(ctx context.Context, bars []models.Bar) error {
	if len(bars) == 0 {
		return nil
	}
	const chunkSize = 2000
	for start := 0; start < len(bars); start += chunkSize {
		end := start + chunkSize
		if end > len(bars) {
			end = len(bars)
		}
		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*7)
		for _, b := range bars[start:end] {
			if b.Symbol == "" || b.Date.IsZero() {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?)")
			args = append(args, b.Date, b.Symbol, b.Open, b.High, b.Low, b.Close, b.Volume)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (date, symbol, open, high, low, close, volume) VALUES %s",
			barTable, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("store bars: %w", err)
		}
	}
	return nil
}

var _ domrepo.BarStore = (*CHBarStore)(nil)
