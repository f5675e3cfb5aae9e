package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	domrepo "HKPulse/internal/domain/repository"

	"HKPulse/internal/domain/models"
)

func TestGetSeriesDefaults(t *testing.T) {
	// The defaulted range ends at the current time, so the seeded bars
	// must trail it.
	bars := seedBars("0700.HK", 40)
	shift := time.Now().UTC().Sub(testAsOf)
	for i := range bars {
		bars[i].Date = bars[i].Date.Add(shift)
	}
	store := &fakeBarStore{bars: map[string][]models.Bar{"0700.HK": bars}}
	uc := NewSeriesUseCase(store)

	res, err := uc.GetSeries(context.Background(), GetSeriesParams{Symbol: "0700.HK"})
	if err != nil {
		t.Fatalf("get series: %v", err)
	}
	if res.Count != 40 || len(res.Bars) != 40 {
		t.Fatalf("count: got %d/%d, want 40", res.Count, len(res.Bars))
	}
	if res.From.IsZero() || res.To.IsZero() {
		t.Fatalf("defaulted range left zero times: %+v", res)
	}
}

func TestGetSeriesLimitKeepsMostRecent(t *testing.T) {
	bars := seedBars("0700.HK", 40)
	store := &fakeBarStore{bars: map[string][]models.Bar{"0700.HK": bars}}
	uc := NewSeriesUseCase(store)

	res, err := uc.GetSeries(context.Background(), GetSeriesParams{Symbol: "0700.HK", Limit: 10})
	if err != nil {
		t.Fatalf("get series: %v", err)
	}
	if res.Count != 10 {
		t.Fatalf("count: got %d, want 10", res.Count)
	}
	if !res.Bars[len(res.Bars)-1].Date.Equal(bars[len(bars)-1].Date) {
		t.Fatalf("truncation dropped the newest bar")
	}
	if !res.Bars[0].Date.Equal(bars[len(bars)-10].Date) {
		t.Fatalf("truncation kept the wrong tail")
	}
}

func TestGetSeriesValidation(t *testing.T) {
	uc := NewSeriesUseCase(&fakeBarStore{})

	if _, err := uc.GetSeries(context.Background(), GetSeriesParams{}); err == nil {
		t.Fatalf("expected an error for a missing symbol")
	}

	now := time.Now().UTC()
	_, err := uc.GetSeries(context.Background(), GetSeriesParams{
		Symbol: "0700.HK",
		From:   now,
		To:     now.AddDate(0, 0, -1),
	})
	if err == nil {
		t.Fatalf("expected an error for an inverted range")
	}
}

func TestGetSeriesUnknownSymbol(t *testing.T) {
	uc := NewSeriesUseCase(&fakeBarStore{})
	_, err := uc.GetSeries(context.Background(), GetSeriesParams{Symbol: "9999.HK"})
	if !errors.Is(err, domrepo.ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable, got %v", err)
	}
}
