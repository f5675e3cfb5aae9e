package marketdata

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"HKPulse/internal/domain/models"
	domsvc "HKPulse/internal/domain/service"
	"HKPulse/internal/service/ratelimit"
	xhttp "HKPulse/pkg/http"
)

// BarClient fetches daily candles from the vendor REST API. Calls are
// rate limited with a token bucket so backfills stay inside the vendor
// quota.
type BarClient struct {
	apiKey  string
	baseURL string
	client  *xhttp.Client
	limiter *ratelimit.Limiter
	// bucket parameters shared across symbols
	capacity  float64
	refillQPS float64
}

func NewBarClient(apiKey, baseURL string, timeout time.Duration, limiter *ratelimit.Limiter) *BarClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &BarClient{
		apiKey:    apiKey,
		baseURL:   baseURL,
		client:    xhttp.NewClient(xhttp.WithTimeout(timeout)),
		limiter:   limiter,
		capacity:  30,
		refillQPS: 0.5,
	}
}

// vendor candle response: column-oriented arrays plus a status flag
type candleResp struct {
	Status string    `json:"s"`
	T      []int64   `json:"t"`
	O      []float64 `json:"o"`
	H      []float64 `json:"h"`
	L      []float64 `json:"l"`
	C      []float64 `json:"c"`
	V      []float64 `json:"v"`
}

func (c *BarClient) FetchDailyBars(ctx context.Context, symbol string, from, to time.Time) ([]models.Bar, error) {
	if err := c.waitForToken(ctx); err != nil {
		return nil, err
	}

	var cr candleResp
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/stock/candle",
		QueryParams: map[string][]string{
			"symbol":     {symbol},
			"resolution": {"D"},
			"from":       {strconv.FormatInt(from.Unix(), 10)},
			"to":         {strconv.FormatInt(to.Unix(), 10)},
			"token":      {c.apiKey},
		},
	}, &cr)
	if err != nil {
		return nil, fmt.Errorf("fetch candles %s: %w", symbol, err)
	}
	if cr.Status == "no_data" {
		return nil, nil
	}
	if cr.Status != "ok" {
		return nil, fmt.Errorf("fetch candles %s: status %q", symbol, cr.Status)
	}
	n := len(cr.T)
	if len(cr.O) != n || len(cr.H) != n || len(cr.L) != n || len(cr.C) != n || len(cr.V) != n {
		return nil, fmt.Errorf("fetch candles %s: ragged columns", symbol)
	}

	bars := make([]models.Bar, 0, n)
	for i := 0; i < n; i++ {
		bars = append(bars, models.Bar{
			Date:   time.Unix(cr.T[i], 0).UTC().Truncate(24 * time.Hour),
			Symbol: symbol,
			Open:   cr.O[i],
			High:   cr.H[i],
			Low:    cr.L[i],
			Close:  cr.C[i],
			Volume: cr.V[i],
		})
	}
	return bars, nil
}

// waitForToken blocks until the rate limiter admits one call.
func (c *BarClient) waitForToken(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	for !c.limiter.Allow("marketdata_rest", c.capacity, c.refillQPS) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(200 * time.Millisecond):
		}
	}
	return nil
}

var _ domsvc.BarProvider = (*BarClient)(nil)
