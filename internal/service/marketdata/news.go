package marketdata

import (
	"context"
	"fmt"
	"time"

	domsvc "HKPulse/internal/domain/service"
	"HKPulse/internal/service/ratelimit"
	xhttp "HKPulse/pkg/http"
)

// NewsClient fetches company headlines from the vendor REST API.
// It shares the same rate limiter key space as BarClient.
type NewsClient struct {
	apiKey  string
	baseURL string
	client  *xhttp.Client
	limiter *ratelimit.Limiter
}

func NewNewsClient(apiKey, baseURL string, timeout time.Duration, limiter *ratelimit.Limiter) *NewsClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &NewsClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
		limiter: limiter,
	}
}

type newsItem struct {
	Headline string `json:"headline"`
	Summary  string `json:"summary"`
	Source   string `json:"source"`
	Datetime int64  `json:"datetime"` // unix seconds
}

func (c *NewsClient) FetchHeadlines(ctx context.Context, symbol string, from, to time.Time) ([]domsvc.Headline, error) {
	if c.limiter != nil {
		for !c.limiter.Allow("marketdata_rest", 30, 0.5) {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(200 * time.Millisecond):
			}
		}
	}

	var items []newsItem
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/company-news",
		QueryParams: map[string][]string{
			"symbol": {symbol},
			"from":   {from.Format("2006-01-02")},
			"to":     {to.Format("2006-01-02")},
			"token":  {c.apiKey},
		},
	}, &items)
	if err != nil {
		return nil, fmt.Errorf("fetch news %s: %w", symbol, err)
	}

	out := make([]domsvc.Headline, 0, len(items))
	for _, it := range items {
		if it.Headline == "" {
			continue
		}
		out = append(out, domsvc.Headline{
			Symbol:      symbol,
			Title:       it.Headline,
			Description: it.Summary,
			Source:      it.Source,
			PublishedAt: time.Unix(it.Datetime, 0).UTC().Format(time.RFC3339),
		})
	}
	return out, nil
}

var _ domsvc.HeadlineProvider = (*NewsClient)(nil)
