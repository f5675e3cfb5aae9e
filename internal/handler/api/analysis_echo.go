package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	models "HKPulse/internal/domain/models"
	domrepo "HKPulse/internal/domain/repository"
	icache "HKPulse/internal/service/cache"
	"HKPulse/internal/service/metrics"
	"HKPulse/internal/service/ratelimit"
	"HKPulse/internal/services/indicators"
	"HKPulse/internal/services/sentiment"
	"HKPulse/internal/usecase"
	pkgcache "HKPulse/pkg/cache"
	xhttp "HKPulse/pkg/http"
	xlogger "HKPulse/pkg/logger"
	"HKPulse/pkg/util"

	"github.com/labstack/echo/v4"
)

// AnalysisEchoHandler exposes the analysis pipeline over HTTP.
type AnalysisEchoHandler struct {
	logger   *xlogger.Logger
	series   *usecase.SeriesUseCase
	analysis *usecase.AnalysisUseCase
	cache    icache.BytesCache
	rl       *ratelimit.Limiter
	symbols  []string // configured universe for /summary
}

func NewAnalysisEchoHandler(logger *xlogger.Logger, series *usecase.SeriesUseCase, analysis *usecase.AnalysisUseCase, symbols []string) *AnalysisEchoHandler {
	metrics.Register()
	return &AnalysisEchoHandler{
		logger:   logger,
		series:   series,
		analysis: analysis,
		rl:       ratelimit.New(),
		symbols:  symbols,
	}
}

// SetCache injects a response cache.
func (h *AnalysisEchoHandler) SetCache(c icache.BytesCache) { h.cache = c }

func (h *AnalysisEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/series", h.Series)
	g.GET("/indicators", h.Indicators)
	g.GET("/sentiment", h.Sentiment)
	g.GET("/risk", h.Risk)
	g.GET("/analysis", h.Analysis)
	g.GET("/summary", h.Summary)
}

func (h *AnalysisEchoHandler) Series(c echo.Context) error {
	start := time.Now()
	endpoint := "series"
	defer func() { metrics.AnalysisLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.SeriesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.rl.Allow(c.RealIP()+":series", 10, 5) {
		return rateLimited(c)
	}

	from, to := util.ParseTimeDefault(req.From, time.Time{}), util.ParseTimeDefault(req.To, time.Time{})
	if !from.IsZero() && !to.IsZero() {
		from, to = util.AlignFromTo(from, to, "1d")
	}
	res, err := h.series.GetSeries(c.Request().Context(), usecase.GetSeriesParams{
		Symbol: req.Symbol,
		From:   from,
		To:     to,
		Limit:  req.Limit,
	})
	if err != nil {
		metrics.AnalysisErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error("series usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, mapDomainError(err))
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *AnalysisEchoHandler) Indicators(c echo.Context) error {
	start := time.Now()
	endpoint := "indicators"
	defer func() { metrics.AnalysisLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.IndicatorsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.rl.Allow(c.RealIP()+":indicators", 10, 5) {
		return rateLimited(c)
	}

	cacheKey := pkgcache.GenerateKeyWithParams("indicators", req.Symbol, req.N)
	if b, ok := h.cacheGet(cacheKey); ok {
		return h.writeCached(c, endpoint, b)
	}

	res, err := h.analysis.Indicators(c.Request().Context(), req.Symbol, req.N)
	if err != nil {
		metrics.AnalysisErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error("indicators usecase error",
			xlogger.String("symbol", req.Symbol),
			xlogger.Error(err))
		return xhttp.AppErrorResponse(c, mapDomainError(err))
	}
	h.cacheSet(cacheKey, res, 60*time.Second)
	return xhttp.SuccessResponse(c, res)
}

func (h *AnalysisEchoHandler) Sentiment(c echo.Context) error {
	start := time.Now()
	endpoint := "sentiment"
	defer func() { metrics.AnalysisLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.SentimentRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.rl.Allow(c.RealIP()+":sentiment", 10, 5) {
		return rateLimited(c)
	}

	cacheKey := pkgcache.GenerateKeyWithParams("sentiment", req.Symbol, req.LookbackDays)
	if b, ok := h.cacheGet(cacheKey); ok {
		return h.writeCached(c, endpoint, b)
	}

	res, err := h.analysis.Sentiment(c.Request().Context(), req.Symbol, req.LookbackDays)
	if err != nil {
		metrics.AnalysisErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error("sentiment usecase error",
			xlogger.String("symbol", req.Symbol),
			xlogger.Error(err))
		return xhttp.AppErrorResponse(c, mapDomainError(err))
	}
	h.cacheSet(cacheKey, res, 5*time.Minute)
	return xhttp.SuccessResponse(c, res)
}

func (h *AnalysisEchoHandler) Risk(c echo.Context) error {
	start := time.Now()
	endpoint := "risk"
	defer func() { metrics.AnalysisLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.RiskRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.rl.Allow(c.RealIP()+":risk", 10, 5) {
		return rateLimited(c)
	}

	res, err := h.analysis.Risk(c.Request().Context(), req.Symbol, req.N)
	if err != nil {
		metrics.AnalysisErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error("risk usecase error",
			xlogger.String("symbol", req.Symbol),
			xlogger.Error(err))
		return xhttp.AppErrorResponse(c, mapDomainError(err))
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *AnalysisEchoHandler) Analysis(c echo.Context) error {
	start := time.Now()
	endpoint := "analysis"
	defer func() { metrics.AnalysisLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.AnalysisRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.rl.Allow(c.RealIP()+":analysis", 5, 2) {
		return rateLimited(c)
	}

	res, err := h.analysis.Analyze(c.Request().Context(), req.Symbol, req.N, req.Narrative)
	if err != nil {
		metrics.AnalysisErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error("analysis usecase error",
			xlogger.String("symbol", req.Symbol),
			xlogger.Error(err))
		return xhttp.AppErrorResponse(c, mapDomainError(err))
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *AnalysisEchoHandler) Summary(c echo.Context) error {
	start := time.Now()
	endpoint := "summary"
	defer func() { metrics.AnalysisLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	if !h.rl.Allow(c.RealIP()+":summary", 3, 1) {
		return rateLimited(c)
	}

	cacheKey := "summary"
	if b, ok := h.cacheGet(cacheKey); ok {
		return h.writeCached(c, endpoint, b)
	}

	res, err := h.analysis.Summary(c.Request().Context(), h.symbols, 0)
	if err != nil {
		metrics.AnalysisErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error("summary usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, mapDomainError(err))
	}
	h.cacheSet(cacheKey, res, 2*time.Minute)
	return xhttp.SuccessResponse(c, res)
}

func (h *AnalysisEchoHandler) cacheGet(key string) ([]byte, bool) {
	if h.cache == nil {
		return nil, false
	}
	b, ok, err := h.cache.GetBytes(key)
	if err != nil {
		h.logger.Warn("cache get error", xlogger.String("key", key), xlogger.Error(err))
		return nil, false
	}
	return b, ok
}

func (h *AnalysisEchoHandler) cacheSet(key string, v interface{}, ttl time.Duration) {
	if h.cache == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := h.cache.SetBytes(key, b, ttl); err != nil {
		h.logger.Warn("cache set error", xlogger.String("key", key), xlogger.Error(err))
	}
}

// writeCached replays a cached payload inside the standard envelope.
func (h *AnalysisEchoHandler) writeCached(c echo.Context, endpoint string, b []byte) error {
	var data interface{}
	if err := json.Unmarshal(b, &data); err != nil {
		h.logger.Warn("cache decode error", xlogger.String("endpoint", endpoint), xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=30")
	return xhttp.SuccessResponse(c, data)
}

func rateLimited(c echo.Context) error {
	return xhttp.DataResponse(c, http.StatusTooManyRequests, "rate limited")
}

// mapDomainError translates domain sentinels into typed API errors.
func mapDomainError(err error) error {
	switch {
	case errors.Is(err, indicators.ErrInsufficientData):
		return xhttp.NewAppError("ERR_INSUFFICIENT_DATA", "", "not enough history yet for this symbol", http.StatusUnprocessableEntity).WithError(err)
	case errors.Is(err, domrepo.ErrDataUnavailable):
		return xhttp.NotFoundError("no market data for this symbol").WithError(err)
	case errors.Is(err, indicators.ErrMalformedSeries):
		return xhttp.NewAppError("ERR_MALFORMED_SERIES", "", "stored series failed validation", http.StatusInternalServerError).WithError(err)
	case errors.Is(err, indicators.ErrInvalidConfig):
		return xhttp.InternalError("indicator configuration invalid").WithError(err)
	case errors.Is(err, sentiment.ErrInvalidLookback), errors.Is(err, sentiment.ErrMalformedObservation):
		return xhttp.BadRequestError(err.Error()).WithError(err)
	default:
		return err
	}
}
