package indicators

import (
	"fmt"
	"math"

	"HKPulse/internal/domain/models"
)

// Config holds the indicator window parameters. All rolling
// computations use only bars at or before the evaluation index.
type Config struct {
	SMAWindow                int     `yaml:"sma_window" default:"20" validate:"gte=2"`
	RSIPeriod                int     `yaml:"rsi_period" default:"14" validate:"gte=2"`
	VolumeWindow             int     `yaml:"volume_window" default:"20" validate:"gte=2"`
	BreakoutVolumeMultiplier float64 `yaml:"breakout_volume_multiplier" default:"1.5" validate:"gt=0"`
	UnusualVolumeThreshold   float64 `yaml:"unusual_volume_threshold" default:"2.0" validate:"gt=0"`
	MACDFast                 int     `yaml:"macd_fast" default:"12" validate:"gte=2"`
	MACDSlow                 int     `yaml:"macd_slow" default:"26" validate:"gte=2"`
	MACDSignal               int     `yaml:"macd_signal" default:"9" validate:"gte=2"`
	BollingerWindow          int     `yaml:"bollinger_window" default:"20" validate:"gte=2"`
	BollingerWidth           float64 `yaml:"bollinger_width" default:"2.0" validate:"gt=0"`
}

// DefaultConfig returns the standard parameter set: SMA(20), RSI(14),
// volume window 20 with 1.5x breakout multiplier and 2.0 z threshold,
// MACD(12,26,9), Bollinger(20, 2 sigma).
func DefaultConfig() Config {
	return Config{
		SMAWindow:                20,
		RSIPeriod:                14,
		VolumeWindow:             20,
		BreakoutVolumeMultiplier: 1.5,
		UnusualVolumeThreshold:   2.0,
		MACDFast:                 12,
		MACDSlow:                 26,
		MACDSignal:               9,
		BollingerWindow:          20,
		BollingerWidth:           2.0,
	}
}

// Validate fails fast on unusable parameters.
func (c Config) Validate() error {
	if c.SMAWindow < 2 || c.RSIPeriod < 2 || c.VolumeWindow < 2 || c.BollingerWindow < 2 {
		return fmt.Errorf("%w: windows must be >= 2", ErrInvalidConfig)
	}
	if c.MACDFast < 2 || c.MACDSlow < 2 || c.MACDSignal < 2 || c.MACDFast >= c.MACDSlow {
		return fmt.Errorf("%w: macd spans must be >= 2 with fast < slow", ErrInvalidConfig)
	}
	if c.BreakoutVolumeMultiplier <= 0 || c.UnusualVolumeThreshold <= 0 || c.BollingerWidth <= 0 {
		return fmt.Errorf("%w: multipliers must be positive", ErrInvalidConfig)
	}
	return nil
}

// MinBars is the shortest series the core indicators can be computed
// on: SMA needs a full window, RSI needs period+1 bars for period
// deltas, the breakout flag needs a full window of strictly prior bars.
func (c Config) MinBars() int {
	n := c.SMAWindow
	if c.RSIPeriod+1 > n {
		n = c.RSIPeriod + 1
	}
	if c.VolumeWindow+1 > n {
		n = c.VolumeWindow + 1
	}
	return n
}

// Compute derives the full indicator frame for an ordered daily bar
// series. The frame is aligned one-to-one with the input; entries
// before a window is full stay nil. The value at index t depends only
// on bars[0..t].
func Compute(bars []models.Bar, cfg Config) (*models.IndicatorFrame, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := validateSeries(bars); err != nil {
		return nil, err
	}
	if len(bars) < cfg.MinBars() {
		return nil, fmt.Errorf("%w: have %d bars, need %d", ErrInsufficientData, len(bars), cfg.MinBars())
	}

	closes := models.Closes(bars)
	volumes := models.Volumes(bars)

	frame := &models.IndicatorFrame{
		Symbol: bars[0].Symbol,
		Points: make([]models.IndicatorPoint, len(bars)),
	}

	macdHist := macdHistogram(closes, cfg)

	for i := range bars {
		p := &frame.Points[i]
		p.Date = bars[i].Date
		p.SMA = sma(closes, i, cfg.SMAWindow)
		p.RSI = rsi(closes, i, cfg.RSIPeriod)
		p.VolumeRatio = volumeRatio(volumes, i, cfg.VolumeWindow)
		p.VolumeZScore = volumeZScore(volumes, i, cfg.VolumeWindow)
		p.MACDHistogram = macdHist[i]
		p.BollingerPos = bollingerPosition(closes, i, cfg.BollingerWindow, cfg.BollingerWidth)
		p.IsBreakout = breakout(closes, volumes, i, cfg.VolumeWindow, cfg.BreakoutVolumeMultiplier)
		p.IsUnusualVolume = unusualVolume(p.VolumeZScore, cfg.UnusualVolumeThreshold)
		p.MomentumSignal = momentumSignal(p.RSI)
	}

	return frame, nil
}

func validateSeries(bars []models.Bar) error {
	if len(bars) == 0 {
		return fmt.Errorf("%w: empty series", ErrMalformedSeries)
	}
	for i := 1; i < len(bars); i++ {
		if !bars[i].Date.After(bars[i-1].Date) {
			return fmt.Errorf("%w: dates must be unique and ascending (index %d)", ErrMalformedSeries, i)
		}
	}
	return nil
}

// sma is the trailing mean of close over window bars, inclusive of the
// current bar. Nil for the first window-1 bars.
func sma(closes []float64, i, window int) *float64 {
	if i+1 < window {
		return nil
	}
	v := Mean(closes[i+1-window : i+1])
	return &v
}

// rsi computes the rolling-mean RSI over the trailing period deltas.
// A window with zero average loss is defined as exactly 100; this also
// covers the all-flat case. Nil for the first period bars.
func rsi(closes []float64, i, period int) *float64 {
	if i < period {
		return nil
	}
	var gains, losses float64
	for j := i - period + 1; j <= i; j++ {
		change := closes[j] - closes[j-1]
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}
	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)

	v := 100.0
	if avgLoss != 0 {
		rs := avgGain / avgLoss
		v = 100.0 - 100.0/(1.0+rs)
	}
	return &v
}

// volumeRatio is current volume over the trailing mean volume.
// Undefined on an illiquid window (zero mean), never infinite.
func volumeRatio(volumes []float64, i, window int) *float64 {
	if i+1 < window {
		return nil
	}
	mv := Mean(volumes[i+1-window : i+1])
	if mv == 0 {
		return nil
	}
	v := volumes[i] / mv
	return &v
}

// volumeZScore is the z-score of current volume against the trailing
// window. Undefined when the trailing deviation is zero.
func volumeZScore(volumes []float64, i, window int) *float64 {
	if i+1 < window {
		return nil
	}
	win := volumes[i+1-window : i+1]
	std := SampleStd(win)
	if std == 0 {
		return nil
	}
	z := (volumes[i] - Mean(win)) / std
	return &z
}

// breakout requires the close to exceed the max of the strictly prior
// window (no look-ahead, current bar excluded from the resistance
// level) and volume to exceed multiplier times the trailing mean.
func breakout(closes, volumes []float64, i, window int, multiplier float64) *bool {
	if i < window {
		return nil
	}
	resistance := Max(closes[i-window : i])
	meanVol := Mean(volumes[i+1-window : i+1])
	v := closes[i] > resistance && volumes[i] > multiplier*meanVol
	return &v
}

func unusualVolume(z *float64, threshold float64) *bool {
	if z == nil {
		return nil
	}
	v := math.Abs(*z) > threshold
	return &v
}

// macdHistogram is macd minus its signal line, with EMAs seeded on the
// first full span. Nil until the signal line has a seed.
func macdHistogram(closes []float64, cfg Config) []*float64 {
	out := make([]*float64, len(closes))
	fast := emaSeries(closes, cfg.MACDFast)
	slow := emaSeries(closes, cfg.MACDSlow)
	if len(closes) < cfg.MACDSlow {
		return out
	}

	macd := make([]float64, 0, len(closes)-cfg.MACDSlow+1)
	for i := cfg.MACDSlow - 1; i < len(closes); i++ {
		macd = append(macd, *fast[i]-*slow[i])
	}
	signal := emaSeries(macd, cfg.MACDSignal)
	for k, s := range signal {
		if s == nil {
			continue
		}
		v := macd[k] - *s
		out[cfg.MACDSlow-1+k] = &v
	}
	return out
}

// bollingerPosition places the close within the trailing band:
// 0 at the lower band, 1 at the upper. Undefined on a zero-deviation
// window.
func bollingerPosition(closes []float64, i, window int, width float64) *float64 {
	if i+1 < window {
		return nil
	}
	win := closes[i+1-window : i+1]
	std := SampleStd(win)
	if std == 0 {
		return nil
	}
	mid := Mean(win)
	lower := mid - width*std
	upper := mid + width*std
	v := (closes[i] - lower) / (upper - lower)
	return &v
}

func momentumSignal(rsi *float64) string {
	switch {
	case rsi == nil:
		return ""
	case *rsi > 70:
		return "overbought"
	case *rsi < 30:
		return "oversold"
	default:
		return "hold"
	}
}
