package models

import "time"

// IndicatorPoint holds the derived signals for one bar. Pointer fields
// are nil while the corresponding rolling window is not yet full — an
// undefined value is never represented by a fabricated number.
type IndicatorPoint struct {
	Date             time.Time `json:"date"`
	SMA              *float64  `json:"sma"`
	RSI              *float64  `json:"rsi"`
	VolumeRatio      *float64  `json:"volume_ratio"`
	VolumeZScore     *float64  `json:"volume_zscore"`
	MACDHistogram    *float64  `json:"macd_histogram"`
	BollingerPos     *float64  `json:"bollinger_position"`
	IsBreakout       *bool     `json:"is_breakout"`
	IsUnusualVolume  *bool     `json:"is_unusual_volume"`
	MomentumSignal   string    `json:"momentum_signal"` // "overbought", "oversold", "hold", "" when RSI undefined
}

// IndicatorFrame is the per-bar indicator output aligned one-to-one
// with the input series.
type IndicatorFrame struct {
	Symbol string           `json:"symbol"`
	Points []IndicatorPoint `json:"points"`
}

// Latest returns the last point of the frame, or nil for an empty frame.
func (f *IndicatorFrame) Latest() *IndicatorPoint {
	if len(f.Points) == 0 {
		return nil
	}
	return &f.Points[len(f.Points)-1]
}
