package models

import "time"

// Bar is one trading-day OHLCV observation for a symbol. Bars are
// immutable once recorded; a series is ordered by Date ascending with
// unique dates (gaps for non-trading days are expected).
type Bar struct {
	Date   time.Time
	Symbol string
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Quote is a single intraday trade event from the market stream.
type Quote struct {
	Symbol    string
	Timestamp int64 // unix seconds
	Price     float64
	Volume    float64
}

// Closes extracts the close column from a bar slice.
func Closes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// Volumes extracts the volume column from a bar slice.
func Volumes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Volume
	}
	return out
}
