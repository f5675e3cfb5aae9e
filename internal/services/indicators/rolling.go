package indicators

import "math"

// Mean computes the arithmetic mean. Returns 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// SampleStd computes the sample standard deviation (n-1 denominator).
// Returns 0 for fewer than two values.
func SampleStd(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	var sum, sum2 float64
	for _, x := range xs {
		sum += x
		sum2 += x * x
	}
	n := float64(len(xs))
	mean := sum / n
	variance := (sum2 - n*mean*mean) / (n - 1)
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}

// Max returns the maximum value. Returns -Inf for an empty slice.
func Max(xs []float64) float64 {
	m := math.Inf(-1)
	for _, x := range xs {
		if x > m {
			m = x
		}
	}
	return m
}

// Min returns the minimum value. Returns +Inf for an empty slice.
func Min(xs []float64) float64 {
	m := math.Inf(1)
	for _, x := range xs {
		if x < m {
			m = x
		}
	}
	return m
}

// Returns computes simple daily returns r_t = C_t/C_{t-1} - 1.
// It returns a slice of length len(closes)-1, or nil if insufficient
// data. A non-positive previous close yields a 0 return rather than a
// numeric anomaly.
func Returns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	out := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		prev := closes[i-1]
		if prev <= 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, closes[i]/prev-1)
	}
	return out
}

// RollingStdSeries computes the sample standard deviation over each
// full trailing window of xs. The result has one entry per full window
// (len(xs)-window+1 entries), aligned so the last entry covers the most
// recent window. Returns nil when xs is shorter than the window.
func RollingStdSeries(xs []float64, window int) []float64 {
	if window < 2 || len(xs) < window {
		return nil
	}
	out := make([]float64, 0, len(xs)-window+1)
	for i := window; i <= len(xs); i++ {
		out = append(out, SampleStd(xs[i-window:i]))
	}
	return out
}

// emaSeries computes an exponential moving average with smoothing
// 2/(span+1), seeded with the simple mean of the first span values.
// Entries before the seed index are nil. The recursion only ever reads
// earlier entries, so truncating the input tail never changes a prefix.
func emaSeries(xs []float64, span int) []*float64 {
	out := make([]*float64, len(xs))
	if span <= 0 || len(xs) < span {
		return out
	}
	alpha := 2.0 / (float64(span) + 1)
	seed := Mean(xs[:span])
	out[span-1] = &seed
	prev := seed
	for i := span; i < len(xs); i++ {
		v := alpha*xs[i] + (1-alpha)*prev
		cp := v
		out[i] = &cp
		prev = v
	}
	return out
}
