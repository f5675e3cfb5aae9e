package indicators

import (
	"math"
	"testing"
)

func TestMean(t *testing.T) {
	if got := Mean(nil); got != 0 {
		t.Fatalf("empty mean: got %v, want 0", got)
	}
	if got := Mean([]float64{2, 4, 6}); !approxEq(got, 4) {
		t.Fatalf("mean: got %v, want 4", got)
	}
}

func TestSampleStd(t *testing.T) {
	if got := SampleStd([]float64{5}); got != 0 {
		t.Fatalf("single-value std: got %v, want 0", got)
	}
	// {1,2,3,4}: variance 5/3
	want := math.Sqrt(5.0 / 3.0)
	if got := SampleStd([]float64{1, 2, 3, 4}); !approxEq(got, want) {
		t.Fatalf("std: got %v, want %v", got, want)
	}
	if got := SampleStd([]float64{7, 7, 7, 7}); got != 0 {
		t.Fatalf("constant std: got %v, want 0", got)
	}
}

func TestMinMax(t *testing.T) {
	if got := Max(nil); !math.IsInf(got, -1) {
		t.Fatalf("empty max: got %v, want -Inf", got)
	}
	if got := Min(nil); !math.IsInf(got, 1) {
		t.Fatalf("empty min: got %v, want +Inf", got)
	}
	xs := []float64{3, -1, 7, 2}
	if got := Max(xs); got != 7 {
		t.Fatalf("max: got %v, want 7", got)
	}
	if got := Min(xs); got != -1 {
		t.Fatalf("min: got %v, want -1", got)
	}
}

func TestReturns(t *testing.T) {
	if got := Returns([]float64{100}); got != nil {
		t.Fatalf("short series: got %v, want nil", got)
	}
	got := Returns([]float64{100, 110, 99})
	if len(got) != 2 || !approxEq(got[0], 0.1) || !approxEq(got[1], -0.1) {
		t.Fatalf("returns: got %v", got)
	}
	// A non-positive previous close yields a zero return, never Inf/NaN.
	got = Returns([]float64{0, 50, 100})
	if !approxEq(got[0], 0) || !approxEq(got[1], 1) {
		t.Fatalf("returns with zero prev close: got %v", got)
	}
}

func TestRollingStdSeries(t *testing.T) {
	if got := RollingStdSeries([]float64{1, 2}, 3); got != nil {
		t.Fatalf("short input: got %v, want nil", got)
	}
	if got := RollingStdSeries([]float64{1, 2, 3}, 1); got != nil {
		t.Fatalf("window < 2: got %v, want nil", got)
	}
	got := RollingStdSeries([]float64{1, 2, 3, 4, 5}, 3)
	if len(got) != 3 {
		t.Fatalf("expected 3 windows, got %d", len(got))
	}
	for i, v := range got {
		if !approxEq(v, 1) {
			t.Fatalf("window %d: got %v, want 1", i, v)
		}
	}
	got = RollingStdSeries([]float64{4, 4, 4, 4}, 2)
	for i, v := range got {
		if v != 0 {
			t.Fatalf("constant window %d: got %v, want 0", i, v)
		}
	}
}

func TestEMASeries(t *testing.T) {
	got := emaSeries([]float64{1, 2, 3, 4}, 2)
	if got[0] != nil {
		t.Fatalf("expected nil before the seed, got %v", *got[0])
	}
	// seed = mean(1,2) = 1.5; alpha = 2/3
	want := []float64{1.5, 2.5, 3.5}
	for i, w := range want {
		v := got[i+1]
		if v == nil || !approxEq(*v, w) {
			t.Fatalf("ema at %d: got %v, want %v", i+1, v, w)
		}
	}

	short := emaSeries([]float64{1, 2}, 5)
	for i, v := range short {
		if v != nil {
			t.Fatalf("span longer than input must stay nil, got value at %d", i)
		}
	}
}
