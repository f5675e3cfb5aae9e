package util

import (
    "strconv"
    "testing"
    "time"
)

func TestParseTimeRFC3339(t *testing.T) {
    s := "2024-10-10T10:10:10Z"
    got, ok := ParseTime(s)
    if !ok {
        t.Fatalf("expected ok")
    }
    if got.UTC().Format(time.RFC3339) != s {
        t.Fatalf("unexpected time %v", got)
    }
}

func TestParseTimeUnix(t *testing.T) {
    ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
    got, ok := ParseTime(strconv.FormatInt(ts, 10))
    if !ok {
        t.Fatalf("expected ok")
    }
    if got.Unix() != ts {
        t.Fatalf("unexpected unix %v", got.Unix())
    }
}

func TestParseTimeDefault(t *testing.T) {
    def := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
    got := ParseTimeDefault("", def)
    if !got.Equal(def) {
        t.Fatalf("expected default")
    }
}
func TestAlignFromToDaily(t *testing.T) {
    from := time.Date(2026, 2, 2, 9, 30, 15, 0, time.UTC)
    to := time.Date(2026, 2, 6, 16, 0, 1, 0, time.UTC)
    gf, gt := AlignFromTo(from, to, "1d")
    if gf.Hour() != 0 || gf.Minute() != 0 || gf.Second() != 0 {
        t.Fatalf("from not day-aligned: %v", gf)
    }
    if gt.Hour() != 0 || gt.Minute() != 0 || gt.Second() != 0 {
        t.Fatalf("to not day-aligned: %v", gt)
    }
    if !gf.Before(gt) {
        t.Fatalf("alignment inverted the range: %v %v", gf, gt)
    }
}

func TestAlignFromToMinute(t *testing.T) {
    from := time.Date(2026, 2, 2, 9, 30, 15, 0, time.UTC)
    to := time.Date(2026, 2, 2, 9, 45, 59, 0, time.UTC)
    gf, gt := AlignFromTo(from, to, "1m")
    if gf.Second() != 0 || gt.Second() != 0 {
        t.Fatalf("minute alignment kept seconds: %v %v", gf, gt)
    }
}
