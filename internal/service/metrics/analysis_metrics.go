package metrics

import (
    "sync"

    "github.com/prometheus/client_golang/prometheus"
)

var (
    once sync.Once

    AnalysisLatency = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{
            Namespace: "hkpulse",
            Subsystem: "analysis",
            Name:      "latency_seconds",
            Help:      "Latency of analysis endpoints",
            Buckets:   prometheus.DefBuckets,
        },
        []string{"endpoint"},
    )

    AnalysisErrors = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "hkpulse",
            Subsystem: "analysis",
            Name:      "errors_total",
            Help:      "Errors by analysis endpoint",
        },
        []string{"endpoint"},
    )
)

func Register() {
    once.Do(func() {
        prometheus.MustRegister(AnalysisLatency, AnalysisErrors)
    })
}


