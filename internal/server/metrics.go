package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	recommendationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "topshelf",
		Name:      "recommendations_total",
		Help:      "Recommendations served, by pricing method.",
	}, []string{"method"})

	predictorFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "topshelf",
		Name:      "predictor_failures_total",
		Help:      "Products that fell back to the benchmark method because the demand predictor failed.",
	})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "topshelf",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})
)

func observeRecommendation(method string) {
	recommendationsTotal.WithLabelValues(method).Inc()
}
