package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mixologue_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mixologue_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mixologue_http_requests_in_flight",
			Help: "Current number of HTTP requests being processed",
		},
	)

	RateLimitRejects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mixologue_rate_limit_rejects_total",
			Help: "Total number of requests rejected due to rate limiting",
		},
	)

	// Image chain metrics
	ImageProviderAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mixologue_image_provider_attempts_total",
			Help: "Image provider attempts by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	ImageProviderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mixologue_image_provider_duration_seconds",
			Help:    "Latency of image provider attempts in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
		},
		[]string{"provider"},
	)

	ImageFallbackExhausted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mixologue_image_fallback_exhausted_total",
			Help: "Image requests answered with the default asset",
		},
	)

	// LLM metrics
	CocktailGenerations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mixologue_cocktail_generations_total",
			Help: "Cocktail generation requests to the LLM by result",
		},
		[]string{"result"},
	)
)
