package metrics

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

type Outcome string

const (
	Success Outcome = "success"
	Error   Outcome = "error"
)

func (O Outcome) String() string {
	return string(O)
}

var defaultHistogramBucketsSeconds = []float64{0.1, 0.5, 1, 2.5, 5, 10, 30}

// The collectors exist from package load so that callers never observe a nil
// vector; Init only registers them and exposes the scrape endpoint.
var (
	once          sync.Once
	metricsRouter *chi.Mux

	httpRequestDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of http request durations in seconds.",
			Buckets: defaultHistogramBucketsSeconds,
		},
		[]string{"endpoint", "status"},
	)
	clientRequestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "client_request_duration_seconds",
			Help:    "Histogram of collaborator request durations in seconds.",
			Buckets: defaultHistogramBucketsSeconds,
		},
		[]string{"client", "path", "status"},
	)
	engineOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_operations_total",
			Help: "Total number of engine operations by outcome.",
		},
		[]string{"operation", "outcome"},
	)
	rewardsIssuedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "engine_rewards_issued_total",
			Help: "Total number of claim payouts forwarded to the issuance service.",
		},
	)
	unprocessableMessageCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "unprocessable_messages_total",
			Help: "Total number of event messages that could not be published.",
		},
		[]string{"queue"},
	)
)

// Init registers the collectors and serves them on metricsAddr.
func Init(metricsAddr string) {
	once.Do(func() {
		initMetricsRouter(metricsAddr)
		registerMetrics()
	})
}

// initMetricsRouter initializes the metrics router.
func initMetricsRouter(metricsAddr string) {
	metricsRouter = chi.NewRouter()
	metricsRouter.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	go func() {
		err := http.ListenAndServe(metricsAddr, metricsRouter)
		if err != nil {
			log.Fatal().Err(err).Msgf("error starting metrics server on %s", metricsAddr)
		}
	}()
}

// registerMetrics registers the Prometheus metrics.
func registerMetrics() {
	prometheus.MustRegister(
		httpRequestDurationHistogram,
		clientRequestLatency,
		engineOperationCounter,
		rewardsIssuedCounter,
		unprocessableMessageCounter,
	)
}

// StartHttpRequestDurationTimer starts a timer to measure http request handling duration.
func StartHttpRequestDurationTimer(endpoint string) func(statusCode int) {
	startTime := time.Now()
	return func(statusCode int) {
		duration := time.Since(startTime).Seconds()
		httpRequestDurationHistogram.WithLabelValues(endpoint, fmt.Sprintf("%d", statusCode)).Observe(duration)
	}
}

// StartClientRequestDurationTimer starts a timer to measure a collaborator call.
// A status code of 0 means the request never got a response.
func StartClientRequestDurationTimer(client, path string) func(statusCode int) {
	startTime := time.Now()
	return func(statusCode int) {
		duration := time.Since(startTime).Seconds()
		clientRequestLatency.WithLabelValues(client, path, fmt.Sprintf("%d", statusCode)).Observe(duration)
	}
}

func RecordEngineOperation(operation string, outcome Outcome) {
	engineOperationCounter.WithLabelValues(operation, outcome.String()).Inc()
}

func RecordRewardsIssued() {
	rewardsIssuedCounter.Inc()
}

func RecordUnprocessableMessage(queueName string) {
	unprocessableMessageCounter.WithLabelValues(queueName).Inc()
}
