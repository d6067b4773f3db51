package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "http_requests_total",
	Help: "Total number of requests labelled by path and status",
}, []string{"path", "status"})

var jobsInQueue = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "ingest_jobs_in_queue",
	Help: "Number of upload jobs waiting or in flight",
})

var activeWorkers = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "ingest_active_workers",
	Help: "Number of ingestion handlers currently processing a job",
})

var deadLetteredTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "ingest_dead_lettered_total",
	Help: "Jobs that exhausted retries or failed permanently",
})

var jobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "ingest_job_duration_seconds",
	Help:    "Wall time of one ingestion attempt, labelled by outcome.",
	Buckets: []float64{.1, .5, 1, 2, 5, 10, 30, 60},
}, []string{"outcome"})

var dependencyLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "dependency_latency_seconds",
	Help:    "Latency of external service calls.",
	Buckets: []float64{.05, .1, .25, .5, 1, 2, 5, 10},
}, []string{"service"})

type HTTPStatusRecorder struct {
	http.ResponseWriter
	Status int
}

func (r *HTTPStatusRecorder) WriteHeader(code int) {
	r.Status = code
	r.ResponseWriter.WriteHeader(code)
}

func IncrementJobsInQueue() { jobsInQueue.Inc() }
func DecrementJobsInQueue() { jobsInQueue.Dec() }

func IncrementActiveWorkers() { activeWorkers.Inc() }
func DecrementActiveWorkers() { activeWorkers.Dec() }

func IncrementDeadLettered() { deadLetteredTotal.Inc() }

func CaptureExecutionMetrics(service string, elapsed time.Duration) {
	dependencyLatency.WithLabelValues(service).Observe(elapsed.Seconds())
}

func CaptureJobMetrics(outcome string, elapsed time.Duration) {
	jobDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}
