package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// dependency labels
const (
	PrimaryProvider    = "provider_primary"
	MultimodalProvider = "provider_multimodal"
	DeepInsight        = "deepinsight"
	Search             = "search"
	SlideImage         = "slide_image"
	Extraction         = "extraction"
	Indexing           = "indexing"
)

var HttpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "notex_http_requests_total",
	Help: "Total number of requests labelled by path and status",
}, []string{"path", "status"})

var countJobsInQueue = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "notex_jobs_in_queue",
	Help: "Number of jobs waiting for a worker",
})

var dispatcherSignalCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "notex_dispatcher_signal_total",
	Help: "How often the dispatcher has signaled to start a worker",
})

var activeWorkerCount = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "notex_active_workers",
	Help: "Number of active workers",
})

var jobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "notex_job_duration_seconds",
	Help:    "Time from job pickup to completion, by job type and status.",
	Buckets: []float64{.1, .5, 1, 2, 5, 10, 30, 60, 300, 900},
}, []string{"job_type", "status"})

var dependencyLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "notex_dependency_latency_seconds",
	Help:    "Latency of provider, tool and index calls.",
	Buckets: []float64{.001, .01, .1, .5, 1, 5, 10, 30, 60, 300},
}, []string{"service"})

var transformStrategy = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "notex_transform_strategy_total",
	Help: "Transformations by type and the strategy that produced the content.",
}, []string{"type", "strategy"})

var slideImages = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "notex_slide_images_total",
	Help: "Per-slide image generation outcomes.",
}, []string{"outcome"})

type HttpStatusRecorder struct {
	http.ResponseWriter
	Status int
}

func (r *HttpStatusRecorder) WriteHeader(code int) {
	r.Status = code
	r.ResponseWriter.WriteHeader(code)
}

func IncrementJobsInQueue() {
	countJobsInQueue.Inc()
}

func DecrementJobsInQueue() {
	countJobsInQueue.Dec()
}

func StartDispatcherSignalCount() {
	dispatcherSignalCount.Inc()
}

func IncrementActiveWorkerCount() {
	activeWorkerCount.Inc()
}
func DecrementActiveWorkerCount() {
	activeWorkerCount.Dec()
}

func CaptureExecutionMetrics(label string, timeElapsed time.Duration) {
	dependencyLatency.WithLabelValues(label).Observe(timeElapsed.Seconds())
}

func CaptureJobMetrics(jobType string, status string, timeElapsed time.Duration) {
	jobDuration.WithLabelValues(jobType, status).Observe(timeElapsed.Seconds())
}

func RecordTransformStrategy(transformType string, strategy string) {
	transformStrategy.WithLabelValues(transformType, strategy).Inc()
}

func RecordSlideImage(ok bool) {
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	slideImages.WithLabelValues(outcome).Inc()
}
