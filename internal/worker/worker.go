package worker

import (
	"context"
	"net/http"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/akolanti/notex/internal/config"
	"github.com/akolanti/notex/internal/domain/jobModel"
	"github.com/akolanti/notex/internal/domain/notebookModel"
	"github.com/akolanti/notex/internal/job"
	"github.com/akolanti/notex/internal/metrics"
	"github.com/akolanti/notex/internal/rag"
	"github.com/akolanti/notex/pkg/logger_i"
)

var (
	_jobService        *job.Service
	_notebookStore     notebookModel.NotebookStore
	stopWorkerChannel  chan bool
	workerWaitGroup    *sync.WaitGroup
	dispatcherChannel  chan bool
	currentWorkerCount int64
	logger             = logger_i.NewLogger("WorkerPool")
	_ragService        rag.Service
	minWorkerCount     = config.MinWorkerCount
	idleWorkerTimeout  = config.IdleWorkerTimeout
)

func InitServices(jobService *job.Service, ragService rag.Service) {
	_jobService = jobService
	_notebookStore = jobService.NotebookStore
	_ragService = ragService
	dispatcherChannel = jobService.DispatcherChannel
}

func InitWorkerPool(stopWorkerChan chan bool, waitGroup *sync.WaitGroup) {
	stopWorkerChannel = stopWorkerChan
	workerWaitGroup = waitGroup
	logger.Info("Initializing worker pool")
	go dispatcher()
}

func dispatcher() {
	signals, stop := dispatcherChannel, stopWorkerChannel
	createWorker()
	logger.Info("Dispatcher started")
	for {
		select {
		case <-signals:
			if atomic.LoadInt64(&currentWorkerCount) < config.MaxWorkerCount {
				logger.Info("Creating new worker", "workerCount", atomic.LoadInt64(&currentWorkerCount))
				createWorker()
			}
		case <-stop:
			logger.Info("Dispatcher stopped")
			return
		}
	}
}

func createWorker() {
	workerWaitGroup.Add(1)
	atomic.AddInt64(&currentWorkerCount, 1)
	metrics.IncrementActiveWorkerCount()
	go worker()
	logger.Debug("Created new worker")
}

func worker() {
	for {
		select {
		case currentJob := <-_jobService.JobChannel:
			metrics.DecrementJobsInQueue()
			runJob(currentJob)

		case <-stopWorkerChannel:
			atomic.AddInt64(&currentWorkerCount, -1)
			removeWorker("Stop worker signal received")
			return

		case <-time.After(idleWorkerTimeout):
			if tryRetire() {
				removeWorker("Idle worker timeout")
				return
			}
		}
	}
}

// tryRetire claims one slot above the minimum; concurrent idle workers can never
// take the pool below it.
func tryRetire() bool {
	for {
		current := atomic.LoadInt64(&currentWorkerCount)
		if current <= atomic.LoadInt64(&minWorkerCount) {
			return false
		}
		if atomic.CompareAndSwapInt64(&currentWorkerCount, current, current-1) {
			return true
		}
	}
}

// runJob keeps a panicking job from taking its worker down or staying RUNNING forever.
func runJob(j jobModel.Job) {
	defer func() {
		if r := recover(); r != nil {
			log := logger.With("jobId", j.Id, "traceId", j.TraceId)
			log.Error("job panicked", "panic", r, "stack", string(debug.Stack()))
			j.EndTime = time.Now()
			j.Error = jobModel.JobError{Code: http.StatusInternalServerError, Message: "internal error", Retry: true}
			saveJobState(context.Background(), j, jobModel.JobStatusError)
			metrics.CaptureJobMetrics(string(j.JobType), string(jobModel.JobStatusError), 0)
		}
	}()
	ExecuteJob(j)
}
