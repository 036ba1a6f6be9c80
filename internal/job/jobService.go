package job

import (
	"context"
	"sync/atomic"

	"github.com/akolanti/notex/internal/config"
	"github.com/akolanti/notex/internal/domain/jobModel"
	"github.com/akolanti/notex/internal/domain/notebookModel"
	"github.com/akolanti/notex/internal/metrics"
	"github.com/akolanti/notex/pkg/logger_i"
)

var logger = logger_i.NewLogger("JobService")

// Service is the queue between the handlers and the worker pool, plus the stores both sides share.
type Service struct {
	JobChannel        chan jobModel.Job
	RequestCount      int64
	DispatcherChannel chan bool
	JobStore          jobModel.JobStore
	MessageStore      jobModel.MessageStore
	NotebookStore     notebookModel.NotebookStore
}

type ServiceConfig struct {
	JobChannel        chan jobModel.Job
	DispatcherChannel chan bool
	JobStore          jobModel.JobStore
	MessageStore      jobModel.MessageStore
	NotebookStore     notebookModel.NotebookStore
}

func InitJobService(cfg ServiceConfig) *Service {
	if cfg.JobChannel == nil {
		cfg.JobChannel = make(chan jobModel.Job, config.BufferLimit)
	}
	if cfg.DispatcherChannel == nil {
		cfg.DispatcherChannel = make(chan bool, 1)
	}
	return &Service{
		JobChannel:        cfg.JobChannel,
		DispatcherChannel: cfg.DispatcherChannel,
		JobStore:          cfg.JobStore,
		MessageStore:      cfg.MessageStore,
		NotebookStore:     cfg.NotebookStore,
	}
}

// Enqueue records the queued state, hands the job to the pool and asks the
// dispatcher for another worker when the load calls for one.
func (s *Service) Enqueue(ctx context.Context, j jobModel.Job) {
	log := logger.FromContext(ctx).With("jobId", j.Id, "jobType", j.JobType)

	// queued state is visible before a worker picks the job up
	if err := s.JobStore.SaveJob(ctx, j); err != nil {
		log.Error("Failed to save queued job", "err", err)
	}

	metrics.IncrementJobsInQueue()
	s.JobChannel <- j //this is a blocking send to prevent the system from being overwhelmed

	//a new worker every RequestsPerNewWorkerCount requests, and for every slow job:
	//ingestion waits on extraction, transforms wait on the providers and DeepInsight.
	//idle workers retire so most of the time only the minimum is running
	count := atomic.AddInt64(&s.RequestCount, 1)
	if count%config.RequestsPerNewWorkerCount == 0 || j.JobType != jobModel.JobTypeChat {
		s.signalDispatcher(log, count)
	}
}

func (s *Service) signalDispatcher(log *logger_i.Logger, count int64) {
	metrics.StartDispatcherSignalCount()
	select {
	case s.DispatcherChannel <- true:
		log.Debug("Signal dispatcher", "requestCount", count)
	default:
		// a signal is already pending
	}
}
