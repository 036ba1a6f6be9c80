package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/akolanti/notex/internal/config"
	"github.com/akolanti/notex/internal/domain/jobModel"
	"github.com/akolanti/notex/internal/domain/notebookModel"
	"github.com/akolanti/notex/internal/job"
	"github.com/akolanti/notex/internal/rag"
	"github.com/akolanti/notex/internal/rag/prompts"
	"github.com/akolanti/notex/pkg/logger_i"
)

var (
	handlerInstance *JobHandler //private singleton
	once            sync.Once
	logJH           = logger_i.NewLogger("JobHandler")
	logRH           = logger_i.NewLogger("RequestHandler")
)

type JobHandler struct {
	service     *job.Service
	notebooks   notebookModel.NotebookStore
	rag         rag.Service
	prompts     *prompts.Library
	uploadsDir  string
	allowDelete bool
	services    map[string]any
}

type Deps struct {
	JobService  *job.Service
	Rag         rag.Service
	Prompts     *prompts.Library
	UploadsDir  string
	AllowDelete bool
	// Services is reported as-is by the health endpoint
	Services map[string]any
}

func InitJobHandler(deps Deps) {
	once.Do(func() {
		handlerInstance = newJobHandler(deps)
		logJH.Info("Starting job handler")
	})
}

func newJobHandler(deps Deps) *JobHandler {
	if deps.Prompts == nil {
		deps.Prompts = prompts.Default()
	}
	return &JobHandler{
		service:     deps.JobService,
		notebooks:   deps.JobService.NotebookStore,
		rag:         deps.Rag,
		prompts:     deps.Prompts,
		uploadsDir:  deps.UploadsDir,
		allowDelete: deps.AllowDelete,
		services:    deps.Services,
	}
}

// newJobData is what a request handler knows about the job it wants queued.
type newJobData struct {
	id         string
	jobType    jobModel.JobType
	notebookId string
	chatId     string
	message    string
	isNewChat  bool
	traceId    string
	transform  *notebookModel.TransformationRequest
	fileName   string
	filePath   string
	url        string
	name       string
}

func CreateNewJob(newJob newJobData) error {
	log := logJH.With("traceId", newJob.traceId, "jobId", newJob.id, "jobType", newJob.jobType)
	if newJob.isNewChat {
		log.Info("Create new chat", "chatId", newJob.chatId)
		if err := handlerInstance.initNewChat(newJob.chatId, newJob.traceId); err != nil {
			return err
		}
	}
	handlerInstance.pushToJobChannel(newJob)
	log.Info("Created new job")
	return nil
}

func GetJobStatus(id string, traceId string) (result jobModel.Job, isFound bool) {
	ctxC := context.WithValue(context.Background(), config.TRACE_ID_KEY, traceId)
	if handlerInstance != nil {
		return handlerInstance.service.JobStore.GetJob(ctxC, id)
	}
	return result, false
}

// private methods
func (h *JobHandler) pushToJobChannel(newJob newJobData) {
	_job := jobModel.Job{
		Id:          newJob.id,
		NotebookId:  newJob.notebookId,
		TraceId:     newJob.traceId,
		JobType:     newJob.jobType,
		CreatedTime: time.Now(),
		Status:      jobModel.JobStatusQueued,
	}

	switch newJob.jobType {
	case jobModel.JobTypeIngest:
		_job.CurrentStep = jobModel.IngestInit
		_job.JobPayload.IngestFileName = newJob.fileName
		_job.JobPayload.IngestFilePath = newJob.filePath
		_job.JobPayload.IngestURL = newJob.url
		_job.JobPayload.IngestName = newJob.name
	case jobModel.JobTypeTransform:
		_job.CurrentStep = jobModel.TransformInit
		_job.JobPayload.Transform = newJob.transform
	default:
		_job.CurrentStep = jobModel.ChatInit
		_job.ChatId = newJob.chatId
		_job.JobPayload.Question = newJob.message
	}

	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, newJob.traceId)
	h.service.Enqueue(ctx, _job)
}

func (h *JobHandler) initNewChat(chatId string, traceId string) error {
	ctxC := context.WithValue(context.Background(), config.TRACE_ID_KEY, traceId)
	if err := h.service.MessageStore.InitNewChat(ctxC, chatId); err != nil {
		logJH.Error("Error initiating new chat", "chatId", chatId, "err", err)
		return err
	}
	return nil
}
