package worker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/akolanti/notex/internal/config"
	"github.com/akolanti/notex/internal/domain/errorModel"
	jobmodel "github.com/akolanti/notex/internal/domain/jobModel"
	"github.com/akolanti/notex/internal/domain/notebookModel"
	"github.com/akolanti/notex/internal/metrics"
	"github.com/akolanti/notex/internal/rag/ingest"
	"github.com/akolanti/notex/internal/rag/prompts"
	"github.com/akolanti/notex/pkg/logger_i"
)

// ExecuteJob runs one job to completion and stores every state change.
// The finished job is returned so the CLI can run jobs without the pool.
func ExecuteJob(job jobmodel.Job) jobmodel.Job {
	start := time.Now()
	ctxTrace := context.WithValue(context.Background(), config.TRACE_ID_KEY, job.TraceId)
	ctx, cancel := context.WithTimeout(ctxTrace, jobTimeout(job.JobType))
	defer cancel()
	log := logger.FromContext(ctx).With("jobId", job.Id, "jobType", job.JobType)
	log.Debug("Processing job")

	job = saveJobState(ctx, job, jobmodel.JobStatusRunning)

	var err error
	switch job.JobType {
	case jobmodel.JobTypeChat:
		job, err = processChat(ctx, log, job)
	case jobmodel.JobTypeTransform:
		job, err = processTransform(ctx, log, job)
	case jobmodel.JobTypeIngest:
		job, err = processIngest(ctx, log, job)
	default:
		err = errorModel.InvalidRequest("unknown job type %q", job.JobType)
	}

	job.EndTime = time.Now()
	status := jobmodel.JobStatusComplete
	if err != nil {
		code, retry := errorModel.Classify(err)
		job.Error = jobmodel.JobError{Code: code, Message: err.Error(), Retry: retry}
		status = jobmodel.JobStatusError
		log.Error("job failed", "step", job.CurrentStep, "code", code, "error", err)
	} else {
		job.CurrentStep = jobmodel.Complete
	}

	// the job context may have expired, the final state is saved regardless
	job = saveJobState(context.WithoutCancel(ctx), job, status)
	metrics.CaptureJobMetrics(string(job.JobType), string(job.Status), time.Since(start))
	log.Info("job finished", "status", job.Status, "elapsed", time.Since(start))
	return job
}

func jobTimeout(jobType jobmodel.JobType) time.Duration {
	switch jobType {
	case jobmodel.JobTypeTransform:
		return config.TransformJobTimeout
	case jobmodel.JobTypeIngest:
		return config.IngestJobTimeout
	default:
		return config.ChatJobTimeout
	}
}

// removeWorker releases a worker whose slot was already given back.
func removeWorker(reason string) {
	workerWaitGroup.Done()
	count := atomic.LoadInt64(&currentWorkerCount)
	logger.Info("Removed worker", "reason", reason, "workerCount", count)
	metrics.DecrementActiveWorkerCount()
}

func processChat(ctx context.Context, log *logger_i.Logger, job jobmodel.Job) (jobmodel.Job, error) {
	job.CurrentStep = jobmodel.RedisCall
	history, err := _jobService.MessageStore.GetMessageHistory(ctx, job.ChatId)
	if err != nil {
		// answer without history rather than fail the question
		log.Warn("Failed to get message history", "err", err)
	}

	job.CurrentStep = jobmodel.LLMCall
	result, err := _ragService.Chat(ctx, job.ChatId, job.JobPayload.Question, history)
	if err != nil {
		return job, err
	}
	job.JobPayload.Answer = result.Message
	job.JobPayload.Sources = result.Sources

	job.CurrentStep = jobmodel.RedisCall
	names := make([]string, 0, len(result.Sources))
	for _, s := range result.Sources {
		names = append(names, s.Name)
	}
	now := time.Now()
	appendMessage(ctx, log, job.ChatId, notebookModel.ChatMessage{SessionId: job.ChatId, Role: notebookModel.RoleUser, Content: job.JobPayload.Question, CreatedAt: now})
	appendMessage(ctx, log, job.ChatId, notebookModel.ChatMessage{SessionId: job.ChatId, Role: notebookModel.RoleAssistant, Content: result.Message, Sources: names, CreatedAt: now})
	return job, nil
}

func appendMessage(ctx context.Context, log *logger_i.Logger, chatId string, msg notebookModel.ChatMessage) {
	if err := _jobService.MessageStore.AppendMessage(ctx, chatId, msg); err != nil {
		log.Error("Failed to save chat history", "role", msg.Role, "err", err)
	}
}

func processTransform(ctx context.Context, log *logger_i.Logger, job jobmodel.Job) (jobmodel.Job, error) {
	if job.JobPayload.Transform == nil {
		return job, errorModel.InvalidRequest("transform job without a request")
	}
	req := *job.JobPayload.Transform
	log = log.With("type", req.Type)

	sources, err := selectSources(ctx, job.NotebookId, req.SourceIds)
	if err != nil {
		return job, err
	}

	job.CurrentStep = jobmodel.GenerationCall
	job = saveJobState(ctx, job, jobmodel.JobStatusRunning)
	result, err := _ragService.Transform(ctx, req, sources)
	if err != nil {
		return job, err
	}

	note := notebookModel.Note{
		NotebookId: job.NotebookId,
		Title:      prompts.Title(req.Type),
		Content:    result.Content,
		Type:       req.Type,
		SourceIds:  sourceIds(sources),
		Metadata:   result.Metadata,
	}
	if note.Metadata == nil {
		note.Metadata = map[string]any{}
	}

	switch req.Type {
	case "infograph":
		job.CurrentStep = jobmodel.ImageGeneration
		job = saveJobState(ctx, job, jobmodel.JobStatusRunning)
		attachInfographic(ctx, log, &note)
	case "ppt":
		job.CurrentStep = jobmodel.ImageGeneration
		job = saveJobState(ctx, job, jobmodel.JobStatusRunning)
		attachSlides(ctx, log, &note)
	case "insight":
		if src, ok := saveInsightSource(ctx, log, job.NotebookId, result.Content); ok {
			note.Metadata["insight_source_id"] = src.Id
		}
	}

	job.CurrentStep = jobmodel.NoteSave
	note, err = _notebookStore.CreateNote(ctx, note)
	if err != nil {
		return job, fmt.Errorf("saving note: %w", err)
	}
	job.JobPayload.Note = &note
	return job, nil
}

// selectSources returns the notebook's sources, narrowed to ids when any are given.
func selectSources(ctx context.Context, notebookId string, ids []string) ([]notebookModel.Source, error) {
	if _, ok := _notebookStore.GetNotebook(ctx, notebookId); !ok {
		return nil, fmt.Errorf("notebook %s: %w", notebookId, errorModel.ErrNotFound)
	}
	all, err := _notebookStore.ListSources(ctx, notebookId)
	if err != nil {
		return nil, err
	}
	if len(ids) > 0 {
		all = slices.DeleteFunc(all, func(s notebookModel.Source) bool { return !slices.Contains(ids, s.Id) })
	}
	if len(all) == 0 {
		return nil, errorModel.InvalidRequest("no sources available for transformation")
	}
	return all, nil
}

func sourceIds(sources []notebookModel.Source) []string {
	ids := make([]string, len(sources))
	for i, s := range sources {
		ids[i] = s.Id
	}
	return ids
}

// attachInfographic replaces the note body with the generated image.
// Without an image the text is kept and the reason recorded.
func attachInfographic(ctx context.Context, log *logger_i.Logger, note *notebookModel.Note) {
	url, err := _ragService.RenderInfographic(ctx, note.Content)
	if err != nil {
		log.Warn("infographic image not generated", "error", err)
		note.Metadata["image_error"] = err.Error()
		return
	}
	note.Metadata["image_url"] = url
	note.Content = ""
}

func attachSlides(ctx context.Context, log *logger_i.Logger, note *notebookModel.Note) {
	if !_ragService.HasMultimodal() {
		log.Debug("no multimodal provider, slides stay text only")
		return
	}
	images, err := _ragService.RenderSlides(ctx, note.Content)
	if err != nil {
		log.Warn("slide images not generated", "error", err)
		note.Metadata["image_error"] = err.Error()
		return
	}
	note.Metadata["slides"] = images.URLs()
	if errs := images.Errors(); len(errs) > 0 {
		note.Metadata["slide_errors"] = errs
	}
}

// saveInsightSource keeps an insight report as a source of its own so later
// chats and transformations can draw on it.
func saveInsightSource(ctx context.Context, log *logger_i.Logger, notebookId string, report string) (notebookModel.Source, bool) {
	src, err := _notebookStore.CreateSource(ctx, notebookModel.Source{
		NotebookId: notebookId,
		Name:       "Insight Report " + time.Now().Format("2006-01-02 15:04:05"),
		Type:       notebookModel.SourceTypeInsight,
		Content:    report,
	})
	if err != nil {
		log.Error("failed to save insight report as source", "error", err)
		return src, false
	}
	src.ChunkCount = indexSource(ctx, log, src)
	return src, true
}

func indexSource(ctx context.Context, log *logger_i.Logger, src notebookModel.Source) int {
	count := _ragService.IngestSource(ctx, src.Name, src.Content)
	if err := _notebookStore.UpdateSourceChunkCount(ctx, src.Id, count); err != nil {
		log.Error("failed to update chunk count", "sourceId", src.Id, "error", err)
	}
	return count
}

func processIngest(ctx context.Context, log *logger_i.Logger, job jobmodel.Job) (jobmodel.Job, error) {
	payload := job.JobPayload
	job.CurrentStep = jobmodel.IngestProcessing
	if _, ok := _notebookStore.GetNotebook(ctx, job.NotebookId); !ok {
		if payload.IngestFilePath != "" {
			_ = os.Remove(payload.IngestFilePath)
		}
		return job, fmt.Errorf("notebook %s: %w", job.NotebookId, errorModel.ErrNotFound)
	}

	var src notebookModel.Source
	start := time.Now()
	switch {
	case payload.IngestFilePath != "":
		defer removeTempFile(log, payload.IngestFilePath)
		text, err := ingest.ExtractDocument(payload.IngestFilePath)
		if err != nil {
			if errors.Is(err, ingest.ErrUnsupportedDocument) {
				return job, errorModel.InvalidRequest("%v", err)
			}
			return job, err
		}
		src = notebookModel.Source{
			Type:     notebookModel.SourceTypeFile,
			Name:     firstNonEmpty(payload.IngestName, payload.IngestFileName),
			FileName: payload.IngestFileName,
			Content:  text,
		}
		if info, err := os.Stat(payload.IngestFilePath); err == nil {
			src.FileSize = info.Size()
		}
	case payload.IngestURL != "":
		title, text, err := ingest.ExtractFromURL(payload.IngestURL)
		if err != nil {
			return job, err
		}
		src = notebookModel.Source{
			Type:    notebookModel.SourceTypeURL,
			Name:    firstNonEmpty(payload.IngestName, title, payload.IngestURL),
			URL:     payload.IngestURL,
			Content: text,
		}
	default:
		return job, errorModel.InvalidRequest("ingest job needs a file or a url")
	}
	metrics.CaptureExecutionMetrics(metrics.Extraction, time.Since(start))

	if strings.TrimSpace(src.Content) == "" {
		return job, errorModel.InvalidRequest("no text could be extracted from %s", src.Name)
	}

	src.NotebookId = job.NotebookId
	src, err := _notebookStore.CreateSource(ctx, src)
	if err != nil {
		return job, fmt.Errorf("saving source: %w", err)
	}
	src.ChunkCount = indexSource(ctx, log, src)
	log.Info("source ingested", "sourceId", src.Id, "name", src.Name, "chunks", src.ChunkCount)

	// the job record carries the source without its text
	src.Content = ""
	job.JobPayload.IngestedSource = &src
	return job, nil
}

func removeTempFile(log *logger_i.Logger, path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn("failed to remove uploaded file", "path", path, "error", err)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func saveJobState(ctx context.Context, job jobmodel.Job, jobStatus jobmodel.JobStatus) jobmodel.Job {
	job.Status = jobStatus
	if err := _jobService.JobStore.SaveJob(ctx, job); err != nil {
		logger.FromContext(ctx).Error("Failed to update job state", "jobId", job.Id, "err", err)
	}
	return job
}
