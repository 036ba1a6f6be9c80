package jobModel

import (
	"context"
	"time"

	"github.com/akolanti/notex/internal/domain/notebookModel"
)

type JobStatus string
type InternalStatus string

type JobType string

const (
	JobStatusQueued   JobStatus = "QUEUED"
	JobStatusRunning  JobStatus = "RUNNING"
	JobStatusComplete JobStatus = "COMPLETE"
	JobStatusError    JobStatus = "Error"

	ChatInit      InternalStatus = "Init"
	RetrievalCall InternalStatus = "Retrieval"
	LLMCall       InternalStatus = "LLM"
	RedisCall     InternalStatus = "Redis"

	TransformInit   InternalStatus = "TransformInit"
	GenerationCall  InternalStatus = "Generation"
	ImageGeneration InternalStatus = "ImageGeneration"
	NoteSave        InternalStatus = "NoteSave"

	IngestInit       InternalStatus = "IngestInit"
	IngestProcessing InternalStatus = "IngestProcessing"

	Complete InternalStatus = "Complete"

	JobTypeChat      JobType = "Chat"
	JobTypeTransform JobType = "Transform"
	JobTypeIngest    JobType = "Ingest"
)

type Job struct {
	Id          string         `json:"id"`
	NotebookId  string         `json:"notebook_id"`
	ChatId      string         `json:"chat_id,omitempty"`
	TraceId     string         `json:"trace_id"`
	JobType     JobType        `json:"job_type"`
	JobPayload  JobPayload     `json:"job_payload"`
	Error       JobError       `json:"error,omitempty"`
	CreatedTime time.Time      `json:"created_time"`
	EndTime     time.Time      `json:"end_time,omitempty"`
	Status      JobStatus      `json:"status"`
	CurrentStep InternalStatus `json:"current_step"`
}

type JobError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Retry   bool   `json:"retry"`
}

type JobPayload struct {
	//chat
	Question string                        `json:"question,omitempty"`
	Answer   string                        `json:"answer,omitempty"`
	Sources  []notebookModel.SourceSummary `json:"sources,omitempty"`

	//transform
	Transform *notebookModel.TransformationRequest `json:"transform,omitempty"`
	Note      *notebookModel.Note                  `json:"note,omitempty"`

	//ingest
	IngestFileName string                `json:"ingest_file_name,omitempty"`
	IngestFilePath string                `json:"-"`
	IngestURL      string                `json:"ingest_url,omitempty"`
	IngestName     string                `json:"ingest_name,omitempty"`
	IngestedSource *notebookModel.Source `json:"ingested_source,omitempty"`
}

type JobStore interface {
	GetJob(ctx context.Context, jobId string) (Job, bool)
	SaveJob(ctx context.Context, job Job) error
	DeleteJob(ctx context.Context, jobID string)
}

type MessageStore interface {
	ValidateChatId(ctx context.Context, id string) bool
	InitNewChat(ctx context.Context, id string) error
	AppendMessage(ctx context.Context, id string, message notebookModel.ChatMessage) error
	GetMessageHistory(ctx context.Context, chatId string) ([]notebookModel.ChatMessage, error)
}
