package api

import (
	"time"

	"github.com/akolanti/notex/internal/domain/notebookModel"
)

type JobExternalStatus string

// statuses clients see, independent of the internal job state names
const (
	JobStatusQueued    JobExternalStatus = "queued"
	JobStatusRunning   JobExternalStatus = "running"
	JobStatusCompleted JobExternalStatus = "completed"
	JobStatusError     JobExternalStatus = "failed"
)

type JobResponse struct {
	Id         string            `json:"id" example:"job_cz109"`
	JobType    string            `json:"job_type,omitempty" example:"Chat"`
	NotebookId string            `json:"notebook_id,omitempty"`
	ChatId     string            `json:"session_id,omitempty" example:"chat_550"`
	Result     Result            `json:"result"`
	Error      *JobOutgoingError `json:"error,omitempty"`
	StartTime  time.Time         `json:"start_time"`
	EndTime    time.Time         `json:"end_time,omitempty"`
}

type JobOutgoingError struct {
	Code    int    `json:"code" example:"400"`
	Message string `json:"message" example:"Job not found"`
	Retry   bool   `json:"can_retry" example:"false"`
}

type RAGResponse struct {
	Question string                        `json:"question"`
	Answer   string                        `json:"answer"`
	Sources  []notebookModel.SourceSummary `json:"sources"`
}

type Result struct {
	Status              string                `json:"status"`
	Step                string                `json:"step,omitempty"`
	RAGExternalResponse *RAGResponse          `json:"rag_response,omitempty"`
	Note                *notebookModel.Note   `json:"note,omitempty"`
	Source              *notebookModel.Source `json:"source,omitempty"`
}

type InitJobResponse struct {
	Id        string `json:"id"`
	StatusURL string `json:"status_url"`
	SessionId string `json:"session_id,omitempty"`
}

type HealthResponse struct {
	Status    string         `json:"status" example:"healthy"`
	Version   string         `json:"version" example:"1.0.0"`
	Timestamp time.Time      `json:"timestamp"`
	Services  map[string]any `json:"services"`
}

type ConfigResponse struct {
	AllowDelete bool `json:"allow_delete"`
}

type ListResponse[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
}

// requests---------------------

type ChatRequest struct {
	Message   string `json:"message" validate:"required"`
	SessionId string `json:"session_id,omitempty"`
}

type CreateNotebookRequest struct {
	Name        string         `json:"name" validate:"required"`
	Description string         `json:"description,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// CreateSourceRequest adds a text or url source. A url without content is fetched
// in the background and answered with a job.
type CreateSourceRequest struct {
	Name     string         `json:"name" validate:"required"`
	Type     string         `json:"type" example:"text"`
	URL      string         `json:"url,omitempty"`
	Content  string         `json:"content,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type TransformRequest struct {
	Type      string   `json:"type" validate:"required" example:"summary"`
	Prompt    string   `json:"prompt,omitempty"`
	SourceIds []string `json:"source_ids,omitempty"`
	Length    string   `json:"length,omitempty" example:"medium"`
	Format    string   `json:"format,omitempty" example:"markdown"`
}
