package adapter

import (
	"fmt"

	"github.com/akolanti/notex/internal/api"
	"github.com/akolanti/notex/internal/domain/jobModel"
	"github.com/akolanti/notex/internal/domain/notebookModel"
)

func ToInitJobResponse(id string, sessionId string) api.InitJobResponse {
	return api.InitJobResponse{
		Id:        id,
		StatusURL: fmt.Sprintf("/status/%s", id),
		SessionId: sessionId,
	}
}

func ToAPIResponse(job jobModel.Job) api.JobResponse {

	var errorPtr *api.JobOutgoingError
	if job.Error.Message != "" || job.Error.Code != 0 {
		errorPtr = &api.JobOutgoingError{
			Code:    job.Error.Code,
			Message: job.Error.Message,
			Retry:   job.Error.Retry,
		}
	}

	result := api.Result{
		Status:              string(ToExternalStatus(job.Status)),
		Step:                string(job.CurrentStep),
		RAGExternalResponse: ToRAGExternalStatus(job.JobPayload),
		Note:                job.JobPayload.Note,
		Source:              job.JobPayload.IngestedSource,
	}

	return api.JobResponse{
		Id:         job.Id,
		JobType:    string(job.JobType),
		NotebookId: job.NotebookId,
		ChatId:     job.ChatId,
		StartTime:  job.CreatedTime,
		EndTime:    job.EndTime,
		Error:      errorPtr,
		Result:     result,
	}
}

func ToExternalStatus(status jobModel.JobStatus) api.JobExternalStatus {
	switch status {
	case jobModel.JobStatusRunning:
		return api.JobStatusRunning
	case jobModel.JobStatusComplete:
		return api.JobStatusCompleted
	case jobModel.JobStatusError:
		return api.JobStatusError
	default:
		return api.JobStatusQueued
	}
}

func ToRAGExternalStatus(ragData jobModel.JobPayload) *api.RAGResponse {
	if ragData.Answer == "" && len(ragData.Sources) == 0 {
		return nil
	}

	return &api.RAGResponse{
		Question: ragData.Question,
		Answer:   ragData.Answer,
		Sources:  ragData.Sources,
	}
}

func ToTransformationRequest(req api.TransformRequest) notebookModel.TransformationRequest {
	return notebookModel.TransformationRequest{
		Type:      req.Type,
		Prompt:    req.Prompt,
		SourceIds: req.SourceIds,
		Length:    notebookModel.Length(req.Length),
		Format:    req.Format,
	}.WithDefaults()
}

func ToList[T any](items []T) api.ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return api.ListResponse[T]{Items: items, Count: len(items)}
}

func BadRequest(id string, message string, code int) api.JobResponse {
	return api.JobResponse{
		Id:     id,
		Result: api.Result{Status: string(api.JobStatusError)},
		Error:  &api.JobOutgoingError{Code: code, Message: message},
	}
}
