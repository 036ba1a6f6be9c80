package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/akolanti/notex/internal/adapter"
	"github.com/akolanti/notex/internal/adapter/utils"
	"github.com/akolanti/notex/internal/api"
	"github.com/akolanti/notex/internal/config"
	"github.com/akolanti/notex/internal/domain/jobModel"
)

// HealthHandler godoc
// @Summary      Service health
// @Description  Reports the version, the configured providers and the size of the keyword index.
// @Tags         System
// @Produce      json
// @Success      200  {object}  api.HealthResponse
// @Router       /api/health [get]
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		WriteErrorResponse(w, http.StatusServiceUnavailable, "", "Service not ready")
		return
	}
	services := make(map[string]any, len(handlerInstance.services)+2)
	for k, v := range handlerInstance.services {
		services[k] = v
	}
	stats := handlerInstance.rag.Stats()
	services["indexed_chunks"] = stats.TotalChunks
	services["indexed_sources"] = stats.TotalSources

	writeJsonResponse(w, http.StatusOK, api.HealthResponse{
		Status:    "healthy",
		Version:   config.Version,
		Timestamp: time.Now(),
		Services:  services,
	})
}

// ConfigHandler godoc
// @Summary      Client configuration
// @Tags         System
// @Produce      json
// @Success      200  {object}  api.ConfigResponse
// @Router       /api/config [get]
func ConfigHandler(w http.ResponseWriter, r *http.Request) {
	if validateContext(r.Context()) {
		writeJsonResponse(w, http.StatusOK, api.ConfigResponse{AllowDelete: handlerInstance.allowDelete})
	}
}

// ChatHandler godoc
// @Summary      Start a new chat job
// @Description  Accepts a message, initializes a background chat job over the indexed sources, and returns a job ID to track status.
// @Tags         Messaging
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string               true  "Notebook ID"
// @Param        request  body      api.ChatRequest      true  "Chat message and optional session ID"
// @Success      202      {object}  api.InitJobResponse  "Job successfully created"
// @Failure      400      {object}  api.JobResponse      "Invalid request data or session ID"
// @Failure      404      {object}  api.JobResponse      "Notebook not found"
// @Router       /api/notebooks/{id}/chat [post]
func ChatHandler(w http.ResponseWriter, request *http.Request) {
	if !validateContext(request.Context()) {
		return
	}
	notebookId := utils.GetChiURLParam(request, "id")
	if _, ok := handlerInstance.notebooks.GetNotebook(request.Context(), notebookId); !ok {
		WriteErrorResponse(w, http.StatusNotFound, notebookId, "Notebook not found")
		return
	}

	var requestData api.ChatRequest
	if err := decodeJSON(request, &requestData); err != nil || !validateChatRequest(request, requestData) {
		requestLogger(request).Warn("Bad Chat Request", "error", err, "sessionId", requestData.SessionId)
		WriteErrorResponse(w, http.StatusBadRequest, requestData.SessionId, "Bad Request")
		return
	}

	chatId := requestData.SessionId
	isNewChat := chatId == ""
	if isNewChat {
		chatId = utils.GetNewUUID()
		requestLogger(request).Debug("New Chat request", "chatId", chatId)
	}
	queueJob(w, request, newJobData{
		jobType:    jobModel.JobTypeChat,
		notebookId: notebookId,
		chatId:     chatId,
		message:    requestData.Message,
		isNewChat:  isNewChat,
	})
}

func validateChatRequest(r *http.Request, chatReq api.ChatRequest) bool {
	if strings.TrimSpace(chatReq.Message) == "" {
		return false
	}
	if chatReq.SessionId == "" {
		return true
	}
	return handlerInstance.service.MessageStore.ValidateChatId(r.Context(), chatReq.SessionId)
}

// TransformHandler godoc
// @Summary      Start a transformation job
// @Description  Generates a note of the requested type (summary, faq, study_guide, outline, podcast, timeline, glossary, quiz, infograph, ppt, mindmap, insight) from the notebook sources.
// @Tags         Transformations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                true  "Notebook ID"
// @Param        request  body      api.TransformRequest  true  "Transformation request"
// @Success      202      {object}  api.InitJobResponse
// @Failure      400      {object}  api.JobResponse  "Unknown transformation type"
// @Failure      404      {object}  api.JobResponse  "Notebook not found"
// @Router       /api/notebooks/{id}/transform [post]
func TransformHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	notebookId := utils.GetChiURLParam(r, "id")
	if _, ok := handlerInstance.notebooks.GetNotebook(r.Context(), notebookId); !ok {
		WriteErrorResponse(w, http.StatusNotFound, notebookId, "Notebook not found")
		return
	}

	var requestData api.TransformRequest
	if err := decodeJSON(r, &requestData); err != nil {
		writeError(w, notebookId, err)
		return
	}
	if !handlerInstance.prompts.Has(requestData.Type) {
		WriteErrorResponse(w, http.StatusBadRequest, notebookId, "Unknown transformation type: "+requestData.Type)
		return
	}

	req := adapter.ToTransformationRequest(requestData)
	queueJob(w, r, newJobData{
		jobType:    jobModel.JobTypeTransform,
		notebookId: notebookId,
		transform:  &req,
	})
}

// GetStatusHandler godoc
// @Summary      Get job status
// @Description  Retrieves the current status of a specific job using its ID.
// @Tags         Job Status
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Job ID"
// @Success      200  {object}  api.JobResponse   "Successful retrieval of job status"
// @Failure      404  {object}  api.JobResponse   "Job not found (returns Error object within JobResponse)"
// @Router       /status/{id} [get]
func GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	idString := utils.GetChiURLParam(r, "id")
	requestLogger(r).Debug("Get Status Request", "URL path", r.URL.Path)

	if idString == "" {
		WriteErrorResponse(w, http.StatusNotFound, idString, "Job not found")
		return
	}
	result, isFound := GetJobStatus(idString, traceIdFrom(r.Context()))
	if !isFound {
		WriteErrorResponse(w, http.StatusNotFound, idString, "Job not found")
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToAPIResponse(result))
}

// PostUploadHandler handles the uploading of documents for ingestion.
// @Summary      Upload a document as a source
// @Description  Receives a file via multipart/form-data, saves it to the uploads directory, and queues an ingestion job.
// @Tags         Sources
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string  true   "Notebook ID"
// @Param        file  formData  file    true   "PDF, DOCX, ODT, RTF or text file"
// @Param        name  formData  string  false  "Display name of the source"
// @Success      202  {object}  api.InitJobResponse "Accepted - returns job_id"
// @Failure      400  {object}  api.JobResponse "Bad Request - Missing fields or file too large"
// @Failure      500  {object}  api.JobResponse "Internal Server Error - Storage or Write Error"
// @Router       /api/notebooks/{id}/upload [post]
func PostUploadHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	notebookId := utils.GetChiURLParam(r, "id")
	if _, ok := handlerInstance.notebooks.GetNotebook(r.Context(), notebookId); !ok {
		WriteErrorResponse(w, http.StatusNotFound, notebookId, "Notebook not found")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, config.MaxUploadSize)
	if err := r.ParseMultipartForm(config.MaxUploadSize); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, notebookId, "File too large or bad request")
		return
	}

	fileReader, fileMetadata, err := r.FormFile("file")
	if err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, notebookId, "Could not retrieve file")
		return
	}
	defer fileReader.Close()

	tempFilePath, err := saveUpload(handlerInstance.uploadsDir, fileReader, fileMetadata.Filename)
	if err != nil {
		requestLogger(r).Error("Couldn't store upload", "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, notebookId, "Storage error")
		return
	}

	queueJob(w, r, newJobData{
		jobType:    jobModel.JobTypeIngest,
		notebookId: notebookId,
		fileName:   fileMetadata.Filename,
		filePath:   tempFilePath,
		name:       r.FormValue("name"),
	})
}

func queueJob(w http.ResponseWriter, r *http.Request, newJob newJobData) {
	newJob.id = utils.GetNewUUID()
	newJob.traceId = traceIdFrom(r.Context())
	if err := CreateNewJob(newJob); err != nil {
		WriteErrorResponse(w, http.StatusInternalServerError, newJob.id, "Could not start job")
		return
	}
	sessionId := ""
	if newJob.jobType == jobModel.JobTypeChat {
		sessionId = newJob.chatId
	}
	writeJsonResponse(w, http.StatusAccepted, adapter.ToInitJobResponse(newJob.id, sessionId))
}
