package handlers

import (
	"net/http"
	"strings"

	"github.com/akolanti/notex/internal/adapter"
	"github.com/akolanti/notex/internal/adapter/utils"
	"github.com/akolanti/notex/internal/api"
	"github.com/akolanti/notex/internal/domain/jobModel"
	"github.com/akolanti/notex/internal/domain/notebookModel"
)

// ListNotebooksHandler godoc
// @Summary      List notebooks
// @Tags         Notebooks
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  api.ListResponse[notebookModel.Notebook]
// @Router       /api/notebooks [get]
func ListNotebooksHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	list, err := handlerInstance.notebooks.ListNotebooks(r.Context())
	if err != nil {
		requestLogger(r).Error("listing notebooks failed", "error", err)
		writeError(w, "", err)
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToList(list))
}

// CreateNotebookHandler godoc
// @Summary      Create a notebook
// @Tags         Notebooks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      api.CreateNotebookRequest  true  "Notebook"
// @Success      201      {object}  notebookModel.Notebook
// @Failure      400      {object}  api.JobResponse
// @Router       /api/notebooks [post]
func CreateNotebookHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	var req api.CreateNotebookRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, "", err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "", "name is required")
		return
	}
	nb, err := handlerInstance.notebooks.CreateNotebook(r.Context(), notebookModel.Notebook{
		Name:        req.Name,
		Description: req.Description,
		Metadata:    req.Metadata,
	})
	if err != nil {
		writeError(w, "", err)
		return
	}
	requestLogger(r).Info("notebook created", "notebookId", nb.Id)
	writeJsonResponse(w, http.StatusCreated, nb)
}

// GetNotebookHandler godoc
// @Summary      Get a notebook
// @Tags         Notebooks
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Notebook ID"
// @Success      200  {object}  notebookModel.Notebook
// @Failure      404  {object}  api.JobResponse
// @Router       /api/notebooks/{id} [get]
func GetNotebookHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	id := utils.GetChiURLParam(r, "id")
	nb, ok := handlerInstance.notebooks.GetNotebook(r.Context(), id)
	if !ok {
		WriteErrorResponse(w, http.StatusNotFound, id, "Notebook not found")
		return
	}
	writeJsonResponse(w, http.StatusOK, nb)
}

// DeleteNotebookHandler godoc
// @Summary      Delete a notebook with its sources and notes
// @Tags         Notebooks
// @Security     BearerAuth
// @Param        id   path  string  true  "Notebook ID"
// @Success      204
// @Failure      403  {object}  api.JobResponse  "Deletion is disabled"
// @Failure      404  {object}  api.JobResponse
// @Router       /api/notebooks/{id} [delete]
func DeleteNotebookHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	id := utils.GetChiURLParam(r, "id")
	if !allowDelete(w, id) {
		return
	}
	sources, err := handlerInstance.notebooks.ListSources(r.Context(), id)
	if err != nil {
		writeError(w, id, err)
		return
	}
	if err := handlerInstance.notebooks.DeleteNotebook(r.Context(), id); err != nil {
		writeError(w, id, err)
		return
	}
	for _, src := range sources {
		handlerInstance.rag.DeleteSource(r.Context(), src.Name)
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListSourcesHandler godoc
// @Summary      List the sources of a notebook
// @Tags         Sources
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Notebook ID"
// @Success      200  {object}  api.ListResponse[notebookModel.Source]
// @Failure      404  {object}  api.JobResponse
// @Router       /api/notebooks/{id}/sources [get]
func ListSourcesHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	id := utils.GetChiURLParam(r, "id")
	if _, ok := handlerInstance.notebooks.GetNotebook(r.Context(), id); !ok {
		WriteErrorResponse(w, http.StatusNotFound, id, "Notebook not found")
		return
	}
	sources, err := handlerInstance.notebooks.ListSources(r.Context(), id)
	if err != nil {
		writeError(w, id, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToList(sources))
}

// CreateSourceHandler godoc
// @Summary      Add a text or url source
// @Description  Text sources are indexed immediately and returned with 201. A url without content is fetched by an ingestion job and answered with 202.
// @Tags         Sources
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                   true  "Notebook ID"
// @Param        request  body      api.CreateSourceRequest  true  "Source"
// @Success      201      {object}  notebookModel.Source
// @Success      202      {object}  api.InitJobResponse
// @Failure      400      {object}  api.JobResponse
// @Failure      404      {object}  api.JobResponse
// @Router       /api/notebooks/{id}/sources [post]
func CreateSourceHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	notebookId := utils.GetChiURLParam(r, "id")
	if _, ok := handlerInstance.notebooks.GetNotebook(r.Context(), notebookId); !ok {
		WriteErrorResponse(w, http.StatusNotFound, notebookId, "Notebook not found")
		return
	}

	var req api.CreateSourceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, notebookId, err)
		return
	}
	if req.Type == "" {
		req.Type = string(notebookModel.SourceTypeText)
	}

	switch {
	case req.Type == string(notebookModel.SourceTypeURL) && req.URL != "" && req.Content == "":
		queueJob(w, r, newJobData{
			jobType:    jobModel.JobTypeIngest,
			notebookId: notebookId,
			url:        req.URL,
			name:       req.Name,
		})
		return
	case strings.TrimSpace(req.Name) == "":
		WriteErrorResponse(w, http.StatusBadRequest, notebookId, "name is required")
		return
	case strings.TrimSpace(req.Content) == "":
		WriteErrorResponse(w, http.StatusBadRequest, notebookId, "content is required")
		return
	}

	src, err := handlerInstance.notebooks.CreateSource(r.Context(), notebookModel.Source{
		NotebookId: notebookId,
		Name:       req.Name,
		Type:       notebookModel.SourceType(req.Type),
		URL:        req.URL,
		Content:    req.Content,
		Metadata:   req.Metadata,
	})
	if err != nil {
		writeError(w, notebookId, err)
		return
	}
	src.ChunkCount = handlerInstance.rag.IngestSource(r.Context(), src.Name, src.Content)
	if err := handlerInstance.notebooks.UpdateSourceChunkCount(r.Context(), src.Id, src.ChunkCount); err != nil {
		requestLogger(r).Error("failed to update chunk count", "sourceId", src.Id, "error", err)
	}
	writeJsonResponse(w, http.StatusCreated, src)
}

// DeleteSourceHandler godoc
// @Summary      Delete a source and its indexed chunks
// @Tags         Sources
// @Security     BearerAuth
// @Param        id        path  string  true  "Notebook ID"
// @Param        sourceId  path  string  true  "Source ID"
// @Success      204
// @Failure      403  {object}  api.JobResponse  "Deletion is disabled"
// @Failure      404  {object}  api.JobResponse
// @Router       /api/notebooks/{id}/sources/{sourceId} [delete]
func DeleteSourceHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	notebookId := utils.GetChiURLParam(r, "id")
	sourceId := utils.GetChiURLParam(r, "sourceId")
	if !allowDelete(w, sourceId) {
		return
	}
	src, ok := handlerInstance.notebooks.GetSource(r.Context(), sourceId)
	if !ok || src.NotebookId != notebookId {
		WriteErrorResponse(w, http.StatusNotFound, sourceId, "Source not found")
		return
	}
	if err := handlerInstance.notebooks.DeleteSource(r.Context(), sourceId); err != nil {
		writeError(w, sourceId, err)
		return
	}
	handlerInstance.rag.DeleteSource(r.Context(), src.Name)
	w.WriteHeader(http.StatusNoContent)
}

// ListNotesHandler godoc
// @Summary      List the notes of a notebook
// @Tags         Notes
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Notebook ID"
// @Success      200  {object}  api.ListResponse[notebookModel.Note]
// @Failure      404  {object}  api.JobResponse
// @Router       /api/notebooks/{id}/notes [get]
func ListNotesHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	id := utils.GetChiURLParam(r, "id")
	if _, ok := handlerInstance.notebooks.GetNotebook(r.Context(), id); !ok {
		WriteErrorResponse(w, http.StatusNotFound, id, "Notebook not found")
		return
	}
	notes, err := handlerInstance.notebooks.ListNotes(r.Context(), id)
	if err != nil {
		writeError(w, id, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToList(notes))
}

// DeleteNoteHandler godoc
// @Summary      Delete a note
// @Tags         Notes
// @Security     BearerAuth
// @Param        id      path  string  true  "Notebook ID"
// @Param        noteId  path  string  true  "Note ID"
// @Success      204
// @Failure      403  {object}  api.JobResponse  "Deletion is disabled"
// @Failure      404  {object}  api.JobResponse
// @Router       /api/notebooks/{id}/notes/{noteId} [delete]
func DeleteNoteHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	noteId := utils.GetChiURLParam(r, "noteId")
	if !allowDelete(w, noteId) {
		return
	}
	if err := handlerInstance.notebooks.DeleteNote(r.Context(), noteId); err != nil {
		if !isNotFound(err) {
			requestLogger(r).Error("deleting note failed", "noteId", noteId, "error", err)
		}
		writeError(w, noteId, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
