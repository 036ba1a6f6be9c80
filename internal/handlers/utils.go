package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/akolanti/notex/internal/adapter"
	"github.com/akolanti/notex/internal/config"
	"github.com/akolanti/notex/internal/domain/errorModel"
	"github.com/akolanti/notex/pkg/logger_i"
)

func writeJsonResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but can't send a clean status code now
		logRH.Error("Error encoding response", "error", err)
	}
}

func traceIdFrom(ctx context.Context) string {
	trace, _ := ctx.Value(config.TRACE_ID_KEY).(string)
	return trace
}

func requestLogger(r *http.Request) *logger_i.Logger {
	return logRH.FromContext(r.Context())
}

func validateContext(ctx context.Context) bool {
	if ctx.Err() != nil {
		logRH.FromContext(ctx).Warn("context error", "error", ctx.Err())
		return false
	}
	return handlerInstance != nil
}

func WriteErrorResponse(w http.ResponseWriter, httpCode int, id string, error string) {
	writeJsonResponse(w, httpCode, adapter.BadRequest(id, error, httpCode))
}

// writeError answers with the status code the error classifies to.
func writeError(w http.ResponseWriter, id string, err error) {
	code, _ := errorModel.Classify(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		msg = "Internal error"
	}
	WriteErrorResponse(w, code, id, msg)
}

func decodeJSON(r *http.Request, v any) error {
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			logRH.Error("Couldn't close the request body", "error", err)
		}
	}(r.Body)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errorModel.InvalidRequest("malformed json: %v", err)
	}
	return nil
}

func allowDelete(w http.ResponseWriter, id string) bool {
	if !handlerInstance.allowDelete {
		WriteErrorResponse(w, http.StatusForbidden, id, "Deletion is disabled")
		return false
	}
	return true
}

// saveUpload copies an uploaded file into the uploads directory under a unique name.
func saveUpload(targetDir string, fileReader multipart.File, fileName string) (string, error) {
	if err := os.MkdirAll(targetDir, 0750); err != nil {
		return "", fmt.Errorf("creating upload dir: %w", err)
	}

	// only the base name is kept so a crafted file name cannot leave the directory
	tempFilePath := filepath.Join(targetDir, fmt.Sprintf("%d-%s", time.Now().UnixNano(), filepath.Base(fileName)))
	destinationFileWriter, err := os.Create(tempFilePath)
	if err != nil {
		return "", err
	}
	defer destinationFileWriter.Close()

	if _, err := io.Copy(destinationFileWriter, fileReader); err != nil {
		_ = os.Remove(tempFilePath)
		return "", err
	}
	return tempFilePath, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, errorModel.ErrNotFound)
}
