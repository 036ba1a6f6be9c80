package middleware

import (
	"net/http"
	"strconv"

	"github.com/akolanti/notex/internal/handlers"
	"github.com/akolanti/notex/internal/metrics"
	"github.com/akolanti/notex/pkg/logger_i"
)

type requestResponseStruct struct {
	writer     http.ResponseWriter
	req        *http.Request
	badRequest failureStruct
	logger     *logger_i.Logger
	public     bool
}

type failureStruct struct {
	isBadRequest bool
	httpCode     int
	errorMessage string
}

var (
	HealthHandler = WrapPublic(handlers.HealthHandler)
	ConfigHandler = WrapPublic(handlers.ConfigHandler)

	ListNotebooksHandler  = Wrap(handlers.ListNotebooksHandler)
	CreateNotebookHandler = Wrap(handlers.CreateNotebookHandler)
	GetNotebookHandler    = Wrap(handlers.GetNotebookHandler)
	DeleteNotebookHandler = Wrap(handlers.DeleteNotebookHandler)

	ListSourcesHandler  = Wrap(handlers.ListSourcesHandler)
	CreateSourceHandler = Wrap(handlers.CreateSourceHandler)
	DeleteSourceHandler = Wrap(handlers.DeleteSourceHandler)
	PostUploadHandler   = Wrap(handlers.PostUploadHandler)

	ListNotesHandler  = Wrap(handlers.ListNotesHandler)
	DeleteNoteHandler = Wrap(handlers.DeleteNoteHandler)

	TransformHandler = Wrap(handlers.TransformHandler)
	ChatHandler      = Wrap(handlers.ChatHandler)
	GetStatusHandler = Wrap(handlers.GetStatusHandler)
)

// Wrap runs trace injection, authentication and rate limiting before next.
func Wrap(next http.HandlerFunc) http.HandlerFunc {
	return wrap(next, false)
}

// WrapPublic skips authentication, for endpoints a browser loads directly.
func WrapPublic(next http.HandlerFunc) http.HandlerFunc {
	return wrap(next, true)
}

// WrapHandler protects a mounted http.Handler such as the MCP endpoint.
func WrapHandler(next http.Handler) http.Handler {
	return Wrap(next.ServeHTTP)
}

func wrap(next http.HandlerFunc, public bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &metrics.HttpStatusRecorder{ResponseWriter: w, Status: http.StatusOK} //metrics
		re := processRequest(requestResponseStruct{req: r, writer: rec, public: public})

		if !re.badRequest.isBadRequest {
			next(rec, re.req)
		}
		metrics.HttpRequestsTotal.WithLabelValues(r.URL.Path, strconv.Itoa(rec.Status)).Inc() //metrics
	}
}

func processRequest(re requestResponseStruct) requestResponseStruct {
	re.logger = logger_i.NewLogger("middleware")
	re = injectTrace(re)
	if re.badRequest.isBadRequest {
		handleBadRequest(re)
		return re
	}
	re.logger.Debug("New request received", "method", re.req.Method, "path", re.req.URL.Path)

	if !re.public {
		re = authenticate(re)
		if re.badRequest.isBadRequest {
			handleBadRequest(re)
			return re //stop if auth fails
		}
	}
	re = rateLimiter(re)
	if re.badRequest.isBadRequest {
		handleBadRequest(re)
		return re //stop here if rate limit fails
	}
	return re
}
