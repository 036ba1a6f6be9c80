package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync"

	"github.com/akolanti/notex/internal/adapter/utils"
	"github.com/akolanti/notex/internal/config"
	"github.com/akolanti/notex/internal/middleware"
	"github.com/akolanti/notex/pkg/logger_i"
	"github.com/go-chi/chi/v5"
)

var (
	server  *http.Server
	_logger = logger_i.NewLogger("Server")
)

type ShutdownParams struct {
	GracefulShutdown chan os.Signal
	StopExecution    chan bool
	WorkerStop       chan bool
	Group            *sync.WaitGroup
	CloseServices    context.CancelFunc
}

type Options struct {
	ListenAddr string
	UploadsDir string
	// MCP is mounted at /mcp behind authentication when set
	MCP http.Handler
}

// NewRouter registers every route on the shared router.
func NewRouter(opts Options) *chi.Mux {
	r := utils.GetRouter().Router

	r.Get("/api/health", middleware.HealthHandler)
	r.Get("/api/config", middleware.ConfigHandler)

	r.Route("/api/notebooks", func(r chi.Router) {
		r.Get("/", middleware.ListNotebooksHandler)
		r.Post("/", middleware.CreateNotebookHandler)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", middleware.GetNotebookHandler)
			r.Delete("/", middleware.DeleteNotebookHandler)

			r.Get("/sources", middleware.ListSourcesHandler)
			r.Post("/sources", middleware.CreateSourceHandler)
			r.Delete("/sources/{sourceId}", middleware.DeleteSourceHandler)
			r.Post("/upload", middleware.PostUploadHandler)

			r.Get("/notes", middleware.ListNotesHandler)
			r.Delete("/notes/{noteId}", middleware.DeleteNoteHandler)

			r.Post("/transform", middleware.TransformHandler)
			r.Post("/chat", middleware.ChatHandler)
		})
	})
	r.Get("/status/{id}", middleware.GetStatusHandler)

	//generated images and uploaded files
	if opts.UploadsDir != "" {
		utils.MountFileServer(r, config.UploadsURLPrefix, opts.UploadsDir)
	}
	if opts.MCP != nil {
		r.Handle("/mcp", middleware.WrapHandler(opts.MCP))
	}
	return r
}

func CreateServer(opts Options) {
	server = &http.Server{
		Addr:         opts.ListenAddr,
		Handler:      NewRouter(opts),
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	_logger.Info("Server is listening at", "address", opts.ListenAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		_logger.Error("Server crashed", "error", err.Error(), "addr", opts.ListenAddr)
	}
}

func ShutDownHandler(shutdownParams ShutdownParams) {
	state := <-shutdownParams.GracefulShutdown
	_logger.Info("Server is shutting down", "signal", state.String())

	ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownContextTimeout)
	defer cancel()

	done := make(chan struct{})

	go func() {
		if server != nil {
			server.SetKeepAlivesEnabled(false)
			if err := server.Shutdown(ctx); err != nil {
				_logger.Error("Could not shutdown gracefully", "error", err)
			}
		}

		//close workers
		close(shutdownParams.WorkerStop)
		shutdownParams.Group.Wait()
		shutdownParams.CloseServices()
		close(shutdownParams.StopExecution)
		close(done)
	}()

	select {
	case <-done:
		_logger.Info("Gracefully shut down")
	case <-ctx.Done():
		_logger.Info("Force Shut down")
		os.Exit(1)
	}
}
