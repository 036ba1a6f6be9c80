package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/akolanti/notex/internal/config"
	"github.com/akolanti/notex/internal/handlers"
	"github.com/akolanti/notex/internal/job"
	"github.com/akolanti/notex/internal/mcpServer"
	"github.com/akolanti/notex/internal/middleware"
	"github.com/akolanti/notex/internal/server"
	"github.com/akolanti/notex/internal/worker"
	"github.com/akolanti/notex/pkg/logger_i"
	"github.com/spf13/cobra"
)

func serveCMD() *cobra.Command {
	var listenAddr string
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the worker pool and the MCP endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := config.Load()
			if listenAddr != "" {
				settings.ListenAddr = listenAddr
			}
			return runServer(settings)
		},
	}
	serve.Flags().StringVar(&listenAddr, "listen-addr", "", "server listen address (default SERVER_ADDR or "+config.ServerListenAddr+")")
	return serve
}

func runServer(settings *config.Settings) error {
	logger_i.Init(settings.IsProd)
	logger := logger_i.NewLogger("main")

	if err := settings.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		return err
	}
	middleware.Configure(settings.AuthToken, settings.NoAuthBypass)

	serviceContext, closeExternalServices := context.WithCancel(context.Background())
	defer closeExternalServices()
	middleware.StartLimiterPruning(serviceContext, config.RateLimiterPruneInterval)

	logger.Info("Starting job service")
	a, err := buildApp(serviceContext, settings, logger)
	if err != nil {
		logger.Error("Startup failed", "error", err)
		return err
	}

	restored, err := job.RestoreIndex(serviceContext, a.jobService.NotebookStore, a.rag)
	if err != nil {
		logger.Error("Index restore failed", "error", err)
	} else {
		logger.Info("Index restored", "sources", restored)
	}

	handlers.InitJobHandler(handlers.Deps{
		JobService:  a.jobService,
		Rag:         a.rag,
		Prompts:     a.prompts,
		UploadsDir:  settings.UploadsDir(),
		AllowDelete: settings.AllowDelete,
		Services:    a.services,
	})

	//init worker pool
	var workerWaitGroup sync.WaitGroup
	stopWorkerChannel := make(chan bool, 1)
	worker.InitServices(a.jobService, a.rag)
	worker.InitWorkerPool(stopWorkerChannel, &workerWaitGroup)

	//server handling
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	stopExecution := make(chan bool, 1)

	go server.ShutDownHandler(server.ShutdownParams{
		GracefulShutdown: gracefulShutdown,
		StopExecution:    stopExecution,
		WorkerStop:       stopWorkerChannel,
		Group:            &workerWaitGroup,
		CloseServices:    closeExternalServices,
	})
	go server.CreateServer(server.Options{
		ListenAddr: settings.ListenAddr,
		UploadsDir: settings.UploadsDir(),
		MCP:        mcpServer.NewServer(a.rag, a.jobService.NotebookStore).Handler(),
	})

	<-stopExecution
	logger.Info("Server stopped")
	return nil
}
