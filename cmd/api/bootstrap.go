package main

import (
	"context"
	"os"

	"github.com/akolanti/notex/internal/config"
	"github.com/akolanti/notex/internal/data/redisStore"
	"github.com/akolanti/notex/internal/data/store"
	"github.com/akolanti/notex/internal/domain/jobModel"
	"github.com/akolanti/notex/internal/job"
	"github.com/akolanti/notex/internal/rag"
	"github.com/akolanti/notex/internal/rag/deepinsight"
	"github.com/akolanti/notex/internal/rag/llm/gemini"
	"github.com/akolanti/notex/internal/rag/llm/openaiLLM"
	"github.com/akolanti/notex/internal/rag/prompts"
	"github.com/akolanti/notex/internal/rag/retrieval"
	"github.com/akolanti/notex/pkg/logger_i"
)

// app is everything the serve and ingest commands share.
type app struct {
	settings   *config.Settings
	jobService *job.Service
	rag        rag.Service
	prompts    *prompts.Library
	services   map[string]any
}

func buildApp(ctx context.Context, settings *config.Settings, logger *logger_i.Logger) (*app, error) {
	lib, err := prompts.Load(settings.PromptsFile)
	if err != nil {
		return nil, err
	}

	serviceConfig := job.ServiceConfig{
		JobChannel:        make(chan jobModel.Job, config.BufferLimit),
		DispatcherChannel: make(chan bool, 1),
	}
	storeKind := "redis"
	if !openRedisStores(ctx, settings, &serviceConfig, logger) {
		logger.Error("Redis stores are offline, falling back to memory")
		storeKind = "memory"
		serviceConfig.JobStore = store.InitInMemoryJobStore()
		serviceConfig.MessageStore = store.InitMessageStore()
		serviceConfig.NotebookStore = store.InitInMemoryNotebookStore()
	}

	primary := openaiLLM.NewClient(openaiLLM.Options{
		APIKey:  settings.OpenAIAPIKey,
		BaseURL: settings.OpenAIBaseURL,
		Model:   settings.OpenAIModel,
	})
	deps := rag.Deps{
		Ranker:  retrieval.NewKeywordRanker(retrieval.NewChunkStore()),
		Primary: primary,
		Tool:    deepinsight.NewInvoker(settings.DeepInsightPath, settings.TmpDir(), settings.DeepInsightTimeout),
		Prompts: lib,
	}
	multimodal, err := gemini.NewClient(ctx, settings.GoogleAPIKey, settings.UploadsDir())
	if err != nil {
		logger.Error("Gemini client unavailable, continuing without images", "error", err)
	} else if multimodal != nil {
		deps.Multimodal = multimodal
	}

	ragService := rag.NewService(deps, rag.Options{
		ChunkSize:        settings.ChunkSize,
		ChunkOverlap:     settings.ChunkOverlap,
		MaxSources:       settings.MaxSources,
		MaxContextLength: settings.MaxContextLength,
		TextModel:        settings.GeminiTextModel,
		ImageModel:       settings.GeminiImageModel,
	})

	primaryName := "openai"
	if settings.IsOllama() {
		primaryName = "ollama"
	}
	_, toolErr := os.Stat(settings.DeepInsightPath)
	return &app{
		settings:   settings,
		jobService: job.InitJobService(serviceConfig),
		rag:        ragService,
		prompts:    lib,
		services: map[string]any{
			"primary_provider": primaryName,
			"model":            settings.OpenAIModel,
			"multimodal":       ragService.HasMultimodal(),
			"deepinsight":      toolErr == nil,
			"store":            storeKind,
		},
	}, nil
}

func openRedisStores(ctx context.Context, settings *config.Settings, cfg *job.ServiceConfig, logger *logger_i.Logger) bool {
	opts := redisStore.Options{Addr: settings.RedisAddr, Password: settings.RedisPassword}
	jobs, err := redisStore.GetRedisStore(ctx, opts, config.RedisJobStore)
	if err != nil {
		return false
	}
	messages, err := redisStore.GetRedisStore(ctx, opts, config.RedisMessageStore)
	if err != nil {
		return false
	}
	notebooks, err := redisStore.GetRedisStore(ctx, opts, config.RedisNotebookStore)
	if err != nil {
		return false
	}
	logger.Info("Using redis stores", "addr", settings.RedisAddr)
	cfg.JobStore = store.NewRedisJobStore(jobs)
	cfg.MessageStore = store.NewRedisMessageStore(messages)
	cfg.NotebookStore = store.NewRedisNotebookStore(notebooks)
	return true
}
