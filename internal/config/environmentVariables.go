package config

import (
	"log/slog"
	"time"
)

const (
	LOG_LEVEL_PROD              = slog.LevelInfo
	TRACE_ID_KEY                = "traceId"
	RATE_LIMIT_PER_SECOND       = 10
	BURST_RATE_LIMIT_PER_SECOND = 20
	RateLimiterPruneInterval    = 10 * time.Minute
	Version                     = "1.0.0"

	RequestsPerNewWorkerCount int64 = 10
	MaxWorkerCount            int64 = 10
	MinWorkerCount            int64 = 1
	IdleWorkerTimeout               = 1 * time.Minute

	//job timeouts - insight can wait on DeepInsight for 10 minutes, ppt renders images one by one
	ChatJobTimeout      = 5 * time.Minute
	TransformJobTimeout = 30 * time.Minute
	IngestJobTimeout    = 5 * time.Minute

	//serverTimeouts
	ReadTimeout            = 15 * time.Second
	WriteTimeout           = 30 * time.Second
	IdleTimeout            = 120 * time.Second
	ShutdownContextTimeout = 10 * time.Second

	//server listening port
	ServerListenAddr = ":8080"

	//job requests buffer limit
	BufferLimit = 100

	//upload
	MaxUploadSize = 32 << 20 //32mb

	//llm
	LLMRequestTimeout  = 300 * time.Second
	LLMMaxRetries      = 3
	DefaultOpenAIModel = "gpt-4o-mini"
	DefaultOllamaURL   = "http://localhost:11434"
	GeminiTextModel    = "gemini-2.0-flash-exp"
	GeminiImageModel   = "gemini-3-pro-image-preview"
	ImageRetryAttempts = 3
	ImageRetryDelay    = 2 * time.Second

	//retrieval
	DefaultChunkSize        = 1000
	DefaultChunkOverlap     = 200
	DefaultMaxSources       = 5
	DefaultMaxContextLength = 128000
	ChatHistoryWindow       = 10

	//slides beyond this count are not rendered
	MaxSlides = 10

	//DeepInsight
	DefaultDeepInsightPath = "./DeepInsight"
	DeepInsightTimeout     = 600 * time.Second

	//generated images are served from here
	UploadsURLPrefix = "/uploads/"

	//url sources
	URLFetchTimeout = 30 * time.Second

	MaxIdleConns        = 50
	MaxIdleConnsPerHost = 25
	IdleConnTimeout     = 60 * time.Second

	//redis
	redisHost = "127.0.0.1"
	redisPort = "6379"
	RedisAddr = redisHost + ":" + redisPort

	//redis has 16 DB we can use
	RedisJobStore      = 0
	RedisMessageStore  = 1
	RedisNotebookStore = 2

	//redis timeouts
	RedisJobStoreTTL     = 24 * time.Hour
	RedisMessageStoreTTL = 7 * 24 * time.Hour
)
