package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Settings holds everything that can be overridden from the environment.
// Values that never change between deployments stay in the constant block.
type Settings struct {
	ListenAddr string
	IsProd     bool

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
	OllamaBaseURL string

	GoogleAPIKey     string
	GeminiTextModel  string
	GeminiImageModel string

	ChunkSize        int
	ChunkOverlap     int
	MaxSources       int
	MaxContextLength int

	DeepInsightPath    string
	DeepInsightTimeout time.Duration

	DataDir     string
	PromptsFile string

	RedisAddr     string
	RedisPassword string

	AuthToken    string
	NoAuthBypass bool
	AllowDelete  bool
}

// Load reads .env then .env.local (the latter wins) and builds Settings.
// Variables already present in the process environment are never overwritten.
func Load() *Settings {
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load()

	s := &Settings{
		ListenAddr:         getEnv("SERVER_ADDR", ServerListenAddr),
		IsProd:             getEnvBool("IS_PROD", false),
		OpenAIAPIKey:       getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:      getEnv("OPENAI_BASE_URL", ""),
		OpenAIModel:        getEnv("OPENAI_MODEL", DefaultOpenAIModel),
		OllamaBaseURL:      getEnv("OLLAMA_BASE_URL", DefaultOllamaURL),
		GoogleAPIKey:       getEnv("GOOGLE_API_KEY", ""),
		GeminiTextModel:    getEnv("GEMINI_TEXT_MODEL", GeminiTextModel),
		GeminiImageModel:   getEnv("GEMINI_IMAGE_MODEL", GeminiImageModel),
		ChunkSize:          getEnvInt("CHUNK_SIZE", DefaultChunkSize),
		ChunkOverlap:       getEnvInt("CHUNK_OVERLAP", DefaultChunkOverlap),
		MaxSources:         getEnvInt("MAX_SOURCES", DefaultMaxSources),
		MaxContextLength:   getEnvInt("MAX_CONTEXT_LENGTH", DefaultMaxContextLength),
		DeepInsightPath:    getEnv("DEEPINSIGHT_PATH", DefaultDeepInsightPath),
		DeepInsightTimeout: getEnvDuration("DEEPINSIGHT_TIMEOUT", DeepInsightTimeout),
		DataDir:            getEnv("DATA_DIR", "./data"),
		PromptsFile:        getEnv("PROMPTS_FILE", ""),
		RedisAddr:          getEnv("REDIS_ADDR", RedisAddr),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		AuthToken:          getEnv("AUTH_TOKEN", ""),
		NoAuthBypass:       getEnvBool("NO_AUTH_BYPASS", false),
		AllowDelete:        getEnvBool("ALLOW_DELETE", true),
	}

	// llama models are served by a local Ollama unless told otherwise
	model := strings.ToLower(s.OpenAIModel)
	if s.OpenAIBaseURL == "" && (strings.Contains(model, "ollama") || strings.Contains(model, "llama")) {
		s.OpenAIBaseURL = strings.TrimRight(s.OllamaBaseURL, "/") + "/v1"
	}
	return s
}

// IsOllama reports whether chat completions go to an Ollama server.
func (s *Settings) IsOllama() bool {
	return strings.Contains(s.OpenAIBaseURL, "11434") || s.OpenAIAPIKey == ""
}

// Validate checks that a primary provider is reachable and creates the data directories.
func (s *Settings) Validate() error {
	if s.OpenAIAPIKey == "" && !strings.Contains(s.OpenAIBaseURL, "11434") {
		return errors.New("either OPENAI_API_KEY or OLLAMA_BASE_URL must be set")
	}
	if s.AuthToken == "" && !s.NoAuthBypass {
		return errors.New("AUTH_TOKEN must be set unless NO_AUTH_BYPASS=true")
	}
	for _, dir := range []string{s.DataDir, s.TmpDir(), s.UploadsDir()} {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return nil
}

// TmpDir is the scratch directory for DeepInsight reports.
func (s *Settings) TmpDir() string {
	return filepath.Join(s.DataDir, "tmp")
}

// UploadsDir holds uploaded documents and generated images.
func (s *Settings) UploadsDir() string {
	return filepath.Join(s.DataDir, "uploads")
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}
