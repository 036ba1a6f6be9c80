package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, k := range []string{"CHUNK_SIZE", "CHUNK_OVERLAP", "MAX_SOURCES", "OPENAI_MODEL", "OPENAI_BASE_URL", "DEEPINSIGHT_TIMEOUT"} {
		t.Setenv(k, "")
	}

	s := Load()

	if s.ChunkSize != DefaultChunkSize || s.ChunkOverlap != DefaultChunkOverlap {
		t.Errorf("chunking defaults got %d/%d", s.ChunkSize, s.ChunkOverlap)
	}
	if s.MaxSources != DefaultMaxSources {
		t.Errorf("MaxSources got %d, want %d", s.MaxSources, DefaultMaxSources)
	}
	if s.OpenAIModel != DefaultOpenAIModel {
		t.Errorf("OpenAIModel got %s", s.OpenAIModel)
	}
	if s.DeepInsightTimeout != DeepInsightTimeout {
		t.Errorf("DeepInsightTimeout got %v", s.DeepInsightTimeout)
	}
	if !s.AllowDelete {
		t.Error("AllowDelete should default to true")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CHUNK_SIZE", "500")
	t.Setenv("CHUNK_OVERLAP", "not-a-number")
	t.Setenv("DEEPINSIGHT_TIMEOUT", "2s")
	t.Setenv("ALLOW_DELETE", "false")

	s := Load()

	if s.ChunkSize != 500 {
		t.Errorf("ChunkSize got %d, want 500", s.ChunkSize)
	}
	if s.ChunkOverlap != DefaultChunkOverlap {
		t.Errorf("invalid int should fall back, got %d", s.ChunkOverlap)
	}
	if s.DeepInsightTimeout != 2*time.Second {
		t.Errorf("DeepInsightTimeout got %v", s.DeepInsightTimeout)
	}
	if s.AllowDelete {
		t.Error("AllowDelete should be false")
	}
}

func TestLoad_DotEnvFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("MAX_SOURCES", "")
	os.Unsetenv("MAX_SOURCES")
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("MAX_SOURCES=9\n"), 0644); err != nil {
		t.Fatal(err)
	}

	s := Load()
	if s.MaxSources != 9 {
		t.Errorf("MaxSources got %d, want 9 from .env", s.MaxSources)
	}
}

func TestLoad_OllamaDetection(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("OPENAI_MODEL", "llama3.2")
	t.Setenv("OPENAI_BASE_URL", "")
	t.Setenv("OLLAMA_BASE_URL", "http://localhost:11434/")

	s := Load()
	if s.OpenAIBaseURL != "http://localhost:11434/v1" {
		t.Errorf("OpenAIBaseURL got %s", s.OpenAIBaseURL)
	}
	if !s.IsOllama() {
		t.Error("expected IsOllama")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		s       Settings
		wantErr bool
	}{
		{name: "no provider", s: Settings{NoAuthBypass: true}, wantErr: true},
		{name: "openai key", s: Settings{OpenAIAPIKey: "k", NoAuthBypass: true}},
		{name: "ollama", s: Settings{OpenAIBaseURL: "http://localhost:11434/v1", NoAuthBypass: true}},
		{name: "missing auth token", s: Settings{OpenAIAPIKey: "k"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.s.DataDir = filepath.Join(t.TempDir(), "data")
			err := tt.s.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				if _, statErr := os.Stat(tt.s.UploadsDir()); statErr != nil {
					t.Errorf("uploads dir not created: %v", statErr)
				}
			}
		})
	}
}
