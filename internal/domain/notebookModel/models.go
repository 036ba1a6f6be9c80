package notebookModel

import (
	"context"
	"time"
)

type SourceType string
type Length string

const (
	SourceTypeFile    SourceType = "file"
	SourceTypeURL     SourceType = "url"
	SourceTypeText    SourceType = "text"
	SourceTypeInsight SourceType = "insight"

	LengthShort  Length = "short"
	LengthMedium Length = "medium"
	LengthLong   Length = "long"

	FormatMarkdown = "markdown"

	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Chunk is one retrievable window of a source. Identity is (SourceName, Index).
type Chunk struct {
	Text       string `json:"text"`
	SourceName string `json:"source_name"`
	Index      int    `json:"index"`
}

type Notebook struct {
	Id          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

type Source struct {
	Id         string         `json:"id"`
	NotebookId string         `json:"notebook_id"`
	Name       string         `json:"name"`
	Type       SourceType     `json:"type"`
	URL        string         `json:"url,omitempty"`
	Content    string         `json:"content,omitempty"`
	FileName   string         `json:"file_name,omitempty"`
	FileSize   int64          `json:"file_size,omitempty"`
	ChunkCount int            `json:"chunk_count"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

type Note struct {
	Id         string         `json:"id"`
	NotebookId string         `json:"notebook_id"`
	Title      string         `json:"title"`
	Content    string         `json:"content"`
	Type       string         `json:"type"`
	SourceIds  []string       `json:"source_ids"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

type ChatMessage struct {
	Id        string    `json:"id,omitempty"`
	SessionId string    `json:"session_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Sources   []string  `json:"sources,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type SourceSummary struct {
	Id   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

type TransformationRequest struct {
	Type      string   `json:"type"`
	Prompt    string   `json:"prompt,omitempty"`
	SourceIds []string `json:"source_ids,omitempty"`
	Length    Length   `json:"length,omitempty"`
	Format    string   `json:"format,omitempty"`
}

// WithDefaults fills the optional fields the way the API documents them.
func (r TransformationRequest) WithDefaults() TransformationRequest {
	if r.Length == "" {
		r.Length = LengthMedium
	}
	if r.Format == "" {
		r.Format = FormatMarkdown
	}
	return r
}

type TransformationResult struct {
	Type      string          `json:"type"`
	Content   string          `json:"content"`
	Sources   []SourceSummary `json:"sources"`
	Metadata  map[string]any  `json:"metadata"`
	CreatedAt time.Time       `json:"created_at"`
}

type ChatResult struct {
	Message   string          `json:"message"`
	Sources   []SourceSummary `json:"sources"`
	SessionId string          `json:"session_id"`
	Metadata  map[string]any  `json:"metadata"`
}

// NotebookStore is the persistence collaborator. The generation core never calls it.
type NotebookStore interface {
	CreateNotebook(ctx context.Context, nb Notebook) (Notebook, error)
	GetNotebook(ctx context.Context, id string) (Notebook, bool)
	ListNotebooks(ctx context.Context) ([]Notebook, error)
	DeleteNotebook(ctx context.Context, id string) error

	CreateSource(ctx context.Context, src Source) (Source, error)
	GetSource(ctx context.Context, id string) (Source, bool)
	ListSources(ctx context.Context, notebookId string) ([]Source, error)
	UpdateSourceChunkCount(ctx context.Context, id string, count int) error
	DeleteSource(ctx context.Context, id string) error

	CreateNote(ctx context.Context, note Note) (Note, error)
	ListNotes(ctx context.Context, notebookId string) ([]Note, error)
	DeleteNote(ctx context.Context, id string) error
}
