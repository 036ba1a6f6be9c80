// Package mcpServer exposes the notebook index to MCP clients over streamable HTTP.
package mcpServer

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/akolanti/notex/internal/config"
	"github.com/akolanti/notex/internal/domain/notebookModel"
	"github.com/akolanti/notex/internal/rag"
	"github.com/akolanti/notex/pkg/logger_i"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const defaultSearchLimit = 5

var errEmptyInput = errors.New("input must not be empty")

type Server struct {
	rag       rag.Service
	notebooks notebookModel.NotebookStore
	server    *mcp.Server
	logger    *logger_i.Logger
}

type SearchInput struct {
	Query string `json:"query" jsonschema:"keywords to look up in the indexed sources"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of chunks to return (default 5)"`
}

type SearchOutput struct {
	Chunks []notebookModel.Chunk `json:"chunks"`
	Count  int                   `json:"count"`
}

type AskInput struct {
	Question string `json:"question" jsonschema:"the question to answer from the indexed sources"`
}

type AskOutput struct {
	Answer  string                        `json:"answer"`
	Sources []notebookModel.SourceSummary `json:"sources"`
}

type ListNotebooksInput struct{}

type ListNotebooksOutput struct {
	Notebooks []notebookModel.Notebook `json:"notebooks"`
	Count     int                      `json:"count"`
}

func NewServer(ragService rag.Service, notebooks notebookModel.NotebookStore) *Server {
	s := &Server{
		rag:       ragService,
		notebooks: notebooks,
		server:    mcp.NewServer(&mcp.Implementation{Name: "notex", Version: config.Version}, nil),
		logger:    logger_i.NewLogger("mcp"),
	}
	s.registerTools()
	return s
}

// Handler serves the MCP session protocol; mount it behind authentication.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil)
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_sources",
		Description: "Keyword search over the chunks of every indexed source",
	}, s.handleSearch)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask_notebook",
		Description: "Answer a question from the indexed sources with the configured language model",
	}, s.handleAsk)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_notebooks",
		Description: "List the notebooks, newest first",
	}, s.handleListNotebooks)
}

func (s *Server) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, SearchOutput{}, errEmptyInput
	}
	limit := input.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	chunks := s.rag.Search(ctx, input.Query, limit)
	if chunks == nil {
		chunks = []notebookModel.Chunk{}
	}
	s.logger.FromContext(ctx).Debug("search_sources", "query", input.Query, "hits", len(chunks))
	return nil, SearchOutput{Chunks: chunks, Count: len(chunks)}, nil
}

func (s *Server) handleAsk(ctx context.Context, _ *mcp.CallToolRequest, input AskInput) (*mcp.CallToolResult, AskOutput, error) {
	if strings.TrimSpace(input.Question) == "" {
		return nil, AskOutput{}, errEmptyInput
	}
	result, err := s.rag.Chat(ctx, "", input.Question, nil)
	if err != nil {
		s.logger.FromContext(ctx).Error("ask_notebook failed", "error", err)
		return nil, AskOutput{}, err
	}
	return nil, AskOutput{Answer: result.Message, Sources: result.Sources}, nil
}

func (s *Server) handleListNotebooks(ctx context.Context, _ *mcp.CallToolRequest, _ ListNotebooksInput) (*mcp.CallToolResult, ListNotebooksOutput, error) {
	list, err := s.notebooks.ListNotebooks(ctx)
	if err != nil {
		return nil, ListNotebooksOutput{}, err
	}
	if list == nil {
		list = []notebookModel.Notebook{}
	}
	return nil, ListNotebooksOutput{Notebooks: list, Count: len(list)}, nil
}
