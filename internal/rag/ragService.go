package rag

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/akolanti/notex/internal/config"
	"github.com/akolanti/notex/internal/domain/errorModel"
	"github.com/akolanti/notex/internal/domain/notebookModel"
	"github.com/akolanti/notex/internal/metrics"
	"github.com/akolanti/notex/internal/rag/deepinsight"
	"github.com/akolanti/notex/internal/rag/llm"
	"github.com/akolanti/notex/internal/rag/prompts"
	"github.com/akolanti/notex/internal/rag/retrieval"
	"github.com/akolanti/notex/internal/rag/slides"
	"github.com/akolanti/notex/pkg/logger_i"
)

/*
Service is the only thing the worker, handlers and MCP tools see.
The private struct owns the ranker, the providers and the insight tool, so
tests swap any of them for mocks through Deps without touching callers.
*/
type Service interface {
	Chat(ctx context.Context, sessionId string, message string, history []notebookModel.ChatMessage) (notebookModel.ChatResult, error)
	Transform(ctx context.Context, req notebookModel.TransformationRequest, sources []notebookModel.Source) (notebookModel.TransformationResult, error)
	RenderSlides(ctx context.Context, content string) (SlideImages, error)
	RenderInfographic(ctx context.Context, content string) (string, error)

	IngestSource(ctx context.Context, name string, content string) int
	DeleteSource(ctx context.Context, name string)
	Search(ctx context.Context, query string, limit int) []notebookModel.Chunk
	Stats() retrieval.Stats

	HasMultimodal() bool
}

// ToolInvoker runs the external insight tool.
type ToolInvoker interface {
	Invoke(ctx context.Context, input string) deepinsight.Result
}

type Deps struct {
	Ranker     retrieval.Ranker
	Primary    llm.Provider
	Multimodal llm.MultimodalProvider // nil when not configured
	Tool       ToolInvoker
	Prompts    *prompts.Library
	Slides     *slides.Parser
}

type Options struct {
	ChunkSize        int
	ChunkOverlap     int
	MaxSources       int
	MaxContextLength int
	TextModel        string
	ImageModel       string
}

// transform strategies, recorded in result metadata and metrics
const (
	strategyPrimary            = "primary"
	strategyMultimodal         = "multimodal"
	strategyMultimodalFallback = "multimodal_fallback"
	strategyDeepInsight        = "deepinsight"
	strategyToolMissing        = "insight_tool_missing"
	strategyToolError          = "insight_tool_error"
)

type service struct {
	ranker     retrieval.Ranker
	primary    llm.Provider
	multimodal llm.MultimodalProvider
	tool       ToolInvoker
	prompts    *prompts.Library
	slides     *slides.Parser
	opts       Options
	logger     *logger_i.Logger
}

func NewService(deps Deps, opts Options) Service {
	if deps.Prompts == nil {
		deps.Prompts = prompts.Default()
	}
	if deps.Slides == nil {
		deps.Slides = slides.NewParser(nil)
	}
	if opts.MaxSources <= 0 {
		opts.MaxSources = config.DefaultMaxSources
	}
	if opts.MaxContextLength <= 0 {
		opts.MaxContextLength = config.DefaultMaxContextLength
	}
	if opts.TextModel == "" {
		opts.TextModel = config.GeminiTextModel
	}
	if opts.ImageModel == "" {
		opts.ImageModel = config.GeminiImageModel
	}
	return &service{
		ranker:     deps.Ranker,
		primary:    deps.Primary,
		multimodal: deps.Multimodal,
		tool:       deps.Tool,
		prompts:    deps.Prompts,
		slides:     deps.Slides,
		opts:       opts,
		logger:     logger_i.NewLogger("rag"),
	}
}

func (s *service) HasMultimodal() bool {
	return s.multimodal != nil
}

func (s *service) Transform(ctx context.Context, req notebookModel.TransformationRequest, sources []notebookModel.Source) (notebookModel.TransformationResult, error) {
	logger := s.logger.FromContext(ctx).With("type", req.Type)
	req = req.WithDefaults()

	if !s.prompts.Has(req.Type) {
		return notebookModel.TransformationResult{}, errorModel.InvalidRequest("unknown transformation type %q", req.Type)
	}
	prompt, err := s.prompts.Transformation(req.Type, buildSourceContext(sources, s.opts.MaxContextLength), string(req.Length), req.Format, req.Prompt)
	if err != nil {
		return notebookModel.TransformationResult{}, errorModel.InvalidRequest("%v", err)
	}

	var content, strategy string
	switch req.Type {
	case "ppt":
		content, strategy, err = s.generateSlideText(ctx, logger, prompt)
	case "insight":
		content, strategy, err = s.generateInsight(ctx, logger, prompt)
	default:
		strategy = strategyPrimary
		content, err = s.primary.Complete(ctx, prompt)
	}
	if err != nil {
		logger.Error("transformation failed", "strategy", strategy, "error", err)
		return notebookModel.TransformationResult{}, err
	}

	metrics.RecordTransformStrategy(req.Type, strategy)
	logger.Info("transformation generated", "strategy", strategy, "sources", len(sources), "chars", len(content))

	return notebookModel.TransformationResult{
		Type:    req.Type,
		Content: content,
		Sources: summarizeSources(sources),
		Metadata: map[string]any{
			"length":   string(req.Length),
			"format":   req.Format,
			"strategy": strategy,
		},
		CreatedAt: time.Now(),
	}, nil
}

// generateSlideText prefers the multimodal provider and falls back to the primary one.
func (s *service) generateSlideText(ctx context.Context, logger *logger_i.Logger, prompt string) (string, string, error) {
	if s.multimodal == nil {
		logger.Debug("multimodal provider not configured, using primary for slides")
		text, err := s.primary.Complete(ctx, prompt)
		return text, strategyPrimary, err
	}

	text, err := s.multimodal.GenerateText(ctx, prompt, s.opts.TextModel)
	if err == nil {
		return text, strategyMultimodal, nil
	}
	logger.Warn("multimodal slide generation failed, falling back to primary", "error", err)
	text, err = s.primary.Complete(ctx, prompt)
	return text, strategyMultimodalFallback, err
}

// generateInsight summarises with the primary provider, then hands the summary to
// the insight tool. Whatever the tool outcome the caller gets a report.
func (s *service) generateInsight(ctx context.Context, logger *logger_i.Logger, prompt string) (string, string, error) {
	summary, err := s.primary.Complete(ctx, prompt)
	if err != nil {
		return "", strategyPrimary, err
	}

	var res deepinsight.Result
	if s.tool == nil {
		res = deepinsight.Result{Kind: deepinsight.Unavailable, Err: deepinsight.ErrToolUnavailable}
	} else {
		start := time.Now()
		res = s.tool.Invoke(ctx, summary)
		metrics.CaptureExecutionMetrics(metrics.DeepInsight, time.Since(start))
	}

	switch res.Kind {
	case deepinsight.Success:
		logger.Info("insight report produced by DeepInsight")
		return res.Report, strategyDeepInsight, nil
	case deepinsight.Unavailable:
		logger.Warn("DeepInsight not found, generating insight report with the LLM", "error", res.Err)
		report, err := s.primary.Complete(ctx, s.prompts.InsightReport(summary))
		return report, strategyToolMissing, err
	default:
		logger.Error("DeepInsight execution failed, falling back to the LLM", "kind", res.Kind.String(), "error", res.Err)
		report, err := s.primary.Complete(ctx, s.prompts.InsightSimple(summary))
		return report, strategyToolError, err
	}
}

func (s *service) Chat(ctx context.Context, sessionId string, message string, history []notebookModel.ChatMessage) (notebookModel.ChatResult, error) {
	logger := s.logger.FromContext(ctx).With("sessionId", sessionId)

	docs := s.Search(ctx, message, s.opts.MaxSources)
	prompt := s.prompts.Chat(buildHistory(history, config.ChatHistoryWindow), buildChatContext(docs), message)

	answer, err := s.primary.Complete(ctx, prompt)
	if err != nil {
		logger.Error("chat generation failed", "error", err)
		return notebookModel.ChatResult{}, err
	}

	logger.Info("chat answered", "docs", len(docs), "history", len(history))
	return notebookModel.ChatResult{
		Message:   answer,
		Sources:   dedupeChunkSources(docs),
		SessionId: sessionId,
		Metadata:  map[string]any{"docs_retrieved": len(docs)},
	}, nil
}

// SlideResult is the outcome of one slide's image. Exactly one of URL and Err is set.
type SlideResult struct {
	Index int
	URL   string
	Err   error
}

type SlideImages struct {
	Slides  []slides.Slide
	Results []SlideResult
}

func (si SlideImages) URLs() []string {
	urls := []string{}
	for _, r := range si.Results {
		if r.Err == nil {
			urls = append(urls, r.URL)
		}
	}
	return urls
}

func (si SlideImages) Errors() []string {
	var errs []string
	for _, r := range si.Results {
		if r.Err != nil {
			errs = append(errs, fmt.Sprintf("slide %d: %v", r.Index+1, r.Err))
		}
	}
	return errs
}

// RenderSlides parses a deck and draws one image per slide, one at a time.
// A failed slide is recorded and skipped.
func (s *service) RenderSlides(ctx context.Context, content string) (SlideImages, error) {
	logger := s.logger.FromContext(ctx)
	if s.multimodal == nil {
		return SlideImages{}, errorModel.NotConfigured("image generation")
	}

	parsed := s.slides.Parse(content)
	out := SlideImages{Slides: parsed}
	if len(parsed) > config.MaxSlides {
		logger.Error("deck has too many slides, skipping image generation", "slides", len(parsed), "max", config.MaxSlides)
		return out, fmt.Errorf("%w: deck has %d slides, maximum is %d", errorModel.ErrTooManySlides, len(parsed), config.MaxSlides)
	}

	style := parsed[0].Style
	logger.Info("generating slide images", "slides", len(parsed))
	for i, slide := range parsed {
		logger.Debug("generating slide image", "slide", i+1, "of", len(parsed))
		prompt := fmt.Sprintf("Style: %s\n\nSlide Content: %s\n\n%s\n", style, slide.Content, imageLanguageNote)

		start := time.Now()
		path, err := s.multimodal.GenerateImage(ctx, s.opts.ImageModel, prompt)
		metrics.CaptureExecutionMetrics(metrics.SlideImage, time.Since(start))
		metrics.RecordSlideImage(err == nil)
		if err != nil {
			logger.Error("slide image failed", "slide", i+1, "error", err)
			out.Results = append(out.Results, SlideResult{Index: i, Err: err})
			continue
		}
		out.Results = append(out.Results, SlideResult{Index: i, URL: uploadURL(path)})
	}
	return out, nil
}

func (s *service) RenderInfographic(ctx context.Context, content string) (string, error) {
	if s.multimodal == nil {
		return "", errorModel.NotConfigured("image generation")
	}
	path, err := s.multimodal.GenerateImage(ctx, s.opts.ImageModel, content+"\n\n"+imageLanguageNote)
	if err != nil {
		s.logger.FromContext(ctx).Error("failed to generate infographic image", "error", err)
		return "", err
	}
	return uploadURL(path), nil
}

func (s *service) IngestSource(ctx context.Context, name string, content string) int {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics(metrics.Indexing, time.Since(start)) }()

	count := s.ranker.Ingest(name, content, s.opts.ChunkSize, s.opts.ChunkOverlap)
	s.logger.FromContext(ctx).Debug("source ingested", "source", name, "chunks", count)
	return count
}

func (s *service) DeleteSource(ctx context.Context, name string) {
	s.ranker.Delete(name)
	s.logger.FromContext(ctx).Debug("source removed", "source", name)
}

func (s *service) Search(ctx context.Context, query string, limit int) []notebookModel.Chunk {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics(metrics.Search, time.Since(start)) }()
	return s.ranker.Search(query, limit)
}

func (s *service) Stats() retrieval.Stats {
	return s.ranker.Stats()
}

func uploadURL(path string) string {
	return config.UploadsURLPrefix + filepath.Base(path)
}
