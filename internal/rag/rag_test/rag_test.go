package rag_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/akolanti/notex/internal/config"
	"github.com/akolanti/notex/internal/domain/errorModel"
	"github.com/akolanti/notex/internal/domain/notebookModel"
	"github.com/akolanti/notex/internal/rag"
	"github.com/akolanti/notex/internal/rag/deepinsight"
	"github.com/akolanti/notex/internal/rag/retrieval"
)

var testSources = []notebookModel.Source{
	{Id: "s1", Name: "alpha.md", Type: notebookModel.SourceTypeFile, Content: "Alpha content about solar panels."},
	{Id: "s2", Name: "beta.txt", Type: notebookModel.SourceTypeText, Content: "Beta content about wind turbines."},
}

func traceCtx() context.Context {
	return context.WithValue(context.Background(), config.TRACE_ID_KEY, "test-trace")
}

func newService(l *MockLLM, mm *MockMultimodal, tool rag.ToolInvoker) rag.Service {
	deps := rag.Deps{
		Ranker:  retrieval.NewKeywordRanker(retrieval.NewChunkStore()),
		Primary: l,
		Tool:    tool,
	}
	// a nil *MockMultimodal must stay a nil interface
	if mm != nil {
		deps.Multimodal = mm
	}
	return rag.NewService(deps, rag.Options{ChunkSize: 50, ChunkOverlap: 10, MaxSources: 3, TextModel: "text-model", ImageModel: "image-model"})
}

func TestTransform_UnknownTypeRejectedBeforeProviderCall(t *testing.T) {
	l := &MockLLM{}
	s := newService(l, &MockMultimodal{}, &MockTool{})

	_, err := s.Transform(traceCtx(), notebookModel.TransformationRequest{Type: "haiku"}, testSources)
	if !errors.Is(err, errorModel.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
	if l.Calls() != 0 {
		t.Errorf("provider called %d times for an invalid request", l.Calls())
	}
}

func TestTransform_DirectStrategy(t *testing.T) {
	l := &MockLLM{OnComplete: func(ctx context.Context, prompt string) (string, error) {
		return "the summary", nil
	}}
	s := newService(l, nil, nil)

	res, err := s.Transform(traceCtx(), notebookModel.TransformationRequest{Type: "summary", Prompt: "keep it brief"}, testSources)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if res.Content != "the summary" || res.Type != "summary" {
		t.Errorf("unexpected result %+v", res)
	}
	if l.Calls() != 1 {
		t.Fatalf("expected one provider call, got %d", l.Calls())
	}

	prompt := l.Prompts[0]
	first := strings.Index(prompt, "## Source 1: alpha.md")
	second := strings.Index(prompt, "## Source 2: beta.txt")
	if first < 0 || second < first {
		t.Errorf("sources missing or out of order in prompt:\n%s", prompt)
	}
	if !strings.Contains(prompt, "keep it brief") {
		t.Error("free-text instruction not in prompt")
	}

	if len(res.Sources) != 2 || res.Sources[0] != (notebookModel.SourceSummary{Id: "s1", Name: "alpha.md", Type: "file"}) {
		t.Errorf("source summaries = %+v", res.Sources)
	}
	if res.Metadata["length"] != "medium" || res.Metadata["format"] != "markdown" {
		t.Errorf("defaults not applied: %+v", res.Metadata)
	}
}

func TestTransform_ContextTruncation(t *testing.T) {
	l := &MockLLM{}
	s := rag.NewService(rag.Deps{Ranker: retrieval.NewKeywordRanker(retrieval.NewChunkStore()), Primary: l},
		rag.Options{MaxContextLength: 10})

	long := []notebookModel.Source{{Id: "x", Name: "long.txt", Content: strings.Repeat("字", 25)}}
	if _, err := s.Transform(traceCtx(), notebookModel.TransformationRequest{Type: "outline"}, long); err != nil {
		t.Fatal(err)
	}
	prompt := l.Prompts[0]
	if !strings.Contains(prompt, strings.Repeat("字", 10)+"\n... [Content truncated, total length: 25]") {
		t.Errorf("expected a 10 rune cut with a truncation marker:\n%s", prompt)
	}
	if strings.Contains(prompt, strings.Repeat("字", 11)) {
		t.Error("more than the limit was included")
	}
}

func TestTransform_ProviderFailurePropagates(t *testing.T) {
	l := &MockLLM{OnComplete: func(ctx context.Context, prompt string) (string, error) {
		return "", errorModel.ProviderFailure("openai", errors.New("quota exceeded"))
	}}
	s := newService(l, nil, nil)

	_, err := s.Transform(traceCtx(), notebookModel.TransformationRequest{Type: "faq"}, testSources)
	if !errors.Is(err, errorModel.ErrProviderFailure) {
		t.Fatalf("expected provider failure, got %v", err)
	}
}

func TestTransform_SlideDeckStrategy(t *testing.T) {
	tests := []struct {
		name         string
		multimodal   *MockMultimodal
		wantContent  string
		wantStrategy string
		wantPrimary  int
	}{
		{
			name:         "multimodal configured",
			multimodal:   &MockMultimodal{},
			wantContent:  "mocked multimodal text",
			wantStrategy: "multimodal",
			wantPrimary:  0,
		},
		{
			name:         "multimodal absent",
			multimodal:   nil,
			wantContent:  "mocked llm response",
			wantStrategy: "primary",
			wantPrimary:  1,
		},
		{
			name: "multimodal fails",
			multimodal: &MockMultimodal{OnGenerateText: func(ctx context.Context, prompt, model string) (string, error) {
				return "", errors.New("503 from gemini")
			}},
			wantContent:  "mocked llm response",
			wantStrategy: "multimodal_fallback",
			wantPrimary:  1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &MockLLM{}
			s := newService(l, tt.multimodal, nil)

			res, err := s.Transform(traceCtx(), notebookModel.TransformationRequest{Type: "ppt"}, testSources)
			if err != nil {
				t.Fatalf("Transform: %v", err)
			}
			if res.Content != tt.wantContent {
				t.Errorf("content = %q, want %q", res.Content, tt.wantContent)
			}
			if res.Metadata["strategy"] != tt.wantStrategy {
				t.Errorf("strategy = %v, want %s", res.Metadata["strategy"], tt.wantStrategy)
			}
			if l.Calls() != tt.wantPrimary {
				t.Errorf("primary calls = %d, want %d", l.Calls(), tt.wantPrimary)
			}
			if tt.multimodal != nil && (len(tt.multimodal.TextModels) != 1 || tt.multimodal.TextModels[0] != "text-model") {
				t.Errorf("multimodal models = %v", tt.multimodal.TextModels)
			}
		})
	}
}

func TestTransform_InsightOutcomes(t *testing.T) {
	tests := []struct {
		name         string
		result       deepinsight.Result
		wantContent  string
		wantStrategy string
		wantPrompt   string
	}{
		{
			name:         "tool success",
			result:       deepinsight.Result{Kind: deepinsight.Success, Report: "tool report"},
			wantContent:  "tool report",
			wantStrategy: "deepinsight",
		},
		{
			name:         "tool missing",
			result:       deepinsight.Result{Kind: deepinsight.Unavailable, Err: deepinsight.ErrToolUnavailable},
			wantContent:  "llm report",
			wantStrategy: "insight_tool_missing",
			wantPrompt:   "Strategic recommendations",
		},
		{
			name:         "tool failed",
			result:       deepinsight.Result{Kind: deepinsight.Failed, Err: &deepinsight.ExecutionError{ExitCode: 2, Stderr: "boom"}},
			wantContent:  "llm report",
			wantStrategy: "insight_tool_error",
			wantPrompt:   "based on the following content",
		},
		{
			name:         "tool timed out",
			result:       deepinsight.Result{Kind: deepinsight.TimedOut, Err: deepinsight.ErrToolTimeout},
			wantContent:  "llm report",
			wantStrategy: "insight_tool_error",
			wantPrompt:   "based on the following content",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &MockLLM{OnComplete: func(ctx context.Context, prompt string) (string, error) {
				if strings.Contains(prompt, "## Source 1") {
					return "first-pass summary", nil
				}
				return "llm report", nil
			}}
			tool := &MockTool{OnInvoke: func(ctx context.Context, input string) deepinsight.Result {
				return tt.result
			}}
			s := newService(l, nil, tool)

			res, err := s.Transform(traceCtx(), notebookModel.TransformationRequest{Type: "insight"}, testSources)
			if err != nil {
				t.Fatalf("Transform: %v", err)
			}
			if res.Content != tt.wantContent {
				t.Errorf("content = %q, want %q", res.Content, tt.wantContent)
			}
			if res.Metadata["strategy"] != tt.wantStrategy {
				t.Errorf("strategy = %v, want %s", res.Metadata["strategy"], tt.wantStrategy)
			}
			if len(tool.Inputs) != 1 || tool.Inputs[0] != "first-pass summary" {
				t.Errorf("tool should receive the summary, got %v", tool.Inputs)
			}
			if tt.wantPrompt == "" {
				if l.Calls() != 1 {
					t.Errorf("expected only the summary call, got %d", l.Calls())
				}
				return
			}
			if l.Calls() != 2 {
				t.Fatalf("expected a fallback call, got %d calls", l.Calls())
			}
			fallback := l.Prompts[1]
			if !strings.Contains(fallback, tt.wantPrompt) || !strings.Contains(fallback, "first-pass summary") {
				t.Errorf("fallback prompt = %q", fallback)
			}
		})
	}
}

// the insight tool binary is absent: the transform must still produce content
func TestTransform_InsightWithMissingExecutable(t *testing.T) {
	l := &MockLLM{}
	tool := deepinsight.NewInvoker("./no-such-dir/DeepInsight", t.TempDir(), time.Second)
	s := newService(l, nil, tool)

	res, err := s.Transform(traceCtx(), notebookModel.TransformationRequest{Type: "insight"}, testSources)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if res.Content == "" {
		t.Fatal("expected fallback content")
	}
	if res.Metadata["strategy"] != "insight_tool_missing" {
		t.Errorf("strategy = %v", res.Metadata["strategy"])
	}
}

func TestChat_BuildsPromptFromRetrievalAndHistory(t *testing.T) {
	l := &MockLLM{OnComplete: func(ctx context.Context, prompt string) (string, error) {
		return "solar is cheap", nil
	}}
	s := newService(l, nil, nil)
	ctx := traceCtx()
	s.IngestSource(ctx, "energy.md", "solar panels are getting cheaper every year")
	s.IngestSource(ctx, "energy.md", "solar panels are getting cheaper every year and more efficient")
	s.IngestSource(ctx, "cars.md", "electric cars use batteries")

	var history []notebookModel.ChatMessage
	for i := range 12 {
		role := notebookModel.RoleUser
		if i%2 == 1 {
			role = notebookModel.RoleAssistant
		}
		history = append(history, notebookModel.ChatMessage{Role: role, Content: fmt.Sprintf("msg-%02d", i)})
	}

	res, err := s.Chat(ctx, "session-1", "solar panels", history)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if res.Message != "solar is cheap" || res.SessionId != "session-1" {
		t.Errorf("unexpected result %+v", res)
	}

	prompt := l.Prompts[0]
	if strings.Contains(prompt, "msg-00") || strings.Contains(prompt, "msg-01") {
		t.Error("history older than ten messages leaked into the prompt")
	}
	if !strings.Contains(prompt, "User: msg-02") || !strings.Contains(prompt, "Assistant: msg-11") {
		t.Errorf("history window missing from prompt:\n%s", prompt)
	}
	if !strings.Contains(prompt, "[Source 1] solar panels") || !strings.Contains(prompt, "Source: energy.md") {
		t.Errorf("retrieved context missing from prompt:\n%s", prompt)
	}

	if res.Sources[0].Name != "energy.md" || res.Sources[0].Id != "energy.md" || res.Sources[0].Type != "file" {
		t.Errorf("first source = %+v", res.Sources[0])
	}
	seen := map[string]bool{}
	for _, src := range res.Sources {
		if seen[src.Name] {
			t.Errorf("source %s listed twice", src.Name)
		}
		seen[src.Name] = true
	}
	if res.Metadata["docs_retrieved"] == 0 {
		t.Error("docs_retrieved should count the retrieved chunks")
	}
}

func TestChat_EmptyIndexStillAnswers(t *testing.T) {
	l := &MockLLM{}
	s := newService(l, nil, nil)

	res, err := s.Chat(traceCtx(), "s", "anything there?", nil)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if res.Message == "" {
		t.Error("expected an answer")
	}
	if len(res.Sources) != 0 || res.Metadata["docs_retrieved"] != 0 {
		t.Errorf("expected no sources, got %+v / %+v", res.Sources, res.Metadata)
	}
	if strings.Contains(l.Prompts[0], "[Source 1]") {
		t.Error("context block should be empty")
	}
}

func TestChat_ProviderFailure(t *testing.T) {
	l := &MockLLM{OnComplete: func(ctx context.Context, prompt string) (string, error) {
		return "", errorModel.ProviderFailure("openai", context.DeadlineExceeded)
	}}
	s := newService(l, nil, nil)
	if _, err := s.Chat(traceCtx(), "s", "q", nil); !errors.Is(err, errorModel.ErrProviderFailure) {
		t.Fatalf("expected provider failure, got %v", err)
	}
}

const threeSlideDeck = `<STYLE_INSTRUCTIONS>minimal</STYLE_INSTRUCTIONS>
## Slide 1: A
Narrative Goal: one
## Slide 2: B
Narrative Goal: two
## Slide 3: C
Narrative Goal: three
`

func TestRenderSlides_PartialFailure(t *testing.T) {
	call := 0
	mm := &MockMultimodal{OnGenerateImage: func(ctx context.Context, model, prompt string) (string, error) {
		call++
		if call == 2 {
			return "", errors.New("safety filter")
		}
		return fmt.Sprintf("/data/uploads/infograph_%d.png", call), nil
	}}
	s := newService(&MockLLM{}, mm, nil)

	out, err := s.RenderSlides(traceCtx(), threeSlideDeck)
	if err != nil {
		t.Fatalf("RenderSlides: %v", err)
	}
	if len(out.Slides) != 3 || len(out.Results) != 3 {
		t.Fatalf("expected 3 slides and 3 results, got %d / %d", len(out.Slides), len(out.Results))
	}
	urls := out.URLs()
	if len(urls) != 2 || urls[0] != "/uploads/infograph_1.png" || urls[1] != "/uploads/infograph_3.png" {
		t.Errorf("urls = %v", urls)
	}
	errs := out.Errors()
	if len(errs) != 1 || !strings.HasPrefix(errs[0], "slide 2:") {
		t.Errorf("errors = %v", errs)
	}
	for i, p := range mm.ImagePrompts {
		if !strings.HasPrefix(p, "Style: minimal\n\nSlide Content: ## Slide") {
			t.Errorf("prompt %d = %q", i, p)
		}
	}
}

func TestRenderSlides_TooManySlides(t *testing.T) {
	var b strings.Builder
	for i := 1; i <= config.MaxSlides+1; i++ {
		fmt.Fprintf(&b, "## Slide %d: t\nNarrative Goal: g\n", i)
	}
	mm := &MockMultimodal{}
	s := newService(&MockLLM{}, mm, nil)

	out, err := s.RenderSlides(traceCtx(), b.String())
	if !errors.Is(err, errorModel.ErrTooManySlides) {
		t.Fatalf("expected ErrTooManySlides, got %v", err)
	}
	if len(out.Slides) != config.MaxSlides+1 {
		t.Errorf("parsed %d slides", len(out.Slides))
	}
	if len(mm.ImagePrompts) != 0 {
		t.Errorf("no image should be generated, got %d calls", len(mm.ImagePrompts))
	}
}

func TestRenderImages_NotConfigured(t *testing.T) {
	s := newService(&MockLLM{}, nil, nil)
	if _, err := s.RenderSlides(traceCtx(), threeSlideDeck); !errors.Is(err, errorModel.ErrNotConfigured) {
		t.Errorf("slides: expected ErrNotConfigured, got %v", err)
	}
	if _, err := s.RenderInfographic(traceCtx(), "x"); !errors.Is(err, errorModel.ErrNotConfigured) {
		t.Errorf("infographic: expected ErrNotConfigured, got %v", err)
	}
	if s.HasMultimodal() {
		t.Error("HasMultimodal should be false")
	}
}

func TestRenderInfographic(t *testing.T) {
	mm := &MockMultimodal{}
	s := newService(&MockLLM{}, mm, nil)

	url, err := s.RenderInfographic(traceCtx(), "infographic layout")
	if err != nil {
		t.Fatal(err)
	}
	if url != "/uploads/infograph_1.png" {
		t.Errorf("url = %s", url)
	}
	if !strings.HasPrefix(mm.ImagePrompts[0], "infographic layout\n\n") {
		t.Errorf("prompt = %q", mm.ImagePrompts[0])
	}
}

func TestIngestAndDeleteSource(t *testing.T) {
	s := newService(&MockLLM{}, nil, nil)
	ctx := traceCtx()

	if n := s.IngestSource(ctx, "a.txt", strings.Repeat("word ", 120)); n != 3 {
		t.Errorf("expected 3 chunks for 120 words at 50/10, got %d", n)
	}
	s.IngestSource(ctx, "b.txt", "other")
	if st := s.Stats(); st.TotalChunks != 4 || st.TotalSources != 2 {
		t.Errorf("stats = %+v", st)
	}

	s.DeleteSource(ctx, "a.txt")
	got := s.Search(ctx, "word", 10)
	if len(got) != 1 || got[0].SourceName != "b.txt" {
		t.Errorf("after delete search returned %+v", got)
	}
}
