package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/akolanti/notex/internal/api"
	"github.com/akolanti/notex/internal/data/store"
	"github.com/akolanti/notex/internal/domain/jobModel"
	"github.com/akolanti/notex/internal/domain/notebookModel"
	"github.com/akolanti/notex/internal/job"
	"github.com/akolanti/notex/internal/rag"
	"github.com/akolanti/notex/internal/rag/retrieval"
	"github.com/go-chi/chi/v5"
)

type testEnv struct {
	router    *chi.Mux
	jobs      chan jobModel.Job
	notebooks *store.InMemoryNotebookStore
	messages  *store.InMemoryMessageStore
	rag       rag.Service
	notebook  notebookModel.Notebook
}

func newTestEnv(t *testing.T, allowDelete bool) *testEnv {
	t.Helper()
	env := &testEnv{
		jobs:      make(chan jobModel.Job, 10),
		notebooks: store.InitInMemoryNotebookStore(),
		messages:  store.InitMessageStore(),
		rag:       rag.NewService(rag.Deps{Ranker: retrieval.NewKeywordRanker(retrieval.NewChunkStore())}, rag.Options{}),
	}
	handlerInstance = newJobHandler(Deps{
		JobService: &job.Service{
			JobChannel:        env.jobs,
			DispatcherChannel: make(chan bool, 1),
			JobStore:          store.InitInMemoryJobStore(),
			MessageStore:      env.messages,
			NotebookStore:     env.notebooks,
		},
		Rag:         env.rag,
		UploadsDir:  t.TempDir(),
		AllowDelete: allowDelete,
		Services:    map[string]any{"primary_llm": "test-model"},
	})
	env.notebook, _ = env.notebooks.CreateNotebook(context.Background(), notebookModel.Notebook{Name: "nb"})

	r := chi.NewRouter()
	r.Get("/api/health", HealthHandler)
	r.Get("/api/config", ConfigHandler)
	r.Get("/api/notebooks", ListNotebooksHandler)
	r.Post("/api/notebooks", CreateNotebookHandler)
	r.Get("/api/notebooks/{id}", GetNotebookHandler)
	r.Delete("/api/notebooks/{id}", DeleteNotebookHandler)
	r.Get("/api/notebooks/{id}/sources", ListSourcesHandler)
	r.Post("/api/notebooks/{id}/sources", CreateSourceHandler)
	r.Delete("/api/notebooks/{id}/sources/{sourceId}", DeleteSourceHandler)
	r.Post("/api/notebooks/{id}/upload", PostUploadHandler)
	r.Get("/api/notebooks/{id}/notes", ListNotesHandler)
	r.Delete("/api/notebooks/{id}/notes/{noteId}", DeleteNoteHandler)
	r.Post("/api/notebooks/{id}/transform", TransformHandler)
	r.Post("/api/notebooks/{id}/chat", ChatHandler)
	r.Get("/status/{id}", GetStatusHandler)
	env.router = r
	return env
}

func (env *testEnv) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if s, ok := body.(string); ok {
		buf.WriteString(s)
	} else if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decoding %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealthAndConfig(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(http.MethodGet, "/api/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("health got %d", rec.Code)
	}
	health := decode[api.HealthResponse](t, rec)
	if health.Status != "healthy" || health.Services["primary_llm"] != "test-model" {
		t.Errorf("health got %+v", health)
	}
	if _, ok := health.Services["indexed_chunks"]; !ok {
		t.Error("health should report index size")
	}

	cfg := decode[api.ConfigResponse](t, env.do(http.MethodGet, "/api/config", nil))
	if cfg.AllowDelete {
		t.Error("allow_delete should be false")
	}
}

func TestNotebookCRUD(t *testing.T) {
	env := newTestEnv(t, true)

	rec := env.do(http.MethodPost, "/api/notebooks", api.CreateNotebookRequest{Name: "Research"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create got %d: %s", rec.Code, rec.Body.String())
	}
	nb := decode[notebookModel.Notebook](t, rec)

	if rec := env.do(http.MethodPost, "/api/notebooks", api.CreateNotebookRequest{}); rec.Code != http.StatusBadRequest {
		t.Errorf("nameless notebook got %d", rec.Code)
	}
	if rec := env.do(http.MethodPost, "/api/notebooks", "{broken"); rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body got %d", rec.Code)
	}

	list := decode[api.ListResponse[notebookModel.Notebook]](t, env.do(http.MethodGet, "/api/notebooks", nil))
	if list.Count != 2 {
		t.Errorf("list count got %d", list.Count)
	}

	if rec := env.do(http.MethodGet, "/api/notebooks/"+nb.Id, nil); rec.Code != http.StatusOK {
		t.Errorf("get got %d", rec.Code)
	}
	if rec := env.do(http.MethodDelete, "/api/notebooks/"+nb.Id, nil); rec.Code != http.StatusNoContent {
		t.Errorf("delete got %d", rec.Code)
	}
	if rec := env.do(http.MethodGet, "/api/notebooks/"+nb.Id, nil); rec.Code != http.StatusNotFound {
		t.Errorf("get after delete got %d", rec.Code)
	}
	if rec := env.do(http.MethodDelete, "/api/notebooks/"+nb.Id, nil); rec.Code != http.StatusNotFound {
		t.Errorf("second delete got %d", rec.Code)
	}
}

func TestDeleteDisabled(t *testing.T) {
	env := newTestEnv(t, false)
	paths := []string{
		"/api/notebooks/" + env.notebook.Id,
		"/api/notebooks/" + env.notebook.Id + "/sources/s",
		"/api/notebooks/" + env.notebook.Id + "/notes/n",
	}
	for _, p := range paths {
		if rec := env.do(http.MethodDelete, p, nil); rec.Code != http.StatusForbidden {
			t.Errorf("DELETE %s got %d, want 403", p, rec.Code)
		}
	}
	if _, ok := env.notebooks.GetNotebook(context.Background(), env.notebook.Id); !ok {
		t.Error("notebook deleted despite ALLOW_DELETE=false")
	}
}

func TestTextSourceIsIndexed(t *testing.T) {
	env := newTestEnv(t, true)
	base := "/api/notebooks/" + env.notebook.Id + "/sources"

	rec := env.do(http.MethodPost, base, api.CreateSourceRequest{Name: "facts.txt", Content: "the zeppelin landed at noon"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create source got %d: %s", rec.Code, rec.Body.String())
	}
	src := decode[notebookModel.Source](t, rec)
	if src.ChunkCount != 1 || src.Type != notebookModel.SourceTypeText {
		t.Errorf("source got %+v", src)
	}
	if hits := env.rag.Search(context.Background(), "zeppelin", 5); len(hits) != 1 {
		t.Fatalf("search got %d hits", len(hits))
	}

	if rec := env.do(http.MethodPost, base, api.CreateSourceRequest{Name: "empty"}); rec.Code != http.StatusBadRequest {
		t.Errorf("source without content got %d", rec.Code)
	}

	list := decode[api.ListResponse[notebookModel.Source]](t, env.do(http.MethodGet, base, nil))
	if list.Count != 1 {
		t.Errorf("list got %d", list.Count)
	}

	if rec := env.do(http.MethodDelete, base+"/"+src.Id, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("delete source got %d", rec.Code)
	}
	if stats := env.rag.Stats(); stats.TotalChunks != 0 {
		t.Errorf("chunks left after delete: %d", stats.TotalChunks)
	}
	if rec := env.do(http.MethodDelete, "/api/notebooks/other/sources/"+src.Id, nil); rec.Code != http.StatusNotFound {
		t.Errorf("delete through wrong notebook got %d", rec.Code)
	}
}

func TestURLSourceQueuesIngest(t *testing.T) {
	env := newTestEnv(t, true)

	rec := env.do(http.MethodPost, "/api/notebooks/"+env.notebook.Id+"/sources", api.CreateSourceRequest{Type: "url", URL: "https://example.com/a"})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("url source got %d: %s", rec.Code, rec.Body.String())
	}
	queued := <-env.jobs
	if queued.JobType != jobModel.JobTypeIngest || queued.JobPayload.IngestURL != "https://example.com/a" || queued.NotebookId != env.notebook.Id {
		t.Errorf("queued job got %+v", queued)
	}
}

func TestChatHandler(t *testing.T) {
	env := newTestEnv(t, true)
	path := "/api/notebooks/" + env.notebook.Id + "/chat"

	rec := env.do(http.MethodPost, path, api.ChatRequest{Message: "what is new?"})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("chat got %d: %s", rec.Code, rec.Body.String())
	}
	started := decode[api.InitJobResponse](t, rec)
	if started.SessionId == "" || started.StatusURL != "/status/"+started.Id {
		t.Errorf("init response got %+v", started)
	}
	queued := <-env.jobs
	if queued.ChatId != started.SessionId || queued.JobPayload.Question != "what is new?" || queued.CurrentStep != jobModel.ChatInit {
		t.Errorf("queued job got %+v", queued)
	}
	if !env.messages.ValidateChatId(context.Background(), started.SessionId) {
		t.Error("new session should be initialized")
	}

	// the queued state is visible straight away
	status := env.do(http.MethodGet, "/status/"+started.Id, nil)
	if status.Code != http.StatusOK {
		t.Fatalf("status got %d", status.Code)
	}
	if got := decode[api.JobResponse](t, status); got.Result.Status != string(api.JobStatusQueued) {
		t.Errorf("status got %+v", got.Result)
	}

	tests := []struct {
		name string
		path string
		body any
		want int
	}{
		{name: "existing session", path: path, body: api.ChatRequest{Message: "more", SessionId: started.SessionId}, want: http.StatusAccepted},
		{name: "unknown session", path: path, body: api.ChatRequest{Message: "hi", SessionId: "nope"}, want: http.StatusBadRequest},
		{name: "empty message", path: path, body: api.ChatRequest{Message: "  "}, want: http.StatusBadRequest},
		{name: "unknown notebook", path: "/api/notebooks/missing/chat", body: api.ChatRequest{Message: "hi"}, want: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := env.do(http.MethodPost, tt.path, tt.body); rec.Code != tt.want {
				t.Errorf("got %d, want %d: %s", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestTransformHandler(t *testing.T) {
	env := newTestEnv(t, true)
	path := "/api/notebooks/" + env.notebook.Id + "/transform"

	rec := env.do(http.MethodPost, path, api.TransformRequest{Type: "faq"})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("transform got %d: %s", rec.Code, rec.Body.String())
	}
	queued := <-env.jobs
	req := queued.JobPayload.Transform
	if queued.JobType != jobModel.JobTypeTransform || req == nil || req.Type != "faq" || req.Length != notebookModel.LengthMedium || req.Format != notebookModel.FormatMarkdown {
		t.Errorf("queued job got %+v / %+v", queued, req)
	}

	if rec := env.do(http.MethodPost, path, api.TransformRequest{Type: "poem"}); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown type got %d", rec.Code)
	}
}

func TestUploadHandler(t *testing.T) {
	env := newTestEnv(t, true)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, _ := mw.CreateFormFile("file", "../../report.txt")
	_, _ = part.Write([]byte("quarterly numbers"))
	_ = mw.WriteField("name", "Q3 report")
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/notebooks/"+env.notebook.Id+"/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("upload got %d: %s", rec.Code, rec.Body.String())
	}
	queued := <-env.jobs
	p := queued.JobPayload
	if p.IngestFileName != "report.txt" || p.IngestName != "Q3 report" {
		t.Errorf("payload got %+v", p)
	}
	if !strings.HasPrefix(p.IngestFilePath, handlerInstance.uploadsDir) || !strings.HasSuffix(p.IngestFilePath, "-report.txt") {
		t.Errorf("upload stored at %s", p.IngestFilePath)
	}
	if data, err := os.ReadFile(p.IngestFilePath); err != nil || string(data) != "quarterly numbers" {
		t.Errorf("stored upload got %q, %v", data, err)
	}

	missing := httptest.NewRequest(http.MethodPost, "/api/notebooks/"+env.notebook.Id+"/upload", strings.NewReader("x"))
	missing.Header.Set("Content-Type", "text/plain")
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, missing)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("non-multipart upload got %d", rec.Code)
	}
}

func TestStatusNotFound(t *testing.T) {
	env := newTestEnv(t, true)
	rec := env.do(http.MethodGet, "/status/ghost", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("got %d", rec.Code)
	}
	if got := decode[api.JobResponse](t, rec); got.Error == nil || got.Error.Code != http.StatusNotFound {
		t.Errorf("error body got %+v", got)
	}
}
