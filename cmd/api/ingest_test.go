package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/akolanti/notex/internal/config"
	"github.com/akolanti/notex/internal/data/redisStore"
	"github.com/akolanti/notex/internal/data/store"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func testSettings(t *testing.T, redisAddr string) *config.Settings {
	t.Helper()
	return &config.Settings{
		OpenAIModel:        config.DefaultOpenAIModel,
		ChunkSize:          200,
		ChunkOverlap:       20,
		DeepInsightPath:    filepath.Join(t.TempDir(), "missing-tool"),
		DeepInsightTimeout: config.DeepInsightTimeout,
		DataDir:            t.TempDir(),
		RedisAddr:          redisAddr,
	}
}

func TestRunIngest_StoresSourceInRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	settings := testSettings(t, mr.Addr())

	doc := filepath.Join(t.TempDir(), "field-notes.txt")
	if err := os.WriteFile(doc, []byte("Otters hold hands while sleeping so they do not drift apart."), 0600); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := runIngest(context.Background(), &out, settings, doc, "Wildlife", ""); err != nil {
		t.Fatalf("runIngest: %v", err)
	}
	if !strings.Contains(out.String(), `"field-notes.txt"`) || !strings.Contains(out.String(), `"Wildlife"`) {
		t.Errorf("unexpected output %q", out.String())
	}
	if _, err := os.Stat(doc); err != nil {
		t.Errorf("the input file must be left in place: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), DB: config.RedisNotebookStore})
	t.Cleanup(func() { _ = client.Close() })
	notebooks := store.NewRedisNotebookStore(redisStore.NewTestStore(client))
	nb, err := findOrCreateNotebook(context.Background(), notebooks, "Wildlife")
	if err != nil {
		t.Fatal(err)
	}
	sources, err := notebooks.ListSources(context.Background(), nb.Id)
	if err != nil || len(sources) != 1 {
		t.Fatalf("sources got %d, %v", len(sources), err)
	}
	if sources[0].ChunkCount == 0 || !strings.Contains(sources[0].Content, "Otters") {
		t.Errorf("stored source got %+v", sources[0])
	}
}

func TestRunIngest_MissingFile(t *testing.T) {
	mr := miniredis.RunT(t)
	err := runIngest(context.Background(), &bytes.Buffer{}, testSettings(t, mr.Addr()), "/does/not/exist.txt", "Wildlife", "")
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestFindOrCreateNotebook(t *testing.T) {
	ctx := context.Background()
	notebooks := store.InitInMemoryNotebookStore()

	created, err := findOrCreateNotebook(ctx, notebooks, "Research")
	if err != nil {
		t.Fatal(err)
	}
	byName, _ := findOrCreateNotebook(ctx, notebooks, "Research")
	byId, _ := findOrCreateNotebook(ctx, notebooks, created.Id)
	if byName.Id != created.Id || byId.Id != created.Id {
		t.Errorf("lookup created duplicates: %s %s %s", created.Id, byName.Id, byId.Id)
	}
	list, _ := notebooks.ListNotebooks(ctx)
	if len(list) != 1 {
		t.Errorf("notebooks got %d", len(list))
	}
}
