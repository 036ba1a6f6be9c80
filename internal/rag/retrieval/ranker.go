package retrieval

import (
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/akolanti/notex/internal/config"
	"github.com/akolanti/notex/internal/domain/notebookModel"
	"github.com/akolanti/notex/internal/rag/ingest"
	"github.com/akolanti/notex/pkg/logger_i"
)

const (
	substringWeight = 10.0
	charWeight      = 5.0
	wordWeight      = 2.0
	intentWeight    = 1.0
)

// intentTerms mark a question about the documents themselves.
var intentTerms = []string{"介绍", "什么", "啥", "内容", "文档", "说"}

type Ranker interface {
	Ingest(sourceName, text string, chunkSize, overlap int) int
	Search(query string, limit int) []notebookModel.Chunk
	Delete(sourceName string)
	Stats() Stats
}

type Stats struct {
	TotalChunks  int `json:"total_chunks"`
	TotalSources int `json:"total_sources"`
}

type ScoredChunk struct {
	notebookModel.Chunk
	Score float64
}

type KeywordRanker struct {
	store  *ChunkStore
	logger *logger_i.Logger
}

func NewKeywordRanker(store *ChunkStore) *KeywordRanker {
	return &KeywordRanker{
		store:  store,
		logger: logger_i.NewLogger("retrieval"),
	}
}

func (r *KeywordRanker) Ingest(sourceName, text string, chunkSize, overlap int) int {
	chunks := ingest.Split(text, chunkSize, overlap)
	count := r.store.Append(sourceName, chunks)
	r.logger.Info("source indexed", "source", sourceName, "chunks", count)
	return count
}

func (r *KeywordRanker) Delete(sourceName string) {
	removed := r.store.Remove(sourceName)
	r.logger.Debug("source removed from index", "source", sourceName, "chunks", removed)
}

func (r *KeywordRanker) Stats() Stats {
	return Stats{TotalChunks: r.store.Len(), TotalSources: r.store.Sources()}
}

// Search ranks by lexical overlap with the query. When nothing scores it falls
// back to the first limit chunks so small notebooks always get context.
func (r *KeywordRanker) Search(query string, limit int) []notebookModel.Chunk {
	if limit <= 0 {
		limit = config.DefaultMaxSources
	}

	all := r.store.Snapshot()
	if len(all) == 0 {
		r.logger.Debug("search on empty index")
		return []notebookModel.Chunk{}
	}

	q := strings.ToLower(query)
	bonus := intentBonus(q)

	scored := make([]ScoredChunk, 0, len(all))
	for _, c := range all {
		if s := score(q, strings.ToLower(c.Text)) + bonus; s > 0 {
			scored = append(scored, ScoredChunk{Chunk: c, Score: s})
		}
	}

	if len(scored) == 0 {
		r.logger.Debug("no chunk matched, using storage order", "query", query)
		return all[:min(limit, len(all))]
	}

	slices.SortStableFunc(scored, func(a, b ScoredChunk) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})

	out := make([]notebookModel.Chunk, 0, min(limit, len(scored)))
	for _, sc := range scored[:min(limit, len(scored))] {
		out = append(out, sc.Chunk)
	}
	r.logger.Debug("search ranked", "query", query, "matched", len(scored), "best", scored[0].Score)
	return out
}

// score expects both arguments already lower-cased.
func score(query, content string) float64 {
	var s float64
	if strings.Contains(content, query) {
		s += substringWeight
	}

	if n := utf8.RuneCountInString(query); n > 0 {
		hits := 0
		for _, r := range query {
			if strings.ContainsRune(content, r) {
				hits++
			}
		}
		s += float64(hits) / float64(n) * charWeight
	}

	for _, w := range strings.Fields(query) {
		if utf8.RuneCountInString(w) > 2 && strings.Contains(content, w) {
			s += wordWeight
		}
	}
	return s
}

func intentBonus(query string) float64 {
	for _, t := range intentTerms {
		if strings.Contains(query, t) {
			return intentWeight
		}
	}
	return 0
}
