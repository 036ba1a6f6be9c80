package retrieval

import (
	"sync"

	"github.com/akolanti/notex/internal/domain/notebookModel"
)

// ChunkStore is an ordered arena of chunks identified by (source name, index).
// Storage order is ingestion order and is what the search fallback returns.
type ChunkStore struct {
	mu     sync.RWMutex
	chunks []notebookModel.Chunk
	next   map[string]int
}

func NewChunkStore() *ChunkStore {
	return &ChunkStore{next: make(map[string]int)}
}

// Append adds texts at the end of the collection. Two sources may share a
// name; their indexes continue after the chunks already stored under it.
func (s *ChunkStore) Append(source string, texts []string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	base := s.next[source]
	for i, text := range texts {
		s.chunks = append(s.chunks, notebookModel.Chunk{Text: text, SourceName: source, Index: base + i})
	}
	s.next[source] = base + len(texts)
	return len(texts)
}

func (s *ChunkStore) Remove(source string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked(source)
}

// Snapshot returns a copy of the collection in storage order.
func (s *ChunkStore) Snapshot() []notebookModel.Chunk {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]notebookModel.Chunk, len(s.chunks))
	copy(out, s.chunks)
	return out
}

func (s *ChunkStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

func (s *ChunkStore) Sources() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]struct{})
	for _, c := range s.chunks {
		seen[c.SourceName] = struct{}{}
	}
	return len(seen)
}

func (s *ChunkStore) removeLocked(source string) int {
	kept := s.chunks[:0]
	removed := 0
	for _, c := range s.chunks {
		if c.SourceName == source {
			removed++
			continue
		}
		kept = append(kept, c)
	}
	if removed == 0 {
		return 0
	}
	// zero the tail so dropped strings can be collected
	clear(s.chunks[len(kept):])
	s.chunks = kept
	delete(s.next, source)
	return removed
}
