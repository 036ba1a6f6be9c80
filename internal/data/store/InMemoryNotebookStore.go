package store

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/akolanti/notex/internal/adapter/utils"
	"github.com/akolanti/notex/internal/domain/errorModel"
	"github.com/akolanti/notex/internal/domain/notebookModel"
)

// InMemoryNotebookStore mirrors RedisNotebookStore for runs without redis.
// The order slices keep listing in creation order.
type InMemoryNotebookStore struct {
	mu        sync.RWMutex
	notebooks map[string]notebookModel.Notebook
	sources   map[string]notebookModel.Source
	notes     map[string]notebookModel.Note
	order     []string
	sourceIds map[string][]string
	noteIds   map[string][]string
}

func InitInMemoryNotebookStore() *InMemoryNotebookStore {
	return &InMemoryNotebookStore{
		notebooks: make(map[string]notebookModel.Notebook),
		sources:   make(map[string]notebookModel.Source),
		notes:     make(map[string]notebookModel.Note),
		sourceIds: make(map[string][]string),
		noteIds:   make(map[string][]string),
	}
}

func (s *InMemoryNotebookStore) CreateNotebook(ctx context.Context, nb notebookModel.Notebook) (notebookModel.Notebook, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if nb.Id == "" {
		nb.Id = utils.GetNewUUID()
	}
	nb.CreatedAt = time.Now()
	nb.UpdatedAt = nb.CreatedAt
	if _, exists := s.notebooks[nb.Id]; !exists {
		s.order = append(s.order, nb.Id)
	}
	s.notebooks[nb.Id] = nb
	return nb, nil
}

func (s *InMemoryNotebookStore) GetNotebook(ctx context.Context, id string) (notebookModel.Notebook, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	nb, ok := s.notebooks[id]
	return nb, ok
}

func (s *InMemoryNotebookStore) ListNotebooks(ctx context.Context) ([]notebookModel.Notebook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]notebookModel.Notebook, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.notebooks[id])
	}
	return out, nil
}

func (s *InMemoryNotebookStore) DeleteNotebook(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.notebooks[id]; !ok {
		return fmt.Errorf("notebook %s: %w", id, errorModel.ErrNotFound)
	}
	for _, sid := range s.sourceIds[id] {
		delete(s.sources, sid)
	}
	for _, nid := range s.noteIds[id] {
		delete(s.notes, nid)
	}
	delete(s.sourceIds, id)
	delete(s.noteIds, id)
	delete(s.notebooks, id)
	s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == id })
	return nil
}

func (s *InMemoryNotebookStore) CreateSource(ctx context.Context, src notebookModel.Source) (notebookModel.Source, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if src.Id == "" {
		src.Id = utils.GetNewUUID()
	}
	src.CreatedAt = time.Now()
	src.UpdatedAt = src.CreatedAt
	if _, exists := s.sources[src.Id]; !exists {
		s.sourceIds[src.NotebookId] = append(s.sourceIds[src.NotebookId], src.Id)
	}
	s.sources[src.Id] = src
	return src, nil
}

func (s *InMemoryNotebookStore) GetSource(ctx context.Context, id string) (notebookModel.Source, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src, ok := s.sources[id]
	return src, ok
}

func (s *InMemoryNotebookStore) ListSources(ctx context.Context, notebookId string) ([]notebookModel.Source, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]notebookModel.Source, 0, len(s.sourceIds[notebookId]))
	for _, id := range s.sourceIds[notebookId] {
		out = append(out, s.sources[id])
	}
	return out, nil
}

func (s *InMemoryNotebookStore) UpdateSourceChunkCount(ctx context.Context, id string, count int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	src, ok := s.sources[id]
	if !ok {
		return fmt.Errorf("source %s: %w", id, errorModel.ErrNotFound)
	}
	src.ChunkCount = count
	src.UpdatedAt = time.Now()
	s.sources[id] = src
	return nil
}

func (s *InMemoryNotebookStore) DeleteSource(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	src, ok := s.sources[id]
	if !ok {
		return fmt.Errorf("source %s: %w", id, errorModel.ErrNotFound)
	}
	delete(s.sources, id)
	s.sourceIds[src.NotebookId] = slices.DeleteFunc(s.sourceIds[src.NotebookId], func(v string) bool { return v == id })
	return nil
}

func (s *InMemoryNotebookStore) CreateNote(ctx context.Context, note notebookModel.Note) (notebookModel.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if note.Id == "" {
		note.Id = utils.GetNewUUID()
	}
	note.CreatedAt = time.Now()
	if _, exists := s.notes[note.Id]; !exists {
		s.noteIds[note.NotebookId] = append(s.noteIds[note.NotebookId], note.Id)
	}
	s.notes[note.Id] = note
	return note, nil
}

func (s *InMemoryNotebookStore) ListNotes(ctx context.Context, notebookId string) ([]notebookModel.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]notebookModel.Note, 0, len(s.noteIds[notebookId]))
	for _, id := range s.noteIds[notebookId] {
		out = append(out, s.notes[id])
	}
	return out, nil
}

func (s *InMemoryNotebookStore) DeleteNote(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	note, ok := s.notes[id]
	if !ok {
		return fmt.Errorf("note %s: %w", id, errorModel.ErrNotFound)
	}
	delete(s.notes, id)
	s.noteIds[note.NotebookId] = slices.DeleteFunc(s.noteIds[note.NotebookId], func(v string) bool { return v == id })
	return nil
}
