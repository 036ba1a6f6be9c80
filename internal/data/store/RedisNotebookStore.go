package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/akolanti/notex/internal/adapter/utils"
	"github.com/akolanti/notex/internal/data/redisStore"
	"github.com/akolanti/notex/internal/domain/errorModel"
	"github.com/akolanti/notex/internal/domain/notebookModel"
	"github.com/akolanti/notex/pkg/logger_i"
)

const notebooksIndex = "notebooks"

func notebookKey(id string) string     { return "notebook:" + id }
func notebookSources(id string) string { return "notebook:" + id + ":sources" }
func notebookNotes(id string) string   { return "notebook:" + id + ":notes" }
func sourceKey(id string) string       { return "source:" + id }
func noteKey(id string) string         { return "note:" + id }
func prefixed(p func(string) string, ids []string) []string {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = p(id)
	}
	return keys
}

// RedisNotebookStore keeps each record as JSON under its own key and lists
// them through sorted-set indexes ordered by creation time. Records never expire.
type RedisNotebookStore struct {
	store  *redisStore.Store
	logger *logger_i.Logger
}

func NewRedisNotebookStore(store *redisStore.Store) *RedisNotebookStore {
	return &RedisNotebookStore{
		store:  store,
		logger: logger_i.NewLogger("NotebookStore"),
	}
}

func (s *RedisNotebookStore) CreateNotebook(ctx context.Context, nb notebookModel.Notebook) (notebookModel.Notebook, error) {
	now := time.Now()
	if nb.Id == "" {
		nb.Id = utils.GetNewUUID()
	}
	nb.CreatedAt, nb.UpdatedAt = now, now
	if err := s.put(ctx, notebookKey(nb.Id), nb); err != nil {
		return nb, err
	}
	return nb, s.store.IndexAdd(ctx, notebooksIndex, nb.Id, now)
}

func (s *RedisNotebookStore) GetNotebook(ctx context.Context, id string) (notebookModel.Notebook, bool) {
	var nb notebookModel.Notebook
	return nb, s.get(ctx, notebookKey(id), &nb)
}

func (s *RedisNotebookStore) ListNotebooks(ctx context.Context) ([]notebookModel.Notebook, error) {
	return listIndexed[notebookModel.Notebook](ctx, s, notebooksIndex, notebookKey)
}

// DeleteNotebook removes the notebook with all of its sources and notes.
func (s *RedisNotebookStore) DeleteNotebook(ctx context.Context, id string) error {
	if _, ok := s.GetNotebook(ctx, id); !ok {
		return fmt.Errorf("notebook %s: %w", id, errorModel.ErrNotFound)
	}
	sourceIds, err := s.store.IndexMembers(ctx, notebookSources(id))
	if err != nil {
		return err
	}
	noteIds, err := s.store.IndexMembers(ctx, notebookNotes(id))
	if err != nil {
		return err
	}

	keys := append(prefixed(sourceKey, sourceIds), prefixed(noteKey, noteIds)...)
	keys = append(keys, notebookKey(id), notebookSources(id), notebookNotes(id))
	if err := s.store.Del(ctx, keys...); err != nil {
		return err
	}
	s.logger.FromContext(ctx).Info("notebook deleted", "notebookId", id, "sources", len(sourceIds), "notes", len(noteIds))
	return s.store.IndexRemove(ctx, notebooksIndex, id)
}

func (s *RedisNotebookStore) CreateSource(ctx context.Context, src notebookModel.Source) (notebookModel.Source, error) {
	now := time.Now()
	if src.Id == "" {
		src.Id = utils.GetNewUUID()
	}
	src.CreatedAt, src.UpdatedAt = now, now
	if err := s.put(ctx, sourceKey(src.Id), src); err != nil {
		return src, err
	}
	return src, s.store.IndexAdd(ctx, notebookSources(src.NotebookId), src.Id, now)
}

func (s *RedisNotebookStore) GetSource(ctx context.Context, id string) (notebookModel.Source, bool) {
	var src notebookModel.Source
	return src, s.get(ctx, sourceKey(id), &src)
}

func (s *RedisNotebookStore) ListSources(ctx context.Context, notebookId string) ([]notebookModel.Source, error) {
	return listIndexed[notebookModel.Source](ctx, s, notebookSources(notebookId), sourceKey)
}

func (s *RedisNotebookStore) UpdateSourceChunkCount(ctx context.Context, id string, count int) error {
	src, ok := s.GetSource(ctx, id)
	if !ok {
		return fmt.Errorf("source %s: %w", id, errorModel.ErrNotFound)
	}
	src.ChunkCount = count
	src.UpdatedAt = time.Now()
	return s.put(ctx, sourceKey(id), src)
}

func (s *RedisNotebookStore) DeleteSource(ctx context.Context, id string) error {
	src, ok := s.GetSource(ctx, id)
	if !ok {
		return fmt.Errorf("source %s: %w", id, errorModel.ErrNotFound)
	}
	if err := s.store.Del(ctx, sourceKey(id)); err != nil {
		return err
	}
	return s.store.IndexRemove(ctx, notebookSources(src.NotebookId), id)
}

func (s *RedisNotebookStore) CreateNote(ctx context.Context, note notebookModel.Note) (notebookModel.Note, error) {
	now := time.Now()
	if note.Id == "" {
		note.Id = utils.GetNewUUID()
	}
	note.CreatedAt = now
	if err := s.put(ctx, noteKey(note.Id), note); err != nil {
		return note, err
	}
	return note, s.store.IndexAdd(ctx, notebookNotes(note.NotebookId), note.Id, now)
}

func (s *RedisNotebookStore) ListNotes(ctx context.Context, notebookId string) ([]notebookModel.Note, error) {
	return listIndexed[notebookModel.Note](ctx, s, notebookNotes(notebookId), noteKey)
}

func (s *RedisNotebookStore) DeleteNote(ctx context.Context, id string) error {
	var note notebookModel.Note
	if !s.get(ctx, noteKey(id), &note) {
		return fmt.Errorf("note %s: %w", id, errorModel.ErrNotFound)
	}
	if err := s.store.Del(ctx, noteKey(id)); err != nil {
		return err
	}
	return s.store.IndexRemove(ctx, notebookNotes(note.NotebookId), id)
}

func (s *RedisNotebookStore) put(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, key, data, 0); err != nil {
		s.logger.FromContext(ctx).Error("failed to save record", "key", key, "error", err)
		return err
	}
	return nil
}

func (s *RedisNotebookStore) get(ctx context.Context, key string, v any) bool {
	val, err := s.store.Get(ctx, key)
	if err != nil {
		if !s.store.IsNil(err) {
			s.logger.FromContext(ctx).Error("failed to read record", "key", key, "error", err)
		}
		return false
	}
	return json.Unmarshal([]byte(val), v) == nil
}

// listIndexed loads every record named by the index, oldest first.
// Index entries whose record has gone are skipped.
func listIndexed[T any](ctx context.Context, s *RedisNotebookStore, index string, key func(string) string) ([]T, error) {
	ids, err := s.store.IndexMembers(ctx, index)
	if err != nil {
		return nil, err
	}
	vals, err := s.store.MGet(ctx, prefixed(key, ids)...)
	if err != nil {
		return nil, err
	}

	out := make([]T, 0, len(vals))
	for i, v := range vals {
		str, ok := v.(string)
		if !ok {
			s.logger.Warn("index entry without record", "index", index, "id", ids[i])
			continue
		}
		var rec T
		if err := json.Unmarshal([]byte(str), &rec); err != nil {
			s.logger.Warn("skipping malformed record", "index", index, "id", ids[i], "error", err)
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}
