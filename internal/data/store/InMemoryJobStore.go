package store

import (
	"context"
	"sync"
	"time"

	"github.com/akolanti/notex/internal/config"
	"github.com/akolanti/notex/internal/domain/jobModel"
	"github.com/akolanti/notex/pkg/logger_i"
)

var inMemLogger = logger_i.NewLogger("InMem Store")

type storedJob struct {
	job     jobModel.Job
	savedAt time.Time
}

// InMemoryJobStore is used when redis is offline. Jobs expire after the same
// TTL the redis store applies, so a long-running server does not grow without bound.
type InMemoryJobStore struct {
	jobMutex *sync.RWMutex
	jobMap   map[string]storedJob
	ttl      time.Duration
	now      func() time.Time
}

func InitInMemoryJobStore() *InMemoryJobStore {
	return &InMemoryJobStore{
		jobMutex: new(sync.RWMutex),
		jobMap:   make(map[string]storedJob),
		ttl:      config.RedisJobStoreTTL,
		now:      time.Now,
	}
}

func (store *InMemoryJobStore) SaveJob(ctx context.Context, job jobModel.Job) error {
	store.jobMutex.Lock()
	defer store.jobMutex.Unlock()
	now := store.now()
	store.jobMap[job.Id] = storedJob{job: job, savedAt: now}
	if expired := store.evictLocked(now); expired > 0 {
		inMemLogger.FromContext(ctx).Debug("expired jobs evicted", "count", expired)
	}
	inMemLogger.FromContext(ctx).Debug("saved job", "jobId", job.Id, "status", job.Status)
	return nil
}

func (store *InMemoryJobStore) GetJob(ctx context.Context, jobId string) (jobModel.Job, bool) {
	store.jobMutex.RLock()
	defer store.jobMutex.RUnlock()
	entry, found := store.jobMap[jobId]
	if !found || store.now().Sub(entry.savedAt) > store.ttl {
		return jobModel.Job{}, false
	}
	return entry.job, true
}

func (store *InMemoryJobStore) DeleteJob(ctx context.Context, jobID string) {
	store.jobMutex.Lock()
	defer store.jobMutex.Unlock()
	delete(store.jobMap, jobID)
}

func (store *InMemoryJobStore) evictLocked(now time.Time) int {
	evicted := 0
	for id, entry := range store.jobMap {
		if now.Sub(entry.savedAt) > store.ttl {
			delete(store.jobMap, id)
			evicted++
		}
	}
	return evicted
}
