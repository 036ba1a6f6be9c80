package redisStore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/akolanti/notex/pkg/logger_i"
	"github.com/redis/go-redis/v9"
)

var (
	instances = make(map[int]*Store)
	mu        sync.RWMutex
	logger    = logger_i.NewLogger("redis")
	once      sync.Once
)

// Store wraps one redis logical database. Job, message and notebook stores
// each get their own DB so a flush of one never touches the others.
type Store struct {
	client *redis.Client
	DB     int
}

type Options struct {
	Addr     string
	Password string
}

// GetRedisStore returns the shared store for db, connecting on first use.
// It returns an error when redis does not answer a ping so callers can fall
// back to the in-memory stores.
func GetRedisStore(ctx context.Context, opts Options, db int) (*Store, error) {
	mu.RLock()
	instance, exists := instances[db]
	mu.RUnlock()
	if exists {
		return instance, nil
	}

	mu.Lock()
	defer mu.Unlock()
	if instance, exists = instances[db]; exists {
		return instance, nil
	}
	return createNewStore(ctx, opts, db)
}

func createNewStore(ctx context.Context, opts Options, db int) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:                  opts.Addr,
		Password:              opts.Password,
		DB:                    db,
		ContextTimeoutEnabled: true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		logger.Error("Redis is offline", "addr", opts.Addr, "db", db, "error", err)
		return nil, fmt.Errorf("redis %s db %d: %w", opts.Addr, db, err)
	}
	logger.Info("Redis store connected", "addr", opts.Addr, "db", db)

	store := &Store{client: client, DB: db}
	instances[db] = store
	once.Do(func() {
		go closeRedisStores(ctx)
	})
	return store, nil
}

func closeRedisStores(ctx context.Context) {
	<-ctx.Done()
	logger.Info("Closing Redis Stores")
	mu.Lock()
	defer mu.Unlock()
	for db, store := range instances {
		if err := store.client.Close(); err != nil {
			logger.Error("Error closing redis client", "db", db, "error", err)
		}
		delete(instances, db)
	}
	logger.Info("Redis Stores closed")
}

// NewTestStore wraps an existing client, used with miniredis in tests.
func NewTestStore(client *redis.Client) *Store {
	return &Store{client: client}
}
