package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/akolanti/notex/internal/config"
	"github.com/akolanti/notex/internal/data/redisStore"
	"github.com/akolanti/notex/internal/domain/notebookModel"
	"github.com/akolanti/notex/pkg/logger_i"
)

var ErrUnknownChat = errors.New("unknown chat session")

// a session key marks the chat as started, its messages live in a list beside it
func sessionKey(id string) string  { return "session:" + id }
func messagesKey(id string) string { return "session:" + id + ":messages" }

type RedisMessageStore struct {
	store  *redisStore.Store
	logger *logger_i.Logger
}

func NewRedisMessageStore(store *redisStore.Store) *RedisMessageStore {
	return &RedisMessageStore{
		store:  store,
		logger: logger_i.NewLogger("MessageStore"),
	}
}

func (s *RedisMessageStore) ValidateChatId(ctx context.Context, chatId string) bool {
	found, err := s.store.Exists(ctx, sessionKey(chatId))
	if err != nil {
		s.logger.FromContext(ctx).Error("Failed to check if chatId exists", "chatId", chatId, "error", err)
		return false
	}
	return found
}

func (s *RedisMessageStore) InitNewChat(ctx context.Context, id string) error {
	log := s.logger.FromContext(ctx).With("chatId", id)
	if err := s.store.Del(ctx, messagesKey(id)); err != nil {
		log.Error("Error clearing chat", "error", err)
		return err
	}
	if err := s.store.Set(ctx, sessionKey(id), time.Now().Format(time.RFC3339), config.RedisMessageStoreTTL); err != nil {
		log.Error("Error initializing chat", "error", err)
		return err
	}
	log.Debug("Initialized new chat")
	return nil
}

func (s *RedisMessageStore) AppendMessage(ctx context.Context, id string, message notebookModel.ChatMessage) error {
	log := s.logger.FromContext(ctx).With("chatId", id)
	if !s.ValidateChatId(ctx, id) {
		log.Error("Failed validation before saving")
		return ErrUnknownChat
	}

	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	if err = s.store.ListPush(ctx, messagesKey(id), data); err != nil {
		log.Error("error saving chat message", "error", err)
		return err
	}
	// every message keeps the session alive
	_ = s.store.Expire(ctx, sessionKey(id), config.RedisMessageStoreTTL)
	_ = s.store.Expire(ctx, messagesKey(id), config.RedisMessageStoreTTL)
	return nil
}

// GetMessageHistory returns the newest messages of the chat, oldest first.
func (s *RedisMessageStore) GetMessageHistory(ctx context.Context, chatId string) ([]notebookModel.ChatMessage, error) {
	raw, err := s.store.ListGetLast(ctx, messagesKey(chatId), config.ChatHistoryWindow)
	if err != nil {
		s.logger.FromContext(ctx).Error("Error getting history", "chatId", chatId, "error", err)
		return nil, err
	}

	history := make([]notebookModel.ChatMessage, 0, len(raw))
	for _, r := range raw {
		var msg notebookModel.ChatMessage
		if err := json.Unmarshal([]byte(r), &msg); err != nil {
			s.logger.Warn("skipping malformed chat message", "chatId", chatId, "error", err)
			continue
		}
		history = append(history, msg)
	}
	return history, nil
}
