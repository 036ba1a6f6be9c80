package store

import (
	"context"
	"sync"

	"github.com/akolanti/notex/internal/config"
	"github.com/akolanti/notex/internal/domain/notebookModel"
)

type InMemoryMessageStore struct {
	chatLock *sync.RWMutex
	chatMap  map[string][]notebookModel.ChatMessage
}

func InitMessageStore() *InMemoryMessageStore {
	return &InMemoryMessageStore{
		chatLock: new(sync.RWMutex),
		chatMap:  make(map[string][]notebookModel.ChatMessage),
	}
}

func (store *InMemoryMessageStore) ValidateChatId(ctx context.Context, chatId string) bool {
	store.chatLock.RLock()
	defer store.chatLock.RUnlock()
	_, ok := store.chatMap[chatId]
	return ok
}

func (store *InMemoryMessageStore) InitNewChat(ctx context.Context, id string) error {
	store.chatLock.Lock()
	defer store.chatLock.Unlock()
	store.chatMap[id] = make([]notebookModel.ChatMessage, 0)
	return nil
}

func (store *InMemoryMessageStore) AppendMessage(ctx context.Context, id string, message notebookModel.ChatMessage) error {
	store.chatLock.Lock()
	defer store.chatLock.Unlock()
	messages, ok := store.chatMap[id]
	if !ok {
		return ErrUnknownChat
	}
	store.chatMap[id] = append(messages, message)
	return nil
}

// GetMessageHistory returns a copy of the newest messages, oldest first.
func (store *InMemoryMessageStore) GetMessageHistory(ctx context.Context, chatId string) ([]notebookModel.ChatMessage, error) {
	store.chatLock.RLock()
	defer store.chatLock.RUnlock()
	messages := store.chatMap[chatId]
	if len(messages) > config.ChatHistoryWindow {
		messages = messages[len(messages)-config.ChatHistoryWindow:]
	}
	out := make([]notebookModel.ChatMessage, len(messages))
	copy(out, messages)
	return out, nil
}
