package chat

import (
	"sync"

	"github.com/EzRa021/Muhu-voice-app/internal/model"
)

// Feed is the UI-visible message list for the current session. The delivery
// pipeline records every status transition here before any network work, so
// a message bubble appears (and updates) immediately regardless of outcome.
type Feed struct {
	mu    sync.Mutex
	order map[string][]string
	byID  map[string]*model.Message
}

func NewFeed() *Feed {
	return &Feed{
		order: map[string][]string{},
		byID:  map[string]*model.Message{},
	}
}

func (f *Feed) Record(message *model.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()

	cp := *message
	if _, ok := f.byID[cp.ID]; !ok {
		f.order[cp.ChatID] = append(f.order[cp.ChatID], cp.ID)
	}
	f.byID[cp.ID] = &cp
}

// Messages returns a snapshot of the feed for one chat, in first-seen order.
func (f *Feed) Messages(chatID string) []model.Message {
	f.mu.Lock()
	defer f.mu.Unlock()

	messages := make([]model.Message, 0, len(f.order[chatID]))
	for _, id := range f.order[chatID] {
		messages = append(messages, *f.byID[id])
	}
	return messages
}
