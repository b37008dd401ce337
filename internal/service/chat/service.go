package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/EzRa021/Muhu-voice-app/internal/model"
	"github.com/EzRa021/Muhu-voice-app/internal/remote"
)

type Pipeline interface {
	Send(ctx context.Context, message *model.Message) error
}

type service struct {
	store     remote.Store
	blobs     remote.Blobs
	languages *Languages
	feed      *Feed
	pipeline  Pipeline
}

func New(store remote.Store, blobs remote.Blobs, languages *Languages, feed *Feed, pipeline Pipeline) *service {
	return &service{
		store:     store,
		blobs:     blobs,
		languages: languages,
		feed:      feed,
		pipeline:  pipeline,
	}
}

// SendText composes a text message and hands it to the delivery pipeline.
// The returned message carries its current status; a non-nil error only ever
// reports a local storage degradation, never a delivery failure.
func (s *service) SendText(ctx context.Context, sender, chatID, text string) (*model.Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, model.ErrorEmptyMessage
	}

	message, err := s.compose(ctx, sender, chatID)
	if err != nil {
		return nil, err
	}
	message.Text = text

	return message, s.pipeline.Send(ctx, message)
}

// SendAudio uploads the recording first, then delivers a message referencing
// the uploaded object.
func (s *service) SendAudio(ctx context.Context, sender, chatID string, audio []byte) (*model.Message, error) {
	if len(audio) == 0 {
		return nil, model.ErrorEmptyMessage
	}

	ref, err := s.blobs.Upload(ctx, audio)
	if err != nil {
		return nil, fmt.Errorf("uploading audio: %w", err)
	}

	message, err := s.compose(ctx, sender, chatID)
	if err != nil {
		return nil, err
	}
	message.AudioRef = ref

	return message, s.pipeline.Send(ctx, message)
}

func (s *service) compose(ctx context.Context, sender, chatID string) (*model.Message, error) {
	lang, err := s.languages.LanguageFor(ctx, sender)
	if err != nil {
		return nil, fmt.Errorf("resolving sender language: %w", err)
	}

	return &model.Message{
		ID:        model.CreateID(),
		ChatID:    chatID,
		Sender:    sender,
		Timestamp: time.Now().UnixMilli(),
		Language:  lang,
		Status:    model.MessageStatusComposing,
	}, nil
}

// Feed returns the session-local message list with live statuses.
func (s *service) Feed(chatID string) []model.Message {
	return s.feed.Messages(chatID)
}

// Messages reads the persisted conversation log from the remote store,
// oldest first.
func (s *service) Messages(ctx context.Context, userID, chatID string) ([]model.Message, error) {
	raw, ok, err := s.store.Get(ctx, fmt.Sprintf("messages/%s/%s", userID, chatID))
	if err != nil {
		return nil, fmt.Errorf("fetching messages: %w", err)
	}
	if !ok {
		return []model.Message{}, nil
	}

	byID := map[string]model.Message{}
	if err := json.Unmarshal(raw, &byID); err != nil {
		return nil, fmt.Errorf("decoding messages: %w", err)
	}

	messages := make([]model.Message, 0, len(byID))
	for id, message := range byID {
		if message.ID == "" {
			message.ID = id
		}
		messages = append(messages, message)
	}
	sort.Slice(messages, func(i, j int) bool {
		return messages[i].Timestamp < messages[j].Timestamp
	})
	return messages, nil
}

// MarkRead resets the unread counter on the conversation summary.
func (s *service) MarkRead(ctx context.Context, userID, chatID string) error {
	summaryPath := fmt.Sprintf("chats/%s/%s", userID, chatID)
	if err := s.store.Update(ctx, summaryPath, map[string]any{"unreadCount": 0}); err != nil {
		return fmt.Errorf("marking chat read: %w", err)
	}
	return nil
}
