package chat

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/EzRa021/Muhu-voice-app/internal/blobstore"
	"github.com/EzRa021/Muhu-voice-app/internal/boot"
	"github.com/EzRa021/Muhu-voice-app/internal/model"
	"github.com/EzRa021/Muhu-voice-app/internal/profilecache"
	"github.com/EzRa021/Muhu-voice-app/internal/remote/memory"
)

// acceptAllPipeline marks every message delivered without touching the
// network.
type acceptAllPipeline struct {
	sent []*model.Message
}

func (p *acceptAllPipeline) Send(ctx context.Context, message *model.Message) error {
	message.Status = model.MessageStatusDelivered
	p.sent = append(p.sent, message)
	return nil
}

func TestChatService(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	store := memory.New()
	assert.Nil(store.Set(ctx, "users/user1", &model.UserProfile{Username: "amina", Language: "yoruba"}))

	cache, err := profilecache.New()
	assert.Nil(err)
	defer cache.Close()

	config := &boot.Config{DataDir: t.TempDir()}
	blobs, err := blobstore.New(config)
	assert.Nil(err)

	pipeline := &acceptAllPipeline{}
	feed := NewFeed()
	service := New(store, blobs, NewLanguages(store, cache), feed, pipeline)

	t.Run("SendText composes and delivers", func(t *testing.T) {
		message, err := service.SendText(ctx, "user1", "peer1", "bawo ni")
		assert.Nil(err)
		assert.NotEmpty(message.ID)
		assert.Equal("user1", message.Sender)
		assert.Equal("peer1", message.ChatID)
		assert.Equal("yoruba", message.Language)
		assert.Greater(message.Timestamp, int64(0))
		assert.Equal(model.MessageStatusDelivered, message.Status)
		assert.Len(pipeline.sent, 1)
	})

	t.Run("SendText rejects empty messages", func(t *testing.T) {
		_, err := service.SendText(ctx, "user1", "peer1", "   ")
		assert.ErrorIs(err, model.ErrorEmptyMessage)
		assert.Len(pipeline.sent, 1)
	})

	t.Run("sender language defaults for unknown profiles", func(t *testing.T) {
		message, err := service.SendText(ctx, "stranger", "peer1", "hello")
		assert.Nil(err)
		assert.Equal("english", message.Language)
	})

	t.Run("SendAudio uploads then delivers", func(t *testing.T) {
		message, err := service.SendAudio(ctx, "user1", "peer1", []byte("wav bytes"))
		assert.Nil(err)
		assert.NotEmpty(message.AudioRef)
		assert.Equal(model.MessageStatusDelivered, message.Status)

		url, err := blobs.URL(message.AudioRef)
		assert.Nil(err)
		assert.NotEmpty(url)
	})

	t.Run("SendAudio rejects empty recordings", func(t *testing.T) {
		_, err := service.SendAudio(ctx, "user1", "peer1", nil)
		assert.ErrorIs(err, model.ErrorEmptyMessage)
	})
}

func TestChatServiceReads(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	store := memory.New()
	feed := NewFeed()
	service := New(store, nil, NewLanguages(store, nil), feed, &acceptAllPipeline{})

	t.Run("Messages on empty chat", func(t *testing.T) {
		messages, err := service.Messages(ctx, "user1", "peer1")
		assert.Nil(err)
		assert.Empty(messages)
	})

	t.Run("Messages sorted by timestamp", func(t *testing.T) {
		assert.Nil(store.Set(ctx, "messages/user1/peer1/m2", &model.Message{ID: "m2", Text: "later", Timestamp: 200}))
		assert.Nil(store.Set(ctx, "messages/user1/peer1/m1", &model.Message{ID: "m1", Text: "earlier", Timestamp: 100}))

		messages, err := service.Messages(ctx, "user1", "peer1")
		assert.Nil(err)
		assert.Len(messages, 2)
		assert.Equal("m1", messages[0].ID)
		assert.Equal("m2", messages[1].ID)
	})

	t.Run("MarkRead resets the unread counter", func(t *testing.T) {
		assert.Nil(store.Update(ctx, "chats/user1/peer1", map[string]any{"lastMessage": "hi", "unreadCount": 3}))
		assert.Nil(service.MarkRead(ctx, "user1", "peer1"))

		raw, ok, _ := store.Get(ctx, "chats/user1/peer1")
		assert.True(ok)
		summary := model.ChatSummary{}
		assert.Nil(json.Unmarshal(raw, &summary))
		assert.Equal(0, summary.UnreadCount)
		assert.Equal("hi", summary.LastMessage)
	})

	t.Run("Feed tracks status transitions", func(t *testing.T) {
		m := &model.Message{ID: "f1", ChatID: "peer1", Text: "hi", Status: model.MessageStatusSending}
		feed.Record(m)
		m.Status = model.MessageStatusDelivered
		feed.Record(m)

		messages := feed.Messages("peer1")
		assert.Len(messages, 1)
		assert.Equal(model.MessageStatusDelivered, messages[0].Status)
	})
}
