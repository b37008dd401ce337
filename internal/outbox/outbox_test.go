package outbox

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/EzRa021/Muhu-voice-app/internal/boot"
	"github.com/EzRa021/Muhu-voice-app/internal/model"
)

func testMessage(id, text string) *model.Message {
	return &model.Message{
		ID:        id,
		ChatID:    "chat1",
		Sender:    "user1",
		Text:      text,
		Timestamp: time.Now().UnixMilli(),
		Language:  "english",
		Status:    model.MessageStatusOffline,
	}
}

func TestOutbox(t *testing.T) {
	assert := assert.New(t)

	config, err := boot.Load()
	if err != nil {
		t.Fatalf("failed to load boot config")
	}

	ob, err := Open("user1", config)
	assert.Nil(err)
	defer ob.Close()

	t.Run("Enqueue is idempotent", func(t *testing.T) {
		m := testMessage("a1", "hi")
		assert.Nil(ob.Enqueue(m))
		assert.Nil(ob.Enqueue(m))

		queued, err := ob.ListAll()
		assert.Nil(err)
		assert.Len(queued, 1)
		assert.Equal("a1", queued[0].ID)
		assert.Equal("hi", queued[0].Text)
	})

	t.Run("ListAll preserves insertion order", func(t *testing.T) {
		assert.Nil(ob.Enqueue(testMessage("a2", "second")))
		assert.Nil(ob.Enqueue(testMessage("a3", "third")))

		queued, err := ob.ListAll()
		assert.Nil(err)
		assert.Len(queued, 3)
		assert.Equal("a1", queued[0].ID)
		assert.Equal("a2", queued[1].ID)
		assert.Equal("a3", queued[2].ID)

		// stable across repeated reads
		again, err := ob.ListAll()
		assert.Nil(err)
		assert.Equal(queued, again)
	})

	t.Run("Remove", func(t *testing.T) {
		assert.Nil(ob.Remove("a2"))
		assert.Nil(ob.Remove("missing"))

		queued, err := ob.ListAll()
		assert.Nil(err)
		assert.Len(queued, 2)
		assert.Equal("a1", queued[0].ID)
		assert.Equal("a3", queued[1].ID)
	})

	t.Run("Entries survive reopen", func(t *testing.T) {
		assert.Nil(ob.Close())

		reopened, err := Open("user1", config)
		assert.Nil(err)
		queued, err := reopened.ListAll()
		assert.Nil(err)
		assert.Len(queued, 2)
		assert.Equal("a1", queued[0].ID)

		ob = reopened
	})
}

func TestOutboxEnqueueFailure(t *testing.T) {
	assert := assert.New(t)

	config, err := boot.Load()
	if err != nil {
		t.Fatalf("failed to load boot config")
	}

	ob, err := Open("user2", config)
	assert.Nil(err)
	ob.db.Close()

	err = ob.Enqueue(testMessage("b1", "lost"))
	assert.ErrorIs(err, model.ErrorStorageFailure)
}
