package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/EzRa021/Muhu-voice-app/internal/model"
)

type fakeChats struct {
	lastSender string
	lastChat   string
	lastText   string
}

func (f *fakeChats) SendText(ctx context.Context, sender, chatID, text string) (*model.Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, model.ErrorEmptyMessage
	}
	f.lastSender, f.lastChat, f.lastText = sender, chatID, text
	return &model.Message{ID: "m1", Sender: sender, ChatID: chatID, Text: text, Status: model.MessageStatusDelivered}, nil
}

func (f *fakeChats) SendAudio(ctx context.Context, sender, chatID string, audio []byte) (*model.Message, error) {
	return &model.Message{ID: "m2", Sender: sender, ChatID: chatID, AudioRef: "ref", Status: model.MessageStatusDelivered}, nil
}

func (f *fakeChats) Feed(chatID string) []model.Message {
	return []model.Message{{ID: "m1", ChatID: chatID, Status: model.MessageStatusSending}}
}

func (f *fakeChats) Messages(ctx context.Context, userID, chatID string) ([]model.Message, error) {
	return []model.Message{}, nil
}

func (f *fakeChats) MarkRead(ctx context.Context, userID, chatID string) error {
	return nil
}

type fakeSessions map[string]string

func (f fakeSessions) Verify(token string) (string, error) {
	if uid, ok := f[token]; ok {
		return uid, nil
	}
	return "", model.ErrorInvalidSession
}

func request(t *testing.T, handler echo.HandlerFunc, method, body, token string) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("chatId")
	c.SetParamValues("peer1")

	err := handler(c)
	if err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestSendMessage(t *testing.T) {
	assert := assert.New(t)

	chats := &fakeChats{}
	sessions := fakeSessions{"tok1": "user1"}
	handler := SendMessage(chats, sessions)

	t.Run("delivers for a valid session", func(t *testing.T) {
		rec := request(t, handler, http.MethodPost, `{"text":"hello"}`, "tok1")
		assert.Equal(http.StatusOK, rec.Code)
		assert.Equal("user1", chats.lastSender)
		assert.Equal("peer1", chats.lastChat)
		assert.Equal("hello", chats.lastText)
	})

	t.Run("rejects a missing token", func(t *testing.T) {
		rec := request(t, handler, http.MethodPost, `{"text":"hello"}`, "")
		assert.Equal(http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects an unknown token", func(t *testing.T) {
		rec := request(t, handler, http.MethodPost, `{"text":"hello"}`, "bogus")
		assert.Equal(http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects empty text", func(t *testing.T) {
		rec := request(t, handler, http.MethodPost, `{"text":"  "}`, "tok1")
		assert.Equal(http.StatusBadRequest, rec.Code)
	})
}

func TestListFeed(t *testing.T) {
	assert := assert.New(t)

	handler := ListFeed(&fakeChats{}, fakeSessions{"tok1": "user1"})
	rec := request(t, handler, http.MethodGet, "", "tok1")
	assert.Equal(http.StatusOK, rec.Code)
	assert.Contains(rec.Body.String(), "sending")
}
