package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/EzRa021/Muhu-voice-app/internal/model"
)

type ChatService interface {
	SendText(ctx context.Context, sender, chatID, text string) (*model.Message, error)
	SendAudio(ctx context.Context, sender, chatID string, audio []byte) (*model.Message, error)
	Feed(chatID string) []model.Message
	Messages(ctx context.Context, userID, chatID string) ([]model.Message, error)
	MarkRead(ctx context.Context, userID, chatID string) error
}

type SessionVerifier interface {
	Verify(token string) (string, error)
}

func senderOf(c echo.Context, sessions SessionVerifier) (string, error) {
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	token := strings.TrimPrefix(auth, "Bearer ")
	if token == "" || token == auth {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
	}
	uid, err := sessions.Verify(token)
	if err != nil {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid session")
	}
	return uid, nil
}

func sendResponse(c echo.Context, message *model.Message, err error) error {
	if err != nil {
		if errors.Is(err, model.ErrorEmptyMessage) {
			return echo.NewHTTPError(http.StatusBadRequest, "empty message")
		}
		if errors.Is(err, model.ErrorStorageFailure) {
			// delivery already handled the status; the caller just gets a
			// heads-up that the offline queue is degraded
			return c.JSON(http.StatusOK, map[string]any{
				"message": message,
				"warning": "local storage unavailable; message not queued durably",
			})
		}
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"message": message})
}

func SendMessage(chats ChatService, sessions SessionVerifier) echo.HandlerFunc {
	return func(c echo.Context) error {
		uid, err := senderOf(c, sessions)
		if err != nil {
			return err
		}

		params := struct {
			Text string `json:"text"`
		}{}
		if err := c.Bind(&params); err != nil {
			return err
		}

		message, err := chats.SendText(c.Request().Context(), uid, c.Param("chatId"), params.Text)
		return sendResponse(c, message, err)
	}
}

func SendAudioMessage(chats ChatService, sessions SessionVerifier) echo.HandlerFunc {
	return func(c echo.Context) error {
		uid, err := senderOf(c, sessions)
		if err != nil {
			return err
		}

		body := c.Request().Body
		defer body.Close()
		audio, err := io.ReadAll(body)
		if err != nil {
			return err
		}

		message, err := chats.SendAudio(c.Request().Context(), uid, c.Param("chatId"), audio)
		return sendResponse(c, message, err)
	}
}

func ListMessages(chats ChatService, sessions SessionVerifier) echo.HandlerFunc {
	return func(c echo.Context) error {
		uid, err := senderOf(c, sessions)
		if err != nil {
			return err
		}

		messages, err := chats.Messages(c.Request().Context(), uid, c.Param("chatId"))
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, messages)
	}
}

// ListFeed returns the session-local message list, which carries live
// delivery statuses for the bubbles.
func ListFeed(chats ChatService, sessions SessionVerifier) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, err := senderOf(c, sessions); err != nil {
			return err
		}
		return c.JSON(http.StatusOK, chats.Feed(c.Param("chatId")))
	}
}

func MarkChatRead(chats ChatService, sessions SessionVerifier) echo.HandlerFunc {
	return func(c echo.Context) error {
		uid, err := senderOf(c, sessions)
		if err != nil {
			return err
		}
		if err := chats.MarkRead(c.Request().Context(), uid, c.Param("chatId")); err != nil {
			return err
		}
		return c.NoContent(http.StatusNoContent)
	}
}
