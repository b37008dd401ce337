package model

import "time"

type MessageStatus string

const (
	MessageStatusComposing MessageStatus = "composing"
	MessageStatusSending   MessageStatus = "sending"
	MessageStatusSent      MessageStatus = "sent"
	MessageStatusDelivered MessageStatus = "delivered"
	MessageStatusFailed    MessageStatus = "failed"
	MessageStatusOffline   MessageStatus = "offline"
)

// Terminal reports whether no further delivery action is taken for this
// status. Failed and offline messages stay retry-eligible via the outbox.
func (s MessageStatus) Terminal() bool {
	return s == MessageStatusSent || s == MessageStatusDelivered
}

func (s MessageStatus) RetryEligible() bool {
	return s == MessageStatusFailed || s == MessageStatusOffline
}

type Message struct {
	ID        string        `db:"ID" json:"id"`
	CreatedAt time.Time     `db:"CreatedAt" json:"-"`
	ChatID    string        `db:"ChatID" json:"chatId"`
	Sender    string        `db:"Sender" json:"sender"`
	Text      string        `db:"Text" json:"text,omitempty"`
	AudioRef  string        `db:"AudioRef" json:"audioURL,omitempty"`
	Timestamp int64         `db:"Timestamp" json:"timestamp"`
	Language  string        `db:"Language" json:"language"`
	Status    MessageStatus `db:"Status" json:"status"`
}

// Content is what goes over the relay: the audio reference when present,
// otherwise the text body.
func (m *Message) Content() string {
	if m.AudioRef != "" {
		return m.AudioRef
	}
	return m.Text
}

// Preview is the conversation-summary line for this message.
func (m *Message) Preview() string {
	if m.AudioRef != "" {
		return "Audio message"
	}
	return m.Text
}
