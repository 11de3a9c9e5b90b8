// Package chat holds the wire types shared by the REST send path and the
// realtime transport. The backend emits the same message shape on both.
package chat

import (
	"time"

	"chatsync/internal/dblocal"
)

// ChatMessage is the backend's representation of a message, as carried in
// the send response and in chat:message transport events.
type ChatMessage struct {
	ID            string     `json:"id"`
	SenderID      string     `json:"senderId"`
	SenderName    string     `json:"senderName"`
	RecipientID   string     `json:"recipientId"`
	RecipientName string     `json:"recipientName"`
	Message       string     `json:"message"`
	CreatedAt     time.Time  `json:"createdAt"`
	ReadAt        *time.Time `json:"readAt,omitempty"`
}

// Valid reports whether the payload actually is a chat message. The
// realtime channel is shared with other event types, so payloads missing
// the identity fields must be treated as noise, not as errors.
func (m *ChatMessage) Valid() bool {
	return m.ID != "" && m.SenderID != "" && m.RecipientID != ""
}

// Involves reports whether the user is the sender or the recipient.
func (m *ChatMessage) Involves(userID string) bool {
	return m.SenderID == userID || m.RecipientID == userID
}

// CounterpartOf returns the other participant from the user's point of
// view. For a self-message both sides are the user.
func (m *ChatMessage) CounterpartOf(userID string) string {
	if m.SenderID == userID {
		return m.RecipientID
	}
	return m.SenderID
}

// ToRecord converts the wire shape into the persisted row.
func (m *ChatMessage) ToRecord() *dblocal.Message {
	return &dblocal.Message{
		ID:            m.ID,
		SenderID:      m.SenderID,
		SenderName:    m.SenderName,
		RecipientID:   m.RecipientID,
		RecipientName: m.RecipientName,
		Body:          m.Message,
		CreatedAt:     m.CreatedAt,
		ReadAt:        m.ReadAt,
	}
}
