package dblocal

import (
	"time"
)

// Message is a single chat message persisted on this device. Rows are
// written once and never mutated afterwards, except to set ReadAt.
type Message struct {
	ID            string     `gorm:"primaryKey;size:64"`
	SenderID      string     `gorm:"index;size:36"`
	SenderName    string     `gorm:"size:191"`
	RecipientID   string     `gorm:"index;size:36"`
	RecipientName string     `gorm:"size:191"`
	Body          string     `gorm:"type:text"`
	CreatedAt     time.Time  `gorm:"index"`
	ReadAt        *time.Time `gorm:"index"`
}

// Read reports whether the recipient has seen the message.
func (m *Message) Read() bool {
	return m.ReadAt != nil
}

// ConversationKey identifies the conversation the message belongs to.
func (m *Message) ConversationKey() string {
	return PairKey(m.SenderID, m.RecipientID)
}

// PairKey returns the canonical identity of a conversation: the unordered
// pair of the two participant ids. Messages in both directions between the
// same two users yield the same key.
func PairKey(userA, userB string) string {
	if userB < userA {
		userA, userB = userB, userA
	}
	return userA + "|" + userB
}
