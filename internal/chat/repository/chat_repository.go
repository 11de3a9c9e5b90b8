package repository

import (
	"context"
	"sort"
	"time"

	"chatsync/internal/dblocal"
)

// ConversationSummary is one row of the conversation list: the counterpart,
// the latest message either way, and how many of their messages are unread.
type ConversationSummary struct {
	CounterpartID   string           `json:"counterpart_id"`
	CounterpartName string           `json:"counterpart_name"`
	LastMessage     *dblocal.Message `json:"last_message"`
	LastActivity    time.Time        `json:"last_activity"`
	UnreadCount     int64            `json:"unread_count"`
}

type ChatRepository interface {
	Save(ctx context.Context, msg *dblocal.Message) error
	GetConversation(ctx context.Context, userA, userB string) ([]*dblocal.Message, error)
	GetConversationsForUser(ctx context.Context, userID string) ([]ConversationSummary, error)
	GetUnreadCount(ctx context.Context, userID, counterpartID string) (int64, error)
	MarkAsRead(ctx context.Context, counterpartID, selfID string) error
}

type chatRepo struct {
	store *dblocal.Store
}

func NewChatRepository(store *dblocal.Store) ChatRepository {
	return &chatRepo{store: store}
}

// Save persists a message. Duplicate ids are absorbed by the store's
// upsert, so the optimistic send path and the echoed broadcast can both
// call this for the same message.
func (r *chatRepo) Save(ctx context.Context, msg *dblocal.Message) error {
	return r.store.Upsert(ctx, msg)
}

func (r *chatRepo) GetConversation(ctx context.Context, userA, userB string) ([]*dblocal.Message, error) {
	return r.store.Conversation(ctx, userA, userB)
}

// GetConversationsForUser folds the user's messages into one summary per
// counterpart, most recent activity first.
func (r *chatRepo) GetConversationsForUser(ctx context.Context, userID string) ([]ConversationSummary, error) {
	messages, err := r.store.MessagesForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	byCounterpart := make(map[string]*ConversationSummary)
	for _, msg := range messages {
		counterpartID := msg.RecipientID
		counterpartName := msg.RecipientName
		if msg.SenderID != userID {
			counterpartID = msg.SenderID
			counterpartName = msg.SenderName
		}

		summary, ok := byCounterpart[counterpartID]
		if !ok {
			summary = &ConversationSummary{
				CounterpartID:   counterpartID,
				CounterpartName: counterpartName,
			}
			byCounterpart[counterpartID] = summary
		}

		// Messages arrive ordered ascending, so the last one seen wins.
		if !msg.CreatedAt.Before(summary.LastActivity) {
			summary.LastMessage = msg
			summary.LastActivity = msg.CreatedAt
		}
		if msg.RecipientID == userID && !msg.Read() {
			summary.UnreadCount++
		}
	}

	summaries := make([]ConversationSummary, 0, len(byCounterpart))
	for _, summary := range byCounterpart {
		summaries = append(summaries, *summary)
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].LastActivity.After(summaries[j].LastActivity)
	})
	return summaries, nil
}

func (r *chatRepo) GetUnreadCount(ctx context.Context, userID, counterpartID string) (int64, error) {
	return r.store.CountUnread(ctx, userID, counterpartID)
}

// MarkAsRead stamps every unread message from counterpartID to selfID.
// Safe to call repeatedly; already-read messages are untouched.
func (r *chatRepo) MarkAsRead(ctx context.Context, counterpartID, selfID string) error {
	return r.store.MarkRead(ctx, counterpartID, selfID, time.Now().UTC())
}
