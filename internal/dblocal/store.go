package dblocal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotReady is returned by every store operation until Init has completed
// successfully. Callers are expected to degrade (empty view, no crash)
// rather than surface it to the user.
var ErrNotReady = errors.New("message store is not initialized")

// Store owns the persisted messages for the current device/session. Schema
// setup is an explicit one-time step: call Init once at session start, then
// every operation either works or fails closed with ErrNotReady. Other
// packages reach the rows only through the repository layer.
type Store struct {
	db *gorm.DB

	initOnce sync.Once
	initErr  error

	mu    sync.RWMutex
	ready bool
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db, initErr: ErrNotReady}
}

// Init migrates the message schema. Idempotent: only the first call does
// work, later calls return the first call's outcome.
func (s *Store) Init(ctx context.Context) error {
	s.initOnce.Do(func() {
		if err := s.db.WithContext(ctx).AutoMigrate(&Message{}); err != nil {
			s.initErr = fmt.Errorf("message schema migration failed: %w", err)
			return
		}
		s.initErr = nil
		s.mu.Lock()
		s.ready = true
		s.mu.Unlock()
	})
	return s.initErr
}

// Ready reports whether Init has completed successfully.
func (s *Store) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

func (s *Store) ensure() error {
	if !s.Ready() {
		return ErrNotReady
	}
	return nil
}

// Upsert persists a message, keyed by its id. Inserting the same id twice
// leaves exactly one row; the duplicate write is a no-op, which makes the
// store safe against optimistic-insert-plus-echo and transport redelivery.
func (s *Store) Upsert(ctx context.Context, msg *Message) error {
	if err := s.ensure(); err != nil {
		return err
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).
		Create(msg).Error
}

// Conversation returns every message exchanged between the two users, in
// either direction, ordered by creation time ascending.
func (s *Store) Conversation(ctx context.Context, userA, userB string) ([]*Message, error) {
	if err := s.ensure(); err != nil {
		return nil, err
	}
	var messages []*Message
	err := s.db.WithContext(ctx).
		Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)",
			userA, userB, userB, userA).
		Order("created_at ASC").
		Find(&messages).Error
	return messages, err
}

// MessagesForUser returns every message the user sent or received, ordered
// by creation time ascending.
func (s *Store) MessagesForUser(ctx context.Context, userID string) ([]*Message, error) {
	if err := s.ensure(); err != nil {
		return nil, err
	}
	var messages []*Message
	err := s.db.WithContext(ctx).
		Where("sender_id = ? OR recipient_id = ?", userID, userID).
		Order("created_at ASC").
		Find(&messages).Error
	return messages, err
}

// CountUnread counts messages addressed to userID that have no read
// timestamp. An empty counterpartID aggregates across all counterparts.
func (s *Store) CountUnread(ctx context.Context, userID, counterpartID string) (int64, error) {
	if err := s.ensure(); err != nil {
		return 0, err
	}
	q := s.db.WithContext(ctx).Model(&Message{}).
		Where("recipient_id = ? AND read_at IS NULL", userID)
	if counterpartID != "" {
		q = q.Where("sender_id = ?", counterpartID)
	}
	var count int64
	err := q.Count(&count).Error
	return count, err
}

// MarkRead stamps every unread message from counterpartID to selfID with
// the given time. Messages already read keep their original timestamp, so
// repeated calls are no-ops.
func (s *Store) MarkRead(ctx context.Context, counterpartID, selfID string, at time.Time) error {
	if err := s.ensure(); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(&Message{}).
		Where("sender_id = ? AND recipient_id = ? AND read_at IS NULL", counterpartID, selfID).
		Update("read_at", at).Error
}
