package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/google/uuid"

	"chatsync/internal/api"
	"chatsync/internal/chat"
	"chatsync/internal/chat/repository"
	"chatsync/internal/common"
	"chatsync/internal/dblocal"
	"chatsync/internal/diag"
	"chatsync/internal/transport"
)

// ViewState tracks the open-conversation lifecycle.
type ViewState int

const (
	StateClosed ViewState = iota
	StateLoading
	StateLoaded
)

func (s ViewState) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	default:
		return "closed"
	}
}

var (
	ErrEmptyMessage = errors.New("message text cannot be empty")
	ErrNoRecipient  = errors.New("recipient is required")
)

// Acker acknowledges delivery of an inbound message back to the server.
// Satisfied by the transport client.
type Acker interface {
	Ack(messageID string) error
}

// ChatService is the synchronization controller: it keeps the local store,
// the REST send path and the realtime feed consistent, and tells UI
// observers when their piece of state went stale.
type ChatService interface {
	common.Subject

	// Send delivers a message through the REST boundary and persists the
	// authoritative record the server returns. On failure the text is
	// retained as a draft so the caller can restore the input.
	Send(ctx context.Context, recipientID, text string) (*dblocal.Message, error)
	Draft(recipientID string) string

	// OpenConversation selects a counterpart, loads the history and marks
	// their messages read. CloseConversation deselects.
	OpenConversation(ctx context.Context, counterpartID string) ([]*dblocal.Message, error)
	CloseConversation()
	State() ViewState
	ActiveConversation() (string, []*dblocal.Message)

	Summaries(ctx context.Context) []repository.ConversationSummary
	UnreadCount(ctx context.Context, counterpartID string) int64

	// HandleEvent is the transport subscriber for chat:message events.
	HandleEvent(ev transport.Event)
}

type chatService struct {
	*common.ObserverHub

	session  *common.Session
	repo     repository.ChatRepository
	sender   api.Sender
	acker    Acker
	recorder *diag.Recorder

	mu                sync.Mutex
	state             ViewState
	activeCounterpart string
	view              []*dblocal.Message
	drafts            map[string]string
}

// NewChatService wires the controller. acker may be nil when the transport
// does not carry delivery acknowledgements.
func NewChatService(
	session *common.Session,
	repo repository.ChatRepository,
	sender api.Sender,
	acker Acker,
	recorder *diag.Recorder,
) ChatService {
	return &chatService{
		ObserverHub: common.NewObserverHub(),
		session:     session,
		repo:        repo,
		sender:      sender,
		acker:       acker,
		recorder:    recorder,
		drafts:      make(map[string]string),
	}
}

func (s *chatService) Send(ctx context.Context, recipientID, text string) (*dblocal.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	if recipientID == "" {
		return nil, ErrNoRecipient
	}

	// Clear the draft before the round-trip completes; it only comes back
	// if the send fails.
	s.mu.Lock()
	delete(s.drafts, recipientID)
	s.mu.Unlock()

	record, err := s.sender.SendMessage(ctx, recipientID, text, uuid.NewString())
	if err != nil {
		s.mu.Lock()
		s.drafts[recipientID] = text
		s.mu.Unlock()
		s.recorder.Record("send", err)
		return nil, fmt.Errorf("send to %s failed: %w", recipientID, err)
	}

	row := record.ToRecord()
	if err := s.repo.Save(ctx, row); err != nil {
		// The server accepted the message; a store hiccup must not make
		// the send look failed. The echo broadcast gives a second chance
		// to persist.
		s.recorder.Record("store", err)
	}

	s.appendToView(recipientID, row)
	s.Notify(common.ChatEvent{
		Type:          s.eventTypeFor(recipientID),
		CounterpartID: recipientID,
		MessageID:     row.ID,
	})
	return row, nil
}

// Draft returns the unsent text retained for a recipient after a failed
// send, empty otherwise.
func (s *chatService) Draft(recipientID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drafts[recipientID]
}

// HandleEvent processes one inbound transport event. The realtime channel
// is shared across event types, so anything that does not look like a chat
// message addressed to or sent by the session user is dropped without
// error; genuine failures are recorded and swallowed so they never reach
// the transport's read loop.
func (s *chatService) HandleEvent(ev transport.Event) {
	if ev.Name != transport.EventChatMessage {
		return
	}

	var msg chat.ChatMessage
	if err := json.Unmarshal(ev.Data, &msg); err != nil {
		return
	}
	if !msg.Valid() {
		return
	}
	if !msg.Involves(s.session.UserID) {
		return
	}

	ctx := context.Background()
	if err := s.repo.Save(ctx, msg.ToRecord()); err != nil {
		s.recorder.Record("store", err)
		return
	}

	if s.acker != nil && msg.RecipientID == s.session.UserID {
		if err := s.acker.Ack(msg.ID); err != nil {
			log.Printf("delivery ack for %s failed: %v", msg.ID, err)
		}
	}

	counterpart := msg.CounterpartOf(s.session.UserID)

	s.mu.Lock()
	active := s.state == StateLoaded && s.activeCounterpart == counterpart
	s.mu.Unlock()

	if active {
		// Reload from the store so ordering and dedup come from one place.
		if view, err := s.repo.GetConversation(ctx, s.session.UserID, counterpart); err != nil {
			s.recorder.Record("store", err)
		} else {
			s.mu.Lock()
			if s.activeCounterpart == counterpart {
				s.view = view
			}
			s.mu.Unlock()
		}
		s.Notify(common.ChatEvent{
			Type:          common.EventConversationUpdated,
			CounterpartID: counterpart,
			MessageID:     msg.ID,
		})
		return
	}

	// Not the open conversation: badges refresh, the open view is left alone.
	s.Notify(common.ChatEvent{
		Type:          common.EventSummariesChanged,
		CounterpartID: counterpart,
		MessageID:     msg.ID,
	})
}

func (s *chatService) OpenConversation(ctx context.Context, counterpartID string) ([]*dblocal.Message, error) {
	if counterpartID == "" {
		return nil, ErrNoRecipient
	}

	s.mu.Lock()
	s.state = StateLoading
	s.activeCounterpart = counterpartID
	s.view = nil
	s.mu.Unlock()

	view, err := s.repo.GetConversation(ctx, s.session.UserID, counterpartID)
	if err != nil {
		// Degrade to an empty conversation rather than surfacing store
		// trouble into the view.
		s.recorder.Record("store", err)
		view = nil
	}

	// Entering Loaded marks the counterpart's messages read. Re-opening
	// repeats the call, which is idempotent.
	if err := s.repo.MarkAsRead(ctx, counterpartID, s.session.UserID); err != nil {
		s.recorder.Record("store", err)
	}

	s.mu.Lock()
	if s.activeCounterpart != counterpartID {
		// The user switched conversations while this one was loading.
		s.mu.Unlock()
		return view, nil
	}
	s.state = StateLoaded
	s.view = view
	s.mu.Unlock()

	s.Notify(common.ChatEvent{
		Type:          common.EventSummariesChanged,
		CounterpartID: counterpartID,
	})
	return view, nil
}

func (s *chatService) CloseConversation() {
	s.mu.Lock()
	s.state = StateClosed
	s.activeCounterpart = ""
	s.view = nil
	s.mu.Unlock()
}

func (s *chatService) State() ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *chatService) ActiveConversation() (string, []*dblocal.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	view := make([]*dblocal.Message, len(s.view))
	copy(view, s.view)
	return s.activeCounterpart, view
}

// Summaries returns the conversation list, empty when the store is not
// usable (the failure is recorded, not raised).
func (s *chatService) Summaries(ctx context.Context) []repository.ConversationSummary {
	summaries, err := s.repo.GetConversationsForUser(ctx, s.session.UserID)
	if err != nil {
		s.recorder.Record("store", err)
		return nil
	}
	return summaries
}

// UnreadCount returns the unread total for one counterpart, or for all of
// them when counterpartID is empty. Zero on store failure.
func (s *chatService) UnreadCount(ctx context.Context, counterpartID string) int64 {
	count, err := s.repo.GetUnreadCount(ctx, s.session.UserID, counterpartID)
	if err != nil {
		s.recorder.Record("store", err)
		return 0
	}
	return count
}

func (s *chatService) appendToView(counterpartID string, row *dblocal.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateLoaded || s.activeCounterpart != counterpartID {
		return
	}
	for _, existing := range s.view {
		if existing.ID == row.ID {
			return
		}
	}
	s.view = append(s.view, row)
}

func (s *chatService) eventTypeFor(counterpartID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateLoaded && s.activeCounterpart == counterpartID {
		return common.EventConversationUpdated
	}
	return common.EventSummariesChanged
}
