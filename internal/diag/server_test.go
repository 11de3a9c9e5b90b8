package diag

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatsync/internal/chat/repository"
	"chatsync/internal/config"
	"chatsync/internal/dblocal"
)

func newTestServer(summaries SummarySource) (*Server, *Recorder) {
	rec := NewRecorder()
	cfg := &config.Config{
		Diagnostics: config.DiagnosticsConfig{Enabled: true, Port: "0"},
	}
	if summaries == nil {
		summaries = func(ctx context.Context) ([]repository.ConversationSummary, error) {
			return nil, nil
		}
	}
	return NewServer(cfg, rec, summaries), rec
}

func TestServer_Health(t *testing.T) {
	srv, _ := newTestServer(nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestServer_Errors(t *testing.T) {
	srv, rec := newTestServer(nil)
	rec.Record("store", errors.New("migration failed"))
	rec.Record("controller", errors.New("send failed"))

	req := httptest.NewRequest(http.MethodGet, "/debug/errors", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Errors []Entry `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Errors, 2)
	assert.Equal(t, "store", body.Errors[0].Component)
	assert.Equal(t, "migration failed", body.Errors[0].Message)
}

func TestServer_Conversations(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	srv, _ := newTestServer(func(ctx context.Context) ([]repository.ConversationSummary, error) {
		return []repository.ConversationSummary{
			{
				CounterpartID:   "bob",
				CounterpartName: "Bob",
				LastActivity:    now,
				UnreadCount:     2,
				LastMessage:     &dblocal.Message{ID: "m1", Body: "hi", CreatedAt: now},
			},
		}, nil
	})

	req := httptest.NewRequest(http.MethodGet, "/debug/conversations", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Conversations []repository.ConversationSummary `json:"conversations"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Conversations, 1)
	assert.Equal(t, "bob", body.Conversations[0].CounterpartID)
	assert.Equal(t, int64(2), body.Conversations[0].UnreadCount)
}

func TestServer_ConversationsDegraded(t *testing.T) {
	srv, _ := newTestServer(func(ctx context.Context) ([]repository.ConversationSummary, error) {
		return nil, dblocal.ErrNotReady
	})

	req := httptest.NewRequest(http.MethodGet, "/debug/conversations", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRecorder_BoundedRing(t *testing.T) {
	rec := NewRecorder()
	for i := 0; i < maxEntries+25; i++ {
		rec.Record("store", errors.New("failure"))
	}
	assert.Len(t, rec.Recent(), maxEntries)
}

func TestRecorder_IgnoresNil(t *testing.T) {
	rec := NewRecorder()
	rec.Record("store", nil)
	assert.Empty(t, rec.Recent())
}
