// Package api is the REST boundary the send path goes through. Receiving
// happens over the realtime transport; only outbound sends use HTTP.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"chatsync/internal/chat"
	"chatsync/internal/common"
	"chatsync/internal/config"
)

// Sender sends one message and returns the authoritative record the server
// assigned (id, timestamps). Implemented by Client; mocked in service tests.
type Sender interface {
	SendMessage(ctx context.Context, recipientID, text, clientID string) (*chat.ChatMessage, error)
}

// SendRequest is the POST /tenants/chat/send body. ClientID is generated by
// the caller so a resubmitted send can be deduplicated server-side.
type SendRequest struct {
	RecipientID string `json:"recipientId"`
	Message     string `json:"message"`
	ClientID    string `json:"clientId,omitempty"`
}

type sendResponse struct {
	Message chat.ChatMessage `json:"message"`
}

type Client struct {
	baseURL string
	session *common.Session
	http    *http.Client
}

func NewClient(cfg *config.Config, session *common.Session) *Client {
	return &Client{
		baseURL: cfg.Server.APIBaseURL,
		session: session,
		http: &http.Client{
			Timeout: time.Duration(cfg.Server.RequestTimeout) * time.Second,
		},
	}
}

func (c *Client) SendMessage(ctx context.Context, recipientID, text, clientID string) (*chat.ChatMessage, error) {
	body, err := json.Marshal(SendRequest{
		RecipientID: recipientID,
		Message:     text,
		ClientID:    clientID,
	})
	if err != nil {
		return nil, fmt.Errorf("encode send request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/tenants/chat/send", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.session.Token)
	req.Header.Set("X-Tenant-ID", c.session.TenantID)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("send message: server returned %d: %s", resp.StatusCode, snippet)
	}

	var decoded sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode send response: %w", err)
	}
	if !decoded.Message.Valid() {
		return nil, fmt.Errorf("send response is missing the message record")
	}
	return &decoded.Message, nil
}
