// Package transport maintains the single realtime connection an
// authenticated session holds to the backend. Inbound push events
// (chat messages, presence, notifications) are fanned out to named
// subscribers; the only outbound traffic is delivery acknowledgements.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"

	"chatsync/internal/config"
)

// Event names pushed by the backend.
const (
	EventChatMessage = "chat:message"
	EventPresence    = "presence"
)

// Event is the wire envelope. Data is left raw; each subscriber decodes
// the shape it cares about and ignores the rest.
type Event struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data"`
}

// Handler receives events for one event name, in subscription order.
type Handler func(Event)

// Subscription identifies one registered handler so it can be removed.
type Subscription int

var (
	ErrClosed       = errors.New("transport client is closed")
	ErrNotConnected = errors.New("transport is not connected")
)

// Client is shared process-wide: one logical connection per session,
// injected into every consumer rather than opened per view. It survives
// individual view lifecycles and is only closed at session shutdown.
//
// Delivery is at-least-once and unordered across reconnects. Subscribers
// must tolerate redelivery; the message store's upsert makes that cheap.
type Client struct {
	wsURL     string
	reconnect config.ReconnectConfig
	dialer    *websocket.Dialer

	mu       sync.Mutex
	conn     *websocket.Conn
	token    string
	tenantID string
	closed   bool

	// gorilla permits one concurrent writer per connection
	writeMu sync.Mutex

	hmu      sync.RWMutex
	handlers map[string][]subscriber
	nextSub  Subscription
}

type subscriber struct {
	id Subscription
	fn Handler
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		wsURL:     cfg.Server.WebsocketURL,
		reconnect: cfg.Reconnect,
		dialer:    websocket.DefaultDialer,
		handlers:  make(map[string][]subscriber),
	}
}

// Connect establishes the realtime connection. Connecting again with the
// same credentials while connected is a no-op; different credentials drop
// the old connection and dial with the new ones.
func (c *Client) Connect(ctx context.Context, token, tenantID string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.conn != nil && c.token == token && c.tenantID == tenantID {
		c.mu.Unlock()
		return nil
	}
	old := c.conn
	c.conn = nil
	c.token = token
	c.tenantID = tenantID
	c.mu.Unlock()

	if old != nil {
		old.Close()
	}

	conn, err := c.dial(ctx)
	if err != nil {
		return fmt.Errorf("transport connect: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	go c.readLoop(conn)
	return nil
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	c.mu.Lock()
	token, tenantID := c.token, c.tenantID
	c.mu.Unlock()

	u, err := url.Parse(c.wsURL)
	if err != nil {
		return nil, fmt.Errorf("bad websocket url %q: %w", c.wsURL, err)
	}
	q := u.Query()
	q.Set("token", token)
	q.Set("tenantId", tenantID)
	u.RawQuery = q.Encode()

	conn, _, err := c.dialer.DialContext(ctx, u.String(), nil)
	return conn, err
}

// On registers a handler for an event name. Handlers for the same name are
// invoked in the order they subscribed.
func (c *Client) On(event string, h Handler) Subscription {
	c.hmu.Lock()
	defer c.hmu.Unlock()
	c.nextSub++
	c.handlers[event] = append(c.handlers[event], subscriber{id: c.nextSub, fn: h})
	return c.nextSub
}

// Off removes a previously registered handler.
func (c *Client) Off(event string, sub Subscription) {
	c.hmu.Lock()
	defer c.hmu.Unlock()
	subs := c.handlers[event]
	for i, s := range subs {
		if s.id == sub {
			c.handlers[event] = append(subs[:i], subs[i+1:]...)
			return
		}
	}
}

// Ack tells the backend a message reached this device.
func (c *Client) Ack(messageID string) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.WriteJSON(map[string]any{
		"event": "chat:ack",
		"data":  map[string]string{"messageId": messageID},
	})
}

// Connected reports whether a live connection is currently held.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// Close tears the connection down for good. Only the session owner calls
// this; views never do.
func (c *Client) Close() error {
	c.mu.Lock()
	c.closed = true
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn != nil {
		return conn.Close()
	}
	return nil
}

func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			conn.Close()

			c.mu.Lock()
			stale := c.conn != conn
			closed := c.closed
			if !stale {
				c.conn = nil
			}
			c.mu.Unlock()

			if closed || stale {
				return
			}
			log.Printf("transport: connection lost: %v", err)
			c.reconnectLoop()
			return
		}

		var ev Event
		if err := json.Unmarshal(payload, &ev); err != nil || ev.Name == "" {
			// not an event envelope; skip the frame
			continue
		}
		c.dispatch(ev)
	}
}

func (c *Client) dispatch(ev Event) {
	c.hmu.RLock()
	subs := make([]subscriber, len(c.handlers[ev.Name]))
	copy(subs, c.handlers[ev.Name])
	c.hmu.RUnlock()

	for _, s := range subs {
		s.fn(ev)
	}
}

// reconnectLoop redials with the last known credentials under the
// configured exponential backoff. Subscriptions and the local store are
// untouched; inbound events simply resume once a dial succeeds. The server
// may replay events the client already processed before the disconnect.
func (c *Client) reconnectLoop() {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = time.Duration(c.reconnect.InitialIntervalMS) * time.Millisecond
	policy.MaxInterval = time.Duration(c.reconnect.MaxIntervalMS) * time.Millisecond
	policy.MaxElapsedTime = time.Duration(c.reconnect.MaxElapsedSec) * time.Second

	attempt := func() error {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return backoff.Permanent(ErrClosed)
		}
		c.mu.Unlock()

		conn, err := c.dial(context.Background())
		if err != nil {
			return err
		}

		c.mu.Lock()
		c.conn = conn
		c.mu.Unlock()

		go c.readLoop(conn)
		return nil
	}

	if err := backoff.Retry(attempt, policy); err != nil {
		log.Printf("transport: reconnect abandoned: %v", err)
	}
}
