package stub

import (
	"context"
	"errors"
	"sync"

	"token-metadata-cli/internal/solana"
)

// ErrClosed is returned when subscribing on a closed stub.
var ErrClosed = errors.New("client closed")

// WSClient implements solana.WSClient for testing.
type WSClient struct {
	mu sync.Mutex

	// SubscribeErr fails every subscription when set.
	SubscribeErr error
	// Notification is delivered right after subscribing when set.
	Notification *solana.SignatureNotification
	// DropSubscription closes the channel without a notification.
	DropSubscription bool

	// Subscribed records subscribed signatures.
	Subscribed []string
	closed     bool
}

// NewWSClient creates a new stub websocket client.
func NewWSClient() *WSClient {
	return &WSClient{}
}

// SubscribeSignature returns a channel driven by the stub's fields.
func (c *WSClient) SubscribeSignature(_ context.Context, signature string, _ solana.Commitment) (<-chan solana.SignatureNotification, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClosed
	}
	if c.SubscribeErr != nil {
		return nil, c.SubscribeErr
	}
	c.Subscribed = append(c.Subscribed, signature)

	ch := make(chan solana.SignatureNotification, 1)
	switch {
	case c.Notification != nil:
		ch <- *c.Notification
		close(ch)
	case c.DropSubscription:
		close(ch)
	}
	return ch, nil
}

// Close marks the stub closed.
func (c *WSClient) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}
