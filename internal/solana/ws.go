package solana

import (
	"context"
	"net"
	"net/url"
	"strconv"
)

// WSClient defines Solana WebSocket subscription interface.
type WSClient interface {
	// SubscribeSignature subscribes to the status of a single transaction.
	// The node sends at most one notification and then drops the subscription.
	SubscribeSignature(ctx context.Context, signature string, commitment Commitment) (<-chan SignatureNotification, error)

	// Close closes the WebSocket connection.
	Close() error
}

// SignatureNotification represents a signatureSubscribe message.
type SignatureNotification struct {
	Slot uint64
	Err  interface{}
}

// WSEndpointFromHTTP derives the PubSub endpoint for an RPC URL the way the
// Solana CLI does: http becomes ws, https becomes wss, and an explicit port is
// bumped by one (8899 -> 8900).
func WSEndpointFromHTTP(rpcURL string) (string, error) {
	u, err := url.Parse(rpcURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	if port := u.Port(); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return "", err
		}
		u.Host = net.JoinHostPort(u.Hostname(), strconv.Itoa(p+1))
	}
	return u.String(), nil
}
