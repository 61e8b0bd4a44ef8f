// Package codeclient delivers compiled templates to the runtime over the
// same WebSocket protocol as the original CLI's codeclient_connect /
// codeclient_send_templates (original_source/esh/src/bin/esh.rs): connect,
// send a scopes handshake, expect an "auth" reply, then "place", one "place
// <template>" per template with an inter-message delay, then "place go" to
// commit.
package codeclient

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
)

// DefaultAddr is the runtime's fixed local WebSocket endpoint.
const DefaultAddr = "ws://localhost:31375"

const handshake = "scopes default inventory movement read_plot write_code"

// InterMessageDelay mirrors esh.rs's 100ms pacing between placements so the
// runtime has time to process each one before the next arrives.
const InterMessageDelay = 100 * time.Millisecond

// Client wraps an authenticated connection to the runtime.
type Client struct {
	conn *websocket.Conn
}

// Connect dials addr, sends the scopes handshake, and waits for the "auth"
// reply.
func Connect(ctx context.Context, addr string) (*Client, error) {
	dialer := websocket.Dialer{}
	conn, _, err := dialer.DialContext(ctx, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("codeclient: dial %s: %w", addr, err)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte(handshake)); err != nil {
		conn.Close()
		return nil, fmt.Errorf("codeclient: send handshake: %w", err)
	}

	kind, msg, err := conn.ReadMessage()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("codeclient: read auth reply: %w", err)
	}
	if kind != websocket.TextMessage || string(msg) != "auth" {
		conn.Close()
		return nil, fmt.Errorf("codeclient: expected \"auth\" reply, got %q", msg)
	}

	return &Client{conn: conn}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// SendTemplates runs the place/place-each/place-go sequence, pacing each
// message by InterMessageDelay.
func (c *Client) SendTemplates(templates []string) error {
	if err := c.send("place"); err != nil {
		return err
	}
	time.Sleep(InterMessageDelay)

	for _, tpl := range templates {
		if err := c.send(fmt.Sprintf("place %s", tpl)); err != nil {
			return err
		}
		time.Sleep(InterMessageDelay)
	}

	if err := c.send("place go"); err != nil {
		return err
	}
	time.Sleep(InterMessageDelay)
	return nil
}

func (c *Client) send(text string) error {
	if err := c.conn.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
		return fmt.Errorf("codeclient: send %q: %w", text, err)
	}
	return nil
}

// Deliver is the convenience entry point used by cmd/eshc's -c flag: connect
// to addr (DefaultAddr if empty) and place templates.
func Deliver(ctx context.Context, addr string, templates []string) error {
	if addr == "" {
		addr = DefaultAddr
	}
	client, err := Connect(ctx, addr)
	if err != nil {
		return err
	}
	defer client.Close()
	return client.SendTemplates(templates)
}
