package link

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"earshot/transcript"
)

const (
	writeWait = 10 * time.Second
	pingWait  = 2 * time.Second
)

// historyMessage is the JSON frame the companion app expects.
type historyMessage struct {
	Type    string              `json:"type"`
	Device  string              `json:"device"`
	Sent    time.Time           `json:"sent"`
	Records []transcript.Record `json:"records"`
}

// Companion mirrors history to the paired phone app over a websocket. The
// phone exposes the socket on the tethered or bluetooth PAN interface.
type Companion struct {
	url    string
	device string
	header http.Header
	dialer *websocket.Dialer

	mu   sync.Mutex
	conn *websocket.Conn
}

func NewCompanion(url, device, token string) *Companion {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return &Companion{
		url:    url,
		device: device,
		header: h,
		dialer: &websocket.Dialer{HandshakeTimeout: 5 * time.Second},
	}
}

// IsConnected dials if needed and checks the peer answers a ping write.
func (c *Companion) IsConnected(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		conn, _, err := c.dialer.DialContext(ctx, c.url, c.header)
		if err != nil {
			return false
		}
		c.conn = conn
		go c.drain(conn)
	}
	err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(pingWait))
	if err != nil {
		c.dropLocked()
		return false
	}
	return true
}

// drain reads until the connection dies so control frames are processed.
func (c *Companion) drain(conn *websocket.Conn) {
	for {
		if _, _, err := conn.NextReader(); err != nil {
			c.mu.Lock()
			if c.conn == conn {
				c.dropLocked()
			}
			c.mu.Unlock()
			return
		}
	}
}

func (c *Companion) dropLocked() {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

func (c *Companion) Sync(ctx context.Context, history []transcript.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return ErrNotConnected
	}

	deadline := time.Now().Add(writeWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	c.conn.SetWriteDeadline(deadline)

	msg := historyMessage{Type: "history", Device: c.device, Sent: time.Now().UTC(), Records: history}
	if err := c.conn.WriteJSON(msg); err != nil {
		c.dropLocked()
		return fmt.Errorf("companion sync: %w", err)
	}
	return nil
}

func (c *Companion) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "shutdown"),
		time.Now().Add(time.Second))
	c.dropLocked()
	return nil
}
