// ABOUTME: Represents a single connected agent and owns writes to its socket.
// ABOUTME: Tracks presence status, status generation, and last activity.

package agent

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/voxmesh/voxmesh-gateway/internal/protocol"
)

// Socket is the duplex transport a Connection writes to and reads from.
// *websocket.Conn satisfies it; tests substitute an in-memory fake.
type Socket interface {
	ReadMessage() (messageType int, data []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Connection represents a connected agent. All frame writes go through
// Send, serialized by the connection's own write mutex so a slow peer
// never blocks registry operations for others.
type Connection struct {
	ID string

	sock   Socket
	logger *slog.Logger

	writeMu sync.Mutex

	stateMu      sync.Mutex
	status       Status
	statusGen    uint64
	lastActivity time.Time
}

// NewConnection creates a Connection for a freshly accepted socket.
// A fresh connection always starts at StatusOnline.
func NewConnection(id string, sock Socket, logger *slog.Logger) *Connection {
	return &Connection{
		ID:           id,
		sock:         sock,
		logger:       logger,
		status:       StatusOnline,
		lastActivity: time.Now(),
	}
}

// Send encodes the frame and performs a single write attempt.
func (c *Connection) Send(f *protocol.Frame) error {
	data, err := f.Encode()
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.sock.WriteMessage(websocket.TextMessage, data)
}

// Read blocks until the next frame's raw bytes arrive. Non-text
// messages are skipped; a read error means the connection is closed.
func (c *Connection) Read() ([]byte, error) {
	for {
		msgType, data, err := c.sock.ReadMessage()
		if err != nil {
			return nil, err
		}
		if msgType != websocket.TextMessage {
			c.logger.Warn("ignoring non-text message", "agent_id", c.ID, "message_type", msgType)
			continue
		}
		return data, nil
	}
}

// Close tears down the underlying socket.
func (c *Connection) Close() error {
	return c.sock.Close()
}

// Status returns the connection's current presence status.
func (c *Connection) Status() Status {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.status
}

// setStatus stores a new status and returns the bumped generation.
// Every mutation bumps the generation, including same-value sets, so a
// pending cooldown revert is cancelled by any intervening change.
func (c *Connection) setStatus(s Status) uint64 {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	c.status = s
	c.statusGen++
	return c.statusGen
}

// casStatus stores the status only if the generation still matches gen.
// Used by the speaking-cooldown revert so it never stomps a newer
// status.
func (c *Connection) casStatus(gen uint64, s Status) bool {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	if c.statusGen != gen {
		return false
	}
	c.status = s
	c.statusGen++
	return true
}

// Touch records frame activity on the connection.
func (c *Connection) Touch() {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	c.lastActivity = time.Now()
}

// LastActivity returns the time of the most recent inbound frame.
func (c *Connection) LastActivity() time.Time {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.lastActivity
}
