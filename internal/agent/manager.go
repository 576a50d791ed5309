// ABOUTME: Connection registry mapping agent identity to its live connection.
// ABOUTME: Single source of truth for who is reachable; owns lazy teardown on send failure.

package agent

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/voxmesh/voxmesh-gateway/internal/metrics"
	"github.com/voxmesh/voxmesh-gateway/internal/protocol"
)

// ErrAlreadyActive indicates an agent with the same identity already
// holds a live connection. The original connection is left intact; the
// new one is rejected at handshake.
var ErrAlreadyActive = errors.New("agent identity already active")

// ErrNotConnected indicates the send target is not registered.
var ErrNotConnected = errors.New("agent not connected")

// ErrSendFailed indicates a write to a live but broken connection. The
// connection has already been unregistered by the time this is returned.
var ErrSendFailed = errors.New("send to agent failed")

// Manager is the connection registry. Its mutex guards only the map;
// outbound writes happen on each Connection's own write mutex.
type Manager struct {
	mu     sync.RWMutex
	agents map[string]*Connection
	logger *slog.Logger
}

// AgentStatus is one row of a registry snapshot.
type AgentStatus struct {
	ID           string
	Status       Status
	LastActivity time.Time
}

// NewManager creates an empty registry.
func NewManager(logger *slog.Logger) *Manager {
	return &Manager{
		agents: make(map[string]*Connection),
		logger: logger,
	}
}

// Register adds a new agent connection. Returns ErrAlreadyActive if the
// identity already has a live connection.
func (m *Manager) Register(conn *Connection) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.agents[conn.ID]; exists {
		return ErrAlreadyActive
	}

	m.agents[conn.ID] = conn
	metrics.ConnectionsActive.Inc()
	metrics.ConnectionsTotal.Inc()
	m.logger.Info("agent connected", "agent_id", conn.ID, "total_agents", len(m.agents))
	return nil
}

// Unregister removes an agent. Idempotent: safe to call from both the
// read-loop exit path and a failed-send path.
func (m *Manager) Unregister(agentID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.agents[agentID]; exists {
		delete(m.agents, agentID)
		metrics.ConnectionsActive.Dec()
		m.logger.Info("agent disconnected", "agent_id", agentID, "total_agents", len(m.agents))
	}
}

// Get retrieves a connection by identity.
func (m *Manager) Get(agentID string) (*Connection, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	conn, ok := m.agents[agentID]
	return conn, ok
}

// IsOnline reports whether the identity currently holds a connection.
func (m *Manager) IsOnline(agentID string) bool {
	_, ok := m.Get(agentID)
	return ok
}

// Send looks up the live connection and attempts a single write. A
// write failure unregisters the agent before ErrSendFailed is returned,
// so a broken connection is torn down exactly once and lazily.
func (m *Manager) Send(agentID string, f *protocol.Frame) error {
	conn, ok := m.Get(agentID)
	if !ok {
		return ErrNotConnected
	}

	if err := conn.Send(f); err != nil {
		m.Unregister(agentID)
		metrics.SendFailures.Inc()
		m.logger.Error("send failed, connection torn down",
			"agent_id", agentID,
			"frame_type", f.Type,
			"error", err,
		)
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	return nil
}

// Snapshot returns a consistent point-in-time view of all registered
// agents and their statuses.
func (m *Manager) Snapshot() []AgentStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]AgentStatus, 0, len(m.agents))
	for _, conn := range m.agents {
		out = append(out, AgentStatus{
			ID:           conn.ID,
			Status:       conn.Status(),
			LastActivity: conn.LastActivity(),
		})
	}
	return out
}

// peers returns every registered connection except the excluded one.
// Callers send outside the registry lock.
func (m *Manager) peers(exclude string) []*Connection {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Connection, 0, len(m.agents))
	for id, conn := range m.agents {
		if id == exclude {
			continue
		}
		out = append(out, conn)
	}
	return out
}
