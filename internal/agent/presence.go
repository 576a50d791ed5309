// ABOUTME: Presence status values and the coordinator that broadcasts changes.
// ABOUTME: Every status mutation goes through here so every change is observable.

package agent

import (
	"log/slog"
	"time"

	"github.com/voxmesh/voxmesh-gateway/internal/protocol"
)

// Status is an agent's broadcast-visible presence state. Offline is
// implicit: an unregistered agent has no stored status.
type Status string

const (
	StatusOnline    Status = "online"
	StatusRecording Status = "recording"
	StatusThinking  Status = "thinking"
	StatusSpeaking  Status = "speaking"

	// StatusOffline appears only in broadcasts announcing a disconnect;
	// it is never stored in the registry.
	StatusOffline Status = "offline"
)

// ValidStatus reports whether s is a status an agent may declare for
// itself. Offline is system-announced only.
func ValidStatus(s Status) bool {
	switch s {
	case StatusOnline, StatusRecording, StatusThinking, StatusSpeaking:
		return true
	}
	return false
}

// Presence coordinates status transitions and fans presence-change
// events out to peers.
type Presence struct {
	manager *Manager
	logger  *slog.Logger
}

// NewPresence creates a coordinator over the given registry.
func NewPresence(manager *Manager, logger *slog.Logger) *Presence {
	return &Presence{manager: manager, logger: logger}
}

// SetStatus updates the stored status for a registered agent and
// broadcasts the change to every other registered agent. Setting the
// same status again still broadcasts, keeping the contract total. The
// returned generation identifies this mutation for guarded reverts.
func (p *Presence) SetStatus(agentID string, status Status) (uint64, error) {
	conn, ok := p.manager.Get(agentID)
	if !ok {
		return 0, ErrNotConnected
	}

	gen := conn.setStatus(status)
	p.broadcast(agentID, status)
	return gen, nil
}

// RevertIfUnchanged sets the status only if no other mutation landed
// since gen. Used by the speaking-cooldown task; a newer status change
// or a disconnect abandons the revert.
func (p *Presence) RevertIfUnchanged(agentID string, gen uint64, status Status) {
	conn, ok := p.manager.Get(agentID)
	if !ok {
		return
	}
	if !conn.casStatus(gen, status) {
		p.logger.Debug("status revert abandoned, newer change present", "agent_id", agentID)
		return
	}
	p.broadcast(agentID, status)
}

// AnnounceOffline broadcasts a disconnect to the remaining agents. The
// departing agent must already be unregistered.
func (p *Presence) AnnounceOffline(agentID string) {
	p.broadcast(agentID, StatusOffline)
}

// broadcast delivers a status_update frame to every registered agent
// except the one whose status changed. Best-effort: per-recipient send
// failures collapse into that recipient's unregister inside Send and
// are only logged here.
func (p *Presence) broadcast(agentID string, status Status) {
	frame := protocol.New(protocol.TypeStatusUpdate, protocol.StatusUpdate{
		AgentID:   agentID,
		Status:    string(status),
		Timestamp: protocol.Timestamp(time.Now()),
	})

	for _, peer := range p.manager.peers(agentID) {
		if err := p.manager.Send(peer.ID, frame); err != nil {
			p.logger.Warn("presence broadcast delivery failed",
				"agent_id", agentID,
				"recipient", peer.ID,
				"error", err,
			)
		}
	}
}
