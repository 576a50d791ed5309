// ABOUTME: Websocket endpoint accepting agent connections at /ws/{agent_id}.
// ABOUTME: Registers the identity, announces presence, and runs the router loop.

package gateway

import (
	"net/http"
	"strings"

	"github.com/voxmesh/voxmesh-gateway/internal/agent"
)

// handleAgentSocket upgrades GET /ws/{agent_id} to a websocket,
// registers the agent, and serves its read loop until disconnect. An
// identity that is already active is rejected at handshake; the
// original connection is never evicted.
func (g *Gateway) handleAgentSocket(w http.ResponseWriter, r *http.Request) {
	agentID := strings.TrimPrefix(r.URL.Path, "/ws/")
	if agentID == "" || strings.Contains(agentID, "/") {
		g.sendJSONError(w, http.StatusBadRequest, "agent id required")
		return
	}

	// Pre-upgrade check gives a clean HTTP rejection; the registry
	// check below still guards the race between two handshakes.
	if g.agents.IsOnline(agentID) {
		g.sendJSONError(w, http.StatusConflict, "agent identity already active")
		return
	}

	sock, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Error("websocket upgrade failed", "agent_id", agentID, "error", err)
		return
	}

	conn := agent.NewConnection(agentID, sock, g.logger)
	if err := g.agents.Register(conn); err != nil {
		g.logger.Warn("registration rejected", "agent_id", agentID, "error", err)
		sock.Close()
		return
	}

	// Fresh connections always start online; announce it to peers.
	if _, err := g.presence.SetStatus(agentID, agent.StatusOnline); err != nil {
		g.logger.Warn("initial presence broadcast failed", "agent_id", agentID, "error", err)
	}

	g.router.Serve(conn)
}
