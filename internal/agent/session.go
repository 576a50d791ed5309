// ABOUTME: Lifecycle of exclusive two-party communication sessions.
// ABOUTME: Sessions are ephemeral bookkeeping resolved through the registry by identity.

package agent

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/voxmesh/voxmesh-gateway/internal/metrics"
	"github.com/voxmesh/voxmesh-gateway/internal/protocol"
)

// ErrTargetUnreachable indicates a session start against an agent that
// is not currently registered.
var ErrTargetUnreachable = errors.New("session target not connected")

// Session states. The only transition is active -> ended; before
// active the session simply does not exist.
const (
	SessionActive = "active"
	SessionEnded  = "ended"
)

// Session is an ephemeral two-party conversational context. It holds
// identities, not connections: delivery is resolved through the
// registry on each use, so the record stays valid bookkeeping even if
// a participant disconnects.
type Session struct {
	ID          string
	InitiatorID string
	TargetID    string
	Status      string
	StartedAt   time.Time
	EndedAt     time.Time
}

// Sessions tracks active communication sessions. Its mutex guards only
// the table; session-started/ended notifications are sent outside it.
type Sessions struct {
	mu      sync.Mutex
	table   map[string]*Session
	manager *Manager
	logger  *slog.Logger
}

// NewSessions creates an empty session table over the given registry.
func NewSessions(manager *Manager, logger *slog.Logger) *Sessions {
	return &Sessions{
		table:   make(map[string]*Session),
		manager: manager,
		logger:  logger,
	}
}

// newSessionID keeps both identities in the id for debuggability; the
// random suffix makes rapid start/end cycles between the same pair
// collision-free.
func newSessionID(initiator, target string) string {
	return fmt.Sprintf("session_%s_%s_%s", initiator, target, uuid.NewString()[:8])
}

// Start creates an active session between initiator and target. The
// target must be registered at creation time (live lookup, not
// cached). Both participants are sent an identical session_started
// frame best-effort; the session is created regardless of delivery,
// and the caller gets the session synchronously as the return value.
func (s *Sessions) Start(initiator, target string) (*Session, error) {
	if !s.manager.IsOnline(target) {
		return nil, ErrTargetUnreachable
	}

	sess := &Session{
		ID:          newSessionID(initiator, target),
		InitiatorID: initiator,
		TargetID:    target,
		Status:      SessionActive,
		StartedAt:   time.Now(),
	}

	s.mu.Lock()
	s.table[sess.ID] = sess
	s.mu.Unlock()
	metrics.SessionsActive.Inc()

	s.notify(protocol.TypeSessionStarted, sess)
	s.logger.Info("session started",
		"session_id", sess.ID,
		"initiator", initiator,
		"target", target,
	)

	copy := *sess
	return &copy, nil
}

// End terminates a session: marks it ended, stamps the end time,
// notifies both participants, then removes it from the table. Unknown
// ids are a no-op, which makes duplicate end requests and races
// harmless rather than errors.
func (s *Sessions) End(sessionID string) {
	s.mu.Lock()
	sess, ok := s.table[sessionID]
	if !ok {
		s.mu.Unlock()
		return
	}
	sess.Status = SessionEnded
	sess.EndedAt = time.Now()
	delete(s.table, sessionID)
	s.mu.Unlock()
	metrics.SessionsActive.Dec()

	s.notify(protocol.TypeSessionEnded, sess)
	s.logger.Info("session ended", "session_id", sessionID)
}

// Active returns a snapshot of all active sessions for the query API.
func (s *Sessions) Active() []Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Session, 0, len(s.table))
	for _, sess := range s.table {
		out = append(out, *sess)
	}
	return out
}

// notify delivers a session event frame to both participants.
// Best-effort: delivery to a disconnected participant fails silently
// beyond a log line.
func (s *Sessions) notify(frameType string, sess *Session) {
	event := protocol.SessionEvent{
		SessionID:   sess.ID,
		InitiatorID: sess.InitiatorID,
		TargetID:    sess.TargetID,
		Status:      sess.Status,
		StartedAt:   protocol.Timestamp(sess.StartedAt),
	}
	if !sess.EndedAt.IsZero() {
		event.EndedAt = protocol.Timestamp(sess.EndedAt)
	}
	frame := protocol.New(frameType, event)

	for _, id := range []string{sess.InitiatorID, sess.TargetID} {
		if err := s.manager.Send(id, frame); err != nil {
			s.logger.Warn("session notification delivery failed",
				"session_id", sess.ID,
				"recipient", id,
				"frame_type", frameType,
				"error", err,
			)
		}
	}
}
