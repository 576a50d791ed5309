// ABOUTME: Tests for session lifecycle: creation, notification, and teardown.
// ABOUTME: Covers unreachable targets, duplicate ends, and id uniqueness.

package agent

import (
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/voxmesh/voxmesh-gateway/internal/protocol"
)

func sessionEvents(t *testing.T, sock *fakeSocket, frameType string) []protocol.SessionEvent {
	t.Helper()
	frames := sock.framesOfType(t, frameType)
	out := make([]protocol.SessionEvent, 0, len(frames))
	for _, f := range frames {
		var ev protocol.SessionEvent
		if err := f.DecodeData(&ev); err != nil {
			t.Fatalf("decoding session event: %v", err)
		}
		out = append(out, ev)
	}
	return out
}

func TestSessionsStart(t *testing.T) {
	t.Run("creates session and notifies both participants", func(t *testing.T) {
		manager := NewManager(slog.Default())
		sessions := NewSessions(manager, slog.Default())

		sockA, sockB := newFakeSocket(), newFakeSocket()
		manager.Register(testConn("agent-a", sockA))
		manager.Register(testConn("agent-b", sockB))

		sess, err := sessions.Start("agent-a", "agent-b")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.HasPrefix(sess.ID, "session_agent-a_agent-b_") {
			t.Errorf("unexpected session id: %s", sess.ID)
		}
		if sess.Status != SessionActive {
			t.Errorf("expected active, got %s", sess.Status)
		}
		if sess.StartedAt.IsZero() {
			t.Error("expected StartedAt to be stamped")
		}

		for name, sock := range map[string]*fakeSocket{"agent-a": sockA, "agent-b": sockB} {
			events := sessionEvents(t, sock, protocol.TypeSessionStarted)
			if len(events) != 1 {
				t.Fatalf("%s: expected 1 session_started, got %d", name, len(events))
			}
			ev := events[0]
			if ev.SessionID != sess.ID || ev.InitiatorID != "agent-a" || ev.TargetID != "agent-b" {
				t.Errorf("%s: unexpected event: %+v", name, ev)
			}
		}
	})

	t.Run("rejects offline target", func(t *testing.T) {
		manager := NewManager(slog.Default())
		sessions := NewSessions(manager, slog.Default())
		manager.Register(testConn("agent-a", newFakeSocket()))

		_, err := sessions.Start("agent-a", "agent-b")
		if !errors.Is(err, ErrTargetUnreachable) {
			t.Errorf("expected ErrTargetUnreachable, got %v", err)
		}
		if got := sessions.Active(); len(got) != 0 {
			t.Errorf("expected no session created, got %d", len(got))
		}
	})

	t.Run("rapid restarts between the same pair get distinct ids", func(t *testing.T) {
		manager := NewManager(slog.Default())
		sessions := NewSessions(manager, slog.Default())
		manager.Register(testConn("agent-a", newFakeSocket()))
		manager.Register(testConn("agent-b", newFakeSocket()))

		seen := make(map[string]bool)
		for i := 0; i < 5; i++ {
			sess, err := sessions.Start("agent-a", "agent-b")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if seen[sess.ID] {
				t.Fatalf("duplicate session id: %s", sess.ID)
			}
			seen[sess.ID] = true
			sessions.End(sess.ID)
		}
	})
}

func TestSessionsEnd(t *testing.T) {
	t.Run("notifies both participants and removes the session", func(t *testing.T) {
		manager := NewManager(slog.Default())
		sessions := NewSessions(manager, slog.Default())

		sockA, sockB := newFakeSocket(), newFakeSocket()
		manager.Register(testConn("agent-a", sockA))
		manager.Register(testConn("agent-b", sockB))

		sess, err := sessions.Start("agent-a", "agent-b")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		sessions.End(sess.ID)

		if got := sessions.Active(); len(got) != 0 {
			t.Errorf("expected no active sessions, got %d", len(got))
		}
		for name, sock := range map[string]*fakeSocket{"agent-a": sockA, "agent-b": sockB} {
			events := sessionEvents(t, sock, protocol.TypeSessionEnded)
			if len(events) != 1 {
				t.Fatalf("%s: expected 1 session_ended, got %d", name, len(events))
			}
			if events[0].Status != SessionEnded {
				t.Errorf("%s: expected ended status, got %s", name, events[0].Status)
			}
			if events[0].EndedAt == "" {
				t.Errorf("%s: expected EndedAt stamped", name)
			}
		}
	})

	t.Run("duplicate end is a no-op", func(t *testing.T) {
		manager := NewManager(slog.Default())
		sessions := NewSessions(manager, slog.Default())

		sockA := newFakeSocket()
		manager.Register(testConn("agent-a", sockA))
		manager.Register(testConn("agent-b", newFakeSocket()))

		sess, _ := sessions.Start("agent-a", "agent-b")
		sessions.End(sess.ID)
		sessions.End(sess.ID)

		if events := sessionEvents(t, sockA, protocol.TypeSessionEnded); len(events) != 1 {
			t.Errorf("expected exactly 1 session_ended, got %d", len(events))
		}
	})

	t.Run("unknown id is a no-op", func(t *testing.T) {
		manager := NewManager(slog.Default())
		sessions := NewSessions(manager, slog.Default())

		// Should not panic
		sessions.End("session_x_y_deadbeef")
	})

	t.Run("ending survives a disconnected participant", func(t *testing.T) {
		manager := NewManager(slog.Default())
		sessions := NewSessions(manager, slog.Default())

		sockA := newFakeSocket()
		manager.Register(testConn("agent-a", sockA))
		manager.Register(testConn("agent-b", newFakeSocket()))

		sess, _ := sessions.Start("agent-a", "agent-b")
		manager.Unregister("agent-b")

		sessions.End(sess.ID)

		if events := sessionEvents(t, sockA, protocol.TypeSessionEnded); len(events) != 1 {
			t.Errorf("expected surviving participant notified, got %d events", len(events))
		}
		if got := sessions.Active(); len(got) != 0 {
			t.Errorf("expected session removed, got %d", len(got))
		}
	})
}

func TestSessionsActive(t *testing.T) {
	t.Run("snapshot reflects live sessions only", func(t *testing.T) {
		manager := NewManager(slog.Default())
		sessions := NewSessions(manager, slog.Default())

		for _, id := range []string{"agent-a", "agent-b", "agent-c"} {
			manager.Register(testConn(id, newFakeSocket()))
		}

		s1, _ := sessions.Start("agent-a", "agent-b")
		s2, _ := sessions.Start("agent-a", "agent-c")
		sessions.End(s1.ID)

		active := sessions.Active()
		if len(active) != 1 {
			t.Fatalf("expected 1 active session, got %d", len(active))
		}
		if active[0].ID != s2.ID {
			t.Errorf("expected %s, got %s", s2.ID, active[0].ID)
		}
	})
}
