// ABOUTME: Per-connection frame read loop and central dispatch point.
// ABOUTME: Routes frames to presence, sessions, or the speech pipeline and delivers results.

package agent

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"time"

	"github.com/voxmesh/voxmesh-gateway/internal/metrics"
	"github.com/voxmesh/voxmesh-gateway/internal/pipeline"
	"github.com/voxmesh/voxmesh-gateway/internal/protocol"
)

// RouterConfig wires the router's collaborators and timing knobs.
type RouterConfig struct {
	Manager  *Manager
	Presence *Presence
	Sessions *Sessions
	Pipeline pipeline.Processor

	// SpeakingCooldown is how long an agent stays in speaking after a
	// successful voice exchange before reverting to online.
	SpeakingCooldown time.Duration

	// PipelineTimeout bounds each Process call so a hung adapter cannot
	// retain its goroutine indefinitely.
	PipelineTimeout time.Duration

	Logger *slog.Logger
}

// Router consumes inbound frames and dispatches them. One Router is
// shared by all connections; Serve runs one read loop per connection.
type Router struct {
	manager  *Manager
	presence *Presence
	sessions *Sessions
	pipe     pipeline.Processor
	cooldown time.Duration
	timeout  time.Duration
	logger   *slog.Logger
}

// NewRouter creates a Router from its collaborators.
func NewRouter(cfg RouterConfig) *Router {
	if cfg.SpeakingCooldown <= 0 {
		cfg.SpeakingCooldown = 2 * time.Second
	}
	if cfg.PipelineTimeout <= 0 {
		cfg.PipelineTimeout = 60 * time.Second
	}
	return &Router{
		manager:  cfg.Manager,
		presence: cfg.Presence,
		sessions: cfg.Sessions,
		pipe:     cfg.Pipeline,
		cooldown: cfg.SpeakingCooldown,
		timeout:  cfg.PipelineTimeout,
		logger:   cfg.Logger,
	}
}

// Serve reads frames from the connection until it closes, dispatching
// each in arrival order. On exit the agent is unregistered and its
// departure announced to the remaining agents. Outstanding voice
// exchanges are allowed to complete; their deliveries degrade to
// NotConnected no-ops.
func (r *Router) Serve(conn *Connection) {
	defer func() {
		r.manager.Unregister(conn.ID)
		r.presence.AnnounceOffline(conn.ID)
		conn.Close()
	}()

	for {
		raw, err := conn.Read()
		if err != nil {
			r.logger.Info("connection closed", "agent_id", conn.ID, "error", err)
			return
		}

		frame, err := protocol.Decode(raw)
		if err != nil {
			r.logger.Warn("dropping malformed frame", "agent_id", conn.ID, "error", err)
			metrics.FramesDropped.Inc()
			continue
		}

		conn.Touch()
		metrics.FramesReceived.WithLabelValues(frame.Type).Inc()
		r.dispatch(conn, frame)
	}
}

func (r *Router) dispatch(conn *Connection, frame *protocol.Frame) {
	switch frame.Type {
	case protocol.TypeVoiceMessage:
		r.handleVoiceMessage(conn, frame)
	case protocol.TypeStatusUpdate:
		r.handleStatusUpdate(conn, frame)
	case protocol.TypeStartSession:
		r.handleStartSession(conn, frame)
	case protocol.TypeEndSession:
		r.handleEndSession(conn, frame)
	default:
		r.logger.Warn("dropping unrecognized frame type",
			"agent_id", conn.ID,
			"frame_type", frame.Type,
		)
		metrics.FramesDropped.Inc()
	}
}

// handleVoiceMessage validates the payload, moves the sender to
// thinking, and hands the audio to the speech pipeline without
// blocking the read loop: inbound frames from the same agent stay
// readable while the exchange is in flight.
func (r *Router) handleVoiceMessage(conn *Connection, frame *protocol.Frame) {
	var vm protocol.VoiceMessage
	if err := frame.DecodeData(&vm); err != nil {
		r.logger.Warn("dropping malformed voice message", "agent_id", conn.ID, "error", err)
		metrics.FramesDropped.Inc()
		return
	}

	// A voice message without audio is never processed: no status
	// change, nothing forwarded.
	if vm.AudioBase64 == "" {
		r.logger.Error("voice message without audio payload dropped", "agent_id", conn.ID)
		metrics.FramesDropped.Inc()
		return
	}

	audio, err := base64.StdEncoding.DecodeString(vm.AudioBase64)
	if err != nil {
		r.logger.Error("voice message with undecodable audio dropped", "agent_id", conn.ID, "error", err)
		metrics.FramesDropped.Inc()
		return
	}

	if _, err := r.presence.SetStatus(conn.ID, StatusThinking); err != nil {
		return
	}

	go r.processVoiceExchange(conn.ID, vm, audio)
}

// processVoiceExchange runs one voice exchange to completion. Detached
// from the read loop and bounded by the pipeline timeout.
func (r *Router) processVoiceExchange(senderID string, vm protocol.VoiceMessage, audio []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	result, err := r.pipe.Process(ctx, audio, vm.Format)
	if err != nil {
		r.logger.Error("speech pipeline failed",
			"agent_id", senderID,
			"session_id", vm.SessionID,
			"error", err,
		)
		r.sendError(senderID, "voice message processing failed")
		if _, err := r.presence.SetStatus(senderID, StatusOnline); err != nil && !errors.Is(err, ErrNotConnected) {
			r.logger.Warn("status reset failed", "agent_id", senderID, "error", err)
		}
		return
	}

	now := protocol.Timestamp(time.Now())

	// Forward the original audio to the declared receiver first, then
	// deliver the pipeline output back to the sender.
	if vm.ReceiverID != "" {
		forward := protocol.New(protocol.TypeVoiceMessage, protocol.VoiceMessage{
			SenderID:    senderID,
			ReceiverID:  vm.ReceiverID,
			SessionID:   vm.SessionID,
			AudioBase64: vm.AudioBase64,
			Format:      vm.Format,
			Timestamp:   now,
		})
		if err := r.manager.Send(vm.ReceiverID, forward); err != nil {
			r.logger.Warn("voice message forward failed",
				"sender", senderID,
				"receiver", vm.ReceiverID,
				"error", err,
			)
		}
	}

	response := protocol.New(protocol.TypeAIResponse, protocol.AIResponse{
		OriginalSenderID: senderID,
		TranscribedText:  result.TranscribedText,
		AIResponseText:   result.ReplyText,
		AIResponseAudio:  result.ReplyAudio,
		Timestamp:        now,
	})
	if err := r.manager.Send(senderID, response); err != nil {
		r.logger.Warn("ai response delivery failed", "agent_id", senderID, "error", err)
	}

	gen, err := r.presence.SetStatus(senderID, StatusSpeaking)
	if err != nil {
		// Sender disconnected while the pipeline ran; nothing to revert.
		return
	}

	// Detached cooldown revert. Guarded by the generation so a newer
	// status change or a reconnect is never stomped.
	time.AfterFunc(r.cooldown, func() {
		r.presence.RevertIfUnchanged(senderID, gen, StatusOnline)
	})
}

func (r *Router) handleStatusUpdate(conn *Connection, frame *protocol.Frame) {
	var su protocol.StatusUpdate
	if err := frame.DecodeData(&su); err != nil {
		r.logger.Warn("dropping malformed status update", "agent_id", conn.ID, "error", err)
		metrics.FramesDropped.Inc()
		return
	}

	status := Status(su.Status)
	if !ValidStatus(status) {
		r.logger.Warn("dropping status update with unknown status",
			"agent_id", conn.ID,
			"status", su.Status,
		)
		metrics.FramesDropped.Inc()
		return
	}

	if _, err := r.presence.SetStatus(conn.ID, status); err != nil {
		r.logger.Warn("status update failed", "agent_id", conn.ID, "error", err)
	}
}

func (r *Router) handleStartSession(conn *Connection, frame *protocol.Frame) {
	var req protocol.StartSession
	if err := frame.DecodeData(&req); err != nil || req.TargetID == "" {
		r.logger.Warn("dropping malformed start_session", "agent_id", conn.ID)
		metrics.FramesDropped.Inc()
		return
	}

	sess, err := r.sessions.Start(conn.ID, req.TargetID)
	if err != nil {
		if errors.Is(err, ErrTargetUnreachable) {
			r.sendError(conn.ID, "target agent not connected: "+req.TargetID)
		}
		return
	}

	created := protocol.New(protocol.TypeSessionCreated, protocol.SessionCreated{
		SessionID: sess.ID,
	})
	if err := r.manager.Send(conn.ID, created); err != nil {
		r.logger.Warn("session_created delivery failed", "agent_id", conn.ID, "error", err)
	}
}

func (r *Router) handleEndSession(conn *Connection, frame *protocol.Frame) {
	var req protocol.EndSession
	if err := frame.DecodeData(&req); err != nil || req.SessionID == "" {
		r.logger.Warn("dropping malformed end_session", "agent_id", conn.ID)
		metrics.FramesDropped.Inc()
		return
	}

	r.sessions.End(req.SessionID)
}

// sendError delivers an error frame to an agent. Never fatal to the
// connection; delivery failures are logged and swallowed.
func (r *Router) sendError(agentID, message string) {
	frame := protocol.New(protocol.TypeError, protocol.ErrorPayload{Message: message})
	if err := r.manager.Send(agentID, frame); err != nil {
		r.logger.Warn("error frame delivery failed", "agent_id", agentID, "error", err)
	}
}
