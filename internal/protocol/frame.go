// ABOUTME: Wire-level frame types exchanged over agent websocket connections.
// ABOUTME: Defines the type-tagged JSON envelope and the per-type payloads.

package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrMalformedFrame indicates a frame with an unknown type or a missing
// required field. Malformed frames are logged and dropped; they never
// close the connection.
var ErrMalformedFrame = errors.New("malformed frame")

// Frame is the unit exchanged over a connection: a type tag plus a
// type-specific payload.
type Frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Inbound frame types (client -> gateway).
const (
	TypeVoiceMessage = "voice_message"
	TypeStatusUpdate = "status_update"
	TypeStartSession = "start_session"
	TypeEndSession   = "end_session"
)

// Outbound frame types (gateway -> client). TypeStatusUpdate and
// TypeVoiceMessage appear in both directions.
const (
	TypeSessionCreated = "session_created"
	TypeSessionStarted = "session_started"
	TypeSessionEnded   = "session_ended"
	TypeAIResponse     = "ai_response"
	TypeError          = "error"
)

// VoiceMessage is the inbound voice_message payload. The sender is
// implicit (the connection's own identity); when forwarded to the
// receiver, SenderID and Timestamp are filled in by the gateway.
type VoiceMessage struct {
	SenderID    string `json:"sender_id,omitempty"`
	ReceiverID  string `json:"receiver_id"`
	SessionID   string `json:"session_id,omitempty"`
	AudioBase64 string `json:"audio_base64"`
	Format      string `json:"format,omitempty"`
	Timestamp   string `json:"timestamp,omitempty"`
}

// StatusUpdate carries a presence change. Inbound frames set only
// Status; broadcasts fill in AgentID and Timestamp.
type StatusUpdate struct {
	AgentID   string `json:"agent_id,omitempty"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp,omitempty"`
}

// StartSession requests a new communication session with TargetID.
type StartSession struct {
	TargetID string `json:"target_id"`
}

// EndSession requests termination of an existing session.
type EndSession struct {
	SessionID string `json:"session_id"`
}

// SessionCreated is the synchronous reply to the requester of a
// start_session, carrying the generated session id.
type SessionCreated struct {
	SessionID string `json:"session_id"`
}

// SessionEvent is the payload for session_started and session_ended
// frames, delivered identically to both participants.
type SessionEvent struct {
	SessionID   string `json:"session_id"`
	InitiatorID string `json:"initiator_id"`
	TargetID    string `json:"target_id"`
	Status      string `json:"status"`
	StartedAt   string `json:"started_at"`
	EndedAt     string `json:"ended_at,omitempty"`
}

// AIResponse carries the speech pipeline output back to the original
// sender of a voice message.
type AIResponse struct {
	OriginalSenderID string `json:"original_sender_id"`
	TranscribedText  string `json:"transcribed_text"`
	AIResponseText   string `json:"ai_response_text"`
	AIResponseAudio  string `json:"ai_response_audio"`
	Timestamp        string `json:"timestamp"`
}

// ErrorPayload reports a non-fatal failure to the peer. The connection
// stays open.
type ErrorPayload struct {
	Message string `json:"message"`
}

// Decode parses raw bytes into a Frame. A frame without a type tag is
// malformed.
func Decode(raw []byte) (*Frame, error) {
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	if f.Type == "" {
		return nil, fmt.Errorf("%w: missing type", ErrMalformedFrame)
	}
	return &f, nil
}

// New builds a Frame from a type tag and payload. Marshal failures are
// impossible for the payload types in this package, so New panics on
// them rather than returning an error at every call site.
func New(frameType string, payload any) *Frame {
	data, err := json.Marshal(payload)
	if err != nil {
		panic(fmt.Sprintf("protocol: marshal %s payload: %v", frameType, err))
	}
	return &Frame{Type: frameType, Data: data}
}

// Encode serializes the frame for the wire.
func (f *Frame) Encode() ([]byte, error) {
	return json.Marshal(f)
}

// DecodeData unmarshals the frame payload into dst.
func (f *Frame) DecodeData(dst any) error {
	if len(f.Data) == 0 {
		return fmt.Errorf("%w: missing data", ErrMalformedFrame)
	}
	if err := json.Unmarshal(f.Data, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	return nil
}

// Timestamp returns the wall-clock timestamp format used in outbound
// payloads.
func Timestamp(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}
