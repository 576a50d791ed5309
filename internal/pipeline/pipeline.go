// ABOUTME: Speech pipeline contract: raw audio in, transcript + reply text/audio out.
// ABOUTME: The router treats Process as one atomic async call with no partial results.

package pipeline

import "context"

// Result is the output of a successful full pipeline run. ReplyAudio is
// the synthesized reply, base64-encoded for the wire.
type Result struct {
	TranscribedText string
	ReplyText       string
	ReplyAudio      string
}

// Processor runs the three-stage pipeline (speech-to-text, reply
// generation, text-to-speech) as a single operation. If any internal
// stage fails the whole call reports failure; the adapter owns its own
// retry policy and the caller does not retry.
type Processor interface {
	Process(ctx context.Context, audio []byte, format string) (*Result, error)
}
