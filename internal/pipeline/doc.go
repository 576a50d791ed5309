// Package pipeline turns recorded agent audio into a spoken reply.
//
// A Processor runs three stages in order: speech-to-text, chat
// completion, and text-to-speech. The OpenAI implementation uses
// whisper-style transcription, a chat model capped at short
// conversational replies, and mp3 synthesis. Any stage failing fails
// the whole call; the router never sees partial results.
//
// When no API key is configured the gateway wires the Disabled
// processor, which rejects every call with ErrDisabled.
package pipeline
