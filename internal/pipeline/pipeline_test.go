// ABOUTME: Tests for pipeline construction defaults and the disabled fallback.
// ABOUTME: The OpenAI-backed stages themselves are exercised against the live API only.

package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"testing"
)

func TestDisabled(t *testing.T) {
	t.Run("always returns ErrDisabled", func(t *testing.T) {
		var p Processor = Disabled{}

		_, err := p.Process(context.Background(), []byte("audio"), "webm")
		if !errors.Is(err, ErrDisabled) {
			t.Errorf("expected ErrDisabled, got %v", err)
		}
	})
}

func TestNewOpenAIProcessorDefaults(t *testing.T) {
	p := NewOpenAIProcessor(OpenAIConfig{APIKey: "sk-test"}, slog.Default())

	if p.cfg.TranscriptionModel != "whisper-1" {
		t.Errorf("TranscriptionModel default = %q, want whisper-1", p.cfg.TranscriptionModel)
	}
	if p.cfg.ChatModel != "gpt-4o-mini" {
		t.Errorf("ChatModel default = %q, want gpt-4o-mini", p.cfg.ChatModel)
	}
	if p.cfg.ChatMaxTokens != 150 {
		t.Errorf("ChatMaxTokens default = %d, want 150", p.cfg.ChatMaxTokens)
	}
	if p.cfg.SpeechModel != "tts-1" {
		t.Errorf("SpeechModel default = %q, want tts-1", p.cfg.SpeechModel)
	}
	if p.cfg.SpeechVoice != "alloy" {
		t.Errorf("SpeechVoice default = %q, want alloy", p.cfg.SpeechVoice)
	}
}

func TestNewOpenAIProcessorOverrides(t *testing.T) {
	p := NewOpenAIProcessor(OpenAIConfig{
		APIKey:             "sk-test",
		TranscriptionModel: "whisper-large",
		ChatModel:          "gpt-4o",
		ChatMaxTokens:      500,
		SpeechModel:        "tts-1-hd",
		SpeechVoice:        "nova",
	}, slog.Default())

	if p.cfg.ChatModel != "gpt-4o" {
		t.Errorf("ChatModel = %q, want gpt-4o", p.cfg.ChatModel)
	}
	if p.cfg.ChatMaxTokens != 500 {
		t.Errorf("ChatMaxTokens = %d, want 500", p.cfg.ChatMaxTokens)
	}
	if p.cfg.SpeechVoice != "nova" {
		t.Errorf("SpeechVoice = %q, want nova", p.cfg.SpeechVoice)
	}
}
