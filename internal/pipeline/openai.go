// ABOUTME: OpenAI-backed speech pipeline: whisper transcription, chat reply, TTS synthesis.
// ABOUTME: Any stage error fails the whole exchange; per-stage latency is recorded.

package pipeline

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/voxmesh/voxmesh-gateway/internal/metrics"
)

const conversationPrompt = `You are an AI agent in a voice-to-voice communication system.
You should respond naturally and conversationally, as if you're having a real-time voice conversation.
Keep responses concise but friendly. You're designed to assist and communicate effectively with other agents.`

// OpenAIConfig holds the model selection for the three stages.
type OpenAIConfig struct {
	APIKey             string
	TranscriptionModel string // default whisper-1
	ChatModel          string // default gpt-4o-mini
	ChatMaxTokens      int64  // default 150
	SpeechModel        string // default tts-1
	SpeechVoice        string // default alloy
}

// OpenAIProcessor implements Processor against the OpenAI API.
type OpenAIProcessor struct {
	client openai.Client
	cfg    OpenAIConfig
	logger *slog.Logger
}

// NewOpenAIProcessor creates a processor with defaults filled in for
// any unset model fields.
func NewOpenAIProcessor(cfg OpenAIConfig, logger *slog.Logger) *OpenAIProcessor {
	if cfg.TranscriptionModel == "" {
		cfg.TranscriptionModel = "whisper-1"
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = "gpt-4o-mini"
	}
	if cfg.ChatMaxTokens <= 0 {
		cfg.ChatMaxTokens = 150
	}
	if cfg.SpeechModel == "" {
		cfg.SpeechModel = "tts-1"
	}
	if cfg.SpeechVoice == "" {
		cfg.SpeechVoice = "alloy"
	}
	return &OpenAIProcessor{
		client: openai.NewClient(option.WithAPIKey(cfg.APIKey)),
		cfg:    cfg,
		logger: logger,
	}
}

// Process runs speech-to-text, reply generation, and text-to-speech in
// sequence. The first stage error aborts the run.
func (p *OpenAIProcessor) Process(ctx context.Context, audio []byte, format string) (*Result, error) {
	start := time.Now()

	transcript, err := p.transcribe(ctx, audio, format)
	if err != nil {
		metrics.PipelineErrors.WithLabelValues("transcription").Inc()
		return nil, fmt.Errorf("transcription: %w", err)
	}

	reply, err := p.generateReply(ctx, transcript)
	if err != nil {
		metrics.PipelineErrors.WithLabelValues("reply").Inc()
		return nil, fmt.Errorf("reply generation: %w", err)
	}

	replyAudio, err := p.synthesize(ctx, reply)
	if err != nil {
		metrics.PipelineErrors.WithLabelValues("synthesis").Inc()
		return nil, fmt.Errorf("speech synthesis: %w", err)
	}

	metrics.PipelineDuration.Observe(time.Since(start).Seconds())
	p.logger.Info("voice exchange processed",
		"transcript_len", len(transcript),
		"reply_len", len(reply),
		"duration", time.Since(start),
	)

	return &Result{
		TranscribedText: transcript,
		ReplyText:       reply,
		ReplyAudio:      base64.StdEncoding.EncodeToString(replyAudio),
	}, nil
}

func (p *OpenAIProcessor) transcribe(ctx context.Context, audio []byte, format string) (string, error) {
	start := time.Now()
	defer func() {
		metrics.PipelineStageDuration.WithLabelValues("transcription").Observe(time.Since(start).Seconds())
	}()

	if format == "" {
		format = "webm"
	}

	resp, err := p.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		Model: openai.AudioModel(p.cfg.TranscriptionModel),
		File:  openai.File(bytes.NewReader(audio), "audio."+format, "audio/"+format),
	})
	if err != nil {
		return "", err
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", fmt.Errorf("empty transcript")
	}
	return text, nil
}

func (p *OpenAIProcessor) generateReply(ctx context.Context, transcript string) (string, error) {
	start := time.Now()
	defer func() {
		metrics.PipelineStageDuration.WithLabelValues("reply").Observe(time.Since(start).Seconds())
	}()

	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.cfg.ChatModel),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(conversationPrompt),
			openai.UserMessage(transcript),
		},
		MaxTokens:   openai.Int(p.cfg.ChatMaxTokens),
		Temperature: openai.Float(0.7),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no completion choices")
	}

	reply := strings.TrimSpace(resp.Choices[0].Message.Content)
	if reply == "" {
		return "", fmt.Errorf("empty completion")
	}
	return reply, nil
}

func (p *OpenAIProcessor) synthesize(ctx context.Context, text string) ([]byte, error) {
	start := time.Now()
	defer func() {
		metrics.PipelineStageDuration.WithLabelValues("synthesis").Observe(time.Since(start).Seconds())
	}()

	resp, err := p.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Model:          openai.SpeechModel(p.cfg.SpeechModel),
		Voice:          openai.AudioSpeechNewParamsVoice(p.cfg.SpeechVoice),
		Input:          text,
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading synthesized audio: %w", err)
	}
	return audio, nil
}
