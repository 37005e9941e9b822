// Package stt recognizes speech through an OpenAI-compatible Whisper
// endpoint (Groq by default).
package stt

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/sashabaranov/go-openai"

	"node.town/vaani/lang"
)

type WhisperRecognizer struct {
	client *openai.Client
	model  string
	logger *log.Logger
}

func NewWhisperRecognizer(
	apiKey string,
	baseURL string,
	model string,
	logger *log.Logger,
) *WhisperRecognizer {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = openai.Whisper1
	}
	return &WhisperRecognizer{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		logger: logger,
	}
}

func (w *WhisperRecognizer) Transcribe(
	ctx context.Context,
	audio []byte,
	language string,
) (string, error) {
	name := FileName(audio)
	w.logger.Info("whisper", "model", w.model, "lang", language, "file", name, "bytes", len(audio))

	resp, err := w.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.model,
		FilePath: name,
		Reader:   bytes.NewReader(audio),
		Language: lang.Base(language),
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return "", fmt.Errorf("whisper transcription: %w", err)
	}

	return strings.TrimSpace(resp.Text), nil
}

// FileName picks an upload name whose extension matches the container, since
// the endpoint infers the format from it.
func FileName(audio []byte) string {
	switch {
	case bytes.HasPrefix(audio, []byte("OggS")):
		return "utterance.ogg"
	case bytes.HasPrefix(audio, []byte{0x1a, 0x45, 0xdf, 0xa3}):
		return "utterance.webm"
	case bytes.HasPrefix(audio, []byte("RIFF")):
		return "utterance.wav"
	case bytes.HasPrefix(audio, []byte("fLaC")):
		return "utterance.flac"
	case bytes.HasPrefix(audio, []byte("ID3")),
		len(audio) > 1 && audio[0] == 0xff && audio[1]&0xe0 == 0xe0:
		return "utterance.mp3"
	default:
		return "utterance.ogg"
	}
}
