// Package tts synthesizes speech as MP3 audio.
package tts

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/haguro/elevenlabs-go"
)

const elevenLabsTimeout = 30 * time.Second

type ElevenLabsSynthesizer struct {
	apiKey  string
	voiceID string
	modelID string
	logger  *log.Logger
}

func NewElevenLabsSynthesizer(apiKey, voiceID, modelID string, logger *log.Logger) *ElevenLabsSynthesizer {
	if modelID == "" {
		modelID = "eleven_turbo_v2_5"
	}
	return &ElevenLabsSynthesizer{
		apiKey:  apiKey,
		voiceID: voiceID,
		modelID: modelID,
		logger:  logger,
	}
}

// Synthesize returns MP3 audio. A non-empty voice overrides the configured
// voice ID; "default" does not.
func (e *ElevenLabsSynthesizer) Synthesize(
	ctx context.Context,
	text string,
	language string,
	voice string,
) ([]byte, error) {
	voiceID := e.voiceID
	if voice != "" && voice != "default" {
		voiceID = voice
	}

	e.logger.Info("elevenlabs", "voice", voiceID, "lang", language, "chars", len(text))

	client := elevenlabs.NewClient(ctx, e.apiKey, elevenLabsTimeout)
	audio, err := client.TextToSpeech(voiceID, elevenlabs.TextToSpeechRequest{
		Text:    text,
		ModelID: e.modelID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate speech: %w", err)
	}
	return audio, nil
}
