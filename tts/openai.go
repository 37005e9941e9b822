package tts

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/sashabaranov/go-openai"
)

type OpenAISynthesizer struct {
	client *openai.Client
	voice  string
	logger *log.Logger
}

func NewOpenAISynthesizer(apiKey, baseURL, voice string, logger *log.Logger) *OpenAISynthesizer {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if voice == "" {
		voice = string(openai.VoiceAlloy)
	}
	return &OpenAISynthesizer{
		client: openai.NewClientWithConfig(cfg),
		voice:  voice,
		logger: logger,
	}
}

func (o *OpenAISynthesizer) Synthesize(
	ctx context.Context,
	text string,
	language string,
	voice string,
) ([]byte, error) {
	if voice == "" || voice == "default" {
		voice = o.voice
	}

	o.logger.Info("openai speech", "voice", voice, "lang", language, "chars", len(text))

	resp, err := o.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.TTSModel1,
		Input:          text,
		Voice:          openai.SpeechVoice(voice),
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return nil, fmt.Errorf("create speech: %w", err)
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("read speech: %w", err)
	}
	return audio, nil
}
