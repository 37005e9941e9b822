// Package llm translates text with a chat model behind an OpenAI-compatible
// API (Groq or OpenAI).
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/sashabaranov/go-openai"

	"node.town/vaani/lang"
)

type ChatTranslator struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	logger      *log.Logger
}

func NewChatTranslator(
	apiKey string,
	baseURL string,
	model string,
	maxTokens int,
	logger *log.Logger,
) *ChatTranslator {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &ChatTranslator{
		client:      openai.NewClientWithConfig(cfg),
		model:       model,
		maxTokens:   maxTokens,
		temperature: 0.3,
		logger:      logger,
	}
}

// Prompt asks for the bare translation and nothing else.
func Prompt(text, sourceLang, targetLang string) string {
	return fmt.Sprintf(
		"Translate the following text from %s to %s. "+
			"Output ONLY the translated text. No notes, no explanations.\n\n"+
			"Text: %s",
		lang.Name(sourceLang),
		lang.Name(targetLang),
		text,
	)
}

func (c *ChatTranslator) Translate(
	ctx context.Context,
	text string,
	sourceLang string,
	targetLang string,
) (string, error) {
	c.logger.Info("translate", "model", c.model, "from", sourceLang, "to", targetLang)

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: Prompt(text, sourceLang, targetLang),
			},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
