// Package gemini translates text with Google's Gemini models.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"node.town/vaani/llm"
)

// Candidates are tried in order when no model is configured.
var Candidates = []string{
	"gemini-2.5-flash",
	"gemini-2.0-flash",
	"gemini-2.0-flash-exp",
	"gemini-1.5-flash",
	"gemini-pro",
}

type Translator struct {
	client *genai.Client
	model  *genai.GenerativeModel
	name   string
	logger *log.Logger
}

// New connects to Gemini. An empty model name is resolved against the
// models the key can see.
func New(ctx context.Context, apiKey, model string, logger *log.Logger) (*Translator, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}

	if model == "" {
		available, err := listModels(ctx, client)
		if err != nil {
			client.Close()
			return nil, err
		}
		model, err = pickModel(available)
		if err != nil {
			client.Close()
			return nil, err
		}
	}

	logger.Info("gemini", "model", model)
	return &Translator{
		client: client,
		model:  setupGenerativeModel(client, model),
		name:   model,
		logger: logger,
	}, nil
}

func setupGenerativeModel(client *genai.Client, name string) *genai.GenerativeModel {
	model := client.GenerativeModel(name)
	model.GenerationConfig.SetMaxOutputTokens(1024)
	model.GenerationConfig.SetTemperature(0.3)
	model.SafetySettings = []*genai.SafetySetting{
		{
			Category:  genai.HarmCategoryHarassment,
			Threshold: genai.HarmBlockOnlyHigh,
		},
		{
			Category:  genai.HarmCategoryHateSpeech,
			Threshold: genai.HarmBlockOnlyHigh,
		},
		{
			Category:  genai.HarmCategoryDangerousContent,
			Threshold: genai.HarmBlockOnlyHigh,
		},
	}
	return model
}

func listModels(ctx context.Context, client *genai.Client) (map[string]bool, error) {
	available := map[string]bool{}
	it := client.ListModels(ctx)
	for {
		m, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list Gemini models: %w", err)
		}
		if !supports(m.SupportedGenerationMethods, "generateContent") {
			continue
		}
		available[strings.TrimPrefix(m.Name, "models/")] = true
	}
	return available, nil
}

func supports(methods []string, method string) bool {
	for _, m := range methods {
		if m == method {
			return true
		}
	}
	return false
}

func pickModel(available map[string]bool) (string, error) {
	for _, name := range Candidates {
		if available[name] {
			return name, nil
		}
	}
	return "", fmt.Errorf("none of %s is available", strings.Join(Candidates, ", "))
}

func (t *Translator) Translate(
	ctx context.Context,
	text string,
	sourceLang string,
	targetLang string,
) (string, error) {
	t.logger.Info("translate", "model", t.name, "from", sourceLang, "to", targetLang)

	resp, err := t.model.GenerateContent(ctx, genai.Text(llm.Prompt(text, sourceLang, targetLang)))
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	out := strings.TrimSpace(getResponseText(resp))
	if out == "" {
		return "", errors.New("empty response from Gemini")
	}
	return out, nil
}

func (t *Translator) Close() error {
	return t.client.Close()
}

func getResponseText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content != nil {
			for _, part := range candidate.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}
