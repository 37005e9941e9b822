package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"node.town/vaani/backend"
	"node.town/vaani/config"
	"node.town/vaani/gemini"
	"node.town/vaani/llm"
	"node.town/vaani/stt"
	"node.town/vaani/tts"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the speech backend",
	Long: `Serve /api/v1/stt, /api/v1/translate and /api/v1/tts backed by the configured
recognition, translation and synthesis providers.`,
	Run: runServe,
}

func init() {
	serveCmd.Flags().String("addr", ":8000", "Address to listen on")
	serveCmd.Flags().String("translator", "groq", "Translation provider: groq, openai, gemini or none")
	serveCmd.Flags().String("synthesizer", "elevenlabs", "Speech provider: elevenlabs, openai or none")
	serveCmd.Flags().String("groq-api-key", "", "Groq API key")
	serveCmd.Flags().String("openai-api-key", "", "OpenAI API key")
	serveCmd.Flags().String("gemini-api-key", "", "Gemini API key")
	serveCmd.Flags().String("elevenlabs-api-key", "", "ElevenLabs API key")

	viper.BindPFlag("serve.addr", serveCmd.Flags().Lookup("addr"))
	viper.BindPFlag("translate.provider", serveCmd.Flags().Lookup("translator"))
	viper.BindPFlag("tts.provider", serveCmd.Flags().Lookup("synthesizer"))
	viper.BindPFlag("groq_api_key", serveCmd.Flags().Lookup("groq-api-key"))
	viper.BindPFlag("openai_api_key", serveCmd.Flags().Lookup("openai-api-key"))
	viper.BindPFlag("gemini_api_key", serveCmd.Flags().Lookup("gemini-api-key"))
	viper.BindPFlag("elevenlabs_api_key", serveCmd.Flags().Lookup("elevenlabs-api-key"))
}

func runServe(cmd *cobra.Command, args []string) {
	settings := loadSettings()
	mainLogger, _, httpLogger, _ := createLoggers(settings.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts, closeProviders, err := newProviders(ctx, settings.Serve, mainLogger)
	if err != nil {
		mainLogger.Fatal("configure providers", "error", err)
	}
	defer closeProviders()

	opts.Version = version
	opts.Logger = httpLogger

	srv := backend.New(opts)
	if err := srv.ListenAndServe(ctx, settings.Serve.Addr); err != nil {
		mainLogger.Fatal("serve", "error", err)
	}
}

// newProviders builds the backend collaborators named in s. A provider
// without credentials is left out, and its route answers 503 (or 404 for
// translation).
func newProviders(
	ctx context.Context,
	s config.ServeSettings,
	logger *log.Logger,
) (backend.Options, func(), error) {
	var opts backend.Options
	closers := []func() error{}
	closeAll := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				logger.Warn("close provider", "error", err)
			}
		}
	}

	if s.STTAPIKey != "" {
		opts.Recognizer = stt.NewWhisperRecognizer(s.STTAPIKey, s.STTBaseURL, s.STTModel, logger.WithPrefix("hear"))
	} else {
		logger.Warn("missing GROQ_API_KEY, speech recognition disabled")
	}

	switch s.Translator {
	case "groq", "openai":
		if s.TranslateAPIKey == "" {
			logger.Warn("missing translator key, translation disabled", "provider", s.Translator)
			break
		}
		opts.Translator = llm.NewChatTranslator(
			s.TranslateAPIKey,
			s.TranslateBaseURL,
			s.TranslateModel,
			s.TranslateMaxTokens,
			logger.WithPrefix("llm"),
		)
	case "gemini":
		if s.GeminiAPIKey == "" {
			logger.Warn("missing GEMINI_API_KEY, translation disabled")
			break
		}
		t, err := gemini.New(ctx, s.GeminiAPIKey, s.GeminiModel, logger.WithPrefix("llm"))
		if err != nil {
			closeAll()
			return backend.Options{}, nil, fmt.Errorf("gemini: %w", err)
		}
		closers = append(closers, t.Close)
		opts.Translator = t
	case "", "none":
	default:
		return backend.Options{}, nil, fmt.Errorf("unknown translator %q", s.Translator)
	}

	switch s.Synthesizer {
	case "elevenlabs":
		if s.ElevenLabsAPIKey == "" {
			logger.Warn("missing ELEVENLABS_API_KEY, speech synthesis disabled")
			break
		}
		opts.Synthesizer = tts.NewElevenLabsSynthesizer(
			s.ElevenLabsAPIKey,
			s.ElevenLabsVoice,
			s.ElevenLabsModel,
			logger.WithPrefix("talk"),
		)
	case "openai":
		if s.OpenAIAPIKey == "" {
			logger.Warn("missing OPENAI_API_KEY, speech synthesis disabled")
			break
		}
		opts.Synthesizer = tts.NewOpenAISynthesizer(s.OpenAIAPIKey, "", s.OpenAIVoice, logger.WithPrefix("talk"))
	case "", "none":
	default:
		closeAll()
		return backend.Options{}, nil, fmt.Errorf("unknown synthesizer %q", s.Synthesizer)
	}

	return opts, closeAll, nil
}
