// Package config turns viper configuration into typed settings and keeps
// small user preferences in the record store.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"node.town/vaani/capture"
	"node.town/vaani/kv"
	"node.town/vaani/lang"
	"node.town/vaani/telemetry"
)

const DefaultBackendURL = "http://127.0.0.1:8000/api/v1"

type Settings struct {
	BackendURL string
	Timeout    time.Duration
	Voice      string
	Languages  lang.Pair
	Store      kv.Options
	Player     string
	Capture    CaptureSettings
	LogLevel   string
	LogFile    string
	Telemetry  telemetry.Config
	Serve      ServeSettings
	Console    ConsoleSettings
}

type CaptureSettings struct {
	FFmpeg      string
	InputFormat string
	Input       string
}

// ServeSettings configure the speech backend and its providers.
type ServeSettings struct {
	Addr string

	STTModel   string
	STTBaseURL string
	STTAPIKey  string

	Translator         string // groq, openai, gemini or none
	TranslateModel     string
	TranslateBaseURL   string
	TranslateAPIKey    string
	GeminiAPIKey       string
	GeminiModel        string
	TranslateMaxTokens int

	Synthesizer      string // elevenlabs, openai or none
	ElevenLabsAPIKey string
	ElevenLabsVoice  string
	ElevenLabsModel  string
	OpenAIAPIKey     string
	OpenAIVoice      string
}

type ConsoleSettings struct {
	Addr string
}

// SetDefaults registers every default so that env vars and flags bind to
// known keys.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("backend.url", DefaultBackendURL)
	v.SetDefault("backend.timeout", time.Duration(0))
	v.SetDefault("backend.voice", "")

	v.SetDefault("languages.source", "en")
	v.SetDefault("languages.target", "hi")

	v.SetDefault("store.driver", "file")
	v.SetDefault("store.path", "")
	v.SetDefault("store.database_url", "")

	v.SetDefault("playback.player", "")

	inputFormat, input := capture.DefaultInput()
	v.SetDefault("capture.ffmpeg", "ffmpeg")
	v.SetDefault("capture.format", inputFormat)
	v.SetDefault("capture.device", input)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "vaani.log")

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.endpoint", "")
	v.SetDefault("telemetry.insecure", true)

	v.SetDefault("serve.addr", ":8000")
	v.SetDefault("stt.model", "whisper-large-v3")
	v.SetDefault("stt.base_url", "https://api.groq.com/openai/v1")
	v.SetDefault("groq_api_key", "")
	v.SetDefault("translate.provider", "groq")
	v.SetDefault("translate.model", "llama-3.3-70b-versatile")
	v.SetDefault("translate.base_url", "https://api.groq.com/openai/v1")
	v.SetDefault("translate.max_tokens", 1024)
	v.SetDefault("gemini_api_key", "")
	v.SetDefault("gemini.model", "")
	v.SetDefault("tts.provider", "elevenlabs")
	v.SetDefault("elevenlabs_api_key", "")
	v.SetDefault("elevenlabs.voice", "21m00Tcm4TlvDq8ikWAM")
	v.SetDefault("elevenlabs.model", "eleven_turbo_v2_5")
	v.SetDefault("openai_api_key", "")
	v.SetDefault("openai.voice", "alloy")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.base_url", "")

	v.SetDefault("console.addr", "127.0.0.1:8090")
}

// Load reads settings from v, filling store paths under the user's vaani
// directory.
func Load(v *viper.Viper) (Settings, error) {
	s := Settings{
		BackendURL: v.GetString("backend.url"),
		Timeout:    v.GetDuration("backend.timeout"),
		Voice:      v.GetString("backend.voice"),
		Languages: lang.Pair{
			Source: v.GetString("languages.source"),
			Target: v.GetString("languages.target"),
		},
		Store: kv.Options{
			Driver:      v.GetString("store.driver"),
			Path:        v.GetString("store.path"),
			DatabaseURL: v.GetString("store.database_url"),
		},
		Player: v.GetString("playback.player"),
		Capture: CaptureSettings{
			FFmpeg:      v.GetString("capture.ffmpeg"),
			InputFormat: v.GetString("capture.format"),
			Input:       v.GetString("capture.device"),
		},
		LogLevel: v.GetString("log.level"),
		LogFile:  v.GetString("log.file"),
		Telemetry: telemetry.Config{
			Enabled:  v.GetBool("telemetry.enabled"),
			Endpoint: v.GetString("telemetry.endpoint"),
			Insecure: v.GetBool("telemetry.insecure"),
		},
		Serve: ServeSettings{
			Addr:               v.GetString("serve.addr"),
			STTModel:           v.GetString("stt.model"),
			STTBaseURL:         v.GetString("stt.base_url"),
			STTAPIKey:          v.GetString("groq_api_key"),
			Translator:         v.GetString("translate.provider"),
			TranslateModel:     v.GetString("translate.model"),
			TranslateBaseURL:   v.GetString("translate.base_url"),
			TranslateAPIKey:    v.GetString("groq_api_key"),
			TranslateMaxTokens: v.GetInt("translate.max_tokens"),
			GeminiAPIKey:       v.GetString("gemini_api_key"),
			GeminiModel:        v.GetString("gemini.model"),
			Synthesizer:        v.GetString("tts.provider"),
			ElevenLabsAPIKey:   v.GetString("elevenlabs_api_key"),
			ElevenLabsVoice:    v.GetString("elevenlabs.voice"),
			ElevenLabsModel:    v.GetString("elevenlabs.model"),
			OpenAIAPIKey:       v.GetString("openai_api_key"),
			OpenAIVoice:        v.GetString("openai.voice"),
		},
		Console: ConsoleSettings{
			Addr: v.GetString("console.addr"),
		},
	}

	if s.Serve.Translator == "openai" {
		s.Serve.TranslateBaseURL = v.GetString("openai.base_url")
		s.Serve.TranslateAPIKey = s.Serve.OpenAIAPIKey
		s.Serve.TranslateModel = v.GetString("openai.model")
	}

	if err := s.Languages.Validate(); err != nil {
		return Settings{}, fmt.Errorf("languages: %w", err)
	}

	if s.Store.Path == "" {
		dir, err := Dir()
		if err != nil {
			return Settings{}, err
		}
		switch s.Store.Driver {
		case "sqlite":
			s.Store.Path = filepath.Join(dir, "vaani.db")
		default:
			s.Store.Path = filepath.Join(dir, "vaani.json")
		}
	}

	return s, nil
}

// Dir is $HOME/.vaani, where the config file and local records live.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("find home directory: %w", err)
	}
	return filepath.Join(home, ".vaani"), nil
}
