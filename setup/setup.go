// Package setup walks the user through a first configuration and writes
// it to config.yaml.
package setup

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/log"
	"github.com/spf13/viper"

	"node.town/vaani/kv"
	"node.town/vaani/lang"
)

// Answers are the values the form collects.
type Answers struct {
	BackendURL  string
	Source      string
	Target      string
	StoreDriver string
	DatabaseURL string
	Player      string

	GroqAPIKey       string
	ElevenLabsAPIKey string
}

// FromViper prefills answers with what is already configured.
func FromViper(v *viper.Viper) Answers {
	return Answers{
		BackendURL:       v.GetString("backend.url"),
		Source:           v.GetString("languages.source"),
		Target:           v.GetString("languages.target"),
		StoreDriver:      v.GetString("store.driver"),
		DatabaseURL:      v.GetString("store.database_url"),
		Player:           v.GetString("playback.player"),
		GroqAPIKey:       v.GetString("groq_api_key"),
		ElevenLabsAPIKey: v.GetString("elevenlabs_api_key"),
	}
}

func languageOptions() []huh.Option[string] {
	var options []huh.Option[string]
	for _, l := range lang.All() {
		options = append(options, huh.NewOption(l.Name, l.Code))
	}
	return options
}

func validateURL(s string) error {
	u, err := url.Parse(s)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("backend URL must be http or https")
	}
	if u.Host == "" {
		return errors.New("backend URL needs a host")
	}
	return nil
}

// Form builds the questionnaire bound to a.
func Form(a *Answers) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Speech backend URL").
				Value(&a.BackendURL).
				Validate(validateURL),
			huh.NewSelect[string]().
				Title("I speak").
				Options(languageOptions()...).
				Value(&a.Source),
			huh.NewSelect[string]().
				Title("Translate into").
				Options(languageOptions()...).
				Value(&a.Target),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Where should history be kept?").
				Options(
					huh.NewOption("JSON file", "file"),
					huh.NewOption("SQLite", "sqlite"),
					huh.NewOption("Postgres", "postgres"),
					huh.NewOption("Nowhere (memory only)", "memory"),
				).
				Value(&a.StoreDriver),
			huh.NewSelect[string]().
				Title("Audio player").
				Options(
					huh.NewOption("First one found", ""),
					huh.NewOption("ffplay", "ffplay"),
					huh.NewOption("mpv", "mpv"),
				).
				Value(&a.Player),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Postgres connection URL").
				Value(&a.DatabaseURL),
		).WithHideFunc(func() bool {
			return a.StoreDriver != "postgres"
		}),
		huh.NewGroup(
			huh.NewInput().
				Title("Groq API key (only for vaani serve)").
				EchoMode(huh.EchoModePassword).
				Value(&a.GroqAPIKey),
			huh.NewInput().
				Title("ElevenLabs API key (only for vaani serve)").
				EchoMode(huh.EchoModePassword).
				Value(&a.ElevenLabsAPIKey),
		),
	)
}

// Apply copies answers into v.
func Apply(v *viper.Viper, a Answers) error {
	pair := lang.Pair{Source: a.Source, Target: a.Target}
	if err := pair.Validate(); err != nil {
		return err
	}

	v.Set("backend.url", a.BackendURL)
	v.Set("languages.source", a.Source)
	v.Set("languages.target", a.Target)
	v.Set("store.driver", a.StoreDriver)
	if a.DatabaseURL != "" {
		v.Set("store.database_url", a.DatabaseURL)
	}
	v.Set("playback.player", a.Player)
	if a.GroqAPIKey != "" {
		v.Set("groq_api_key", a.GroqAPIKey)
	}
	if a.ElevenLabsAPIKey != "" {
		v.Set("elevenlabs_api_key", a.ElevenLabsAPIKey)
	}
	return nil
}

// Write saves v as YAML at path, creating the directory.
func Write(v *viper.Viper, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Run asks the questions, checks a Postgres store is reachable, and writes
// path.
func Run(ctx context.Context, v *viper.Viper, path string, logger *log.Logger) error {
	logger.Info("Starting vaani setup...")

	answers := FromViper(v)
	for {
		if err := Form(&answers).Run(); err != nil {
			return fmt.Errorf("setup form: %w", err)
		}

		if answers.StoreDriver != "postgres" {
			break
		}

		store, err := kv.Open(ctx, kv.Options{Driver: "postgres", DatabaseURL: answers.DatabaseURL}, logger)
		if err == nil {
			store.Close()
			logger.Info("Successfully connected to the database")
			break
		}

		logger.Error("Failed to connect to database", "error", err)
		retry := false
		huh.NewConfirm().
			Title("Do you want to change your answers?").
			Value(&retry).
			Run()
		if !retry {
			return errors.New("database connection is required for the postgres store")
		}
	}

	if err := Apply(v, answers); err != nil {
		return err
	}
	if err := Write(v, path); err != nil {
		return err
	}

	logger.Info("Setup completed successfully!", "config", path)
	return nil
}
