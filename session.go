package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"node.town/vaani/capture"
	"node.town/vaani/config"
	"node.town/vaani/history"
	"node.town/vaani/kv"
	"node.town/vaani/pipeline"
	"node.town/vaani/playback"
	"node.town/vaani/remote"
	"node.town/vaani/telemetry"
)

// openStore opens the record store and the history kept in it.
func openStore(ctx context.Context, s config.Settings, dataLogger *log.Logger) (kv.Store, *history.Store, error) {
	if s.Store.Driver == "sqlite" {
		if err := os.MkdirAll(filepath.Dir(s.Store.Path), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create store dir: %w", err)
		}
	}

	store, err := kv.Open(ctx, s.Store, dataLogger)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}

	hist, err := history.Open(ctx, store, dataLogger)
	if err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("open history: %w", err)
	}
	return store, hist, nil
}

// newOrchestrator wires capture, the remote client, playback, history and
// telemetry into one session. The returned func releases everything.
func newOrchestrator(
	ctx context.Context,
	s config.Settings,
	talkLogger, dataLogger *log.Logger,
) (*pipeline.Orchestrator, func(), error) {
	store, hist, err := openStore(ctx, s, dataLogger)
	if err != nil {
		return nil, nil, err
	}

	prefs := config.NewPreferences(store)
	languages := prefs.Languages(ctx, s.Languages)

	device := capture.NewFFmpegDevice(talkLogger)
	device.Binary = s.Capture.FFmpeg
	if s.Capture.InputFormat != "" {
		device.InputFormat = s.Capture.InputFormat
	}
	if s.Capture.Input != "" {
		device.Input = s.Capture.Input
	}
	capturer := capture.NewSession(device, capture.DefaultFormat, talkLogger)

	client := remote.NewClient(
		s.BackendURL,
		remote.WithTimeout(s.Timeout),
		remote.WithVoice(s.Voice),
		remote.WithLogger(talkLogger),
	)

	var player pipeline.Player = playback.Noop{}
	execPlayer, err := playback.NewExecPlayer(s.Player, talkLogger)
	switch {
	case err == nil:
		player = execPlayer
	case errors.Is(err, playback.ErrNoPlayer):
		talkLogger.Warn("no audio player found, translations will not be spoken", "error", err)
	default:
		store.Close()
		return nil, nil, err
	}

	recorder, err := telemetry.New(ctx, s.Telemetry)
	if err != nil {
		talkLogger.Warn("telemetry disabled", "error", err)
		recorder = telemetry.NewNoOp()
	}

	orch := pipeline.New(capturer, client, hist, pipeline.Options{
		Languages: languages,
		Player:    player,
		Saver:     prefs,
		Recorder:  recorder,
		Logger:    talkLogger,
	})

	cleanup := func() {
		if capturer.Recording() {
			if _, err := capturer.Stop(context.Background()); err != nil {
				talkLogger.Debug("stop capture", "error", err)
			}
		}
		if execPlayer != nil {
			execPlayer.Stop()
		}
		if err := recorder.Close(context.Background()); err != nil {
			talkLogger.Warn("close telemetry", "error", err)
		}
		if err := store.Close(); err != nil {
			dataLogger.Warn("close store", "error", err)
		}
	}
	return orch, cleanup, nil
}
