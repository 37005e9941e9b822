package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"node.town/vaani/tui"
)

var talkCmd = &cobra.Command{
	Use:   "talk",
	Short: "Translate speech in the terminal",
	Long:  `Press space to start talking and space again to hear the translation.`,
	Run:   runTalk,
}

func runTalk(cmd *cobra.Command, args []string) {
	settings := loadSettings()

	if err := initFileLogger(settings.LogFile); err != nil {
		logger.Fatal("init file logger", "error", err)
	}
	defer closeFileLogger()

	mainLogger, talkLogger, _, dataLogger := createLoggers(settings.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orch, cleanup, err := newOrchestrator(ctx, settings, talkLogger, dataLogger)
	if err != nil {
		mainLogger.Fatal("start session", "error", err)
	}
	defer cleanup()

	mainLogger.Info("talk", "backend", settings.BackendURL, "languages", orch.Languages())

	if err := tui.Run(ctx, orch, talkLogger); err != nil {
		mainLogger.Error("terminal interface", "error", err)
	}
}
