package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"node.town/vaani/console"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Serve the push-to-talk console in a browser",
	Run:   runConsole,
}

func init() {
	consoleCmd.Flags().String("addr", "127.0.0.1:8090", "Address to listen on")
	viper.BindPFlag("console.addr", consoleCmd.Flags().Lookup("addr"))
}

func runConsole(cmd *cobra.Command, args []string) {
	settings := loadSettings()
	mainLogger, talkLogger, httpLogger, dataLogger := createLoggers(settings.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orch, cleanup, err := newOrchestrator(ctx, settings, talkLogger, dataLogger)
	if err != nil {
		mainLogger.Fatal("start session", "error", err)
	}
	defer cleanup()

	srv := console.New(orch, httpLogger)
	defer srv.Close()

	mainLogger.Info("console", "addr", "http://"+settings.Console.Addr, "backend", settings.BackendURL)
	if err := srv.ListenAndServe(ctx, settings.Console.Addr); err != nil {
		mainLogger.Error("console server", "error", err)
	}
}
