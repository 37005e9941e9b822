package main

import (
	"context"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"node.town/vaani/config"
	"node.town/vaani/setup"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Write a config file interactively",
	Run:   runSetup,
}

func runSetup(cmd *cobra.Command, args []string) {
	path := viper.ConfigFileUsed()
	if path == "" {
		dir, err := config.Dir()
		if err != nil {
			logger.Fatal("config dir", "error", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}

	if err := setup.Run(context.Background(), viper.GetViper(), path, logger); err != nil {
		logger.Fatal("setup", "error", err)
	}
}
