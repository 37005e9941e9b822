package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"node.town/vaani/config"
)

var (
	logger  *log.Logger
	cfgFile string
	version = "dev"
)

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.AddCommand(talkCmd)
	rootCmd.AddCommand(consoleCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(languagesCmd)
	rootCmd.AddCommand(setupCmd)

	rootCmd.PersistentFlags().
		StringVar(&cfgFile, "config", "", "Config file (default $HOME/.vaani/config.yaml)")
	rootCmd.PersistentFlags().
		String("backend-url", config.DefaultBackendURL, "Speech backend base URL")
	rootCmd.PersistentFlags().String("source", "en", "Source language code")
	rootCmd.PersistentFlags().String("target", "hi", "Target language code")
	rootCmd.PersistentFlags().
		String("store", "file", "Record store driver: memory, file, sqlite or postgres")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level")

	viper.BindPFlag("backend.url", rootCmd.PersistentFlags().Lookup("backend-url"))
	viper.BindPFlag("languages.source", rootCmd.PersistentFlags().Lookup("source"))
	viper.BindPFlag("languages.target", rootCmd.PersistentFlags().Lookup("target"))
	viper.BindPFlag("store.driver", rootCmd.PersistentFlags().Lookup("store"))
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	config.SetDefaults(viper.GetViper())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		if dir, err := config.Dir(); err == nil {
			viper.AddConfigPath(dir)
		}
	}

	viper.SetEnvPrefix("VAANI")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Provider keys also answer to their usual unprefixed names.
	for _, key := range []string{"groq_api_key", "gemini_api_key", "elevenlabs_api_key", "openai_api_key"} {
		viper.BindEnv(key, "VAANI_"+strings.ToUpper(key), strings.ToUpper(key))
	}

	logger = log.New(os.Stderr)

	err := viper.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			fmt.Printf("Error reading config file: %s\n", err)
		}
	}
}

func loadSettings() config.Settings {
	settings, err := config.Load(viper.GetViper())
	if err != nil {
		logger.Fatal("load config", "error", err)
	}
	return settings
}

var rootCmd = &cobra.Command{
	Use:   "vaani",
	Short: "Vaani is a push-to-talk voice translator",
	Long: `Vaani records what you say, has a speech backend transcribe and translate it,
and speaks the translation back.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
