package main

import (
	"context"
	"io"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"node.town/vaani/config"
	"node.town/vaani/lang"
)

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List the languages vaani can translate between",
	Run:   runLanguages,
}

func runLanguages(cmd *cobra.Command, args []string) {
	settings := loadSettings()
	mainLogger, _, _, dataLogger := createLoggers(settings.LogLevel)

	store, _, err := openStore(context.Background(), settings, dataLogger)
	if err != nil {
		mainLogger.Fatal("open store", "error", err)
	}
	defer store.Close()

	pair := config.NewPreferences(store).Languages(context.Background(), settings.Languages)
	renderLanguages(os.Stdout, pair)
}

func renderLanguages(w io.Writer, pair lang.Pair) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Code", "Language", "Selected"})
	table.SetBorder(false)
	table.SetCenterSeparator("|")
	table.SetColumnSeparator("|")
	table.SetRowSeparator("-")
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)

	for _, l := range lang.All() {
		selected := ""
		switch l.Code {
		case pair.Source:
			selected = "source"
		case pair.Target:
			selected = "target"
		}
		table.Append([]string{l.Code, l.Name, selected})
	}

	table.Render()
}
