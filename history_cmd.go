package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"node.town/vaani/etc"
	"node.town/vaani/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent translations",
	Run:   runHistory,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget all recent translations",
	Run:   runHistoryClear,
}

func init() {
	historyCmd.AddCommand(historyClearCmd)
}

func runHistory(cmd *cobra.Command, args []string) {
	settings := loadSettings()
	mainLogger, _, _, dataLogger := createLoggers(settings.LogLevel)

	store, hist, err := openStore(context.Background(), settings, dataLogger)
	if err != nil {
		mainLogger.Fatal("open history", "error", err)
	}
	defer store.Close()

	renderHistory(os.Stdout, hist.All())
}

func runHistoryClear(cmd *cobra.Command, args []string) {
	settings := loadSettings()
	mainLogger, _, _, dataLogger := createLoggers(settings.LogLevel)

	ctx := context.Background()
	store, hist, err := openStore(ctx, settings, dataLogger)
	if err != nil {
		mainLogger.Fatal("open history", "error", err)
	}
	defer store.Close()

	if err := hist.Clear(ctx); err != nil {
		mainLogger.Fatal("clear history", "error", err)
	}
	fmt.Println("History cleared.")
}

func renderHistory(w io.Writer, entries []history.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No history found.")
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Source", "Translation"})
	table.SetBorder(false)
	table.SetCenterSeparator("|")
	table.SetColumnSeparator("|")
	table.SetRowSeparator("-")
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)

	for i, e := range entries {
		table.Append([]string{
			fmt.Sprintf("%d", i+1),
			etc.Truncate(e.Source, 60),
			etc.Truncate(e.Target, 60),
		})
	}

	table.Render()
}
