// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/essay-engine/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse and export recorded essay runs",
	Long: `History reads the local SQLite store of past runs. Use list to see recent
runs (optionally filtered by a search term), show to print one run, and
export to dump every run as YAML or JSON.`,
}

var historyListCmd = &cobra.Command{
	Use:   "list [search-term]",
	Short: "List recent runs, newest first",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Print the essay and references of one run",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all runs as YAML or JSON",
	RunE:  runHistoryExport,
}

func init() {
	historyListCmd.Flags().Int("limit", 20, "maximum number of runs to list")
	historyExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	historyExportCmd.Flags().String("output", "", "write to a file instead of stdout")

	historyCmd.AddCommand(historyListCmd, historyShowCmd, historyExportCmd)
	rootCmd.AddCommand(historyCmd)
}

func openHistory() (*history.Store, error) {
	cfg, err := loadConfig(viper.GetViper(), loadedSecrets, nil)
	if err != nil {
		return nil, err
	}
	return history.Open(cfg.History)
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	var runs []history.Run
	if len(args) == 1 {
		runs, err = store.Search(context.Background(), args[0], limit)
	} else {
		runs, err = store.List(context.Background(), limit)
	}
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}
	fmt.Printf("%-36s  %-20s  %-7s  %-5s  %-5s  %s\n", "ID", "CREATED", "SOURCE", "STYLE", "STATE", "TOPIC")
	for _, r := range runs {
		fmt.Printf("%-36s  %-20s  %-7s  %-5s  %-5s  %s\n",
			r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.Source, r.Style, r.State, r.Topic)
	}
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	run, err := store.Get(context.Background(), args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Topic:   %s\n", run.Topic)
	fmt.Printf("Journal: %s   Style: %s   State: %s\n", run.Source, run.Style, run.State)
	fmt.Printf("Created: %s\n\n", run.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	if run.Essay != "" {
		fmt.Println(run.Essay)
	} else {
		fmt.Println("(no essay)")
	}
	fmt.Println("\nReferences:")
	for _, ref := range run.References {
		fmt.Printf("  %s\n", ref)
	}
	return nil
}

func runHistoryExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")

	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	w := os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("creating export file: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch strings.ToLower(format) {
	case "yaml":
		err = store.ExportYAML(context.Background(), w)
	case "json":
		err = store.ExportJSON(context.Background(), w)
	default:
		return fmt.Errorf("unsupported export format %q: use yaml or json", format)
	}
	if err != nil {
		return err
	}
	if output != "" {
		fmt.Fprintf(os.Stderr, "Exported to %s\n", output)
	}
	return nil
}
