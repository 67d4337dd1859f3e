// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/essay-engine/internal/search"
	"github.com/pdiddy/essay-engine/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Fetch the references a topic yields without generating an essay",
	Long: `Search queries the selected journal (arXiv, PubMed or Semantic Scholar)
for papers on the topic and prints them. Use --output to save the references
for a later "generate --from" run.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().String("topic", "", "search topic")
	searchCmd.Flags().String("journal", string(types.SourceArxiv), "reference source: arxiv, pubmed or scholar")
	searchCmd.Flags().Int("limit", types.DefaultLimit, "maximum number of papers to fetch")
	searchCmd.Flags().Bool("json", false, "output results as JSON")
	searchCmd.Flags().String("output", "", "save results to a YAML file")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	topic, _ := cmd.Flags().GetString("topic")
	journal, _ := cmd.Flags().GetString("journal")
	asJSON, _ := cmd.Flags().GetBool("json")
	output, _ := cmd.Flags().GetString("output")

	source, err := types.ParseSource(journal)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(viper.GetViper(), loadedSecrets, cmd)
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: cfg.Search.Timeout}
	backend, err := search.NewBackend(source, client, cfg.Search)
	if err != nil {
		return err
	}

	records, fetchErr := search.FetchPaged(context.Background(), backend, topic, cfg.Search.Limit, cfg.Search.PageSize)
	if fetchErr != nil && len(records) == 0 {
		return fetchErr
	}
	if fetchErr != nil {
		fmt.Fprintf(os.Stderr, "warning: %v (showing %d partial results)\n", fetchErr, len(records))
	}

	if output != "" {
		if err := search.WriteResultFile(output, topic, source, cfg.Search.Limit, records, fetchErr); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Results written to %s\n", output)
	}

	if asJSON {
		return search.FormatJSON(records, os.Stdout)
	}
	search.FormatTable(records, os.Stdout)
	return nil
}
