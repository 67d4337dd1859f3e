// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/essay-engine/internal/cite"
	"github.com/pdiddy/essay-engine/internal/history"
	"github.com/pdiddy/essay-engine/internal/pipeline"
	"github.com/pdiddy/essay-engine/internal/search"
	"github.com/pdiddy/essay-engine/pkg/types"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate an essay on a topic with a reference list",
	Long: `Generate searches the selected journal for papers on the topic, retrieves
their full text, summarizes each paper and composes an essay. The reference
list covers every fetched paper in the chosen citation style, including
papers whose text could not be retrieved.

When no paper text can be retrieved, no essay is produced and only the
references are printed.

Use --from with a file written by "search --output" to reuse a saved set of
references instead of querying the journal again.`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().String("topic", "", "essay topic (required unless --from is set)")
	generateCmd.Flags().String("journal", string(types.SourceArxiv), "reference source: arxiv, pubmed or scholar")
	generateCmd.Flags().String("style", string(types.StyleMLA), "citation style: mla or apa")
	generateCmd.Flags().Int("limit", types.DefaultLimit, "maximum number of papers to fetch")
	generateCmd.Flags().String("provider", "", "generation provider: openai or anthropic")
	generateCmd.Flags().String("model", "", "generation model")
	generateCmd.Flags().Int("words", types.DefaultWordCount, "target essay length in words (1000-1500)")
	generateCmd.Flags().String("pdf-backend", "", "PDF text extraction: native or markitdown")
	generateCmd.Flags().Bool("json", false, "print the result as JSON")
	generateCmd.Flags().String("output", "", "write the full run (essay, references, outcomes) to a YAML file")
	generateCmd.Flags().String("csl", "", "write the references as CSL-YAML to this file")
	generateCmd.Flags().String("bib", "", "write the references as BibTeX to this file")
	generateCmd.Flags().String("from", "", "replay references from a search result file")
	generateCmd.Flags().Bool("no-history", false, "do not record this run in the history store")

	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	topic, _ := cmd.Flags().GetString("topic")
	journal, _ := cmd.Flags().GetString("journal")
	styleName, _ := cmd.Flags().GetString("style")
	from, _ := cmd.Flags().GetString("from")

	source, err := types.ParseSource(journal)
	if err != nil {
		return err
	}
	style, err := types.ParseStyle(styleName)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(viper.GetViper(), loadedSecrets, cmd)
	if err != nil {
		return err
	}

	deps := pipeline.Deps{Out: os.Stderr}
	if from != "" {
		rf, err := search.ReadResultFile(from)
		if err != nil {
			return err
		}
		if topic == "" {
			topic = rf.Topic
		}
		source = rf.Source
		cfg.Search.Limit = replayLimit(rf, cmd.Flags().Changed("limit"), cfg.Search.Limit)
		deps.Backends = func(types.Source) (search.Backend, error) {
			return &search.FileBackend{File: rf}, nil
		}
	}
	if strings.TrimSpace(topic) == "" {
		return fmt.Errorf("--topic is required")
	}

	if cfg.History.Enabled {
		store, err := history.Open(cfg.History)
		if err != nil {
			return err
		}
		defer store.Close()
		deps.History = store
	}

	p, err := pipeline.New(cfg, deps)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := p.Run(ctx, topic, source, style)
	if err != nil {
		return err
	}

	if err := writeExports(cmd, res); err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return writeResultJSON(res, os.Stdout)
	}
	writeResultText(res, os.Stdout)
	return nil
}

// replayLimit is the record limit for a run replayed from rf. Without an
// explicit --limit every saved record is replayed.
func replayLimit(rf *search.ResultFile, explicit bool, limit int) int {
	if explicit || len(rf.Records) == 0 {
		return limit
	}
	return len(rf.Records)
}

func writeExports(cmd *cobra.Command, res *pipeline.Result) error {
	if path, _ := cmd.Flags().GetString("output"); path != "" {
		if err := pipeline.WriteRunFile(path, res); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Run written to %s\n", path)
	}
	if path, _ := cmd.Flags().GetString("csl"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating CSL file: %w", err)
		}
		defer f.Close()
		if err := cite.WriteCSL(res.Records, f); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "CSL references written to %s\n", path)
	}
	if path, _ := cmd.Flags().GetString("bib"); path != "" {
		if err := os.WriteFile(path, []byte(cite.BibTeX(res.Records)), 0o644); err != nil {
			return fmt.Errorf("writing BibTeX file: %w", err)
		}
		fmt.Fprintf(os.Stderr, "BibTeX references written to %s\n", path)
	}
	return nil
}

// resultJSON is the --json form of a run.
type resultJSON struct {
	State      string              `json:"state"`
	Essay      string              `json:"essay,omitempty"`
	Message    string              `json:"message,omitempty"`
	References []string            `json:"references"`
	Records    []types.PaperRecord `json:"records"`
	Failures   []string            `json:"failures"`
	FetchError string              `json:"fetch_error,omitempty"`
	RunID      string              `json:"run_id,omitempty"`
}

func writeResultJSON(res *pipeline.Result, w io.Writer) error {
	out := resultJSON{
		State:      string(res.State),
		References: res.References,
		Records:    res.Records,
		Failures:   []string{},
		RunID:      res.RunID,
	}
	if out.References == nil {
		out.References = []string{}
	}
	if out.Records == nil {
		out.Records = []types.PaperRecord{}
	}
	if res.HasEssay() {
		out.Essay = res.Essay
	} else {
		out.Message = types.NoEssayMessage
	}
	for _, o := range res.Failures() {
		out.Failures = append(out.Failures, o.Err.Error())
	}
	if res.FetchErr != nil {
		out.FetchError = res.FetchErr.Error()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func writeResultText(res *pipeline.Result, w io.Writer) {
	fmt.Fprintln(w, res.EssayText())
	fmt.Fprintln(w)
	fmt.Fprintln(w, "References:")
	if len(res.References) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, ref := range res.References {
		fmt.Fprintf(w, "  %s\n", ref)
	}
}
