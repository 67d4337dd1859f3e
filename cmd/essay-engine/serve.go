// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/essay-engine/internal/history"
	"github.com/pdiddy/essay-engine/internal/pipeline"
	"github.com/pdiddy/essay-engine/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web front end",
	Long: `Serve starts an HTTP server with an essay form at /, the form target
POST /generate_essay, a JSON endpoint POST /api/essays and a health check at
/healthz. Requests run concurrently through one shared pipeline.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default :8080)")
	serveCmd.Flags().String("provider", "", "generation provider: openai or anthropic")
	serveCmd.Flags().String("model", "", "generation model")
	serveCmd.Flags().Bool("no-history", false, "do not record runs in the history store")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper(), loadedSecrets, cmd)
	if err != nil {
		return err
	}

	deps := pipeline.Deps{Out: os.Stderr}
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return web.NewServer(p, os.Stderr).ListenAndServe(ctx, cfg.Server.Addr)
}
