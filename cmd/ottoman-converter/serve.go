// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/ottoman-converter/internal/convert"
	"github.com/pdiddy/ottoman-converter/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the chat web UI and JSON API",
	Long: `Serve starts the chat web UI and the JSON conversion API. Each browser
session gets its own transcript, stored in the history database.

When no knowledge base is configured and ottoman.pdf exists in the working
directory, it is used for every conversion.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig(viper.GetViper())
	applyConversionFlags(cmd, viper.GetViper(), &cfg)

	flags := cmd.Flags()
	if flags.Changed("addr") {
		cfg.Server.Addr, _ = flags.GetString("addr")
	}
	if flags.Changed("rate") {
		cfg.Server.Rate, _ = flags.GetFloat64("rate")
	}
	cfg.Conversion.KnowledgeBase = resolveKnowledgeBase(cfg.Conversion.KnowledgeBase)
	if cfg.Conversion.KnowledgeBase != "" {
		logger.Info("using knowledge base", zap.String("path", cfg.Conversion.KnowledgeBase))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// A missing API key does not stop the server; every conversion then
	// fails as a configuration error and the UI says so.
	var conv server.Converter
	c, err := newConverter(ctx, cfg.AI)
	if err != nil {
		logger.Warn("model backend unavailable", zap.Error(err))
		conv = convert.New(nil, convert.WithLogger(logger))
	} else {
		conv = c
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	return server.New(cfg, conv, store, logger).ListenAndServe(ctx)
}

func init() {
	addConversionFlags(serveCmd, true)
	serveCmd.Flags().String("addr", server.DefaultAddr, "listen address")
	serveCmd.Flags().Float64("rate", 2, "requests per second allowed per client (0 disables limiting)")

	rootCmd.AddCommand(serveCmd)
}
