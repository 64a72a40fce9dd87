// Command graphlens-mcp serves the loaded document graph to MCP clients
// over stdio.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"graphlens/internal/config"
	"graphlens/internal/database"
	"graphlens/internal/graph"
	"graphlens/internal/logging"
	"graphlens/internal/mcpserver"
	"graphlens/internal/search"
)

var version = "0.3.0"

func main() {
	configPath := flag.String("config", "", "TOML config file")
	flag.Parse()

	// stdout carries the protocol; logs go to stderr or the configured file.
	boot := logging.New(os.Stderr, false)

	cfg, err := config.Load(*configPath)
	if err != nil {
		boot.Fatal("load config", "err", err)
	}
	logger, closer, err := logging.Open(logging.Params{Debug: cfg.Debug, File: cfg.LogFile}, os.Stderr)
	if err != nil {
		boot.Fatal("open log file", "err", err)
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, closeSrc, err := database.OpenSource(ctx, cfg)
	if err != nil {
		logger.Fatal("open source", "source", cfg.Source, "err", err)
	}
	defer closeSrc()

	store, err := database.NewStore(src, graph.NewNormalizer(cfg.NormalizerOptions()...), logger)
	if err != nil {
		logger.Fatal("create store", "err", err)
	}
	server, err := mcpserver.NewServer(mcpserver.Config{
		ServerName:    "graphlens",
		ServerVersion: version,
		Logger:        logger,
		Search:        search.New(search.WithProperty(cfg.SearchProperty), search.WithNodeSize(cfg.NodeSize)),
	}, store)
	if err != nil {
		logger.Fatal("create server", "err", err)
	}

	logger.Info("serving", "source", cfg.Source, "version", version)
	if err := server.Start(ctx); err != nil && ctx.Err() == nil {
		logger.Error("server stopped", "err", err)
		closeSrc()
		os.Exit(1)
	}
}
