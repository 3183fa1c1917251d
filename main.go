package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync() // Flushes buffer, if any

	app := &cli.Command{
		Name:    "watchlist",
		Usage:   "Personal movie watchlist web application",
		Version: "1.0.0",
		Commands: []*cli.Command{
			serveCommand(logger),
			initDBCommand(logger),
			adminCommand(logger),
			forgeCommand(logger),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Error("Application error", zap.Error(err))
		os.Exit(1)
	}
}
