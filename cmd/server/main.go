package main

import (
	"context"
	"log"
	"os"

	"github.com/minangbatik/batikhub/internal/logging"
	"github.com/minangbatik/batikhub/internal/server"
	"github.com/minangbatik/batikhub/internal/server/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Printf("%v", err)
		os.Exit(2)
	}
	logger := logging.NewJSONLogger(os.Stdout, level)

	app, err := server.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "startup failed", "error", err)
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		logger.Error(ctx, "server exited with error", "error", err)
		os.Exit(1)
	}

}
