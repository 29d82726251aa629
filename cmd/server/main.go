package main

import (
	"context"
	"log"
	"os"

	"github.com/reichert621/instachat/internal/buildinfo"
	"github.com/reichert621/instachat/internal/logging"
	"github.com/reichert621/instachat/internal/server"
	"github.com/reichert621/instachat/internal/server/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("%v", err)
	}

	logger, err := logging.NewServerLogger(cfg.Debug)
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	app, err := server.NewApp(cfg, logger)
	if err != nil {
		log.Printf("%v", err)
		return
	}

	if err := app.Run(context.Background()); err != nil {
		logger.Error(context.Background(), "server stopped with error", "err", err)
		os.Exit(1)
	}

}
