package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/reichert621/instachat/internal/buildinfo"
	"github.com/reichert621/instachat/internal/client/cli"
	"github.com/reichert621/instachat/internal/client/config"
	"github.com/reichert621/instachat/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logging.NewConsoleLogger(os.Stderr, cfg.Debug)

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := app.Run(ctx); err != nil {
		log.Fatalf("%v", err)
	}

}
