package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/semla/internal/app"
	"github.com/shrimpsizemoose/semla/internal/export"
)

func main() {
	var configPath = flag.String("config", "config.toml", "Path to config file")
	flag.Parse()

	service, err := app.NewService(*configPath)
	if err != nil {
		logger.Error.Fatalf("Failed to load config: %v", err)
	}
	defer service.Close()

	if !service.Config.GSheet.Enabled {
		logger.Error.Fatalf("GSheet export is not enabled in config")
	}

	exporter, err := export.NewRosterExporter(service.Config, service.Store)
	if err != nil {
		logger.Error.Fatalf("Failed to initialize roster exporter: %v", err)
	}
	defer exporter.Stop()

	logger.Info.Println("Roster exporter started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info.Println("Roster exporter stopped")
}
