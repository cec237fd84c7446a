// Command geoserver runs the geographic data service.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/DigitalTwins-IS/ms-geo/internal/app"
	"github.com/DigitalTwins-IS/ms-geo/internal/config"
	"github.com/DigitalTwins-IS/ms-geo/pkg/logger"
)

func main() {
	var (
		configFile  = flag.String("config", "", "optional YAML config file (overrides CONFIG_FILE)")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s %s\n", config.ServiceName, config.ServiceVersion)
		return
	}

	if *configFile != "" {
		os.Setenv("CONFIG_FILE", *configFile)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging, config.ServiceName)

	application, err := app.New(cfg, log)
	if err != nil {
		log.WithError(err).Fatalf("failed to start")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		log.WithError(err).Fatalf("server error")
	}
}
