package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/reelhouse/reeld/internal"
	"github.com/reelhouse/reeld/pkg/logger"
)

var log = logger.Get("Main")

// main is the entry point to the program; the user config is loaded
// (either from the YAML file provided via -config, or purely from the
// environment) and reeld is started. The server runs until an interrupt
// or termination signal is received.
func main() {
	configPath := flag.String("config", "", "path to the YAML config file (optional; environment-only config is used when omitted)")
	logLevel := flag.Int("log-level", logger.INFO.Level(), "minimum log level to emit")
	flag.Parse()

	logger.SetMinLoggingLevel(*logLevel)

	config := internal.ReeldConfig{}
	if *configPath != "" {
		if err := config.LoadFromFile(*configPath); err != nil {
			log.Emit(logger.FATAL, "Failed to load config: %s\n", err.Error())
			os.Exit(1)
		}
	} else if err := config.LoadFromEnv(); err != nil {
		log.Emit(logger.FATAL, "Failed to load config: %s\n", err.Error())
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := internal.New(config).Run(ctx); err != nil {
		log.Emit(logger.FATAL, "reeld has stopped due to error: %s\n", err.Error())
		os.Exit(1)
	}

	log.Emit(logger.STOP, "reeld shutdown complete\n")
}
