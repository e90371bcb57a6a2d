package main

import (
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"example.com/me/wsrelay/config"
	"example.com/me/wsrelay/internal/constants"
	"example.com/me/wsrelay/internal/logger"
	"example.com/me/wsrelay/internal/server"
)

func main() {
	var debug bool
	flag.BoolVar(&debug, "debug", false, "Enable debug logging")

	// Load configuration (this will call flag.Parse())
	cfg, err := config.Load()
	if errors.Is(err, config.ErrConfigCreated) {
		logger.Warn(constants.ComponentMain, "%v. Edit it and start the relay again.", err)
		return
	}
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	level, _ := logger.ParseLevel(cfg.Log.Level)
	logger.SetLevel(level)

	// Set debug level after flags are parsed
	if debug {
		logger.SetLevel(logger.LevelDebug)
		logger.Debug(constants.ComponentMain, "Debug logging enabled")
	}

	logger.Info(constants.ComponentMain, "wsrelay v%s", constants.Version)

	srv := server.NewServer(cfg)
	if err := srv.Initialize(); err != nil {
		log.Fatalf("Failed to initialize server: %v", err)
	}

	if err := srv.Start(); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	// Wait for shutdown signal or a fatal listener error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	exitCode := 0
	select {
	case sig := <-sigChan:
		logger.Info(constants.ComponentMain, "Received %s, shutting down relay...", sig)
	case err := <-srv.Errors():
		logger.Error(constants.ComponentMain, "Listener failed: %v", err)
		exitCode = 1
	}

	if err := srv.Stop(); err != nil {
		logger.Error(constants.ComponentMain, "Error stopping server: %v", err)
	}
	os.Exit(exitCode)
}
