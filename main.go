package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"azure-boards-mcp-server/internal/application"
	"azure-boards-mcp-server/internal/domain"
	"azure-boards-mcp-server/internal/infrastructure"
)

func main() {
	configPath := flag.String("config", "", "Path to optional YAML configuration file")
	flag.Parse()

	config, err := domain.LoadConfig(*configPath)
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	log := newLogger(config.LogLevel)
	log.Info("configuration loaded")

	// The field mapping is static; a broken entry is a programming error
	// caught at startup rather than on the first tool call.
	if err := domain.ValidateFieldMap(); err != nil {
		log.Fatalf("Field mapping validation failed: %v", err)
	}

	httpClient, err := domain.NewAuthenticatedClient(&domain.Credentials{PAT: config.PAT})
	if err != nil {
		log.Fatalf("Failed to create authenticated client: %v", err)
	}

	boardsClient := infrastructure.NewBoardsClient(config.OrganizationURL, httpClient)
	mapper := domain.NewResponseMapper()

	boardsHandler := application.NewBoardsHandler(boardsClient, mapper, config.DefaultProject, config.DefaultTeam)
	router := application.NewRequestRouter(boardsHandler)
	log.WithField("tools", len(router.ListAllTools())).Info("request router initialized")

	var transport domain.Transport
	switch config.Transport.Type {
	case "stdio":
		log.Info("initializing stdio transport")
		transport = domain.NewStdioTransport(log)
	case "http":
		log.WithFields(logrus.Fields{
			"host": config.Transport.HTTP.Host,
			"port": config.Transport.HTTP.Port,
		}).Info("initializing HTTP transport")
		transport = domain.NewHTTPTransport(config.Transport.HTTP.Host, config.Transport.HTTP.Port, log)
	default:
		log.Fatalf("Invalid transport type: %s", config.Transport.Type)
	}

	server := application.NewServer(transport, router, mapper, config, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	errChan := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil {
			errChan <- fmt.Errorf("server failed to start: %w", err)
		}
	}()

	select {
	case sig := <-sigChan:
		log.WithField("signal", sig.String()).Info("shutdown signal received")
		cancel()
	case err := <-errChan:
		log.WithError(err).Error("server error")
		cancel()
		if err := server.Close(); err != nil {
			log.WithError(err).Error("error closing server")
		}
		os.Exit(1)
	}

	if err := server.Close(); err != nil {
		log.WithError(err).Error("error during server shutdown")
		os.Exit(1)
	}

	log.Info("server shutdown complete")
}

// newLogger builds the process logger. Output goes to stderr so stdout
// stays reserved for the stdio transport's JSON-RPC frames.
func newLogger(level string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.JSONFormatter{})

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	log.SetLevel(parsed)

	return log
}
