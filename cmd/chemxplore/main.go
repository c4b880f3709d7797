package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"chemxplore/internal/chat"
	"chemxplore/internal/config"
	"chemxplore/internal/guard"
	"chemxplore/internal/identity"
	"chemxplore/internal/pages"
	"chemxplore/internal/telemetry"
	"chemxplore/internal/terminal"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	var (
		serverURL   string
		sessionFile string
		logLevel    string
	)
	flag.StringVar(&serverURL, "server", cfg.Client.ServerURL, "ChemXplore server URL")
	flag.StringVar(&sessionFile, "session", cfg.Client.SessionFile, "file holding the signed-in session")
	flag.StringVar(&logLevel, "log-level", cfg.Log.Level, "log level (debug, info, warn, error)")
	flag.Parse()
	cfg.Log.Level = logLevel

	logger, logCloser, err := telemetry.InitFileLogger(cfg.Log, "chemxplore-client.log")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logCloser.Close()

	if dir := filepath.Dir(sessionFile); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create session directory: %v\n", err)
			os.Exit(1)
		}
	}

	renderer, err := pages.NewRenderer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load pages: %v\n", err)
		os.Exit(1)
	}

	term := terminal.New(terminal.Options{
		Provider:   identity.NewClient(serverURL, identity.NewFileStorage(sessionFile)),
		Relayer:    chat.NewRelayClient(serverURL),
		Renderer:   renderer,
		Guard:      guard.New(pages.Routes()...),
		RedirectTo: strings.TrimRight(serverURL, "/") + guard.HomeRoute,
		In:         os.Stdin,
		Out:        os.Stdout,
		Logger:     logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("client starting", "server", serverURL)
	if err := term.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("client stopped", "error", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
