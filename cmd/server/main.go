package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/Tyrowin/chatrelay/internal/chat"
	"github.com/Tyrowin/chatrelay/internal/server"
	"github.com/Tyrowin/chatrelay/internal/storage"
	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	config, err := server.NewConfigFromEnv()
	if err != nil {
		return err
	}
	log := server.NewLogger(config.LogLevel, os.Stderr)

	store := storage.NewFileStore(config.MessagesFile, log)
	store.LoadAll()

	handler := chat.NewHandler(store, log)
	hub := server.NewHub(handler, log)
	server.StartHub(hub)

	httpServer := server.CreateServer(config.Addr(), server.SetupRoutes(hub, config, log))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.StartServer(httpServer, log)
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		if err != nil {
			_ = hub.Shutdown(config.ShutdownTimeout)
			return fmt.Errorf("http server: %w", err)
		}
	}

	if err := server.ShutdownServer(httpServer, config.ShutdownTimeout, log); err != nil {
		return err
	}
	if err := hub.Shutdown(config.ShutdownTimeout); err != nil {
		return fmt.Errorf("hub shutdown: %w", err)
	}
	log.Info("Server stopped cleanly", "messages", len(store.Snapshot()))
	return nil
}
