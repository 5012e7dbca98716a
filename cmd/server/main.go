package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xeot403/chatx/internal/chat"
	"github.com/xeot403/chatx/internal/server"
	"github.com/xeot403/chatx/internal/store"
)

func main() {
	addr := flag.String("addr", ":8080", "Address to listen on (e.g., :8080)")
	dbPath := flag.String("db", "chatx.db", "Path to the sqlite database file")
	staticDir := flag.String("static", "static", "Directory with the web client files")
	flag.Parse()

	// Environment wins over flags for deployment parity.
	if env := os.Getenv("CHATX_DB_PATH"); env != "" {
		*dbPath = env
	}

	logger := newLogger(os.Getenv("CHATX_LOG_LEVEL"))
	defer func() { _ = logger.Sync() }()

	users, err := store.Open(*dbPath, logger)
	if err != nil {
		logger.Fatal("failed to open user store", zap.Error(err))
	}
	defer users.Close()

	registry := chat.NewRegistry(logger)
	srv := server.New(server.Config{
		Addr:      *addr,
		StaticDir: *staticDir,
	}, registry, users, logger)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		if err != nil {
			logger.Fatal("server error", zap.Error(err))
		}
	case sig := <-sigChan:
		logger.Info("shutting down", zap.String("signal", sig.String()))
		srv.Stop()
	}

	logger.Info("server stopped")
}

func newLogger(level string) *zap.Logger {
	config := zap.NewProductionConfig()
	if level != "" {
		if parsed, err := zapcore.ParseLevel(level); err == nil {
			config.Level = zap.NewAtomicLevelAt(parsed)
		}
	}
	logger, err := config.Build()
	if err != nil {
		panic(err)
	}
	return logger
}
