package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/billchat/internal/api"
	"github.com/mmynk/billchat/internal/auth"
	"github.com/mmynk/billchat/internal/config"
	"github.com/mmynk/billchat/internal/interpreter"
	"github.com/mmynk/billchat/internal/session"
	"github.com/mmynk/billchat/internal/storage/sqlite"
	"github.com/mmynk/billchat/pkg/logging"
)

func main() {
	logging.Setup()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize SQLite storage
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.DBPath)

	interp := interpreter.NewOpenAIInterpreter(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	sessions := session.NewService(store, interp, cfg.InterpreterTimeout)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenDuration)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", api.New(sessions, jwtManager).Handler())

	// Wrap with h2c for HTTP/2 without TLS
	h2cHandler := h2c.NewHandler(mux, &http2.Server{})

	slog.Info("Server starting", "address", cfg.Bind, "url", fmt.Sprintf("http://localhost%s", cfg.Bind))
	if err := http.ListenAndServe(cfg.Bind, h2cHandler); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
