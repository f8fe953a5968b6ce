package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"

	mcpadapter "github.com/kirillkom/hr-onboarding/internal/adapters/mcp"
	"github.com/kirillkom/hr-onboarding/internal/bootstrap"
	"github.com/kirillkom/hr-onboarding/internal/config"
	"github.com/kirillkom/hr-onboarding/internal/observability/logging"
)

func main() {
	cfg := config.Load()
	// Stdout carries the MCP protocol, so logs go to stderr.
	slog.SetDefault(logging.NewJSONLoggerTo(os.Stderr, "mcp", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	srv := mcpadapter.NewServer(mcpadapter.NewTools(app.CandidateUC, app.VerificationUC))
	if err := server.ServeStdio(srv); err != nil {
		slog.Error("mcp_server_failed", "error", err)
	}
}
