// Package main runs the mail worker for the redis mail transport.
//
// The API server only pushes jobs onto the Redis list named by mail.queue.
// This process pops them and delivers each one through the SMTP relay from
// the same configuration file, so both processes share one config.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/sakif/execmind/internal/config"
	"github.com/sakif/execmind/internal/logging"
	"github.com/sakif/execmind/internal/mail"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := logging.New(cfg.Log)

	if cfg.Mail.SMTPHost == "" {
		logger.Error("mail worker needs mail.smtp_host to deliver")
		os.Exit(1)
	}

	worker, err := mail.NewWorkerFromURL(cfg.Mail.RedisURL, cfg.Mail.Queue, mail.NewSMTPMailer(cfg.Mail), logger)
	if err != nil {
		logger.Error("failed to create mail worker", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer worker.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := worker.Ping(ctx); err != nil {
		logger.Error("mail queue unreachable", slog.String("error", err.Error()))
		worker.Close()
		os.Exit(1)
	}

	// Run blocks until SIGINT or SIGTERM.
	if err := worker.Run(ctx); err != nil {
		logger.Error("mail worker error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
