package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/oseayemenre/bookshelf/internal/config"
	"github.com/oseayemenre/bookshelf/internal/logger"
	"github.com/oseayemenre/bookshelf/internal/mailer"
	"github.com/oseayemenre/bookshelf/internal/queue"
)

func main() {
	envFile := flag.String("env-file", ".env", "optional dotenv file")
	flag.Parse()

	if err := run(*envFile); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(envFile string) error {
	cfg, err := config.Load(envFile)

	if err != nil {
		return err
	}

	logger, err := logger.New(cfg.Env, os.Stderr)

	if err != nil {
		return err
	}

	if cfg.RabbitMQConn == "" {
		return fmt.Errorf("RABBIT_MQ_CONN is required for the mail worker")
	}

	var m mailer.Mailer

	if cfg.SMTPHost != "" {
		smtpMailer, err := mailer.NewSMTPMailer(cfg)

		if err != nil {
			return err
		}

		m = smtpMailer
	} else {
		logger.Warn("mail worker", "status", "SMTP_HOST is unset, emails are only logged")
		m = mailer.NewLogMailer(logger)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("mail worker", "status", "starting")

	if err := queue.Consume(ctx, cfg.RabbitMQConn, m, logger); err != nil {
		return err
	}

	logger.Info("mail worker", "status", "stopped")
	return nil
}
