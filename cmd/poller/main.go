// Command poller runs the bot with getUpdates long polling instead of the webhook.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"seminar-bot/internal/app"
	"seminar-bot/internal/integrations/paramstore"
	"seminar-bot/internal/integrations/telegram"
)

const (
	pollTimeout  = 30 * time.Second
	retryBackoff = 3 * time.Second
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		slog.Error("poller failed", "err", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig(os.Getenv)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	var params *paramstore.Client
	if cfg.ParamPrefix != "" {
		awsCfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return fmt.Errorf("load AWS config: %w", err)
		}
		params, err = paramstore.New(awsssm.NewFromConfig(awsCfg), cfg.ParamPrefix)
		if err != nil {
			return fmt.Errorf("create SSM client: %w", err)
		}
	}

	token := os.Getenv("TELEGRAM_TOKEN")
	if token == "" && params != nil {
		token, err = telegram.TokenFromParamStore(ctx, params, params.Path("telegram-token"))
		if err != nil {
			return fmt.Errorf("load telegram token: %w", err)
		}
	}
	tg, err := telegram.NewClient(token,
		telegram.WithRateLimit(cfg.TelegramRatePerSec),
		telegram.WithHTTPClient(&http.Client{Timeout: pollTimeout + 10*time.Second}),
	)
	if err != nil {
		return fmt.Errorf("create telegram client: %w", err)
	}

	bot, err := app.Build(ctx, cfg, app.Deps{Transport: tg, Params: params, Logger: logger})
	if err != nil {
		return fmt.Errorf("wire bot: %w", err)
	}
	defer bot.Close()

	if err := tg.DeleteWebhook(ctx); err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}

	slog.Info("polling for updates")
	var offset int64
	for ctx.Err() == nil {
		updates, err := tg.GetUpdates(ctx, offset, pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			wait := retryBackoff
			var apiErr *telegram.APIError
			if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
				wait = apiErr.RetryAfter
			}
			slog.Warn("getUpdates failed", "err", err, "retry_in", wait)
			sleep(ctx, wait)
			continue
		}
		offset = dispatchBatch(ctx, bot.Dispatcher, updates, offset, logger)
	}
	slog.Info("poller stopped")
	return nil
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
