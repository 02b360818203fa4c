package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"seminar-bot/handler"
	"seminar-bot/internal/app"
	"seminar-bot/internal/integrations/paramstore"
	"seminar-bot/internal/integrations/telegram"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	paramPrefix := mustEnv("PARAM_PREFIX")
	if err := run(context.Background(), paramPrefix, logger); err != nil {
		slog.Error("bot failed to start", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, paramPrefix string, logger *slog.Logger) error {
	// ---- Configuration (read only here) ----
	cfg, err := app.LoadConfig(app.LambdaEnv(os.Getenv))
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.RequireSharedLock(); err != nil {
		return err
	}

	// ---- AWS SDK config ----
	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return fmt.Errorf("load AWS config: %w", err)
	}

	// ---- Clients ----
	params, err := paramstore.New(awsssm.NewFromConfig(awsCfg), paramPrefix)
	if err != nil {
		return fmt.Errorf("create SSM client: %w", err)
	}
	token, err := telegram.TokenFromParamStore(ctx, params, params.Path("telegram-token"))
	if err != nil {
		return fmt.Errorf("load telegram token: %w", err)
	}
	secret, err := params.Param(ctx, "webhook-secret")
	if err != nil {
		return fmt.Errorf("load webhook secret: %w", err)
	}
	tg, err := telegram.NewClient(token, telegram.WithRateLimit(cfg.TelegramRatePerSec))
	if err != nil {
		return fmt.Errorf("create telegram client: %w", err)
	}

	// ---- Handler ----
	bot, err := app.Build(ctx, cfg, app.Deps{Transport: tg, Params: params, Logger: logger})
	if err != nil {
		return fmt.Errorf("wire bot: %w", err)
	}
	defer bot.Close()

	h, err := handler.NewHandler(bot.Dispatcher, secret, logger)
	if err != nil {
		return fmt.Errorf("create handler: %w", err)
	}

	lambda.Start(h.Handle)
	return nil
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		slog.Error("required environment variable is not set", "key", key)
		os.Exit(1)
	}
	return v
}
