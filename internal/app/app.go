package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"seminar-bot/internal/conversation"
	"seminar-bot/internal/i18n"
	"seminar-bot/internal/integrations/openai"
	"seminar-bot/internal/integrations/paramstore"
	"seminar-bot/internal/lock"
	"seminar-bot/internal/relay"
	"seminar-bot/internal/repository"
	"seminar-bot/internal/usecase"
)

// Transport is the Telegram client surface used by the dispatcher and the relay router.
type Transport interface {
	usecase.Transport
	relay.Sender
}

// Deps are the clients the entry points construct themselves.
type Deps struct {
	Transport Transport
	// Params is optional; it is required only for moderation.
	Params *paramstore.Client
	Logger *slog.Logger
}

// App is a wired bot. Close releases its connections.
type App struct {
	Dispatcher *usecase.Dispatcher
	closers    []func()
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

type builder struct {
	ctx    context.Context
	cfg    Config
	logger *slog.Logger
	app    *App

	awsOnce func() (aws.Config, error)
	rdb     *redis.Client
}

// Build wires the dispatcher for cfg.
func Build(ctx context.Context, cfg Config, deps Deps) (*App, error) {
	if deps.Transport == nil {
		return nil, errors.New("app: transport must not be nil")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	b := &builder{
		ctx:    ctx,
		cfg:    cfg,
		logger: logger,
		app:    &App{},
		awsOnce: sync.OnceValues(func() (aws.Config, error) {
			return awsconfig.LoadDefaultConfig(ctx)
		}),
	}

	app, err := b.build(deps)
	if err != nil {
		b.app.Close()
		return nil, err
	}
	return app, nil
}

func (b *builder) build(deps Deps) (*App, error) {
	sessions, err := b.sessionStore()
	if err != nil {
		return nil, err
	}
	registrations, err := b.registrations()
	if err != nil {
		return nil, err
	}
	locker, err := b.locker()
	if err != nil {
		return nil, err
	}

	texts, err := i18n.New()
	if err != nil {
		return nil, fmt.Errorf("app: texts: %w", err)
	}

	var opts []conversation.Option
	if b.cfg.ModerationEnabled {
		if deps.Params == nil {
			return nil, errors.New("app: moderation needs the parameter store")
		}
		moderator, err := openai.NewClient(deps.Params, deps.Params.Path("open-ai-token"),
			openai.WithModel(b.cfg.ModerationModel),
			openai.WithCategories(b.cfg.ModerationCategories...),
		)
		if err != nil {
			return nil, fmt.Errorf("app: moderator: %w", err)
		}
		opts = append(opts, conversation.WithModerator(moderator))
	}

	machine, err := conversation.NewMachine(texts, registrations, b.cfg.Conversation, opts...)
	if err != nil {
		return nil, fmt.Errorf("app: machine: %w", err)
	}
	router, err := relay.NewRouter(deps.Transport, b.cfg.AdminChatID, b.logger)
	if err != nil {
		return nil, fmt.Errorf("app: router: %w", err)
	}
	dispatcher, err := usecase.NewDispatcher(sessions, machine, router, deps.Transport, locker, texts, b.logger)
	if err != nil {
		return nil, fmt.Errorf("app: dispatcher: %w", err)
	}

	b.app.Dispatcher = dispatcher
	b.logger.Info("bot wired",
		"sessions", b.cfg.SessionBackend,
		"registrations", b.cfg.RegistrationBackend,
		"lock", b.cfg.LockBackend,
		"moderation", b.cfg.ModerationEnabled,
	)
	return b.app, nil
}

func (b *builder) redisClient() *redis.Client {
	if b.rdb == nil {
		b.rdb = redis.NewClient(&redis.Options{
			Addr:     b.cfg.RedisAddr,
			Password: b.cfg.RedisPassword,
			DB:       b.cfg.RedisDB,
		})
		rdb := b.rdb
		b.app.closers = append(b.app.closers, func() { _ = rdb.Close() })
	}
	return b.rdb
}

func (b *builder) dynamo() (*awsdynamodb.Client, error) {
	cfg, err := b.awsOnce()
	if err != nil {
		return nil, fmt.Errorf("app: load AWS config: %w", err)
	}
	return awsdynamodb.NewFromConfig(cfg), nil
}

func (b *builder) sessionStore() (usecase.SessionStore, error) {
	switch b.cfg.SessionBackend {
	case BackendRedis:
		return repository.NewRedisSessionStore(b.redisClient(), 0)
	case BackendDynamoDB:
		db, err := b.dynamo()
		if err != nil {
			return nil, err
		}
		return repository.NewSessionClient(db, b.cfg.SessionTable)
	default:
		return nil, fmt.Errorf("app: unknown session backend %q", b.cfg.SessionBackend)
	}
}

func (b *builder) registrations() (conversation.Registrations, error) {
	switch b.cfg.RegistrationBackend {
	case BackendPostgres:
		pool, err := pgxpool.New(b.ctx, b.cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("app: postgres pool: %w", err)
		}
		b.app.closers = append(b.app.closers, pool.Close)
		store, err := repository.NewPostgresRegistrations(pool)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureSchema(b.ctx); err != nil {
			return nil, err
		}
		return store, nil
	case BackendDynamoDB:
		db, err := b.dynamo()
		if err != nil {
			return nil, err
		}
		return repository.NewRegistrationClient(db, b.cfg.RegistrationTable)
	default:
		return nil, fmt.Errorf("app: unknown registration backend %q", b.cfg.RegistrationBackend)
	}
}

func (b *builder) locker() (usecase.Locker, error) {
	switch b.cfg.LockBackend {
	case BackendRedis:
		return lock.NewRedis(b.redisClient(), 0, b.logger)
	case BackendDynamoDB:
		db, err := b.dynamo()
		if err != nil {
			return nil, err
		}
		return lock.NewDynamo(db, b.cfg.LockTable, 0, b.logger)
	case BackendLocal:
		return lock.NewLocal(), nil
	default:
		return nil, fmt.Errorf("app: unknown lock backend %q", b.cfg.LockBackend)
	}
}
