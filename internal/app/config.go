// Package app reads the bot's environment configuration and wires its components.
package app

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"seminar-bot/internal/conversation"
	"seminar-bot/internal/domain"
)

const (
	BackendDynamoDB = "dynamodb"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendLocal    = "local"

	defaultTelegramRate = 25
)

// Config is the complete runtime configuration. It is read only by the entry points.
type Config struct {
	ParamPrefix string
	AdminChatID int64

	Conversation conversation.Config

	SessionBackend      string
	SessionTable        string
	RegistrationBackend string
	RegistrationTable   string
	DatabaseURL         string
	LockBackend         string
	LockTable           string
	RedisAddr           string
	RedisPassword       string
	RedisDB             int

	TelegramRatePerSec float64

	ModerationEnabled    bool
	ModerationModel      string
	ModerationCategories []string
}

// LoadConfig reads Config through getenv, typically os.Getenv.
func LoadConfig(getenv func(string) string) (Config, error) {
	env := func(key string) string { return strings.TrimSpace(getenv(key)) }

	cfg := Config{
		ParamPrefix:         env("PARAM_PREFIX"),
		SessionBackend:      orDefault(env("SESSION_BACKEND"), BackendDynamoDB),
		SessionTable:        env("SESSION_TABLE"),
		RegistrationBackend: orDefault(env("REGISTRATION_BACKEND"), BackendDynamoDB),
		RegistrationTable:   env("REGISTRATION_TABLE"),
		DatabaseURL:         env("DATABASE_URL"),
		LockBackend:         orDefault(env("LOCK_BACKEND"), BackendLocal),
		LockTable:           orDefault(env("LOCK_TABLE"), env("SESSION_TABLE")),
		RedisAddr:           env("REDIS_ADDR"),
		RedisPassword:       env("REDIS_PASSWORD"),
		ModerationModel:     env("MODERATION_MODEL"),
	}

	var errs []error
	admin, err := strconv.ParseInt(env("ADMIN_CHAT_ID"), 10, 64)
	if err != nil || admin == 0 {
		errs = append(errs, errors.New("app: ADMIN_CHAT_ID must be a non-zero chat id"))
	}
	cfg.AdminChatID = admin

	cfg.RedisDB = envInt(env("REDIS_DB"), 0)
	cfg.TelegramRatePerSec = envFloat(env("TELEGRAM_RATE_PER_SEC"), defaultTelegramRate)
	cfg.ModerationEnabled, _ = strconv.ParseBool(orDefault(env("MODERATION_ENABLED"), "false"))
	cfg.ModerationCategories = splitList(env("MODERATION_CATEGORIES"), ",")

	cfg.Conversation = conversation.Config{
		Speakers: splitList(env("SPEAKERS"), ";"),
		PlanMedia: map[domain.Locale][]string{
			domain.LocaleRU: splitList(env("PLAN_MEDIA_RU"), ","),
			domain.LocaleUZ: splitList(env("PLAN_MEDIA_UZ"), ","),
		},
		NameMaxLength:     envInt(env("NAME_MAX_LENGTH"), 0),
		QuestionMaxLength: envInt(env("QUESTION_MAX_LENGTH"), 0),
	}

	switch cfg.SessionBackend {
	case BackendDynamoDB:
		if cfg.SessionTable == "" {
			errs = append(errs, errors.New("app: SESSION_TABLE is required for the dynamodb session backend"))
		}
	case BackendRedis:
		if cfg.RedisAddr == "" {
			errs = append(errs, errors.New("app: REDIS_ADDR is required for the redis session backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("app: unknown SESSION_BACKEND %q", cfg.SessionBackend))
	}

	switch cfg.RegistrationBackend {
	case BackendDynamoDB:
		if cfg.RegistrationTable == "" {
			errs = append(errs, errors.New("app: REGISTRATION_TABLE is required for the dynamodb registration backend"))
		}
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			errs = append(errs, errors.New("app: DATABASE_URL is required for the postgres registration backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("app: unknown REGISTRATION_BACKEND %q", cfg.RegistrationBackend))
	}

	switch cfg.LockBackend {
	case BackendLocal:
	case BackendRedis:
		if cfg.RedisAddr == "" {
			errs = append(errs, errors.New("app: REDIS_ADDR is required for the redis lock backend"))
		}
	case BackendDynamoDB:
		if cfg.LockTable == "" {
			errs = append(errs, errors.New("app: LOCK_TABLE or SESSION_TABLE is required for the dynamodb lock backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("app: unknown LOCK_BACKEND %q", cfg.LockBackend))
	}

	if cfg.ModerationEnabled && cfg.ParamPrefix == "" {
		errs = append(errs, errors.New("app: PARAM_PREFIX is required when moderation is enabled"))
	}

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LambdaEnv wraps getenv with the webhook's defaults. Lambda execution environments
// share no memory, so LOCK_BACKEND defaults to dynamodb there.
func LambdaEnv(getenv func(string) string) func(string) string {
	return func(key string) string {
		v := getenv(key)
		if key == "LOCK_BACKEND" && strings.TrimSpace(v) == "" {
			return BackendDynamoDB
		}
		return v
	}
}

// RequireSharedLock rejects the in-process lock for deployments that run more than one
// process at a time.
func (c Config) RequireSharedLock() error {
	if c.LockBackend == BackendLocal {
		return errors.New("app: LOCK_BACKEND=local does not exclude across processes; use dynamodb or redis")
	}
	return nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func envInt(v string, def int) int {
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envFloat(v string, def float64) float64 {
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func splitList(v, sep string) []string {
	var out []string
	for _, item := range strings.Split(v, sep) {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
