package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"chemxplore/internal/ai"
	"chemxplore/internal/app"
	"chemxplore/internal/cache"
	"chemxplore/internal/config"
	"chemxplore/internal/guard"
	"chemxplore/internal/pages"
	"chemxplore/internal/platform/mailer"
	mysqlClient "chemxplore/internal/platform/mysql"
	rabbitmqClient "chemxplore/internal/platform/rabbitmq"
	redisClient "chemxplore/internal/platform/redis"
	"chemxplore/internal/repository"
	"chemxplore/internal/worker"
)

// App owns the server's long-lived clients and services.
type App struct {
	Config *config.Config
	Logger *slog.Logger

	MySQL           *gorm.DB
	Redis           *redis.Client
	MQConn          *amqp.Connection
	AuthEventWorker *worker.AuthEventWorker
	AuthEvents      *repository.AuthEventRepository

	AuthService  *app.AuthService
	RelayService *app.RelayService
	Renderer     *pages.Renderer
	Guard        *guard.Guard

	StartedAt time.Time
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger, StartedAt: time.Now()}
	if err := a.init(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	cfg := a.Config

	renderer, err := pages.NewRenderer()
	if err != nil {
		return err
	}
	a.Renderer = renderer
	a.Guard = guard.New(pages.Routes()...)

	prompt, err := app.LoadSystemPrompt(cfg.Relay.SystemPromptFile)
	if err != nil {
		return err
	}
	a.RelayService = app.NewRelayService(
		ai.NewCompletionClient(time.Duration(cfg.Relay.TimeoutSeconds)*time.Second),
		app.RelayOptions{
			BaseURL:      cfg.Relay.BaseURL,
			Model:        cfg.Relay.Model,
			APIKeyEnv:    cfg.Relay.APIKeyEnv,
			Temperature:  cfg.Relay.Temperature,
			MaxTokens:    cfg.Relay.MaxTokens,
			SystemPrompt: prompt,
		},
		a.Logger.With("component", "relay"),
	)

	if a.MySQL, err = mysqlClient.New(ctx, cfg.MySQLDSN()); err != nil {
		return err
	}
	if err := mysqlClient.Migrate(a.MySQL); err != nil {
		return err
	}

	if a.Redis, err = redisClient.New(ctx, cfg.Redis); err != nil {
		return err
	}

	if a.MQConn, err = rabbitmqClient.New(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.AuthEventQueue); err != nil {
		return err
	}

	a.AuthEvents = repository.NewAuthEventRepository(a.MySQL)
	a.AuthEventWorker = worker.NewAuthEventWorker(
		a.MQConn,
		a.AuthEvents,
		cfg.RabbitMQ.AuthEventQueue,
		a.Logger,
	)
	if err := a.AuthEventWorker.Start(ctx); err != nil {
		return fmt.Errorf("start auth event worker failed: %w", err)
	}

	a.AuthService = app.NewAuthService(
		repository.NewUserRepository(a.MySQL),
		cache.NewSessionCache(a.Redis),
		rabbitmqClient.NewEventPublisher(a.MQConn, cfg.RabbitMQ.AuthEventQueue),
		mailer.NewLogMailer(a.Logger),
		app.AuthOptions{
			JWTSecret:                cfg.Auth.JWTSecret,
			TokenTTL:                 time.Duration(cfg.Auth.JWTExpireMinute) * time.Minute,
			RequireEmailConfirmation: cfg.Auth.RequireEmailConfirmation,
			PublicURL:                cfg.App.PublicURL,
		},
		a.Logger.With("component", "auth"),
	)
	return nil
}

func (a *App) Close() error {
	var closeErr error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.AuthEventWorker != nil {
		a.AuthEventWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MySQL != nil {
		sqlDB, err := a.MySQL.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
