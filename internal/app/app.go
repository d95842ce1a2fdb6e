// Package app wires together all dependencies of the identity service and
// manages its lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/sellora/identity/internal/config"
	"github.com/sellora/identity/internal/event"
	handler "github.com/sellora/identity/internal/handler/http"
	"github.com/sellora/identity/internal/ratelimit"
	"github.com/sellora/identity/internal/repository/postgres"
	redisrepo "github.com/sellora/identity/internal/repository/redis"
	"github.com/sellora/identity/internal/service"
	"github.com/sellora/identity/internal/token"
	"github.com/sellora/identity/migrations"
	"github.com/sellora/identity/pkg/database"
	"github.com/sellora/identity/pkg/health"
	pkgkafka "github.com/sellora/identity/pkg/kafka"
	"github.com/sellora/identity/pkg/middleware"
	"github.com/sellora/identity/pkg/tracing"
)

// App holds the long-lived resources of the identity service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *redis.Client
	producer       *pkgkafka.Producer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates the application with all dependencies wired.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx := context.Background()

	// OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:  "identity",
		Environment:  cfg.Environment,
		OTLPEndpoint: cfg.TracingEndpoint,
		SampleRate:   cfg.TracingSampler,
		Enabled:      cfg.TracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// PostgreSQL connection pool.
	pool, err := database.NewPostgresPool(ctx, cfg.Postgres(), logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	database.RegisterPoolMetrics(pool, "identity")

	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	// Redis for the session cache and rate limiter.
	redisClient, err := database.NewRedisClient(ctx, cfg.Redis())
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	// Kafka producer for domain events and mail requests.
	producer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)

	// Repositories.
	userRepo := postgres.NewUserRepository(pool)
	accountRepo := postgres.NewAccountRepository(pool)
	sessionRepo := postgres.NewSessionRepository(pool)
	verificationRepo := postgres.NewVerificationRepository(pool)
	orgRepo := postgres.NewOrganizationRepository(pool)
	memberRepo := postgres.NewMemberRepository(pool)
	roleRepo := postgres.NewRoleRepository(pool)
	invitationRepo := postgres.NewInvitationRepository(pool)
	sessionCache := redisrepo.NewSessionCache(redisClient, cfg.SessionCacheTTL)

	// Supporting components.
	limiter := ratelimit.New(redisClient, ratelimit.Config{
		Window:      cfg.RateLimitWindow,
		MaxAttempts: cfg.RateLimitMaxAttempts,
	})
	issuer := token.NewIssuer(verificationRepo)
	events := event.NewProducer(producer, logger)

	// Services. The event producer doubles as the mailer; mail requests
	// travel to the notification service over Kafka.
	sessions := service.NewSessionService(sessionRepo, userRepo, sessionCache, service.SessionConfig{
		TTL:      cfg.SessionTTL,
		MinRenew: cfg.SessionMinRenew,
	}, logger)
	authz := service.NewAuthzService(memberRepo, roleRepo, logger)
	accounts := service.NewAccountService(userRepo, accountRepo, sessions, issuer, limiter, events, events, service.AccountConfig{
		VerificationTTL:  cfg.VerificationTTL,
		TrustedProviders: cfg.TrustedProviders,
	}, logger)
	orgs := service.NewOrganizationService(orgRepo, memberRepo, roleRepo, invitationRepo, userRepo, authz, events, events, service.OrganizationConfig{
		InvitationTTL: cfg.InvitationTTL,
	}, logger)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.RegisterCritical("redis", func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})
	healthHandler.RegisterNonCritical("kafka", producer.Ping)

	// HTTP router.
	router := handler.NewRouter(accounts, orgs, sessions, healthHandler, logger, handler.RouterConfig{
		Cookie: handler.CookieConfig{
			Name:   cfg.CookieName,
			Secure: cfg.CookieSecure,
		},
		CORS: middleware.CORSConfig{
			AllowedOrigins: cfg.CORSAllowedOrigins,
			Environment:    cfg.Environment,
		},
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		redis:          redisClient,
		producer:       producer,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// Run starts the HTTP server and blocks until the context is cancelled or the
// server fails.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("http server listening", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully releases all resources in dependency order:
//  1. HTTP server (drain in-flight requests)
//  2. Tracer (flush pending spans)
//  3. Kafka producer
//  4. Redis client
//  5. PostgreSQL pool
func (a *App) Shutdown() error {
	a.logger.Info("shutting down identity service")

	var errs []error

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("http server shutdown: %w", err))
	}

	tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer tracerCancel()
	if err := a.tracerShutdown(tracerCtx); err != nil {
		errs = append(errs, fmt.Errorf("tracer shutdown: %w", err))
	}

	if err := a.producer.Close(); err != nil {
		errs = append(errs, fmt.Errorf("kafka producer close: %w", err))
	}

	if err := a.redis.Close(); err != nil {
		errs = append(errs, fmt.Errorf("redis close: %w", err))
	}

	a.pool.Close()

	return errors.Join(errs...)
}
