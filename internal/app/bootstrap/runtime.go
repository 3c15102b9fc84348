package bootstrap

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

	cacheadapter "github.com/mindscribe/auth-service/internal/adapters/cache"
	eventadapter "github.com/mindscribe/auth-service/internal/adapters/events"
	httpadapter "github.com/mindscribe/auth-service/internal/adapters/http"
	"github.com/mindscribe/auth-service/internal/adapters/notify"
	"github.com/mindscribe/auth-service/internal/adapters/postgres"
	"github.com/mindscribe/auth-service/internal/adapters/security"
	"github.com/mindscribe/auth-service/internal/application"
	"github.com/mindscribe/auth-service/internal/ports"
)

type Runtime struct {
	cfg        Config
	logger     *slog.Logger
	httpServer *http.Server
	outbox     *eventadapter.OutboxWorker
	cleanupFn  func(context.Context)
}

func NewRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)
	logger.Info("bootstrapping auth service", "http_port", cfg.HTTPPort)

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL, cfg.MaxDBConns)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	sqlDB, err := pool.DB()
	if err != nil {
		return nil, fmt.Errorf("gorm sql db: %w", err)
	}

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	redisClient, err := cacheadapter.Connect(ctx, cfg.RedisURL)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("init redis client: %w", err)
	}
	if err := redisClient.Ping(ctx).Err(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	repos := postgres.NewRepositories(pool)
	tokenSigner, err := security.NewJWTSigner(cfg.JWTKeyID, cfg.JWTPrivateKeyPEM, cfg.JWTPublicKeyPEM)
	if err != nil {
		if !cfg.AllowEphemeralJWT {
			_ = sqlDB.Close()
			_ = redisClient.Close()
			return nil, fmt.Errorf("init jwt signer: %w", err)
		}
		logger.Warn("using ephemeral JWT keys for local/dev runtime")
		tokenSigner, err = security.NewEphemeralJWTSigner(cfg.JWTKeyID)
		if err != nil {
			_ = sqlDB.Close()
			_ = redisClient.Close()
			return nil, fmt.Errorf("init ephemeral jwt signer: %w", err)
		}
	}

	var sms ports.SMSSender = notify.NewLoggingSMSSender(logger)
	if cfg.SMSGatewayURL != "" {
		sms = notify.NewHTTPSMSSender(cfg.SMSGatewayURL, cfg.SMSGatewayAPIKey, cfg.SMSSenderID, 10*time.Second)
	}
	var email ports.EmailSender = notify.NewLoggingEmailSender(logger)
	if cfg.EmailGatewayURL != "" {
		email = notify.NewHTTPEmailSender(cfg.EmailGatewayURL, cfg.EmailGatewayAPIKey, cfg.EmailFromAddress, cfg.ResetURLFormat, 10*time.Second)
	}

	svc := application.NewService(application.Dependencies{
		Config: application.Config{
			TOTPIssuer:              cfg.TOTPIssuer,
			FailedLoginThreshold:    cfg.FailedThreshold,
			LockoutDuration:         cfg.LockoutDuration,
			LoginRateLimitThreshold: cfg.LoginRateLimitThreshold,
			LoginRateLimitWindow:    cfg.LoginRateLimitWindow,
			TokenTTL:                cfg.TokenTTL,
			OTPPendingTTL:           cfg.OTPPendingTTL,
			ResetTokenTTL:           cfg.ResetTokenTTL,
			IdempotencyTTL:          cfg.IdempotencyTTL,
		},
		Users:         repos.Users,
		Credentials:   repos.Credentials,
		Recovery:      repos.Recovery,
		LoginAttempts: repos.LoginAttempts,
		Journal:       repos.Journal,
		Outbox:        repos.Outbox,
		Idempotency:   repos.Idempotency,
		Lockouts:      cacheadapter.NewRedisLockoutStore(redisClient),
		Challenges:    cacheadapter.NewRedisOTPChallengeStore(redisClient),
		Hasher:        security.NewBcryptHasher(cfg.BcryptCost),
		TokenSigner:   tokenSigner,
		SMS:           sms,
		Email:         email,
	})

	handler := httpadapter.NewHandler(svc)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           httpadapter.NewRouter(handler),
		ReadHeaderTimeout: 5 * time.Second,
	}

	var publisher ports.EventPublisher = eventadapter.NewLoggingPublisher(logger)
	var closePublisher func() error
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher, err := eventadapter.NewKafkaPublisher(cfg.KafkaBrokers, nil)
		if err != nil {
			_ = sqlDB.Close()
			_ = redisClient.Close()
			return nil, fmt.Errorf("init kafka publisher: %w", err)
		}
		publisher = kafkaPublisher
		closePublisher = kafkaPublisher.Close
	}

	outbox := eventadapter.NewOutboxWorker(
		logger,
		repos.Outbox,
		publisher,
		cfg.OutboxPollInterval,
		cfg.OutboxBatchSize,
		cfg.OutboxClaimTTL,
		cfg.OutboxMaxRetries,
	)

	return &Runtime{
		cfg:        cfg,
		logger:     logger,
		httpServer: httpServer,
		outbox:     outbox,
		cleanupFn: func(ctx context.Context) {
			if closePublisher != nil {
				_ = closePublisher()
			}
			_ = redisClient.Close()
			_ = sqlDB.Close()
		},
	}, nil
}

// RunAPI serves HTTP and the outbox publisher until a shutdown signal.
func (r *Runtime) RunAPI(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		r.logger.Info("http server started", "addr", r.httpServer.Addr)
		if err := r.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		r.logger.Info("outbox worker started")
		if err := r.outbox.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			r.logger.Error("outbox worker stopped", "error", err)
		}
	}()

	select {
	case <-ctx.Done():
		r.logger.Info("shutdown signal received")
	case err := <-errCh:
		r.logger.Error("server failure", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = r.httpServer.Shutdown(shutdownCtx)
	r.cleanupFn(shutdownCtx)
	return nil
}

// RunWorker runs only the outbox publisher loop, for a dedicated worker
// deployment.
func (r *Runtime) RunWorker(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	r.logger.Info("outbox worker started")
	err := r.outbox.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	r.cleanupFn(shutdownCtx)
	return nil
}
