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

	"github.com/loanlink/backend/internal/auth"
	"github.com/loanlink/backend/internal/config"
	"github.com/loanlink/backend/internal/domain/application"
	"github.com/loanlink/backend/internal/domain/loan"
	"github.com/loanlink/backend/internal/domain/user"
	"github.com/loanlink/backend/internal/http/handlers"
	"github.com/loanlink/backend/internal/observability"
	"github.com/loanlink/backend/internal/payment"
	"github.com/loanlink/backend/internal/ratelimit"
	"github.com/loanlink/backend/internal/repository/memory"
	redisrepo "github.com/loanlink/backend/internal/repository/redis"
	"github.com/loanlink/backend/internal/server"
	"github.com/loanlink/backend/internal/storage"
	"github.com/loanlink/backend/internal/ws"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := observability.NewLogger(cfg.Env)

	startCtx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
	defer cancel()

	st, err := openStores(startCtx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.close()

	var (
		sessions auth.SessionRepository = memory.NewSessionRepository()
		cache    handlers.Pinger
		limiter  *ratelimit.FixedWindowLimiter
	)
	if cfg.RedisAddr != "" {
		rdb := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		defer rdb.Close()
		if err := rdb.Ping(startCtx).Err(); err != nil {
			return fmt.Errorf("ping redis: %w", err)
		}
		sessions = redisrepo.NewSessionRepository(rdb)
		cache = handlers.PingerFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
		if cfg.RateLimitEnabled {
			limiter, err = ratelimit.NewFixedWindowLimiter(rdb, "loanlink:ratelimit", cfg.RateLimitPerMin, time.Minute)
			if err != nil {
				return err
			}
		}
		logger.Info("connected to redis", "addr", cfg.RedisAddr)
	} else {
		logger.Warn("REDIS_ADDR not set; sessions are kept in memory and rate limiting is off")
	}

	metrics := observability.NewMetrics()
	hub := ws.NewHub()
	notifier := ws.NewNotifier(hub, metrics, logger)

	userService := user.NewService(st.users)
	loanService := loan.NewService(st.loans)

	var payments interface {
		application.PaymentProvider
		handlers.WebhookParser
	} = payment.Disabled{}
	if cfg.StripeSecretKey != "" {
		stripeProvider, err := payment.NewStripeProvider(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
		if err != nil {
			return err
		}
		payments = stripeProvider
	} else {
		logger.Warn("STRIPE_SECRET_KEY not set; application fees are disabled")
	}

	appService := application.NewService(
		st.applications,
		application.LoanLookupFunc(func(ctx context.Context, id string) (*application.LoanSummary, error) {
			l, err := loanService.Get(ctx, id)
			if err != nil {
				return nil, err
			}
			return &application.LoanSummary{ID: l.ID, Title: l.Title, InterestRate: l.InterestRate}, nil
		}),
		payments,
		notifier,
		application.Fee{AmountMinor: cfg.ApplicationFeeMinor, Currency: cfg.ApplicationFeeCurrency},
	)

	jwtManager := auth.NewJWTManager(cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTSigningKey)
	verifier := auth.NewIDTokenVerifier(cfg.IdentityIssuer, cfg.IdentityAudience, cfg.IdentityVerificationKey, cfg.IdentityJWKSURL)
	authService := auth.NewService(sessions, userService, jwtManager, verifier, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)

	deps := server.Dependencies{
		Store:              st.pinger,
		Cache:              cache,
		JWTManager:         jwtManager,
		Users:              userService,
		AuthHandler:        handlers.NewAuthHandler(authService, auth.CookieConfig{Domain: cfg.CookieDomain, Secure: cfg.CookieSecure}, cfg.JWTAccessTTL, cfg.JWTRefreshTTL, logger),
		UserHandler:        handlers.NewUserHandler(userService, logger),
		LoanHandler:        handlers.NewLoanHandler(loanService, logger),
		ApplicationHandler: handlers.NewApplicationHandler(appService, logger),
		PaymentHandler:     handlers.NewPaymentHandler(payments, appService, logger),
		WSHandler:          ws.NewHandler(hub, cfg.CORSAllowedOrigins),
		Metrics:            metrics,
	}
	if limiter != nil {
		deps.Limiter = limiter
	}

	if cfg.MinioEndpoint != "" {
		images, err := storage.NewMinioStore(startCtx, cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL, cfg.MinioPublicBase)
		if err != nil {
			return fmt.Errorf("object storage: %w", err)
		}
		deps.UploadHandler = handlers.NewUploadHandler(images, cfg.UploadMaxBytes, logger)
		logger.Info("object storage ready", "bucket", cfg.MinioBucket)
	} else {
		logger.Warn("MINIO_ENDPOINT not set; image uploads are disabled")
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           server.NewRouter(cfg, logger, deps),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return listen(cmd.Context(), httpServer, logger)
}

// listen serves until SIGINT/SIGTERM and then drains in-flight requests.
func listen(parent context.Context, httpServer *http.Server, logger *slog.Logger) error {
	sigCtx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(sigCtx)
	g.Go(func() error {
		logger.Info("api server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(ctx)
	})

	err := g.Wait()
	logger.Info("api server stopped")
	return err
}
