package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cinereview/backend/config"
	"github.com/cinereview/backend/internal/auth"
	"github.com/cinereview/backend/internal/cache"
	"github.com/cinereview/backend/internal/database"
	"github.com/cinereview/backend/internal/handlers"
	"github.com/cinereview/backend/internal/logger"
	"github.com/cinereview/backend/internal/metrics"
	"github.com/cinereview/backend/internal/middleware"
	"github.com/cinereview/backend/internal/moderation"
	"github.com/cinereview/backend/internal/moderator"
	"github.com/cinereview/backend/internal/repository"
	"github.com/cinereview/backend/internal/storage"
	"github.com/cinereview/backend/internal/websocket"
)

const automodUsername = "automod"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Environment: cfg.Server.Env,
		Level:       cfg.Log.Level,
		ServiceName: "cinereview-api",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("server stopped with error", zap.Error(err))
	}
	log.Info("server stopped")
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	// Own the data directory so reviewctl cannot rewrite it underneath us.
	dirLock, err := storage.LockDir(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("lock data directory: %w", err)
	}
	defer dirLock.Unlock()

	// Initialize repositories
	userRepo := repository.NewUserRepository(cfg.UsersFile())
	reportRepo := repository.NewReportRepository(cfg.ReportsFile())
	penaltyRepo := repository.NewPenaltyRepository(cfg.PenaltiesFile())
	ratingRepo := repository.NewRatingRepository(cfg.RatingsFile())
	movieRepo := repository.NewMovieRepository(cfg.MovieDataDir())
	reviewRepo := repository.NewReviewRepository(cfg.MovieDataDir())

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	hub := websocket.NewHub(log)
	opts := []moderation.Option{moderation.WithRecorder(m)}

	// Audit log (optional)
	var auditRepo *repository.ModerationLogRepository
	if cfg.AuditEnabled() {
		db, err := database.NewPostgresDB(ctx, cfg.GetDSN())
		if err != nil {
			return fmt.Errorf("connect audit database: %w", err)
		}
		defer db.Close()

		log.Info("running database migrations")
		if err := database.RunMigrations(ctx, db.DB, log); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		auditRepo = repository.NewModerationLogRepository(db)
		opts = append(opts, moderation.WithAuditLog(auditRepo))
	} else {
		log.Info("DB_HOST not set, moderation audit log disabled")
	}

	// Connect to Redis
	var shared middleware.DistributedLimiter
	redis, err := cache.NewRedisClient(ctx, cfg.GetRedisAddr(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Warn("failed to connect to redis, events stay in-process", zap.Error(err))
		redis = nil
		opts = append(opts, moderation.WithPublisher(hub))
	} else {
		defer redis.Close()
		shared = redis
		opts = append(opts, moderation.WithPublisher(redis))
	}

	engine := moderation.NewEngine(reportRepo, penaltyRepo, userRepo, log, opts...)

	// Repair anything an interrupted penalty left behind.
	res, err := engine.Reconcile(ctx, false)
	if err != nil {
		return fmt.Errorf("reconcile stores: %w", err)
	}
	if res.Changed() {
		log.Warn("stores reconciled at startup",
			zap.Strings("rolled_forward", res.RolledForward),
			zap.Int("users_rewritten", len(res.UsersRewritten)),
		)
	}

	botUser, err := userRepo.EnsureSystemUser(automodUsername)
	if err != nil {
		return fmt.Errorf("ensure %s user: %w", automodUsername, err)
	}
	screener := moderator.NewScreener(engine, botUser.UserID, log)

	// Initialize services
	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpiryHours)
	rateLimiter := middleware.NewRateLimiter(cfg.API.RateLimitRequestsPerSec, shared, log)
	rateLimiter.Cleanup(ctx, 5*time.Minute)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	routes := handlers.Routes{
		Auth:           handlers.NewAuthHandler(userRepo, jwtService, log),
		Reports:        handlers.NewReportHandler(engine, movieRepo, log),
		Dashboard:      handlers.NewDashboardHandler(userRepo, reportRepo, log),
		Movies:         handlers.NewMovieHandler(movieRepo, userRepo, log),
		Reviews:        handlers.NewReviewHandler(movieRepo, reviewRepo, ratingRepo, userRepo, screener, log),
		Ratings:        handlers.NewRatingHandler(movieRepo, ratingRepo, log),
		Feed:           websocket.NewHandler(hub, jwtService, cfg.CORS.AllowedOrigins),
		JWT:            jwtService,
		Limiter:        rateLimiter,
		Metrics:        m,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Log:            log,
	}
	if auditRepo != nil {
		routes.Audit = handlers.NewAuditHandler(auditRepo, log)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handlers.NewRouter(routes),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		screener.Run(gctx)
		return nil
	})
	if redis != nil {
		g.Go(func() error {
			if err := redis.RelayModerationEvents(gctx, log, hub.Deliver); err != nil {
				log.Error("moderation event relay stopped", zap.Error(err))
			}
			return nil
		})
	}

	g.Go(func() error {
		log.Info("starting server", zap.String("addr", srv.Addr), zap.String("env", cfg.Server.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("shutting down server")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
