package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ivankudzin/adconsole/internal/config"
	s3infra "github.com/ivankudzin/adconsole/internal/infra/s3"
	"github.com/ivankudzin/adconsole/internal/jobs/cleanup"
	pgrepo "github.com/ivankudzin/adconsole/internal/repo/postgres"
	redrepo "github.com/ivankudzin/adconsole/internal/repo/redis"
	adssvc "github.com/ivankudzin/adconsole/internal/services/ads"
	assetssvc "github.com/ivankudzin/adconsole/internal/services/assets"
	authsvc "github.com/ivankudzin/adconsole/internal/services/auth"
	"github.com/ivankudzin/adconsole/internal/services/idcodec"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	s3         *minio.Client
	sweepJob   *cleanup.Job
	httpRouter http.Handler
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	codec, err := idcodec.New(cfg.Links.TokenKey)
	if err != nil {
		return nil, fmt.Errorf("init id codec: %w", err)
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)

	var pool *pgxpool.Pool
	if p, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN); err != nil {
		log.Warn("postgres init failed, continuing in degraded mode", zap.Error(err))
	} else {
		pool = p
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	opLockRepo := redrepo.NewOpLockRepo(redisClient, cfg.Links.OpLockTTL)
	adRepo := pgrepo.NewAdRepo(pool)
	eventRepo := pgrepo.NewModerationEventRepo(pool)

	var s3Client *minio.Client
	if c, err := s3infra.NewClient(s3infra.Config{
		Endpoint:  cfg.S3.Endpoint,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		UseSSL:    cfg.S3.UseSSL,
	}); err != nil {
		log.Warn("s3 init failed, continuing in degraded mode", zap.Error(err))
	} else {
		s3Client = c
	}

	assetStorage := assetssvc.NewS3Storage(s3Client, cfg.S3.Bucket, cfg.S3.PublicURL)
	assetService := assetssvc.NewService(assetStorage)
	adsService := adssvc.NewService(adRepo, assetService, opLockRepo, eventRepo)
	jwtManager := authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTAccessTTL)
	sweepJob := cleanup.NewOrphanSweepJob(adRepo, assetStorage, cfg.Cleanup.Retention, log)

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	RegisterRoutes(r, Dependencies{
		AdsService: adsService,
		IDCodec:    codec,
		JWTManager: jwtManager,
		Logger:     log,
		Config:     cfg,
	})

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		s3:         s3Client,
		sweepJob:   sweepJob,
		httpRouter: r,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))

	go a.runSweepLoop(ctx)

	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) runSweepLoop(ctx context.Context) {
	if a.sweepJob == nil || a.postgres == nil || a.s3 == nil {
		return
	}

	interval := a.cfg.Cleanup.Interval
	if interval <= 0 {
		interval = 6 * time.Hour
	}

	if err := a.sweepJob.Run(ctx); err != nil {
		a.logger.Warn("orphan asset sweep failed", zap.Error(err))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := a.sweepJob.Run(ctx); err != nil {
				a.logger.Warn("orphan asset sweep failed", zap.Error(err))
			}
		}
	}
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
