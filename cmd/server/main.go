package main

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/civic-backend/internal/config"
	"github.com/ignatzorin/civic-backend/internal/db"
	"github.com/ignatzorin/civic-backend/internal/goroutine"
	httpHandlers "github.com/ignatzorin/civic-backend/internal/http/handlers"
	"github.com/ignatzorin/civic-backend/internal/http/middleware"
	httpRouter "github.com/ignatzorin/civic-backend/internal/http/router"
	"github.com/ignatzorin/civic-backend/internal/identity"
	"github.com/ignatzorin/civic-backend/internal/infrastructure/persistence"
	"github.com/ignatzorin/civic-backend/internal/interface/http/handler"
	"github.com/ignatzorin/civic-backend/internal/logger"
	"github.com/ignatzorin/civic-backend/internal/mapcluster"
	"github.com/ignatzorin/civic-backend/internal/storage"
	"github.com/ignatzorin/civic-backend/internal/usecase/complaint"
	"github.com/ignatzorin/civic-backend/internal/usecase/reward"
	"github.com/ignatzorin/civic-backend/internal/ws"
	"github.com/ignatzorin/civic-backend/migrations"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	logger.Init(cfg.LogLevel, cfg.Env)

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL, db.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLife,
	})
	if err != nil {
		logger.Log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, migrationsFS(cfg.MigrationsPath)); err != nil {
		logger.Log.Fatalf("main: ошибка миграций: %v", err)
	}

	photos, err := newObjectStorage(ctx, cfg)
	if err != nil {
		logger.Log.Fatalf("main: не удалось подготовить хранилище фото: %v", err)
	}

	redisClient, err := newRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		logger.Log.Fatalf("main: ошибка подключения к redis: %v", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	limiterStore, err := middleware.NewLimiterStore(redisClient)
	if err != nil {
		logger.Log.Fatalf("main: %v", err)
	}

	tokens := identity.NewTokenVerifier(cfg.JWTSecret)

	// Репозитории.
	complaintRepo := persistence.NewComplaintRepositoryAdapter(dbConn)
	rewardRepo := persistence.NewRewardRepositoryAdapter(dbConn)
	balanceRepo := persistence.NewBalanceRepositoryAdapter(dbConn)
	txManager := persistence.NewTxManager(dbConn)

	// Вебсокеты.
	hub := ws.NewHub()
	goroutine.SafeGoWithContext(ctx, hub.Run)

	// Сценарии.
	ledger := reward.NewLedger(rewardRepo, balanceRepo, txManager)

	complaintHandler := handler.NewComplaintHandler(
		complaint.NewSubmitComplaintUseCase(complaintRepo, photos),
		complaint.NewGetComplaintUseCase(complaintRepo),
		complaint.NewListMyComplaintsUseCase(complaintRepo),
		cfg.MaxUploadSizeMB*1024*1024,
		cfg.MaxPhotoMegapixels*1_000_000,
		cfg.CaptureTimeout,
	)
	adminHandler := handler.NewAdminHandler(
		complaint.NewListComplaintsUseCase(complaintRepo),
		complaint.NewDashboardStatsUseCase(complaintRepo),
		complaint.NewTransitionStatusUseCase(complaintRepo, ledger, txManager, hub),
		complaint.NewSetUrgencyUseCase(complaintRepo),
		complaint.NewSetAdminNotesUseCase(complaintRepo),
	)
	rewardHandler := handler.NewRewardHandler(ledger)
	mapHandler := handler.NewMapHandler(complaint.NewMapViewUseCase(complaintRepo, mapcluster.GujaratBounds))

	healthHandler := httpHandlers.NewHealthHandler(dbConn)
	wsHandler := httpHandlers.NewWSHandler(hub, tokens, cfg.AllowedOrigins)

	// Роутер.
	engine := httpRouter.SetupRouter(cfg, tokens, limiterStore, healthHandler, wsHandler,
		complaintHandler, adminHandler, rewardHandler, mapHandler)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Завершаем сервер при получении сигнала.
	goroutine.SafeGo(func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Log.WithFields(logrus.Fields{"error": err.Error()}).Error("main: ошибка остановки http сервера")
		}
	})

	logger.Log.WithFields(logrus.Fields{
		"port":    cfg.HTTPPort,
		"storage": cfg.StorageDriver,
		"redis":   redisClient != nil,
	}).Info("main: HTTP сервер запущен")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// migrationsFS отдаёт каталог MIGRATIONS_PATH, если он задан, иначе встроенную схему.
func migrationsFS(path string) fs.FS {
	if path != "" {
		return os.DirFS(path)
	}
	return migrations.FS
}

func newObjectStorage(ctx context.Context, cfg *config.Config) (storage.ObjectStorage, error) {
	if cfg.StorageDriver == config.StorageDriverS3 {
		return storage.NewS3Storage(ctx, storage.S3Config{
			Endpoint:        cfg.S3.Endpoint,
			Region:          cfg.S3.Region,
			Bucket:          cfg.S3.Bucket,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			PublicBaseURL:   cfg.S3.PublicBaseURL,
		})
	}
	return storage.NewLocalStorage(cfg.MediaStoragePath, cfg.PublicMediaURL, cfg.MaxUploadSizeMB)
}

// newRedisClient возвращает nil, если REDIS_URL не задан.
func newRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	if redisURL == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		logger.Log.WithFields(logrus.Fields{"error": err.Error()}).Error("main: ошибка закрытия базы")
	}
}
