package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/uniform-portal/internal/backend"
	"github.com/ignatzorin/uniform-portal/internal/config"
	"github.com/ignatzorin/uniform-portal/internal/db"
	"github.com/ignatzorin/uniform-portal/internal/goroutine"
	httpHandlers "github.com/ignatzorin/uniform-portal/internal/http/handlers"
	httpRouter "github.com/ignatzorin/uniform-portal/internal/http/router"
	"github.com/ignatzorin/uniform-portal/internal/logger"
	"github.com/ignatzorin/uniform-portal/internal/paymentctx"
	"github.com/ignatzorin/uniform-portal/internal/service/evidence"
	"github.com/ignatzorin/uniform-portal/internal/service/workspace"
	"github.com/ignatzorin/uniform-portal/internal/session"
	"github.com/ignatzorin/uniform-portal/internal/upload"
	"github.com/ignatzorin/uniform-portal/internal/ws"
)

const (
	workspaceEvictInterval = 5 * time.Minute
	paymentPurgeInterval   = 10 * time.Minute
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	// Инициализация логгера
	logLevel := "info"
	if cfg.Env == "development" {
		logLevel = "debug"
		logger.Init(logLevel)
		logger.SetTextFormatter()
	} else {
		logger.Init(logLevel)
	}

	// База нужна только для хранения контекста оплаты.
	var dbConn *sqlx.DB
	var payments paymentctx.Store
	switch cfg.PaymentStore {
	case config.PaymentStorePostgres:
		dbConn, err = db.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("main: ошибка подключения к базе: %v", err)
		}
		defer safeClose(dbConn)

		migrations, err := db.Migrations(cfg.MigrationsPath)
		if err != nil {
			log.Fatalf("main: ошибка чтения миграций: %v", err)
		}
		if err := db.RunMigrations(ctx, dbConn, migrations); err != nil {
			log.Fatalf("main: ошибка миграций: %v", err)
		}
		payments = paymentctx.NewPostgresStore(dbConn, cfg.PaymentContextTTL)
	default:
		payments = paymentctx.NewMemoryStore(cfg.PaymentContextTTL)
	}

	uploader, err := newUploader(ctx, cfg)
	if err != nil {
		log.Fatalf("main: ошибка инициализации загрузки файлов: %v", err)
	}
	if closer, ok := uploader.(io.Closer); ok {
		defer func() {
			if err := closer.Close(); err != nil {
				log.Printf("main: ошибка закрытия провайдера загрузки: %v", err)
			}
		}()
	}

	sessions := session.NewManager(cfg.JWTSecret)
	api := backend.NewClient(cfg.BackendBaseURL, cfg.BackendTimeout)

	// Вебсокеты.
	hub := ws.NewHub(ctx)
	goroutine.SafeGo(hub.Run)

	workspaces := workspace.NewRegistry(workspace.Deps{
		API:      api,
		Uploader: uploader,
		Payments: payments,
		Notifier: ws.NewNotifier(hub),
		Limits: evidence.Limits{
			MaxImageBytes: cfg.MaxImageBytes(),
			MaxVideoBytes: cfg.MaxVideoBytes(),
		},
		ReturnPath: cfg.PaymentReturnPath,
	}, cfg.WorkspaceIdleTTL)
	goroutine.SafeGoWithContext(ctx, func(ctx context.Context) {
		workspaces.Run(ctx, workspaceEvictInterval)
	})
	goroutine.SafeGoWithContext(ctx, func(ctx context.Context) {
		purgePayments(ctx, payments, paymentPurgeInterval)
	})

	// HTTP хэндлеры.
	adminHandler := httpHandlers.NewAdminHandler(workspaces)
	designerHandler := httpHandlers.NewDesignerHandler(workspaces)
	schoolHandler := httpHandlers.NewSchoolHandler(workspaces)
	wsHandler := httpHandlers.NewWSHandler(hub, sessions, cfg.AllowedOrigins, cfg.LoginPath)
	healthHandler := httpHandlers.NewHealthHandler(dbConn)

	// Роутер.
	engine := httpRouter.SetupRouter(cfg, sessions, adminHandler, designerHandler, schoolHandler, wsHandler, healthHandler)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: ошибка остановки http сервера: %v", err)
		}
	}()

	logger.L().WithField("port", cfg.HTTPPort).WithField("payment_store", cfg.PaymentStore).Info("main: сервер запущен")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("main: ошибка http сервера: %v", err)
	}
}

// newUploader выбирает провайдера загрузки доказательств по конфигурации.
func newUploader(ctx context.Context, cfg *config.Config) (upload.Provider, error) {
	if cfg.UploadProvider == config.UploadProviderGCS {
		return upload.NewGCSProvider(ctx, cfg.GCSBucket, cfg.GCSCredentialsFile)
	}
	return upload.NewHTTPProvider(cfg.UploadBaseURL, cfg.UploadPreset), nil
}

// purgePayments периодически удаляет просроченные контексты оплаты.
func purgePayments(ctx context.Context, store paymentctx.Store, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.Purge(ctx)
			if err != nil {
				logger.L().WithError(err).Warn("main: не удалось удалить просроченные контексты оплаты")
				continue
			}
			if n > 0 {
				logger.L().WithField("purged", n).Debug("main: просроченные контексты оплаты удалены")
			}
		}
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: ошибка закрытия базы: %v", err)
	}
}
