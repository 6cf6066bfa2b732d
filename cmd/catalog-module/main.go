// main.go — точка входа Catalog Module.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/stdlib"

	"github.com/bigkaa/goartstore/catalog-module/internal/api/handlers"
	"github.com/bigkaa/goartstore/catalog-module/internal/api/middleware"
	"github.com/bigkaa/goartstore/catalog-module/internal/api/openapi"
	"github.com/bigkaa/goartstore/catalog-module/internal/config"
	"github.com/bigkaa/goartstore/catalog-module/internal/database"
	"github.com/bigkaa/goartstore/catalog-module/internal/repository"
	"github.com/bigkaa/goartstore/catalog-module/internal/server"
	"github.com/bigkaa/goartstore/catalog-module/internal/service"
	"github.com/bigkaa/goartstore/catalog-module/internal/storage/filestore"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("Catalog Module запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.Bool("jwks_mode", cfg.JWKSMode()),
	)

	if os.Getenv("CM_DEPHEALTH_GROUP") == "" {
		logger.Warn("CM_DEPHEALTH_GROUP не задана, используется значение по умолчанию",
			slog.String("default", cfg.DephealthGroup),
		)
	}

	// 3. Применение миграций БД
	logger.Info("Применение миграций БД...")
	if err := database.Migrate(cfg, logger); err != nil {
		logger.Error("Ошибка миграций БД", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Подключение к PostgreSQL (pgxpool)
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	// 4.1 Адаптер pgxpool → *sql.DB для topologymetrics.
	pgDB := stdlib.OpenDBFromPool(pool)
	defer pgDB.Close()

	// 5. Хранилище загруженных файлов
	store, err := filestore.New(cfg.UploadDir)
	if err != nil {
		logger.Error("Ошибка инициализации хранилища файлов",
			slog.String("dir", cfg.UploadDir),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}
	logger.Info("Хранилище файлов готово", slog.String("dir", store.Dir()))

	// 6. Repositories
	fileRepo := repository.NewFileRepository(pool)
	userRepo := repository.NewUserRepository(pool)

	// 7. Services
	fileSvc := service.NewFileService(fileRepo, store, service.FileServiceConfig{
		DefaultPageLimit: cfg.DefaultPageLimit,
		MaxPageLimit:     cfg.MaxPageLimit,
	}, logger)

	// В режиме JWKS токены выпускает внешний провайдер, login отвечает 501.
	var issuer *service.TokenIssuer
	if !cfg.JWKSMode() {
		issuer = service.NewTokenIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL)
	}
	authSvc := service.NewAuthService(userRepo, service.NewPasswordHasher(cfg.BcryptCost), issuer, logger)

	// 8. JWT middleware
	jwtAuth, err := middleware.NewJWTAuth(middleware.JWTAuthConfig{
		Secret:              cfg.JWTSecret,
		JWKSURL:             cfg.JWKSURL,
		Issuer:              cfg.JWTIssuer,
		Leeway:              cfg.JWTLeeway,
		JWKSClientTimeout:   cfg.JWKSClientTimeout,
		JWKSRefreshInterval: cfg.JWKSRefreshInterval,
	}, logger)
	if err != nil {
		logger.Error("Ошибка создания JWT middleware", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 9. Readiness checkers (PostgreSQL + JWKS в режиме RS256)
	var jwksChecker handlers.ReadinessChecker
	if cfg.JWKSMode() {
		jwksChecker = middleware.NewJWKSReadinessChecker(cfg.JWKSURL, cfg.JWKSClientTimeout)
	}
	healthHandler := handlers.NewHealthHandler(database.NewReadinessChecker(pool), jwksChecker)

	// 10. OpenAPI-документ
	spec, err := openapi.LoadSpec(ctx)
	if err != nil {
		logger.Error("Ошибка загрузки OpenAPI-документа", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 11. API handler (реализует openapi.ServerInterface)
	apiHandler := handlers.NewAPIHandler(fileSvc, authSvc, healthHandler, spec, cfg.MaxUploadSize, logger)

	// 12. topologymetrics — мониторинг PostgreSQL
	dephealthSvc, dephealthErr := service.NewDephealthService(service.DephealthConfig{
		ServiceID:     "catalog-module",
		Group:         cfg.DephealthGroup,
		PgURL:         cfg.DatabaseURL(),
		CheckInterval: cfg.DephealthCheckInterval,
	}, pgDB, logger)
	if dephealthErr != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", dephealthErr.Error()),
		)
		dephealthSvc = nil
	} else if startErr := dephealthSvc.Start(ctx); startErr != nil {
		logger.Warn("Ошибка запуска topologymetrics", slog.String("error", startErr.Error()))
		dephealthSvc = nil
	}

	// 13. HTTP-сервер: метрики, логирование, JWT вне публичных путей
	srv := server.New(cfg, logger, apiHandler,
		middleware.MetricsMiddleware(),
		middleware.RequestLogger(logger),
		server.JWTAuthWithExclusions(jwtAuth.Middleware(), server.PublicPrefixes...),
	)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 14. Остановка фоновых задач
	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}

	logger.Info("Catalog Module остановлен")
}
