// Package main provides the entry point for the ShortLink URL shortener service.
//
//	@title			ShortLink API
//	@version		1.0.0
//	@description	URL shortener with click analytics, Telegram click notifications and admin log export.
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host		localhost:8080
//	@BasePath	/
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT Authorization header. Format: "Bearer {token}"
package main

import (
	"ShortLink-Backend/internal/analytics"
	"ShortLink-Backend/internal/auth"
	"ShortLink-Backend/internal/config"
	"ShortLink-Backend/internal/database"
	httpHandler "ShortLink-Backend/internal/handler/http"
	"ShortLink-Backend/internal/notify"
	"ShortLink-Backend/internal/repository"
	"ShortLink-Backend/internal/repository/memory"
	"ShortLink-Backend/internal/repository/postgres"
	"ShortLink-Backend/internal/service"
	"ShortLink-Backend/pkg/logger"
	"ShortLink-Backend/pkg/useragent"
	"context"
	"errors"
	lg "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "ShortLink-Backend/docs" // Import swagger docs
	_ "time/tzdata"
)

func main() {
	cfg := config.MustLoad()
	log := logger.New(cfg.Env)
	defer func() {
		if err := log.Sync(); err != nil {
			lg.Printf("ERROR: failed to sync zap logger: %v\n", err)
		}
	}()

	log.Info("starting ShortLink service", zap.String("env", cfg.Env), zap.String("storage", cfg.Storage.Driver))

	storage, db := openStorage(cfg, log)
	if db != nil {
		defer func() {
			if err := database.Close(db, log); err != nil {
				log.Error("failed to close database connection", zap.Error(err))
			}
		}()
	}

	// Retention of click logs
	janitor := repository.NewJanitor(storage, cfg.ClickLog.TTL(), cfg.ClickLog.SweepInterval, log)
	janitor.Start()

	// Initialize User-Agent parser
	uaParser, err := useragent.NewParser(cfg.UserAgent.RegexesPath, log)
	if err != nil {
		log.Warn("failed to load User-Agent regexes, using bundled definitions", zap.Error(err))
		uaParser, _ = useragent.NewParser("", log)
	}

	// Background click processing
	tracker := analytics.NewTracker(cfg.URLShortener.TaskTimeout, log)
	telegram := notify.NewTelegramNotifier(cfg.Telegram, log)
	if !telegram.Enabled() {
		log.Info("telegram notifications disabled: bot token or chat id not set")
	}
	recorder := analytics.NewClickRecorder(storage, telegram, notify.NewFormatter(cfg.Telegram.TimeZone), log)

	jwtService := auth.NewJWTService(&auth.JWTConfig{
		SecretKey:     []byte(cfg.Auth.JWTSecret),
		TokenDuration: cfg.Auth.TokenTTL,
		Issuer:        cfg.Auth.Issuer,
	})

	server := httpHandler.NewServer(httpHandler.Dependencies{
		Storage:   storage,
		Shortener: service.NewURLShortener(storage, &cfg.URLShortener, uaParser, log),
		Resolver:  service.NewResolver(storage),
		Admin:     service.NewAdminService(storage),
		Recorder:  recorder,
		Tracker:   tracker,
		JWT:       jwtService,
		Passwords: auth.NewPasswordService(cfg.Auth.BcryptCost),
		Config:    cfg,
		Log:       log,
	})

	httpServer := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      server.SetupRoutes(),
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("address", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down ShortLink service...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTPServer.ShutdownTimeout)
	defer shutdownCancel()

	// сначала перестаем принимать запросы, потом дожидаемся фоновых задач
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to shutdown HTTP server", zap.Error(err))
	} else {
		log.Info("HTTP server stopped")
	}

	if err := tracker.Shutdown(shutdownCtx); err != nil {
		log.Warn("background tasks did not finish in time", zap.Error(err))
	}

	janitor.Stop()
	log.Info("service stopped")
}

// openStorage returns the configured storage backend. db is nil for the memory driver.
func openStorage(cfg *config.Config, log *zap.Logger) (repository.Storage, *gorm.DB) {
	switch cfg.Storage.Driver {
	case "memory":
		log.Warn("using in-memory storage, data is lost on restart")
		return memory.New(), nil
	case "postgres", "":
	default:
		log.Fatal("unknown storage driver", zap.String("driver", cfg.Storage.Driver))
	}

	db, err := database.NewConnection(&cfg.Database, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run database migrations if enabled
	if cfg.Database.AutoMigrate {
		log.Info("running database migrations (auto_migrate: true)")
		if err := database.AutoMigrate(db, log); err != nil {
			log.Fatal("failed to run database migrations", zap.Error(err))
		}
	} else {
		log.Info("skipping database migrations (auto_migrate: false)")
	}

	return postgres.New(db, log), db
}
