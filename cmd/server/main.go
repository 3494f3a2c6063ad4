// Command server runs the inbound-SMS webhook service: it loads
// configuration, connects the Redis profile store and SQLite audit log,
// loads the ZIP reference directory, builds the conversation engine, and
// serves the Gin router until interrupted.
//
// The two stateful dependencies degrade rather than gate startup: a missing
// Redis or audit database leaves the service answering webhooks with reduced
// functionality, and /health reports what is actually up. Only invalid
// configuration (including a missing clinic API key) prevents startup.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/clinicline/go-sms-backend/internal/clinics"
	"github.com/clinicline/go-sms-backend/internal/config"
	httpapi "github.com/clinicline/go-sms-backend/internal/http"
	"github.com/clinicline/go-sms-backend/internal/observability"
	"github.com/clinicline/go-sms-backend/internal/repo"
	"github.com/clinicline/go-sms-backend/internal/services"
	"github.com/clinicline/go-sms-backend/internal/store"
	"github.com/clinicline/go-sms-backend/internal/sysutil"
	"github.com/clinicline/go-sms-backend/internal/zipcode"
)

const version = "0.1.0"

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	gin.SetMode(cfg.GinMode)

	ctx := context.Background()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}

	// Redis profile store. A failed ping is logged, not fatal: the engine
	// degrades to stateless keyword replies until Redis comes back.
	var profiles *store.ProfileStore
	if opts, err := redis.ParseURL(cfg.RedisURL); err != nil {
		log.Error().Err(err).Msg("invalid REDIS_URL; running without profile store")
	} else {
		rdb := redis.NewClient(opts)
		profiles = store.New(rdb, cfg.ProfileTTL)
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if err := profiles.Ping(pingCtx); err != nil {
			log.Warn().Err(err).Msg("redis unreachable at startup; continuing degraded")
		}
		cancel()
	}

	// ZIP reference directory. Loading failure is survivable: region-gated
	// operations fail closed until the dataset is fixed and the service
	// restarted.
	directory, err := zipcode.LoadFile(cfg.ZipDataPath)
	if err != nil {
		log.Error().Err(err).Str("path", cfg.ZipDataPath).Msg("zip directory load failed")
	} else {
		log.Info().Int("entries", directory.Len()).Msg("zip directory loaded")
	}

	// SQLite audit log, best-effort.
	var audit *repo.AuditLog
	var auditDB *gorm.DB
	if db, err := repo.OpenSQLite(cfg.AuditDBPath); err != nil {
		log.Warn().Err(err).Str("path", cfg.AuditDBPath).Msg("audit database unavailable")
	} else if err := repo.AutoMigrate(db); err != nil {
		log.Warn().Err(err).Msg("audit migration failed")
	} else {
		audit = repo.NewAuditLog(db)
		auditDB = db
	}

	locator, err := clinics.New(clinics.Config{
		BaseURL:     cfg.ClinicAPI.BaseURL,
		APIKey:      cfg.ClinicAPI.APIKey,
		RadiusMiles: cfg.ClinicAPI.RadiusMiles,
		PageSize:    cfg.ClinicAPI.PageSize,
		Timeout:     cfg.ClinicAPI.Timeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("clinic client setup failed")
	}

	engine := &services.Engine{
		Directory:  directory,
		Locator:    locator,
		RegionCode: cfg.RegionCode,
		RegionName: cfg.RegionName,
	}
	app := httpapi.App{Engine: engine}
	if profiles != nil {
		engine.Store = profiles
		app.Dedupe = profiles
		app.PingStore = profiles.Ping
	}
	if audit != nil {
		engine.Audit = audit
		app.AuditDB = auditDB
	}

	r := gin.New()
	httpapi.RegisterRoutes(r, app, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("region", cfg.RegionCode).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("otel shutdown failed")
	}
	log.Info().Msg("server stopped")
}
