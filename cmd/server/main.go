package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/example/ride-hail/internal/config"
	"github.com/example/ride-hail/internal/dispatch"
	"github.com/example/ride-hail/internal/geo"
	"github.com/example/ride-hail/internal/geocode"
	httpapi "github.com/example/ride-hail/internal/http"
	"github.com/example/ride-hail/internal/ingest"
	"github.com/example/ride-hail/internal/logging"
	"github.com/example/ride-hail/internal/payments"
	"github.com/example/ride-hail/internal/presence"
	"github.com/example/ride-hail/internal/ride"
	"github.com/example/ride-hail/internal/storage"
)

func main() {
	cfg, err := config.LoadServerConfig()
	logger := logging.NewLogger(cfg.LogLevel, "ride-hail-api")
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	var index geo.Index
	if cfg.RedisAddr != "" {
		rc := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		index = geo.NewRedisIndex(rc, cfg.RedisGeoKey)
	} else {
		index = geo.NewMemoryIndex()
	}

	var rideStore storage.RideStore
	var partyStore storage.PartyStore
	if cfg.PGDSN != "" {
		if cfg.RunMigrations {
			runMigrations(logger, cfg.PGDSN)
		}
		ps, err := storage.NewPostgresStore(cfg.PGDSN)
		if err != nil {
			logger.Error("postgres unavailable", "error", err)
			os.Exit(1)
		}
		rideStore, partyStore = ps, ps
	} else {
		mem := storage.NewMemoryStore()
		rideStore, partyStore = mem, mem
		logger.Warn("no PG_DSN set, using in-memory store")
	}

	var producer *ingest.KafkaProducer
	if len(cfg.KafkaBrokers) > 0 {
		producer = ingest.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer producer.Close()
	}

	resolver := geocode.NewCachedResolver(
		geocode.NewClient(cfg.GeocodeEndpoint, cfg.GeocodeUserAgent, cfg.GeocodeTimeout),
		cfg.GeocodeCacheTTL, cfg.GeocodeCacheSize)

	registry := presence.NewRegistry()
	notifier := dispatch.NewNotifier(index, resolver, registry, logger)
	notifier.RadiusKm = cfg.DispatchRadiusKm

	rides := ride.NewService(rideStore, partyStore, resolver, notifier, logger)
	rides.OTPLength = cfg.OTPLength

	var provider payments.Provider
	switch {
	case cfg.RazorpayKeyID != "":
		rz, err := payments.NewRazorpayClient("", cfg.RazorpayKeyID, cfg.RazorpayKeySecret)
		if err != nil {
			logger.Error("razorpay misconfigured", "error", err)
			os.Exit(1)
		}
		provider = rz
	case cfg.StripeAPIKey != "":
		provider = payments.NewStripeProvider(cfg.StripeAPIKey)
	default:
		logger.Warn("no payment provider configured")
	}

	srv := httpapi.NewServer(httpapi.Deps{
		Rides:     rides,
		Parties:   partyStore,
		Store:     rideStore,
		Resolver:  resolver,
		Payments:  provider,
		Presence:  registry,
		Geo:       index,
		Kafka:     producer,
		Logger:    logger,
		JWTSecret: cfg.JWTSecret,
	})

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      srv,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("listening", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

func runMigrations(logger *slog.Logger, dsn string) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		logger.Error("migration db open error", "error", err)
		return
	}
	defer db.Close()
	b, err := os.ReadFile(filepath.Join("migrations", "001_create_rides.sql"))
	if err != nil {
		logger.Error("migration read error", "error", err)
		return
	}
	if _, err := db.Exec(string(b)); err != nil {
		logger.Error("migration exec error", "error", err)
	}
}
